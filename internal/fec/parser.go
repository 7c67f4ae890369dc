// Package fec reads an FEC filing line by line and routes every record to the
// writer stream named after its form type.
package fec

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"fastfec/pkg/encoding"
	"fastfec/pkg/writer"
)

const (
	// HeaderStream receives the filing header
	HeaderStream = "header"
	// TextStream receives the free text of [BEGINTEXT] ... [ENDTEXT] blocks
	TextStream = "F99_text"
	// UnknownForm names the stream of records without a form type
	UnknownForm = "unknown"
)

var ErrEmptyFiling = errors.New("fec: no data to parse")

var (
	textStart = regexp.MustCompile(`(?i)^\s*\[BEGIN ?TEXT\]\s*$`)
	textEnd   = regexp.MustCompile(`(?i)^\s*\[END ?TEXT\]\s*$`)
)

type parser struct {
	fc     *Context
	reader *bufio.Reader
	w      *writer.Writer
}

// Parse converts the filing read from r and writes its records to w. It does
// not flush w.
func Parse(ctx context.Context, fc *Context, r io.Reader, w *writer.Writer) error {
	p := &parser{
		fc:     fc,
		reader: bufio.NewReader(r),
		w:      w,
	}
	defer func() { fc.Stats.Streams = len(w.Streams()) }()

	header, ok, err := p.next()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEmptyFiling
	}
	if err := p.parseHeader(header); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok, err := p.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := p.parseLine(line); err != nil {
			return err
		}
	}
}

// next returns the next line, decoded, without its line terminator
func (p *parser) next() (string, bool, error) {
	raw, err := p.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("failed to read line %d: %w", p.fc.Stats.Lines+1, err)
	}
	if len(raw) == 0 {
		return "", false, nil
	}
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	p.fc.Stats.Lines++

	text, info := encoding.DecodeLine(raw)
	if !info.ValidUTF8 {
		p.fc.Stats.Latin1Lines++
	}
	if p.fc.Stats.Lines == 1 {
		p.fc.UseSeparator = info.HasSeparator
	}
	return text, true, nil
}

func (p *parser) parseHeader(line string) error {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/*") {
		return p.parseLegacyHeader()
	}

	fields := p.split(trimmed)
	if len(fields) >= 3 && strings.EqualFold(fields[1], "FEC") {
		p.fc.Version = fields[2]
	}
	p.fc.Logger.Debug("Parsed header", "filing", p.fc.FilingID, "version", p.fc.Version, "separator", p.fc.UseSeparator)
	return p.write(HeaderStream, fields)
}

// parseLegacyHeader reads "key = value" lines up to the closing "/*" line
func (p *parser) parseLegacyHeader() error {
	p.fc.LegacyHeader = make(map[string]string)
	for {
		line, ok, err := p.next()
		if err != nil {
			return err
		}
		trimmed := strings.TrimSpace(line)
		if !ok || strings.HasPrefix(trimmed, "/*") {
			break
		}
		key, value, found := strings.Cut(trimmed, "=")
		if !found {
			p.fc.warnf("Ignoring legacy header line", "filing", p.fc.FilingID, "line", p.fc.Stats.Lines)
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		p.fc.LegacyHeader[key] = value
		if p.fc.Version == "" && strings.Contains(strings.ToLower(key), "ver") {
			p.fc.Version = value
		}
		if err := p.write(HeaderStream, []string{key, value}); err != nil {
			return err
		}
	}
	p.fc.Logger.Debug("Parsed legacy header", "filing", p.fc.FilingID, "version", p.fc.Version)
	return nil
}

func (p *parser) parseLine(line string) error {
	if textStart.MatchString(line) {
		return p.parseText()
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		p.fc.Stats.SkippedLines++
		return nil
	}

	fields := p.split(trimmed)
	form := strings.TrimSpace(fields[0])
	if form == "" {
		form = UnknownForm
	}
	if err := p.write(form, fields); err != nil {
		return err
	}
	p.fc.Stats.Records++
	return nil
}

// parseText collects the lines of a text block in the writer's local mode
// and writes them as a single field
func (p *parser) parseText() error {
	start := p.fc.Stats.Lines
	p.fc.warnf("F99 text start encountered", "filing", p.fc.FilingID, "line", start)

	p.w.StartLocal()
	terminated := false
	for {
		line, ok, err := p.next()
		if err != nil {
			p.w.EndLocal()
			return err
		}
		if !ok {
			break
		}
		if textEnd.MatchString(line) {
			terminated = true
			break
		}
		if err := p.w.WriteString(TextStream, "txt", line+"\n"); err != nil {
			p.w.EndLocal()
			return err
		}
	}
	text := strings.TrimSuffix(p.w.EndLocal(), "\n")

	if !terminated {
		p.fc.Logger.Warn("Unterminated F99 text block", "filing", p.fc.FilingID, "line", start)
	}
	p.fc.Stats.TextBlocks++
	return p.write(TextStream, []string{text})
}

// write sends one record to a stream and completes the line
func (p *parser) write(stream string, fields []string) error {
	if p.fc.IncludeFilingID {
		fields = append([]string{p.fc.FilingID}, fields...)
	}
	// Written as text so the line sink sees the completed row.
	if err := p.w.WriteString(stream, writer.CSVExtension, writer.FormatRecord(fields)); err != nil {
		return fmt.Errorf("failed to write line %d: %w", p.fc.Stats.Lines, err)
	}
	if err := p.w.EndLine(strings.Repeat("s", len(fields))); err != nil {
		return fmt.Errorf("failed to end line %d: %w", p.fc.Stats.Lines, err)
	}
	return nil
}

// split breaks a line into fields using the delimiter chosen by the header
func (p *parser) split(line string) []string {
	if p.fc.UseSeparator {
		fields := strings.Split(line, string(encoding.Separator))
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}

	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		p.fc.warnf("Falling back to plain comma split", "filing", p.fc.FilingID, "line", p.fc.Stats.Lines, "error", err)
		return strings.Split(line, ",")
	}
	return fields
}
