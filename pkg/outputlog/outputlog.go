package outputlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
	emptyField      = "-"
)

// Chunk is one completed line of one stream
type Chunk struct {
	Stream    string
	Types     string
	Timestamp time.Time // UTC timestamp
	Line      []byte    // The line content (usually includes the row terminator)
	Error     error
}

// FormatChunk formats a Chunk into the log format
func FormatChunk(chunk Chunk) []byte {
	timestamp := chunk.Timestamp.UTC().Format(timestampLayout)
	start := fmt.Appendf(nil, "%s %s %s %d: ", encodeField(chunk.Stream), timestamp, encodeField(chunk.Types), len(chunk.Line))
	result := append(start, chunk.Line...)
	return append(result, '\n')
}

// encodeField makes s a single space-free token. Names that would be
// ambiguous are quoted with spaces escaped as \x20.
func encodeField(s string) string {
	if s == "" {
		return emptyField
	}
	if s == emptyField || strings.HasPrefix(s, `"`) || strings.ContainsFunc(s, needsEscape) {
		return strings.ReplaceAll(strconv.Quote(s), " ", `\x20`)
	}
	return s
}

func needsEscape(r rune) bool {
	return unicode.IsSpace(r) || !unicode.IsPrint(r)
}

func decodeField(s string) (string, error) {
	switch {
	case s == emptyField:
		return "", nil
	case strings.HasPrefix(s, `"`):
		return strconv.Unquote(s)
	default:
		return s, nil
	}
}
