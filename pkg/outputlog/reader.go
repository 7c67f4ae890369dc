package outputlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader parses a line log
type Reader struct {
	reader *bufio.Reader
}

// NewReader creates a Reader on r
func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Channel returns a channel which emits Chunks. A chunk with a non-nil Error
// is the last one sent.
func (r *Reader) Channel() <-chan Chunk {
	channel := make(chan Chunk)
	go func() {
		defer close(channel)
		for {
			chunk, eof := readToChunk(r.reader)
			if eof && chunk.Error == nil {
				return
			}
			channel <- chunk
			if eof {
				return
			}
		}
	}()
	return channel
}

// All returns the content of every stream, concatenated in log order.
func (r *Reader) All() (map[string][]byte, error) {
	result := make(map[string][]byte)
	for chunk := range r.Channel() {
		if chunk.Error != nil {
			return result, chunk.Error
		}
		result[chunk.Stream] = append(result[chunk.Stream], chunk.Line...)
	}
	return result, nil
}

// readToChunk reads one entry. eof is true when no further entry can be read.
func readToChunk(reader *bufio.Reader) (Chunk, bool) {
	var chunk Chunk

	readUntil := func(delim byte) (string, error) {
		s, err := reader.ReadString(delim)
		if err != nil {
			return s, err
		}
		return s[:len(s)-1], nil
	}

	stream, err := readUntil(' ')
	if err != nil {
		if err == io.EOF && stream == "" {
			return chunk, true
		}
		chunk.Error = fmt.Errorf("reading stream: %w", err)
		return chunk, true
	}
	if chunk.Stream, err = decodeField(stream); err != nil {
		chunk.Error = fmt.Errorf("parsing stream %s: %w", stream, err)
		return chunk, true
	}

	timestampStr, err := readUntil(' ')
	if err != nil {
		chunk.Error = fmt.Errorf("reading timestamp: %w", err)
		return chunk, true
	}
	timestamp, err := time.Parse(timestampLayout, timestampStr)
	if err != nil {
		chunk.Error = fmt.Errorf("parsing timestamp: %w", err)
		return chunk, true
	}
	chunk.Timestamp = timestamp

	types, err := readUntil(' ')
	if err != nil {
		chunk.Error = fmt.Errorf("reading types: %w", err)
		return chunk, true
	}
	if chunk.Types, err = decodeField(types); err != nil {
		chunk.Error = fmt.Errorf("parsing types %s: %w", types, err)
		return chunk, true
	}

	lengthStr, err := readUntil(':')
	if err != nil {
		chunk.Error = fmt.Errorf("reading length: %w", err)
		return chunk, true
	}
	length, err := strconv.Atoi(lengthStr)
	if err != nil || length < 0 {
		chunk.Error = fmt.Errorf("parsing length %q", lengthStr)
		return chunk, true
	}

	if b, err := reader.ReadByte(); err != nil || b != ' ' {
		chunk.Error = fmt.Errorf("expected space after colon")
		return chunk, true
	}

	chunk.Line = make([]byte, length)
	if _, err := io.ReadFull(reader, chunk.Line); err != nil {
		chunk.Error = fmt.Errorf("reading content (%d bytes): %w", length, err)
		return chunk, true
	}

	b, err := reader.ReadByte()
	if err != nil {
		chunk.Error = fmt.Errorf("reading final newline: %w", err)
		return chunk, true
	}
	if b != '\n' {
		chunk.Error = fmt.Errorf("expected newline separator, got %q", b)
		return chunk, true
	}

	return chunk, false
}
