package outputlog

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// LineLog writes completed lines to an io.Writer. It is safe for concurrent
// use, so one log can serve the writers of several filings.
type LineLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLineLog creates a LineLog writing to w
func NewLineLog(w io.Writer) *LineLog {
	return &LineLog{
		w:   w,
		now: time.Now,
	}
}

// Sink appends one line; empty lines are skipped. Its signature matches
// writer.LineSink.
func (l *LineLog) Sink(stream, line, types string) error {
	if line == "" {
		return nil
	}
	chunk := Chunk{
		Stream:    stream,
		Types:     types,
		Timestamp: l.now().UTC(),
		Line:      []byte(line),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(FormatChunk(chunk)); err != nil {
		return fmt.Errorf("write line log: %w", err)
	}
	return nil
}
