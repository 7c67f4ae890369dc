// Package writer buffers output for many named streams.
//
// Every stream (a name plus an extension, for example a form type and "csv")
// gets its own fixed-size buffer. When a write does not fit, the part that
// fits is committed, the buffer is flushed to the configured sinks and the
// rest is written again, so memory per stream stays bounded and bytes reach
// the sinks in write order. Sinks are a file on disk, a ByteSink callback,
// or both. A LineSink additionally receives every completed line.
//
// A Writer is not safe for concurrent use.
package writer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBufferSize is the per-stream buffer capacity used by the CLI
const DefaultBufferSize = 4096

var (
	// ErrInvalidBufferSize is returned by New for a buffer size below one.
	ErrInvalidBufferSize = errors.New("writer: buffer size must be positive")
	// ErrClosed is returned by every write or flush after Close.
	ErrClosed = errors.New("writer: closed")
)

// Key identifies one output stream. Keys compare by exact value.
type Key struct {
	Name string
	Ext  string
}

func (k Key) String() string {
	if k.Ext == "" {
		return k.Name
	}
	return k.Name + "." + strings.TrimPrefix(k.Ext, ".")
}

// ByteSink receives flushed buffer contents. p is only valid for the duration
// of the call.
type ByteSink func(name, ext string, p []byte) error

// LineSink receives every completed line together with its type metadata.
type LineSink func(name, line, types string) error

// Options configures a Writer
type Options struct {
	OutputDir   string
	FilingID    string
	WriteToDisk bool
	BufferSize  int

	ByteSink ByteSink
	LineSink LineSink
	Logger   *slog.Logger
}

type entry struct {
	buf   *buffer
	file  *os.File
	dirty bool // file received bytes since the last Sync
}

// Writer routes text to buffered streams
type Writer struct {
	outputDir   string
	filingID    string
	writeToDisk bool
	bufferSize  int
	byteSink    ByteSink
	lineSink    LineSink
	logger      *slog.Logger

	streams map[Key]*entry
	order   []Key
	lastKey Key
	last    *entry

	local       bool
	localBuf    strings.Builder
	pendingLine strings.Builder
	closed      bool
}

// New creates a Writer. Files are opened lazily on the first write to a stream.
func New(opts Options) (*Writer, error) {
	if opts.BufferSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferSize, opts.BufferSize)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		outputDir:   opts.OutputDir,
		filingID:    opts.FilingID,
		writeToDisk: opts.WriteToDisk,
		bufferSize:  opts.BufferSize,
		byteSink:    opts.ByteSink,
		lineSink:    opts.LineSink,
		logger:      logger,
		streams:     make(map[Key]*entry),
	}, nil
}

// Path returns the file a stream is written to when disk writing is enabled.
// Slashes in the stream name become hyphens so the name stays one path segment.
func (w *Writer) Path(key Key) string {
	name := strings.ReplaceAll(key.Name, "/", "-")
	if ext := strings.TrimPrefix(key.Ext, "."); ext != "" {
		name += "." + ext
	}
	return filepath.Join(w.outputDir, w.filingID, name)
}

// Streams returns the keys of all streams written so far, in creation order.
func (w *Writer) Streams() []Key {
	return append([]Key(nil), w.order...)
}

// lookup returns the entry for key, creating it (and its file) on first use
func (w *Writer) lookup(key Key) (*entry, error) {
	if w.last != nil && w.lastKey == key {
		return w.last, nil
	}
	if e, ok := w.streams[key]; ok {
		w.lastKey, w.last = key, e
		return e, nil
	}

	e := &entry{buf: newBuffer(w.bufferSize)}
	if w.writeToDisk {
		path := w.Path(key)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		// Append so that a filing processed in several runs accumulates.
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		e.file = f
		w.logger.Debug("Opened output stream", "stream", key.String(), "path", path)
	}

	w.streams[key] = e
	w.order = append(w.order, key)
	w.lastKey, w.last = key, e
	return e, nil
}

// flush pushes the buffered bytes of one stream to its sinks
func (w *Writer) flush(key Key, e *entry) error {
	if e.buf.empty() {
		return nil
	}
	if w.byteSink != nil {
		if err := w.byteSink(key.Name, key.Ext, e.buf.data); err != nil {
			return fmt.Errorf("byte sink %s: %w", key, err)
		}
	}
	if e.file != nil {
		if _, err := e.file.Write(e.buf.data); err != nil {
			if w.byteSink != nil {
				// The byte sink already has these bytes; a retry must not resend them.
				e.buf.reset()
			}
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		e.dirty = true
	}
	e.buf.reset()
	return nil
}

func (w *Writer) writeStream(key Key, p []byte) error {
	e, err := w.lookup(key)
	if err != nil {
		return err
	}
	for {
		p = e.buf.write(p)
		if len(p) == 0 {
			return nil
		}
		if err := w.flush(key, e); err != nil {
			return err
		}
	}
}

// WriteBytes appends p to the stream name.ext, flushing as often as needed.
// In local mode the bytes go to the capture buffer instead.
func (w *Writer) WriteBytes(name, ext string, p []byte) error {
	if w.closed {
		return ErrClosed
	}
	if w.local {
		w.localBuf.Write(p)
		return nil
	}
	return w.writeStream(Key{Name: name, Ext: ext}, p)
}

// WriteString writes s to a stream and adds it to the pending line.
func (w *Writer) WriteString(name, ext, s string) error {
	if w.closed {
		return ErrClosed
	}
	if w.local {
		w.localBuf.WriteString(s)
		return nil
	}
	if err := w.writeStream(Key{Name: name, Ext: ext}, []byte(s)); err != nil {
		return err
	}
	if w.lineSink != nil {
		w.pendingLine.WriteString(s)
	}
	return nil
}

// WriteRune writes the UTF-8 encoding of r
func (w *Writer) WriteRune(name, ext string, r rune) error {
	return w.WriteString(name, ext, string(r))
}

// WriteFloat writes f with exactly two decimals
func (w *Writer) WriteFloat(name, ext string, f float64) error {
	return w.WriteString(name, ext, strconv.FormatFloat(f, 'f', 2, 64))
}

// WriteRecord writes fields as one CSV row to the stream name.csv. Like
// WriteBytes it does not add to the pending line.
func (w *Writer) WriteRecord(name string, fields []string) error {
	return w.WriteBytes(name, CSVExtension, []byte(FormatRecord(fields)))
}

// EndLine hands the pending line to the LineSink, if any, and starts a new
// line. The line is attributed to the most recently used stream.
func (w *Writer) EndLine(types string) error {
	if w.closed {
		return ErrClosed
	}
	line := w.pendingLine.String()
	w.pendingLine.Reset()
	if w.lineSink == nil {
		return nil
	}
	if err := w.lineSink(w.lastKey.Name, line, types); err != nil {
		return fmt.Errorf("line sink %s: %w", w.lastKey.Name, err)
	}
	return nil
}

// StartLocal diverts all writes into an in-memory capture buffer. Calling it
// while already capturing discards what was captured so far.
func (w *Writer) StartLocal() {
	w.local = true
	w.localBuf.Reset()
}

// EndLocal leaves local mode and returns the captured text. Outside local
// mode it returns "".
func (w *Writer) EndLocal() string {
	if !w.local {
		return ""
	}
	w.local = false
	s := w.localBuf.String()
	w.localBuf.Reset()
	return s
}

// FlushAll flushes every stream buffer and syncs the files that received data.
// A second call without writes in between does no I/O.
func (w *Writer) FlushAll() error {
	if w.closed {
		return ErrClosed
	}
	for _, key := range w.order {
		e := w.streams[key]
		if err := w.flush(key, e); err != nil {
			return fmt.Errorf("flush %s: %w", key, err)
		}
		if e.file != nil && e.dirty {
			if err := e.file.Sync(); err != nil {
				return fmt.Errorf("sync %s: %w", key, err)
			}
			e.dirty = false
		}
	}
	return nil
}

// Close flushes what it can and closes all files. A failing flush is logged,
// not returned; errors closing files are returned.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if err := w.FlushAll(); err != nil {
		w.logger.Error("Final flush failed", "filing", w.filingID, "error", err)
	}
	w.closed = true

	var errs []error
	for _, key := range w.order {
		if f := w.streams[key].file; f != nil {
			if err := f.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", key, err))
			}
		}
	}
	w.last = nil
	return errors.Join(errs...)
}
