package fec

import (
	"log/slog"

	"fastfec/internal/runstats"
	"fastfec/internal/slogx"
)

// Context carries the settings and the parse state of one filing
type Context struct {
	FilingID        string
	IncludeFilingID bool
	Warn            bool // log per-line warnings
	Logger          *slog.Logger

	// UseSeparator is decided by the header line and kept for the whole file.
	UseSeparator bool
	Version      string
	// LegacyHeader holds the key/value pairs of a "/* Header" block.
	LegacyHeader map[string]string

	Stats runstats.Stats
}

// NewContext creates a Context for one filing. A nil logger discards.
func NewContext(filingID string, includeFilingID, warn bool, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &Context{
		FilingID:        filingID,
		IncludeFilingID: includeFilingID,
		Warn:            warn,
		Logger:          logger,
	}
}

func (c *Context) warnf(msg string, args ...any) {
	if c.Warn {
		c.Logger.Warn(msg, args...)
	}
}
