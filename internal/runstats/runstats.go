package runstats

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats summarizes one conversion run
type Stats struct {
	Lines        int // input lines read, header included
	Records      int // records written to form-type streams
	TextBlocks   int // F99 text blocks captured
	SkippedLines int // blank lines
	Latin1Lines  int // lines that needed fallback decoding
	Streams      int // distinct output streams
	Elapsed      time.Duration
	RSSMB        float64 // resident memory at the end of the run
}

// SampleRSS returns the resident set size of the current process in MB
func SampleRSS() (float64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, fmt.Errorf("failed to inspect process: %w", err)
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("failed to get memory info: %w", err)
	}
	return float64(memInfo.RSS) / 1024 / 1024, nil
}

// Finish records elapsed time and memory. A failing memory sample leaves
// RSSMB at zero.
func (s *Stats) Finish(start time.Time) {
	s.Elapsed = time.Since(start)
	if rss, err := SampleRSS(); err == nil {
		s.RSSMB = rss
	}
}

// Log writes the summary as one structured log line
func (s *Stats) Log(logger *slog.Logger, filingID string) {
	logger.Info("Conversion finished",
		"filing", filingID,
		"lines", s.Lines,
		"records", s.Records,
		"text_blocks", s.TextBlocks,
		"skipped", s.SkippedLines,
		"latin1_lines", s.Latin1Lines,
		"streams", s.Streams,
		"elapsed", s.Elapsed.Round(time.Millisecond),
		"rss_mb", fmt.Sprintf("%.1f", s.RSSMB),
	)
}
