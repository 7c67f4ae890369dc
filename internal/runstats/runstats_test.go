package runstats

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSampleRSS(t *testing.T) {
	rss, err := SampleRSS()
	require.NoError(t, err)
	require.Greater(t, rss, 0.0)
}

func TestFinishAndLog(t *testing.T) {
	stats := &Stats{Lines: 4, Records: 2, Streams: 2, Latin1Lines: 1}
	stats.Finish(time.Now().Add(-time.Second))
	require.GreaterOrEqual(t, stats.Elapsed, time.Second)

	var buf bytes.Buffer
	stats.Log(slog.New(slog.NewTextHandler(&buf, nil)), "13360")

	out := buf.String()
	require.Contains(t, out, "Conversion finished")
	require.Contains(t, out, "filing=13360")
	require.Contains(t, out, "records=2")
	require.Contains(t, out, "latin1_lines=1")
}
