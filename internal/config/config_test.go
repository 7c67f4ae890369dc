package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fastfec/pkg/writer"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "output", cfg.OutputDir)
	require.True(t, cfg.WriteToDisk)
	require.Equal(t, 4096, cfg.BufferSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastfec.yaml")
	content := `output_directory: /tmp/fec
buffer_size: 128
include_filing_id: true
line_log: lines.log
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/fec", cfg.OutputDir)
	require.Equal(t, 128, cfg.BufferSize)
	require.True(t, cfg.IncludeFilingID)
	require.Equal(t, "lines.log", cfg.LineLog)
	// Keys missing from the file keep their defaults.
	require.True(t, cfg.WriteToDisk)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buffer_sise: 10\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FASTFEC_OUTPUT_DIR":    "out2",
		"FASTFEC_WRITE_TO_DISK": "false",
		"FASTFEC_BUFFER_SIZE":   " 64 ",
		"FASTFEC_LOG_LEVEL":     "debug",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))

	require.Equal(t, "out2", cfg.OutputDir)
	require.False(t, cfg.WriteToDisk)
	require.Equal(t, 64, cfg.BufferSize)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyEnv_Invalid(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) string {
		if k == "FASTFEC_BUFFER_SIZE" {
			return "big"
		}
		return ""
	})
	require.ErrorContains(t, err, "FASTFEC_BUFFER_SIZE")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.BufferSize = 0
	require.ErrorIs(t, cfg.Validate(), writer.ErrInvalidBufferSize)

	cfg = Default()
	cfg.OutputDir = " "
	require.Error(t, cfg.Validate())

	cfg.WriteToDisk = false
	require.NoError(t, cfg.Validate())
}
