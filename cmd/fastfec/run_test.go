package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fastfec/internal/config"
	"fastfec/internal/fec"
	"fastfec/pkg/outputlog"
)

const sampleFiling = "HDR,FEC,8.3,NGP\n" +
	"F3N,C00101766,\"Doe, Jane\"\n" +
	"SA11AI,C00101766,Jos\xe9\n"

func TestResolveInput(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		stdinPiped   bool
		disableStdin bool
		want         input
		wantErr      bool
	}{
		{
			name:       "piped stdin",
			stdinPiped: true,
			want:       input{FilingID: "STDIN_DATA"},
		},
		{
			name:       "file wins over piped stdin",
			args:       []string{"data/13360.fec"},
			stdinPiped: true,
			want:       input{FilingID: "13360", Path: "data/13360.fec"},
		},
		{
			name:         "stdin disabled",
			stdinPiped:   true,
			disableStdin: true,
			wantErr:      true,
		},
		{
			name:    "nothing to read",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveInput(tt.args, tt.stdinPiped, tt.disableStdin)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFilingID(t *testing.T) {
	require.Equal(t, "13360", filingID("/tmp/filings/13360.fec"))
	require.Equal(t, "13360", filingID("13360"))
	require.Equal(t, "a.b", filingID("a.b.csv"))
	require.Equal(t, ".fec", filingID("dir/.fec"))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func TestRunFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "13360.fec")
	require.NoError(t, os.WriteFile(path, []byte(sampleFiling), 0o644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), cfg, input{FilingID: "13360", Path: path}, nil, &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, "Done; parsing successful for: 13360\n", stdout.String())
	require.Contains(t, stderr.String(), "Conversion finished")

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "13360", "F3N.csv"))
	require.NoError(t, err)
	require.Equal(t, "F3N,C00101766,\"Doe, Jane\"\n", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.OutputDir, "13360", "SA11AI.csv"))
	require.NoError(t, err)
	require.Equal(t, "SA11AI,C00101766,José\n", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.OutputDir, "13360", "header.csv"))
	require.NoError(t, err)
	require.Equal(t, "HDR,FEC,8.3,NGP\n", string(data))
}

func TestRunStdinSilent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Silent = true
	cfg.IncludeFilingID = true

	var stdout, stderr bytes.Buffer
	in := input{FilingID: stdinFilingID}
	err := run(context.Background(), cfg, in, strings.NewReader(sampleFiling), &stdout, &stderr)
	require.NoError(t, err)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, stdinFilingID, "F3N.csv"))
	require.NoError(t, err)
	require.Equal(t, "STDIN_DATA,F3N,C00101766,\"Doe, Jane\"\n", string(data))
}

func TestRunLineLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.WriteToDisk = false
	cfg.LineLog = filepath.Join(t.TempDir(), "lines.log")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), cfg, input{FilingID: "1"}, strings.NewReader(sampleFiling), &stdout, &stderr)
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	require.Empty(t, entries)

	f, err := os.Open(cfg.LineLog)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	streams, err := outputlog.NewReader(f).All()
	require.NoError(t, err)
	require.Equal(t, "HDR,FEC,8.3,NGP\n", string(streams[fec.HeaderStream]))
	require.Equal(t, "F3N,C00101766,\"Doe, Jane\"\n", string(streams["F3N"]))
	require.Equal(t, "SA11AI,C00101766,José\n", string(streams["SA11AI"]))
}

func TestRunEmptyInput(t *testing.T) {
	cfg := testConfig(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), cfg, input{FilingID: "1"}, strings.NewReader(""), &stdout, &stderr)
	require.ErrorIs(t, err, fec.ErrEmptyFiling)
	require.Empty(t, stdout.String())
}

func TestRunMissingFile(t *testing.T) {
	cfg := testConfig(t)

	var stdout, stderr bytes.Buffer
	in := input{FilingID: "404", Path: filepath.Join(t.TempDir(), "404.fec")}
	err := run(context.Background(), cfg, in, nil, &stdout, &stderr)
	require.ErrorIs(t, err, os.ErrNotExist)
}
