package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fastfec/internal/config"
	"fastfec/internal/fec"
	"fastfec/internal/slogx"
	"fastfec/pkg/outputlog"
	"fastfec/pkg/writer"
)

const stdinFilingID = "STDIN_DATA"

// input describes where the filing is read from. Path is empty for STDIN.
type input struct {
	FilingID string
	Path     string
}

func resolveInput(args []string, stdinPiped, disableStdin bool) (input, error) {
	if len(args) == 0 {
		if stdinPiped && !disableStdin {
			return input{FilingID: stdinFilingID}, nil
		}
		return input{}, errors.New("no filing file given and STDIN is not piped")
	}
	return input{FilingID: filingID(args[0]), Path: args[0]}, nil
}

// filingID derives the filing id from a file name: "data/13360.fec" -> "13360".
// A name that is only an extension, like ".fec", is kept whole.
func filingID(path string) string {
	base := filepath.Base(path)
	if id := strings.TrimSuffix(base, filepath.Ext(base)); id != "" {
		return id
	}
	return base
}

// loadConfig merges the config file, the environment and the flags that were
// set explicitly, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-directory") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("no-disk") {
		cfg.WriteToDisk = !noDisk
	}
	if flags.Changed("buffer-size") {
		cfg.BufferSize = bufferSize
	}
	if flags.Changed("include-filing-id") {
		cfg.IncludeFilingID = includeFilingID
	}
	if flags.Changed("silent") {
		cfg.Silent = silent
	}
	if flags.Changed("warn") {
		cfg.Warn = warn
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("line-log") {
		cfg.LineLog = lineLogPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, in input, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	level := slogx.ParseLevel(cfg.LogLevel)
	if cfg.Silent {
		level = slog.LevelError
	}
	logger := slogx.New(stderr, level)
	start := time.Now()

	r := stdin
	if in.Path == "" {
		logger.Info("Reading from STDIN", "filing", in.FilingID)
	} else {
		logger.Info("Opening file", "path", in.Path)
		f, err := os.Open(in.Path)
		if err != nil {
			return fmt.Errorf("failed to open filing: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	opts := writer.Options{
		OutputDir:   cfg.OutputDir,
		FilingID:    in.FilingID,
		WriteToDisk: cfg.WriteToDisk,
		BufferSize:  cfg.BufferSize,
		Logger:      logger,
	}
	if cfg.LineLog != "" {
		f, err := os.OpenFile(cfg.LineLog, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open line log: %w", err)
		}
		defer func() { _ = f.Close() }()
		opts.LineSink = outputlog.NewLineLog(f).Sink
	}

	w, err := writer.New(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fc := fec.NewContext(in.FilingID, cfg.IncludeFilingID, cfg.Warn, logger)
	if err := fec.Parse(ctx, fc, r, w); err != nil {
		return fmt.Errorf("failed to parse %s: %w", in.FilingID, err)
	}
	if err := w.FlushAll(); err != nil {
		return err
	}

	fc.Stats.Finish(start)
	fc.Stats.Log(logger, in.FilingID)
	if !cfg.Silent {
		fmt.Fprintf(stdout, "Done; parsing successful for: %s\n", in.FilingID)
	}
	return nil
}
