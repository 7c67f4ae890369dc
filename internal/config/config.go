package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"fastfec/pkg/writer"
)

// Config holds the settings of one conversion run
type Config struct {
	// OutputDir is the root below which <filing id>/<form type>.csv files are written.
	OutputDir string `yaml:"output_directory"`

	// WriteToDisk disables file output when false. Sinks still receive data.
	WriteToDisk bool `yaml:"write_to_disk"`

	// BufferSize is the per-stream buffer capacity in bytes.
	BufferSize int `yaml:"buffer_size"`

	// IncludeFilingID prepends a filing_id column to every record.
	IncludeFilingID bool `yaml:"include_filing_id"`

	Silent   bool   `yaml:"silent"`
	Warn     bool   `yaml:"warn"`
	LogLevel string `yaml:"log_level"` // debug | info | warn | error

	// LineLog is an optional path receiving every completed line of every stream.
	LineLog string `yaml:"line_log,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OutputDir:   "output",
		WriteToDisk: true,
		BufferSize:  writer.DefaultBufferSize,
		LogLevel:    "info",
	}
}

// Load returns the defaults, overridden by the YAML file at path (if path is
// not empty) and then by FASTFEC_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("FASTFEC_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("FASTFEC_WRITE_TO_DISK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FASTFEC_WRITE_TO_DISK: %w", err)
		}
		c.WriteToDisk = b
	}
	if v := getenv("FASTFEC_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("FASTFEC_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = n
	}
	if v := getenv("FASTFEC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("FASTFEC_LINE_LOG"); v != "" {
		c.LineLog = v
	}
	return nil
}

// Validate rejects settings the writer cannot work with
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: %d", writer.ErrInvalidBufferSize, c.BufferSize)
	}
	if c.WriteToDisk && strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output directory must not be empty when writing to disk")
	}
	return nil
}
