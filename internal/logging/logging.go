// Package logging builds the logrus loggers used by the commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config configures a logger.
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`      // text, json
	Output     string `yaml:"output"`      // stderr, stdout, file
	Filename   string `yaml:"filename"`    // used when output is file
	MaxSizeMB  int    `yaml:"max_size_mb"` // rotation size
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig logs text at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatText,
		Output:     OutputStderr,
		MaxSizeMB:  100,
		MaxAgeDays: 30,
		MaxBackups: 10,
	}
}

// Validate checks format and output names.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: choose text or json", c.Format)
	}
	switch strings.ToLower(c.Output) {
	case "", OutputStderr, OutputStdout:
	case OutputFile:
		if c.Filename == "" {
			return fmt.Errorf("log output file requires a filename")
		}
	default:
		return fmt.Errorf("invalid log output %q: choose stderr, stdout or file", c.Output)
	}
	return nil
}

// New creates a logger. An unknown level falls back to info.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, FormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	logger.SetOutput(writer(cfg))
	return logger
}

func writer(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case OutputStdout:
		return os.Stdout
	case OutputFile:
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
	default:
		return os.Stderr
	}
}
