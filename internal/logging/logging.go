// Package logging builds the zap logger used across callwatch. The TUI owns
// the terminal, so logs always go to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log destination and verbosity.
type Options struct {
	// Path is the log file. Empty discards all output.
	Path string
	// Level is a zap level name; unknown values fall back to info.
	Level string
	// Development switches to the console encoder with caller info.
	Development bool
}

// New builds a logger writing JSON lines to opts.Path. The returned cleanup
// flushes buffered entries.
func New(opts Options) (*zap.Logger, func(), error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return zap.NewNop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	logger = logger.With(zap.String("service", "callwatch"))

	logger.Info("logger initialized",
		zap.String("level", cfg.Level.String()),
		zap.Bool("development", opts.Development),
	)
	return logger, func() { _ = logger.Sync() }, nil
}

// ParseLevel maps a level name to a zapcore.Level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
