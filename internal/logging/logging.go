// Package logging builds the zap logger used across addrbook.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures logger construction.
type Options struct {
	Level string // debug, info, warn, error. Empty means warn.
	File  string // Output path. Empty means stderr.
}

// New returns a console-encoded logger writing to opts.File or stderr.
// Callers own the logger and should Sync it before exit.
func New(opts Options) (*zap.Logger, error) {
	level := opts.Level
	if level == "" {
		level = "warn"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	out := "stderr"
	if opts.File != "" {
		out = opts.File
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Development = false
	cfg.Level = lvl
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building logger: %w", err)
	}
	return logger, nil
}
