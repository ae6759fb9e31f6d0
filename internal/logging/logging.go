// Package logging builds the process-wide zap logger. The TUI owns stdout
// and stderr while running, so interactive mode logs to a file or nowhere.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr, suitable for one-shot commands.
func New(debug bool) (*zap.Logger, error) {
	cfg := baseConfig(debug)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// NewForTUI returns a logger that stays off the terminal: it writes to
// logFile when one is configured and discards output otherwise.
func NewForTUI(debug bool, logFile string) (*zap.Logger, error) {
	if logFile == "" {
		return zap.NewNop(), nil
	}

	cfg := baseConfig(debug)
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{logFile}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}
	return logger, nil
}

func baseConfig(debug bool) zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg
}
