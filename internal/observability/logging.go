// Package observability holds the CLI's shared zap logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the process-wide logger for command output. It is a no-op
// until Init is called, so library code can log unconditionally.
var CLILogger = zap.NewNop()

// Init builds CLILogger for the given level ("debug", "info", "warn",
// "error") and format ("json" or "console"). Logs go to stderr so stdout
// stays clean for JSONL records.
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// Sync flushes any buffered log entries. Called on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
