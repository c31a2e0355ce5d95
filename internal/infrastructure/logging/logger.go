// Package logging provides structured logging utilities.
//
// Logs are formatted in Maven-style with colors:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value
package logging

import (
	"log/slog"
	"os"
)

// NewLogger creates a structured logger for the given level string.
func NewLogger(level string) *slog.Logger {
	parsed := slog.LevelInfo
	switch level {
	case "debug":
		parsed = slog.LevelDebug
	case "warn", "warning":
		parsed = slog.LevelWarn
	case "error":
		parsed = slog.LevelError
	}

	handler := NewConsoleHandler(os.Stdout, &slog.HandlerOptions{Level: parsed})
	return slog.New(handler)
}

// NewSystemLogger creates a logger with a system prefix (e.g. "engine",
// "erp", "api") shown in its own bracket, useful for scoped loggers.
func NewSystemLogger(level, system string) *slog.Logger {
	return NewLogger(level).With("system", system)
}
