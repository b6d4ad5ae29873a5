// Package log provides a structured logging interface for amesboost pipeline
// operations.
//
// The package defines a minimal, slog-compatible logging interface backed by
// zerolog. Loggers carry structured fields (operation, data shape, metric
// values) so that pipeline runs can be analysed from their log output.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("boosting.trainer")
//	logger.Info("training started",
//	    log.SamplesKey, 1460,
//	    log.FeaturesKey, 79,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key-value pairs. The interface is
// implementation-agnostic; the default implementation wraps zerolog.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// An error value passed as a field is rendered with its message and,
	// when available, the stack trace recorded by cockroachdb/errors.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
