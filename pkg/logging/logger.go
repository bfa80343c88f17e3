// Package logging provides the structured run logger: a file logger with
// rotation, a console logger for --verbose, and a no-op logger.
package logging

import (
	"context"
	"strings"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level name, case-insensitive. Unknown names map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger is used by every pipeline stage. Fields added with WithFields
// (the run ID, typically) are carried on every entry.
type Logger interface {
	Debug(ctx context.Context, msg string, fields Fields)
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs a failure; err is emitted as its own field
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields sharing the same sink
	WithFields(fields Fields) Logger

	// Close flushes and closes the sink. Child loggers share it.
	Close() error
}
