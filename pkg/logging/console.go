package logging

import (
	"context"
	"io"
	"sync"
	"time"
)

// ConsoleLogger writes log lines to a terminal stream, usually stderr
type ConsoleLogger struct {
	level  Level
	format Format
	out    *consoleSink
	fields Fields
}

type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleLogger creates a logger writing to w
func NewConsoleLogger(w io.Writer, level Level, format Format) *ConsoleLogger {
	return &ConsoleLogger{
		level:  level,
		format: format,
		out:    &consoleSink{w: w},
	}
}

// Debug logs a debug message
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{
		level:  l.level,
		format: l.format,
		out:    l.out,
		fields: mergeFields(l.fields, fields),
	}
}

// Close does nothing, the stream belongs to the caller
func (l *ConsoleLogger) Close() error {
	return nil
}

func (l *ConsoleLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}
	line, fmtErr := formatEntry(l.format, time.Now(), level, msg, err, mergeFields(l.fields, fields))
	if fmtErr != nil {
		return
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.w.Write(line)
}
