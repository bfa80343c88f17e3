package logging

import "context"

// NullLogger discards everything. It is the engine's logger when neither
// --log-file nor --verbose is set.
type NullLogger struct{}

// NewNullLogger creates a new null logger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Info(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Warn(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Error(ctx context.Context, msg string, err error, fields Fields) {}

// WithFields returns l, there is nothing to annotate
func (l *NullLogger) WithFields(fields Fields) Logger {
	return l
}

func (l *NullLogger) Close() error {
	return nil
}
