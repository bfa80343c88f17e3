package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// fileSink is the open log file, shared by a logger and its WithFields children
type fileSink struct {
	mu          sync.Mutex
	config      FileLoggerConfig
	file        *os.File
	currentSize int64
}

// FileLogger implements Logger interface with file output
type FileLogger struct {
	config FileLoggerConfig
	sink   *fileSink
	fields Fields
}

// NewFileLogger creates a new file logger
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	// Ensure directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := openLogFile(config.Path)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &FileLogger{
		config: config,
		sink: &fileSink{
			config:      config,
			file:        file,
			currentSize: info.Size(),
		},
	}, nil
}

func openLogFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// Debug logs a debug message
func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= DebugLevel {
		l.log(DebugLevel, msg, nil, fields)
	}
}

// Info logs an info message
func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= InfoLevel {
		l.log(InfoLevel, msg, nil, fields)
	}
}

// Warn logs a warning message
func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	if l.config.Level <= WarnLevel {
		l.log(WarnLevel, msg, nil, fields)
	}
}

// Error logs an error message
func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	if l.config.Level <= ErrorLevel {
		l.log(ErrorLevel, msg, err, fields)
	}
}

// WithFields returns a logger with additional fields writing to the same file
func (l *FileLogger) WithFields(fields Fields) Logger {
	return &FileLogger{
		config: l.config,
		sink:   l.sink,
		fields: mergeFields(l.fields, fields),
	}
}

// Close flushes and closes the log file. Loggers derived with WithFields
// share the file and stop writing once it is closed.
func (l *FileLogger) Close() error {
	return l.sink.close()
}

func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	line, fmtErr := formatEntry(l.config.Format, time.Now(), level, msg, err, mergeFields(l.fields, fields))
	if fmtErr != nil {
		return
	}
	l.sink.write(line)
}

func (s *fileSink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}

	// Check rotation before writing
	if s.config.MaxSize > 0 && s.currentSize >= s.config.MaxSize {
		s.rotate()
		if s.file == nil {
			return
		}
	}

	n, _ := s.file.Write(line)
	s.currentSize += int64(n)
}

func (s *fileSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// rotate shifts path -> path.1 -> path.2 ... keeping MaxBackups files
func (s *fileSink) rotate() {
	path := s.config.Path
	s.file.Close()
	s.file = nil

	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}

	if s.config.MaxBackups > 0 {
		os.Rename(path, path+".1")
		os.Remove(fmt.Sprintf("%s.%d", path, s.config.MaxBackups+1))
	} else {
		os.Remove(path)
	}

	file, err := openLogFile(path)
	if err != nil {
		return
	}

	s.file = file
	s.currentSize = 0
}
