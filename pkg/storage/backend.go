package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	IsRegular    bool
	Permissions  uint32
	RelativePath string
}

// Backend defines the interface for storage operations.
// Paths may be absolute or relative to the backend root.
type Backend interface {
	// Root returns the absolute root directory of the backend
	Root() string

	// List returns all files in the specified directory recursively
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates a new file with the given content. It never overwrites.
	// If metadata is provided, attempts to preserve timestamps and permissions
	Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error

	// Rename moves a file without overwriting an existing destination
	Rename(ctx context.Context, from, to string) error

	// Delete removes a single file
	Delete(ctx context.Context, path string) error

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}
