package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/dedupnorris/pkg/models"
)

// Swappable so tests can simulate EXDEV and other rename failures.
var renameFunc = os.Rename

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, models.ErrNotADirectory)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absPath, models.ErrNotADirectory)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root path
func (l *Local) Root() string {
	return l.rootPath
}

func (l *Local) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.rootPath, path)
}

// List returns all files in the directory recursively
func (l *Local) List(ctx context.Context, path string) ([]FileInfo, error) {
	fullPath := l.resolve(path)
	var files []FileInfo

	err := filepath.WalkDir(fullPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, FileInfo{
			Path:         p,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
			IsRegular:    info.Mode().IsRegular(),
			Permissions:  uint32(info.Mode().Perm()),
			RelativePath: relPath,
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Write creates a file. An existing file at path is an error.
func (l *Local) Write(ctx context.Context, path string, reader io.Reader, size int64, metadata *FileInfo) error {
	fullPath := l.resolve(path)

	// Ensure parent directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if written != size {
		os.Remove(fullPath)
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", size, written)
	}

	// Preserve metadata if provided
	if metadata != nil {
		if !metadata.ModTime.IsZero() {
			if err := os.Chtimes(fullPath, metadata.ModTime, metadata.ModTime); err != nil {
				return fmt.Errorf("failed to set modification time: %w", err)
			}
		}

		if metadata.Permissions != 0 {
			if err := os.Chmod(fullPath, os.FileMode(metadata.Permissions)); err != nil {
				return fmt.Errorf("failed to set permissions: %w", err)
			}
		}
	}

	return nil
}

// Rename moves a file. The destination must not exist.
func (l *Local) Rename(ctx context.Context, from, to string) error {
	src := l.resolve(from)
	dst := l.resolve(to)

	if _, err := os.Lstat(dst); err == nil {
		return &ExistsError{Path: dst}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check destination: %w", err)
	}

	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}

// Delete removes a single file. Directories are refused.
func (l *Local) Delete(ctx context.Context, path string) error {
	fullPath := l.resolve(path)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to delete %s: is a directory", fullPath)
	}

	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	return nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := l.resolve(path)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		IsRegular:    info.Mode().IsRegular(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: relPath,
	}, nil
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := os.MkdirAll(l.resolve(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}
