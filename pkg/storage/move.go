package storage

import (
	"context"
	"fmt"
	"path/filepath"
)

// MoveOptions controls how Move handles renames across filesystems
type MoveOptions struct {
	// CopyFallback copies then deletes when a rename crosses devices
	CopyFallback bool
}

// Move renames from into to, creating parent directories of to.
// It never overwrites an existing destination.
func Move(ctx context.Context, b Backend, from, to string, opts MoveOptions) error {
	if err := b.MkdirAll(ctx, filepath.Dir(to)); err != nil {
		return err
	}

	err := b.Rename(ctx, from, to)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) || !opts.CopyFallback {
		return err
	}

	return copyThenDelete(ctx, b, from, to)
}

// copyThenDelete copies from into to, preserving mtime and permissions, and
// removes the source only once the copy has the expected size.
func copyThenDelete(ctx context.Context, b Backend, from, to string) error {
	info, err := b.Stat(ctx, from)
	if err != nil {
		return err
	}

	reader, err := b.Read(ctx, from)
	if err != nil {
		return err
	}
	err = b.Write(ctx, to, reader, info.Size, info)
	reader.Close()
	if err != nil {
		return fmt.Errorf("copy fallback: %w", err)
	}

	copied, err := b.Stat(ctx, to)
	if err != nil {
		return fmt.Errorf("copy fallback: %w", err)
	}
	if copied.Size != info.Size {
		return fmt.Errorf("copy fallback: size mismatch for %s: %d != %d", to, copied.Size, info.Size)
	}

	if err := b.Delete(ctx, from); err != nil {
		return fmt.Errorf("copy fallback: source kept after copy: %w", err)
	}
	return nil
}
