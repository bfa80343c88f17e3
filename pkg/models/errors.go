package models

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify a failure.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotADirectory      = errors.New("not a directory")
	ErrUnreadableFile     = errors.New("unreadable file")
	ErrMoveFailed         = errors.New("move failed")
	ErrDeleteFailed       = errors.New("delete failed")
	ErrCounterpartMissing = errors.New("internal counterpart missing")
	ErrContentMismatch    = errors.New("content differs from internal counterpart")
	ErrAborted            = errors.New("aborted")
	ErrOutcomeUnknown     = errors.New("still running when the batch stopped, outcome unknown")
)

// FileError describes a per-file failure during a batch stage
type FileError struct {
	Op   Action
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause
func (e *FileError) Unwrap() error {
	return e.Err
}

// Is matches the error kind as well as the wrapped cause
func (e *FileError) Is(target error) bool {
	return e.Kind == target
}

// NewFileError builds a FileError of the given kind
func NewFileError(op Action, path string, kind, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: kind, Err: err}
}

// ValidationError represents an invalid argument or configuration value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is makes every ValidationError match ErrInvalidArgument
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}
