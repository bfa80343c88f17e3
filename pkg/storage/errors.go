package storage

import (
	"errors"
	"fmt"
)

// ExistsError is returned when a rename or write target already exists
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("destination already exists: %s", e.Path)
}

// IsExists reports whether err is an ExistsError
func IsExists(err error) bool {
	var e *ExistsError
	return errors.As(err, &e)
}

// CrossDeviceError is returned when a rename crosses filesystems (EXDEV).
// Callers decide whether to fall back to copy and delete.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device move %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}
