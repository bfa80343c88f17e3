//go:build windows

package storage

import (
	"errors"
	"os"
	"syscall"
)

// ERROR_NOT_SAME_DEVICE on Windows
const errNotSameDevice = syscall.Errno(17)

func isEXDEV(err error) bool {
	var le *os.LinkError
	if errors.As(err, &le) {
		return errors.Is(le.Err, errNotSameDevice)
	}
	return errors.Is(err, errNotSameDevice)
}
