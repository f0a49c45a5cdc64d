//go:build !windows

package journal

import (
	"errors"
	"syscall"
)

// alive reports whether pid names a running process
func alive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
