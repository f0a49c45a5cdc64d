package atomic

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// rename refuses to replace an existing dst unless overwrite is set.
// RENAME_NOREPLACE closes the gap between the existence check and the rename.
func rename(src, dst string, overwrite bool) error {
	if overwrite {
		return os.Rename(src, dst)
	}

	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return ErrDestinationExists
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS):
		// filesystem without renameat2 support
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
		return os.Rename(src, dst)
	}
	return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
}
