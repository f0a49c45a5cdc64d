//go:build !linux && !windows

package atomic

import "os"

func rename(src, dst string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}
	return os.Rename(src, dst)
}
