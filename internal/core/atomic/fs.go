//go:build !windows

package atomic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// isSamePartition checks if the source and destination reside on the same filesystem partition.
func isSamePartition(src, dst string) (bool, error) {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return false, fmt.Errorf("failed to get source file stats: %w", err)
	}

	// dst itself usually does not exist yet
	dstInfo, err := os.Stat(filepath.Dir(dst))
	if err != nil {
		return false, fmt.Errorf("failed to get destination parent directory stats: %w", err)
	}

	srcSys, ok := srcInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("failed to get source system info")
	}

	dstSys, ok := dstInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("failed to get destination system info")
	}

	return srcSys.Dev == dstSys.Dev, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// MountPoint returns the mount point containing path, or "" when it cannot be determined
func MountPoint(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	mounts, err := mountinfo.GetMounts(mountinfo.ParentsFilter(absPath))
	if err != nil {
		return ""
	}

	// Find the longest matching mount point
	var longest string
	for _, m := range mounts {
		if absPath == m.Mountpoint || strings.HasPrefix(absPath, strings.TrimSuffix(m.Mountpoint, "/")+"/") {
			if len(m.Mountpoint) > len(longest) {
				longest = m.Mountpoint
			}
		}
	}
	return longest
}

// removable reports an error if src, or anything below it, could not be unlinked
func removable(src string) error {
	parent := filepath.Dir(src)
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return &os.PathError{Op: "access", Path: parent, Err: err}
	}
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
			return &os.PathError{Op: "access", Path: path, Err: err}
		}
		return nil
	})
}
