package atomic

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	cp "github.com/otiai10/copy"
)

// Options specifies options for move and copy operations
type Options struct {
	// Overwrite replaces an existing destination instead of failing
	Overwrite bool
	// PreserveOwner keeps uid/gid when data has to be copied
	PreserveOwner bool
}

// Move moves src to dst. A same-device move is a single rename.
// Across devices the data is copied into a hidden sibling of dst first,
// so a failed copy leaves dst absent and src untouched.
func Move(src, dst string, opts Options) error {
	if err := validatePaths(src, dst); err != nil {
		return err
	}

	if !opts.Overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}

	same, err := isSamePartition(src, dst)
	if err != nil {
		slog.Debug("cannot compare partitions, trying rename", "src", src, "dst", dst, "error", err)
		same = true
	}
	if same {
		err := rename(src, dst, opts.Overwrite)
		if err == nil {
			return nil
		}
		if !isCrossDevice(err) {
			return NewMoveError("rename", src, dst, err)
		}
	}

	slog.Debug("cross-device move, falling back to copy",
		"src", src, "src_mount", MountPoint(src),
		"dst", dst, "dst_mount", MountPoint(filepath.Dir(dst)))
	return copyAndDelete(src, dst, opts)
}

// Copy copies src to dst, recursing into directories. File contents are
// fsynced before the copy becomes visible at dst.
func Copy(src, dst string, opts Options) error {
	if err := validatePaths(src, dst); err != nil {
		return err
	}
	if !opts.Overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}
	return copyInto(src, dst, opts)
}

// copyInto copies to a staging path next to dst and renames it into place
func copyInto(src, dst string, opts Options) error {
	staging := stagingPath(dst)
	if err := cp.Copy(src, staging, copyOptions(opts)); err != nil {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			slog.Warn("failed to remove staging copy", "path", staging, "error", rmErr)
		}
		return NewMoveError("copy", src, dst, err)
	}

	if err := rename(staging, dst, opts.Overwrite); err != nil {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			slog.Warn("failed to remove staging copy", "path", staging, "error", rmErr)
		}
		if IsDestinationExists(err) {
			return err
		}
		return NewMoveError("commit", src, dst, err)
	}
	return nil
}

// copyAndDelete copies a file or directory and then deletes the original.
// The source is checked for removability before anything is copied. If
// removal still fails partway, the missing entries are copied back from dst
// and dst is dropped; only when that fails too is dst kept, since it is
// then the only complete copy.
func copyAndDelete(src, dst string, opts Options) error {
	if err := removable(src); err != nil {
		return NewMoveError("remove_source", src, dst, err)
	}
	if err := copyInto(src, dst, opts); err != nil {
		return err
	}

	if err := os.RemoveAll(src); err != nil {
		if herr := heal(dst, src, opts); herr != nil {
			slog.Error("cannot put back partly removed source", "src", src, "dst", dst, "error", herr)
			return NewMoveError("remove_source", src, dst, fmt.Errorf("%w: %v", ErrPartialMove, err))
		}
		if rmErr := os.RemoveAll(dst); rmErr != nil {
			slog.Warn("failed to remove copy after restoring source", "path", dst, "error", rmErr)
		}
		return NewMoveError("remove_source", src, dst, err)
	}
	return nil
}

// heal copies back into src every entry of dst that src no longer has.
// Entries still present in src are left as they are.
func heal(dst, src string, opts Options) error {
	if info, err := os.Lstat(src); err == nil && !info.IsDir() {
		return nil
	}
	o := copyOptions(opts)
	o.Sync = false
	o.Skip = func(info os.FileInfo, _, dest string) (bool, error) {
		if info.IsDir() {
			return false, nil
		}
		_, err := os.Lstat(dest)
		return err == nil, nil
	}
	return cp.Copy(dst, src, o)
}

func copyOptions(opts Options) cp.Options {
	return cp.Options{
		OnSymlink: func(src string) cp.SymlinkAction {
			return cp.Shallow // links are moved and copied as links
		},
		PreserveTimes: true,
		PreserveOwner: opts.PreserveOwner,
		Sync:          true,
	}
}

func stagingPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), fmt.Sprintf(".%s.%s.part", filepath.Base(dst), uuid.New().String()[:8]))
}

// validatePaths performs basic path validation
func validatePaths(src, dst string) error {
	if src == "" || dst == "" {
		return ErrInvalidPath
	}
	if filepath.Clean(src) == filepath.Clean(dst) {
		return ErrSameFile
	}

	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return ErrSourceNotFound
		}
		return err
	}
	return nil
}
