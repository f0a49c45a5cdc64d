package journal

import (
	"path/filepath"
	"strings"
)

// IsUnsafePath reports paths that must never be trashed
func IsUnsafePath(path string) bool {
	// check the input before normalization so "." and ".." are caught
	base := filepath.Base(path)
	if base == "." || base == ".." {
		return true
	}

	cleaned := filepath.Clean(path)
	if cleaned == "/" || cleaned == filepath.VolumeName(cleaned)+string(filepath.Separator) {
		return true
	}

	if strings.HasPrefix(path, "//") {
		return true
	}
	return false
}

// within reports whether path is dir or below it
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ValidName rejects names that would escape the parent directory
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
