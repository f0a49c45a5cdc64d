package atomic

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TempFile represents a temporary file with cleanup capability
type TempFile struct {
	Path    string    // Path to the temporary file
	Created time.Time // Creation time
}

// TempManager hands out uniquely named temporary files under one directory
type TempManager struct {
	baseDir string
}

// NewTempManager creates a new TempManager instance
func NewTempManager(baseDir string) (*TempManager, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	return &TempManager{baseDir: baseDir}, nil
}

// CreateTemp creates a new, empty temporary file
func (m *TempManager) CreateTemp(prefix, suffix string) (*TempFile, error) {
	tempPath := filepath.Join(
		m.baseDir,
		fmt.Sprintf("%s.%s%s", prefix, uuid.New().String(), suffix),
	)

	// Create the file to reserve the name
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	f.Close()

	return &TempFile{
		Path:    tempPath,
		Created: time.Now(),
	}, nil
}

// Cleanup removes the temporary file if it exists
func (f *TempFile) Cleanup() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return NewCleanupError(f.Path, err)
	}
	return nil
}

// SafeWriter wraps a temporary file with safe writing capabilities
type SafeWriter struct {
	temp     *TempFile
	file     *os.File
	finished bool
}

// NewSafeWriter creates a new SafeWriter
func (m *TempManager) NewSafeWriter(prefix string) (*SafeWriter, error) {
	temp, err := m.CreateTemp(prefix, ".tmp")
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(temp.Path, os.O_WRONLY, 0600)
	if err != nil {
		_ = temp.Cleanup()
		return nil, fmt.Errorf("open temp file: %w", err)
	}

	return &SafeWriter{
		temp: temp,
		file: file,
	}, nil
}

// Write writes data to the temporary file
func (w *SafeWriter) Write(p []byte) (n int, err error) {
	if w.finished {
		return 0, fmt.Errorf("write to finished writer")
	}
	return w.file.Write(p)
}

// Commit finalizes the write and moves the file to its destination
func (w *SafeWriter) Commit(dst string, perm os.FileMode) error {
	if w.finished {
		return fmt.Errorf("commit finished writer")
	}
	w.finished = true

	if err := w.file.Sync(); err != nil {
		w.Cleanup()
		return fmt.Errorf("sync file: %w", err)
	}
	w.file.Close()

	if err := os.Chmod(w.temp.Path, perm); err != nil {
		_ = w.temp.Cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(w.temp.Path, dst); err != nil {
		_ = w.temp.Cleanup()
		return fmt.Errorf("rename to destination: %w", err)
	}
	return nil
}

// Cleanup removes the temporary file
func (w *SafeWriter) Cleanup() {
	w.file.Close()
	_ = w.temp.Cleanup()
}

// WriteFile replaces path with data so readers never observe a partial file
func WriteFile(path string, data []byte, perm os.FileMode) error {
	m, err := NewTempManager(filepath.Dir(path))
	if err != nil {
		return err
	}
	w, err := m.NewSafeWriter("." + filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Cleanup()
		return err
	}
	return w.Commit(path, perm)
}
