package atomic

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationExists indicates that the destination path already exists
	ErrDestinationExists = errors.New("destination already exists")

	// ErrSourceNotFound indicates that the source file does not exist
	ErrSourceNotFound = errors.New("source file not found")

	// ErrInvalidPath indicates an empty or otherwise unusable path
	ErrInvalidPath = errors.New("invalid path specified")

	// ErrSameFile indicates the source and destination are the same path
	ErrSameFile = errors.New("source and destination are the same")

	// ErrPartialMove indicates the source was partly removed and could not be
	// put back, so the destination holds the only complete copy
	ErrPartialMove = errors.New("source partly removed, destination kept")
)

// MoveError represents an error that occurred during a move or copy operation
type MoveError struct {
	Op  string // Operation being performed
	Src string // Source path
	Dst string // Destination path
	Err error  // Underlying error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%s failed from %q to %q: %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// NewMoveError creates a new MoveError
func NewMoveError(op, src, dst string, err error) error {
	return &MoveError{
		Op:  op,
		Src: src,
		Dst: dst,
		Err: err,
	}
}

// CleanupError represents an error that occurred while removing leftovers
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed for %q: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// NewCleanupError creates a new CleanupError
func NewCleanupError(path string, err error) error {
	return &CleanupError{
		Path: path,
		Err:  err,
	}
}

// IsDestinationExists checks if the error indicates the destination exists
func IsDestinationExists(err error) bool {
	return errors.Is(err, ErrDestinationExists)
}

// IsSourceNotFound checks if the error indicates a missing source
func IsSourceNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound)
}

// IsPartialMove checks if the error left data split between source and destination
func IsPartialMove(err error) bool {
	return errors.Is(err, ErrPartialMove)
}
