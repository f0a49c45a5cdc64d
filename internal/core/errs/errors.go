package errs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Kind classifies failures surfaced to the user
type Kind uint8

const (
	Unknown Kind = iota
	NotFound
	PermissionDenied
	AlreadyExists
	Conflict
	IoError
	Timeout
	DecodeError
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	case AlreadyExists:
		return "already exists"
	case Conflict:
		return "destination occupied"
	case IoError:
		return "i/o error"
	case Timeout:
		return "timed out"
	case DecodeError:
		return "cannot decode"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Error carries a Kind together with the operation and path it happened on
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, &Error{Kind: Conflict}) match on kind alone
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == ""
}

// New creates an Error of the given kind
func New(kind Kind, op, path string, err error) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Wrap classifies err and wraps it. Nil stays nil.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Path: path, Err: err}
}

// KindOf maps an arbitrary error onto a Kind
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EROFS):
		return PermissionDenied
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists
	}
	return IoError
}

func IsNotFound(err error) bool         { return KindOf(err) == NotFound }
func IsPermissionDenied(err error) bool { return KindOf(err) == PermissionDenied }
func IsAlreadyExists(err error) bool    { return KindOf(err) == AlreadyExists }
func IsConflict(err error) bool         { return KindOf(err) == Conflict }
func IsTimeout(err error) bool          { return KindOf(err) == Timeout }
func IsDecode(err error) bool           { return KindOf(err) == DecodeError }
func IsCancelled(err error) bool        { return KindOf(err) == Cancelled }
