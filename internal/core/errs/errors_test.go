package errs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestKindOf(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unknown},
		{"stat missing", statErr, NotFound},
		{"permission", fs.ErrPermission, PermissionDenied},
		{"exist", fs.ErrExist, AlreadyExists},
		{"canceled", context.Canceled, Cancelled},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), Timeout},
		{"typed", New(Conflict, "rename", "/a", nil), Conflict},
		{"wrapped typed", fmt.Errorf("batch: %w", New(DecodeError, "decode", "/a.png", nil)), DecodeError},
		{"other", errors.New("boom"), IoError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := New(Conflict, "move", "/x", nil)
	if got := Wrap("batch", "/x", inner); got != inner {
		t.Fatalf("Wrap re-wrapped a typed error: %v", got)
	}
	if Wrap("op", "/x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	if !IsNotFound(Wrap("stat", "/x", fs.ErrNotExist)) {
		t.Fatal("expected NotFound")
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(Conflict, "rename", "/dst", nil))
	if !errors.Is(err, &Error{Kind: Conflict}) {
		t.Fatal("errors.Is should match on kind")
	}
	if errors.Is(err, &Error{Kind: NotFound}) {
		t.Fatal("errors.Is matched the wrong kind")
	}
}
