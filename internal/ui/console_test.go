package ui

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/babarot/tana/internal/core/errs"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCompletions(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "projects", "pictures", "public", ".config")
	if err := os.WriteFile(filepath.Join(root, "plain.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		input  string
		hidden bool
		want   []string
	}{
		{"trailing slash lists dirs", root + "/", false, []string{"pictures", "projects", "public"}},
		{"hidden shown", root + "/", true, []string{".config", "pictures", "projects", "public"}},
		{"fuzzy", "pjt", false, []string{"projects"}},
		{"dot pattern finds hidden", ".co", false, []string{".config"}},
		{"no match", "zzz", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := completions(tt.input, root, tt.hidden)
			var names []string
			for _, c := range got {
				names = append(names, filepath.Base(c))
			}
			if !slices.Equal(names, tt.want) {
				t.Errorf("completions(%q) = %v, want %v", tt.input, names, tt.want)
			}
		})
	}
}

func TestResolveDir(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a/b")
	file := filepath.Join(root, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveDir("a/b", root)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(root, "a", "b") {
		t.Errorf("got %q", got)
	}

	if got, _ := resolveDir("", root); got != root {
		t.Errorf("empty input should stay in %q, got %q", root, got)
	}
	if _, err := resolveDir("missing", root); !errs.IsNotFound(err) {
		t.Errorf("missing dir: err = %v, want NotFound", err)
	}
	if _, err := resolveDir("f", root); err == nil {
		t.Error("a file is not a directory")
	}
}
