package opener

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/babarot/tana/internal/config"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMatch(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "notes", []byte("hello world\n"))
	md := writeFile(t, dir, "README.MD", []byte("# title\n"))
	png := writeFile(t, dir, "pic.bin", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

	o, err := New([]config.OpenRule{
		{Ext: "md, .markdown", Command: "glow"},
		{Mime: "text/*", Command: "vi", Terminal: true},
		{Mime: "image/*", Command: "viewer"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{md, "glow"},
		{text, "vi"},
		{png, "viewer"},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			r, err := o.Match(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if r.Command != tt.want {
				t.Errorf("command = %q, want %q", r.Command, tt.want)
			}
		})
	}
}

func TestMatchNoRule(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data", []byte{0, 1, 2, 3})

	o, err := New([]config.OpenRule{{Mime: "text/*", Command: "vi"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Match(path); !errors.Is(err, ErrNoRule) {
		t.Errorf("err = %v, want ErrNoRule", err)
	}
}

func TestCommandQuotesPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "it's here.txt", []byte("x\n"))

	o, _ := New([]config.OpenRule{{Mime: "*", Command: "cat"}})
	cmd, terminal, err := o.Command(path)
	if err != nil {
		t.Fatal(err)
	}
	if terminal {
		t.Error("rule is not a terminal rule")
	}
	out, err := cmd.Output()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "x\n" {
		t.Errorf("output = %q", out)
	}
}

func TestNewInvalidGlob(t *testing.T) {
	if _, err := New([]config.OpenRule{{Mime: "text/[", Command: "vi"}}); err == nil {
		t.Error("expected compile error")
	}
}
