package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/xid"
)

func TestFindStale(t *testing.T) {
	base := t.TempDir()

	live, err := Open(Options{RunID: xid.New().String(), BaseDir: base})
	if err != nil {
		t.Fatal(err)
	}
	defer live.Close()

	runID := xid.New().String()
	dead := filepath.Join(base, dirPrefix+runID+"-123")
	if err := os.MkdirAll(filepath.Join(dead, "notes.txt_1"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dead, "notes.txt_1", "x"), []byte("12345"), 0o644)
	// a pid that cannot belong to a running process
	os.WriteFile(filepath.Join(dead, pidFile), []byte("999999999"), 0o600)

	os.Mkdir(filepath.Join(base, "unrelated"), 0o755)
	// matches the name pattern but carries no run id
	foreign := filepath.Join(base, dirPrefix+"foo-bar")
	os.Mkdir(foreign, 0o755)
	os.WriteFile(filepath.Join(foreign, pidFile), []byte("999999999"), 0o600)

	stale, err := FindStale(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 {
		t.Fatalf("found %d stale dirs, want 1: %v", len(stale), stale)
	}
	s := stale[0]
	if s.Dir != dead || s.RunID != runID {
		t.Errorf("stale = %+v", s)
	}
	if s.Items != 1 || s.Size != 5 {
		t.Errorf("items=%d size=%d", s.Items, s.Size)
	}
	if s.Started.IsZero() {
		t.Error("start time not derived from run id")
	}

	if err := Clean(s); err != nil {
		t.Fatal(err)
	}
	if exists(dead) {
		t.Error("stale dir not removed")
	}
	if !exists(live.Dir()) {
		t.Error("live trash removed")
	}
	if !exists(foreign) {
		t.Error("foreign directory touched")
	}
}

func TestIsUnsafePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/", want: true},
		{path: ".", want: true},
		{path: "..", want: true},
		{path: "foo/..", want: true},
		{path: "//", want: true},
		{path: "/tmp/file", want: false},
		{path: "relative/file", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsUnsafePath(tt.path); got != tt.want {
				t.Errorf("IsUnsafePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
