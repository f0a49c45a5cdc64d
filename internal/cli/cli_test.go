package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/babarot/tana/internal/core/errs"
)

func TestStartDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr func(error) bool
	}{
		{name: "empty uses cwd", arg: "", want: wd},
		{name: "absolute dir", arg: root, want: root},
		{name: "cleaned", arg: root + "/./", want: root},
		{name: "missing", arg: filepath.Join(root, "nope"), wantErr: errs.IsNotFound},
		{name: "file", arg: file, wantErr: func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := startDir(tt.arg)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("startDir(%q) = %q, want %q", tt.arg, got, tt.want)
			}
		})
	}
}

func TestVersionPrint(t *testing.T) {
	v := Version{AppName: "tana", Version: "v1.2.3", Revision: "abc", BuildDate: "today"}
	want := "tana - a terminal file manager with previews and an undoable trash\n" +
		appURL + "\n\nversion: v1.2.3\nrevision: abc\nbuildDate: today\n"
	if got := v.Print(); got != want {
		t.Errorf("Print() = %q, want %q", got, want)
	}
}
