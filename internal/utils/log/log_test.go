package log

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/babarot/tana/internal/config"
)

func TestRotateWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tana.log")
	w, err := NewRotateWriter(path, config.Rotation{MaxSize: "10B", MaxFiles: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for _, s := range []string{"0123456789", "abcdefghij", "ABCDEFGHIJ", "klmnopqrst"} {
		if _, err := w.Write([]byte(s)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "klmnopqrst" {
		t.Errorf("current log = %q, want last write only", got)
	}

	matches, _ := filepath.Glob(path + ".*")
	if len(matches) != 2 {
		t.Errorf("kept %d backups, want 2: %v", len(matches), matches)
	}
}

func TestRotateWriterInvalidSize(t *testing.T) {
	_, err := NewRotateWriter(filepath.Join(t.TempDir(), "tana.log"), config.Rotation{MaxSize: "lots"})
	if err == nil {
		t.Fatal("expected error for invalid size")
	}
}

func TestRotateWriterClosed(t *testing.T) {
	w, err := NewRotateWriter(filepath.Join(t.TempDir(), "tana.log"), config.Rotation{MaxSize: "1KB"})
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("write after close succeeded")
	}
}

func TestDefaultStyles(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	styles := DefaultStyles()

	for level := range levelColors {
		st, ok := styles.Levels[level]
		if !ok {
			t.Errorf("no style for %s", LogLevelString(level))
			continue
		}
		label := st.Value()
		if len(label) < labelWidth {
			t.Errorf("label %q shorter than %d", label, labelWidth)
		}
		if want := level == ImportantLevel || level >= ErrorLevel; st.GetBold() != want {
			t.Errorf("%q bold = %v, want %v", label, st.GetBold(), want)
		}
	}
	if got := styles.Levels[ImportantLevel].Value(); !strings.Contains(got, "IMPORTANT") {
		t.Errorf("important label = %q", got)
	}
}

func TestRing(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   []string
	}{
		{"empty", 3, nil, []string{}},
		{"partial line held back", 3, []string{"a\nb"}, []string{"a"}},
		{"split writes joined", 3, []string{"he", "llo\n"}, []string{"hello"}},
		{"wraps oldest first", 2, []string{"1\n2\n3\n"}, []string{"2", "3"}},
		{"ansi stripped", 2, []string{"\x1b[31mred\x1b[0m\n"}, []string{"red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.size)
			for _, s := range tt.writes {
				r.Write([]byte(s))
			}
			got := r.Lines()
			if got == nil {
				got = []string{}
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Lines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewWritesAttrs(t *testing.T) {
	defer Reset()
	var buf bytes.Buffer
	logger := New(UseOutput(&buf), UseLevel(DebugLevel), UseAttrs("run_id", "abc"))
	logger.Debug("hello")
	if out := buf.String(); !strings.Contains(out, "hello") || !strings.Contains(out, "run_id=abc") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != DebugLevel {
		t.Error("debug not parsed")
	}
	if ParseLevel("nonsense") != InfoLevel {
		t.Error("unknown level should fall back to info")
	}
}
