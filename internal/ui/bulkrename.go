package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/journal"
	"github.com/samber/lo"
)

// renamePlan compares the names written back by the editor with the
// originals, one per line in the same order. Unchanged lines are skipped.
// Names already present in dir are refused so that the batch never has to
// order dependent renames.
func renamePlan(dir string, olds []string, edited string) ([]journal.Target, error) {
	lines := strings.Split(strings.TrimRight(edited, "\n"), "\n")
	if edited == "" {
		lines = nil
	}
	if len(lines) != len(olds) {
		return nil, fmt.Errorf("expected %d names, got %d", len(olds), len(lines))
	}

	news := lo.Map(lines, func(s string, _ int) string { return strings.TrimRight(s, "\r") })
	if dups := lo.FindDuplicates(news); len(dups) > 0 {
		return nil, fmt.Errorf("duplicate name %q", dups[0])
	}

	var targets []journal.Target
	for i, name := range news {
		if name == olds[i] {
			continue
		}
		if !journal.ValidName(name) {
			return nil, fmt.Errorf("invalid name %q", name)
		}
		dst := filepath.Join(dir, name)
		if _, err := os.Lstat(dst); err == nil {
			return nil, fmt.Errorf("%q already exists", name)
		}
		targets = append(targets, journal.Target{Src: filepath.Join(dir, olds[i]), Dst: dst})
	}
	return targets, nil
}

// writeRenameFile stores names one per line in a temp file for the editor
func writeRenameFile(names []string) (*fsatomic.TempFile, error) {
	tm, err := fsatomic.NewTempManager(filepath.Join(os.TempDir(), "tana_rename"))
	if err != nil {
		return nil, err
	}
	tf, err := tm.CreateTemp("rename", ".txt")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(tf.Path, []byte(strings.Join(names, "\n")+"\n"), 0o600); err != nil {
		tf.Cleanup()
		return nil, err
	}
	return tf, nil
}

func editor() string {
	if e := os.Getenv("VISUAL"); e != "" {
		return e
	}
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}
