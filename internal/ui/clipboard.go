package ui

import (
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/journal"
	"github.com/samber/lo"
)

// yanked holds the paths picked with copy or cut until they are pasted
type yanked struct {
	op    journal.Op
	paths []string
}

func newYanked(op journal.Op, entries []entry.Entry) yanked {
	return yanked{
		op:    op,
		paths: lo.Map(entries, func(e entry.Entry, _ int) string { return e.Path }),
	}
}

func (y yanked) empty() bool { return len(y.paths) == 0 }

func (y yanked) verb() string {
	if y.op == journal.OpMove {
		return "cut"
	}
	return "copied"
}

// targets maps the yanked paths into dir. Cutting into the directory an
// item already lives in is a no-op and is left out.
func (y yanked) targets(dir string) []journal.Target {
	var out []journal.Target
	for _, p := range y.paths {
		if y.op == journal.OpMove && filepath.Dir(p) == dir {
			continue
		}
		out = append(out, journal.Target{Src: p, Dst: filepath.Join(dir, filepath.Base(p))})
	}
	return out
}

// copyPaths puts the paths on the system clipboard, one per line
func copyPaths(entries []entry.Entry) error {
	paths := lo.Map(entries, func(e entry.Entry, _ int) string { return e.Path })
	return clipboard.WriteAll(strings.Join(paths, "\n"))
}
