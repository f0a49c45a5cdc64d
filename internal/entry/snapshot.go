package entry

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/gobwas/glob"
	"golang.org/x/text/unicode/norm"
)

// Snapshot is the listing of one directory at one generation
type Snapshot struct {
	Dir        string
	Generation uint64
	Entries    []Entry
	LoadedAt   time.Time
}

// Index returns the position of path in the snapshot or -1
func (s *Snapshot) Index(path string) int {
	if s == nil {
		return -1
	}
	return slices.IndexFunc(s.Entries, func(e Entry) bool { return e.Path == path })
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// LoadOptions controls what Load keeps
type LoadOptions struct {
	// Ignore drops entries whose name matches any of the globs
	Ignore []glob.Glob
}

// checkEvery is how many entries Load reads between cancellation checks
const checkEvery = 256

// Load reads dir and returns a sorted Snapshot stamped with gen
func Load(ctx context.Context, dir string, gen uint64, opts LoadOptions) (*Snapshot, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap("load", dir, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for i, d := range dirents {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errs.Wrap("load", dir, err)
			}
		}
		if ignored(d.Name(), opts.Ignore) {
			continue
		}
		e, err := newEntry(dir, d)
		if err != nil {
			// removed between ReadDir and Info
			slog.Debug("skipping entry", "dir", dir, "name", d.Name(), "error", err)
			continue
		}
		entries = append(entries, e)
	}

	slices.SortFunc(entries, Compare)

	return &Snapshot{
		Dir:        dir,
		Generation: gen,
		Entries:    entries,
		LoadedAt:   time.Now(),
	}, nil
}

// Stat builds a single Entry for path
func Stat(path string) (Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, errs.Wrap("stat", path, err)
	}
	return fromInfo(filepath.Dir(path), info.Name(), info), nil
}

func newEntry(dir string, d fs.DirEntry) (Entry, error) {
	info, err := d.Info()
	if err != nil {
		return Entry{}, err
	}
	return fromInfo(dir, d.Name(), info), nil
}

func fromInfo(dir, name string, info fs.FileInfo) Entry {
	path := filepath.Join(dir, name)
	e := Entry{
		Path:    path,
		Name:    norm.NFC.String(name),
		Kind:    File,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}

	switch {
	case info.IsDir():
		e.Kind = Directory
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Stat(path)
		if err != nil {
			e.Kind = BrokenLink
			break
		}
		e.Kind = Symlink
		e.LinkDir = target.IsDir()
	}
	return e
}

func ignored(name string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
