package journal

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/gobwas/glob"
	"github.com/rs/xid"
)

// pidGrace protects a directory whose pid file is not written yet
const pidGrace = time.Minute

var trashDirGlob = glob.MustCompile(dirPrefix + "*-*")

// Stale is a trash directory left behind by a run that did not shut down cleanly
type Stale struct {
	Dir     string
	RunID   string
	PID     int
	Started time.Time
	Items   int
	Size    int64
}

// FindStale scans base (os.TempDir() when empty) for trash directories
// whose owning process is gone
func FindStale(base string) ([]Stale, error) {
	if base == "" {
		base = os.TempDir()
	}
	dirents, err := os.ReadDir(base)
	if err != nil {
		return nil, errs.Wrap("scan", base, err)
	}

	var stale []Stale
	for _, d := range dirents {
		if !d.IsDir() || !trashDirGlob.Match(d.Name()) {
			continue
		}
		dir := filepath.Join(base, d.Name())
		s, ok := inspect(dir, d.Name())
		if !ok {
			continue
		}
		stale = append(stale, s)
	}
	return stale, nil
}

func inspect(dir, name string) (Stale, bool) {
	s := Stale{Dir: dir}

	// only directories named after a run id are ours
	parts := strings.SplitN(strings.TrimPrefix(name, dirPrefix), "-", 2)
	id, err := xid.FromString(parts[0])
	if err != nil {
		return s, false
	}
	s.RunID = id.String()
	s.Started = id.Time()

	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	switch {
	case err == nil:
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err == nil && pid > 0 {
			s.PID = pid
			if alive(pid) {
				return s, false
			}
		}
	default:
		info, err := os.Stat(dir)
		if err != nil || time.Since(info.ModTime()) < pidGrace {
			return s, false
		}
	}

	s.Items, s.Size = usage(dir)
	return s, true
}

// usage counts top-level items and total bytes under dir
func usage(dir string) (items int, size int64) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if filepath.Dir(path) == dir {
			if d.Name() == pidFile {
				return nil
			}
			items++
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			size += info.Size()
		}
		return nil
	})
	return items, size
}

// Clean removes a stale trash directory and everything in it
func Clean(s Stale) error {
	if err := purge(s.Dir); err != nil {
		return errs.Wrap("clean", s.Dir, err)
	}
	slog.Info("removed stale trash", "dir", s.Dir, "run_id", s.RunID, "items", s.Items)
	return nil
}
