// Package journal performs destructive file operations through a per-run
// trash directory so that every step can be undone until the run ends.
package journal

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/scheduler"
)

const (
	dirPrefix = "tana-"
	pidFile   = ".pid"
	maxUndo   = 256
)

var (
	ErrClosed        = errors.New("journal is closed")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrUnsafePath    = errors.New("refusing to touch unsafe path")
	ErrInvalidName   = errors.New("invalid file name")
	ErrInvalidState  = errors.New("item is not in the trash")
	ErrIntoItself    = errors.New("cannot move a directory into itself")
	ErrTrashOwned    = errors.New("path belongs to the trash")
	ErrStranded      = errors.New("trash kept, it holds the only copy of a partly moved file")
)

// Op names a journaled operation
type Op uint8

const (
	OpDelete Op = iota
	OpRename
	OpMove
	OpCopy
	OpMkdir
	OpTouch
)

func (o Op) String() string {
	switch o {
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	case OpMove:
		return "move"
	case OpCopy:
		return "copy"
	case OpMkdir:
		return "mkdir"
	case OpTouch:
		return "touch"
	}
	return "unknown"
}

// Options configures a Journal
type Options struct {
	// RunID is embedded in the trash directory name
	RunID string
	// BaseDir holds the trash directory, os.TempDir() when empty
	BaseDir string
	// Scheduler runs batch steps as background jobs. When nil the journal
	// starts its own with Concurrency workers and stops it on Close.
	Scheduler *scheduler.Scheduler
	// Concurrency bounds parallel steps when the journal owns its scheduler
	Concurrency int
}

// change is one completed step, enough to revert it
type change struct {
	op   Op
	src  string
	dst  string
	item uint64
}

// Journal owns the trash directory of one run
type Journal struct {
	dir   string
	sched *scheduler.Scheduler
	owned bool

	seq atomic.Uint64

	mu     sync.Mutex
	items  map[uint64]*record
	order  []uint64
	undo   [][]change
	closed bool
}

// Open creates the trash directory for this run
func Open(opts Options) (*Journal, error) {
	base := opts.BaseDir
	if base == "" {
		base = os.TempDir()
	}
	dir, err := os.MkdirTemp(base, dirPrefix+opts.RunID+"-")
	if err != nil {
		return nil, errs.Wrap("open trash", base, err)
	}
	if err := fsatomic.WriteFile(filepath.Join(dir, pidFile), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		os.RemoveAll(dir)
		return nil, errs.Wrap("open trash", dir, err)
	}

	j := &Journal{
		dir:   dir,
		sched: opts.Scheduler,
		items: make(map[uint64]*record),
	}
	if j.sched == nil {
		workers := opts.Concurrency
		if workers < 1 {
			workers = 4
		}
		j.sched = scheduler.New(context.Background(), scheduler.Options{Workers: workers})
		j.owned = true
	}
	slog.Info("trash opened", "dir", dir)
	return j, nil
}

// Dir is the trash directory
func (j *Journal) Dir() string { return j.dir }

// Items lists every settled item in trash order
func (j *Journal) Items() []Item {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Item, 0, len(j.order))
	for _, id := range j.order {
		if r := j.items[id]; !r.busy {
			out = append(out, r.Item)
		}
	}
	return out
}

// Item returns the current state of item id
func (j *Journal) Item(id uint64) (Item, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.items[id]
	if !ok {
		return Item{}, false
	}
	return r.Item, true
}

// CanUndo reports whether Undo has anything to revert
func (j *Journal) CanUndo() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undo) > 0
}

// Close purges every active item and removes the trash directory. It runs
// regardless of pending items; call it on every exit path. A stranded item
// is never purged: its trash path and the pid file stay behind so the
// directory shows up as stale on the next run.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	purged := 0
	var keep []string
	for _, r := range j.items {
		if r.stranded {
			keep = append(keep, r.TrashPath)
			continue
		}
		if canTransition(r.State, Purged) {
			r.State = Purged
			purged++
		}
	}
	j.undo = nil
	j.mu.Unlock()

	if j.owned {
		if err := j.sched.Close(); err != nil {
			slog.Warn("journal scheduler close", "error", err)
		}
	}

	if len(keep) > 0 {
		err := purgeExcept(j.dir, append(keep, filepath.Join(j.dir, pidFile)))
		slog.Warn("trash kept", "dir", j.dir, "stranded", keep, "items", purged, "error", err)
		return errs.New(errs.IoError, "purge", j.dir, errors.Join(ErrStranded, err))
	}
	err := purge(j.dir)
	slog.Info("trash purged", "dir", j.dir, "items", purged, "error", err)
	return errs.Wrap("purge", j.dir, err)
}

// purgeExcept removes every entry of dir that is not listed in keep
func purgeExcept(dir string, keep []string) error {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errList []error
	for _, d := range dirents {
		path := filepath.Join(dir, d.Name())
		if slices.Contains(keep, path) {
			continue
		}
		if err := purge(path); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// purge removes dir even when it holds read-only directories
func purge(dir string) error {
	err := os.RemoveAll(dir)
	if err == nil {
		return nil
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			os.Chmod(path, 0o700)
		}
		return nil
	})
	return os.RemoveAll(dir)
}

// push records one undo step
func (j *Journal) push(step []change) {
	if len(step) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	j.undo = append(j.undo, step)
	if len(j.undo) > maxUndo {
		j.undo = slices.Delete(j.undo, 0, len(j.undo)-maxUndo)
	}
}

// Undo reverts the most recent step. A batch is one step. Changes that
// cannot be reverted stay on the stack so a later Undo can retry them.
func (j *Journal) Undo() (Op, error) {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return 0, errs.New(errs.IoError, "undo", j.dir, ErrClosed)
	}
	if len(j.undo) == 0 {
		j.mu.Unlock()
		return 0, ErrNothingToUndo
	}
	step := j.undo[len(j.undo)-1]
	j.undo = j.undo[:len(j.undo)-1]
	j.mu.Unlock()

	op := step[len(step)-1].op
	var (
		failed []change
		errList []error
	)
	for i := len(step) - 1; i >= 0; i-- {
		if err := j.revert(step[i]); err != nil {
			failed = append([]change{step[i]}, failed...)
			errList = append(errList, err)
		}
	}
	if len(failed) > 0 {
		j.push(failed)
		return op, errors.Join(errList...)
	}
	slog.Info("undone", "op", op, "changes", len(step))
	return op, nil
}

func (j *Journal) revert(c change) error {
	switch c.op {
	case OpDelete:
		return j.restore(c.item)
	case OpRename, OpMove:
		_, err := j.transfer(OpMove, c.dst, c.src, false)
		return err
	case OpCopy, OpMkdir, OpTouch:
		// created paths go to the trash rather than being unlinked
		_, _, err := j.delete(c.dst, Deleted)
		return err
	}
	return nil
}
