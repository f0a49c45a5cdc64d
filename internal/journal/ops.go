package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/core/errs"
)

// Delete moves path into the trash. Nothing is ever unlinked; on failure
// the original is left where it was.
func (j *Journal) Delete(path string) (Item, error) {
	c, item, err := j.delete(path, Deleted)
	if err != nil {
		return Item{}, err
	}
	j.push([]change{c})
	return item, nil
}

// Restore moves an active item back to its original path. The original
// location must be free.
func (j *Journal) Restore(item Item) error {
	return j.restore(item.ID)
}

// Rename gives src a new name inside the same directory
func (j *Journal) Rename(src, name string) error {
	if !ValidName(name) {
		return errs.New(errs.IoError, "rename", src, ErrInvalidName)
	}
	changes, err := j.transfer(OpRename, src, filepath.Join(filepath.Dir(src), name), false)
	if err != nil {
		return err
	}
	j.push(changes)
	return nil
}

// Move moves src to dst, which must not exist
func (j *Journal) Move(src, dst string) error {
	changes, err := j.transfer(OpMove, src, dst, false)
	if err != nil {
		return err
	}
	j.push(changes)
	return nil
}

// Copy copies src to dst, which must not exist
func (j *Journal) Copy(src, dst string) error {
	changes, err := j.transfer(OpCopy, src, dst, false)
	if err != nil {
		return err
	}
	j.push(changes)
	return nil
}

// Mkdir creates a directory
func (j *Journal) Mkdir(path string) error {
	c, err := j.mkdir(path)
	if err != nil {
		return err
	}
	j.push([]change{c})
	return nil
}

// Touch creates an empty file
func (j *Journal) Touch(path string) error {
	c, err := j.touch(path)
	if err != nil {
		return err
	}
	j.push([]change{c})
	return nil
}

func (j *Journal) delete(path string, kind ItemKind) (change, Item, error) {
	if IsUnsafePath(path) {
		return change{}, Item{}, errs.New(errs.PermissionDenied, "delete", path, ErrUnsafePath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return change{}, Item{}, errs.Wrap("delete", path, err)
	}
	if within(abs, j.dir) || within(j.dir, abs) {
		return change{}, Item{}, errs.New(errs.PermissionDenied, "delete", path, ErrUnsafePath)
	}
	if _, err := os.Lstat(abs); err != nil {
		return change{}, Item{}, errs.Wrap("delete", path, err)
	}

	r, err := j.allocate(abs, kind)
	if err != nil {
		return change{}, Item{}, err
	}
	if err := fsatomic.Move(abs, r.TrashPath, fsatomic.Options{PreserveOwner: true}); err != nil {
		if fsatomic.IsPartialMove(err) {
			j.strand(r)
			slog.Error("partly trashed, keeping the trash copy", "path", abs, "trash", r.TrashPath, "error", err)
		} else {
			j.forget(r.ID)
		}
		return change{}, Item{}, classify("delete", path, err)
	}

	j.mu.Lock()
	r.busy = false
	item := r.Item
	j.mu.Unlock()

	slog.Info("trashed", "path", abs, "trash", item.TrashPath, "kind", kind)
	return change{op: OpDelete, src: abs, item: item.ID}, item, nil
}

// allocate reserves a collision-free trash path. The counter alone makes
// names unique; the lock keeps the item table consistent.
func (j *Journal) allocate(abs string, kind ItemKind) (*record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, errs.New(errs.IoError, "delete", abs, ErrClosed)
	}

	id := j.seq.Add(1)
	name := fmt.Sprintf("%s_%d", filepath.Base(abs), id)
	r := &record{
		Item: Item{
			ID:        id,
			Kind:      kind,
			Original:  abs,
			TrashPath: filepath.Join(j.dir, name),
			TrashedAt: time.Now(),
			State:     Active,
		},
		busy: true,
	}
	j.items[id] = r
	j.order = append(j.order, id)
	return r, nil
}

func (j *Journal) forget(id uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.items, id)
	for i, v := range j.order {
		if v == id {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}

// strand keeps r active past Close
func (j *Journal) strand(r *record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r.busy = false
	r.stranded = true
}

// guard rejects paths inside the trash directory. With contains set it also
// rejects ancestors of the trash directory.
func (j *Journal) guard(op, path string, contains bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errs.Wrap(op, path, err)
	}
	if within(abs, j.dir) || (contains && within(j.dir, abs)) {
		return errs.New(errs.PermissionDenied, op, path, ErrTrashOwned)
	}
	return nil
}

// claim marks an active item busy so no other restore races it
func (j *Journal) claim(id uint64) (*record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r, ok := j.items[id]
	switch {
	case j.closed:
		return nil, errs.New(errs.IoError, "restore", "", ErrClosed)
	case !ok:
		return nil, errs.New(errs.NotFound, "restore", "", ErrInvalidState)
	case r.busy, !canTransition(r.State, Restored):
		return nil, errs.New(errs.Conflict, "restore", r.Original, ErrInvalidState)
	}
	r.busy = true
	return r, nil
}

func (j *Journal) restore(id uint64) error {
	r, err := j.claim(id)
	if err != nil {
		return err
	}
	restored := false
	defer func() {
		j.mu.Lock()
		r.busy = false
		if restored {
			r.State = Restored
		}
		j.mu.Unlock()
	}()

	if _, err := os.Lstat(r.Original); err == nil {
		return errs.New(errs.Conflict, "restore", r.Original, fsatomic.ErrDestinationExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap("restore", r.Original, err)
	}
	if err := os.MkdirAll(filepath.Dir(r.Original), 0o755); err != nil {
		return errs.Wrap("restore", r.Original, err)
	}
	if err := fsatomic.Move(r.TrashPath, r.Original, fsatomic.Options{PreserveOwner: true}); err != nil {
		return classify("restore", r.Original, err)
	}
	restored = true
	slog.Info("restored", "path", r.Original)
	return nil
}

// transfer moves or copies src to dst. With overwrite an existing dst is
// trashed first and put back if the transfer fails.
func (j *Journal) transfer(op Op, src, dst string, overwrite bool) ([]change, error) {
	name := op.String()
	if err := j.guard(name, src, op != OpCopy); err != nil {
		return nil, err
	}
	if err := j.guard(name, dst, false); err != nil {
		return nil, err
	}
	if within(dst, src) {
		return nil, errs.New(errs.Conflict, name, dst, ErrIntoItself)
	}
	if _, err := os.Lstat(src); err != nil {
		return nil, errs.Wrap(name, src, err)
	}

	var changes []change
	if _, err := os.Lstat(dst); err == nil {
		if !overwrite {
			return nil, errs.New(errs.Conflict, name, dst, fsatomic.ErrDestinationExists)
		}
		c, _, err := j.delete(dst, Replaced)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(name, dst, err)
	}

	var err error
	if op == OpCopy {
		err = fsatomic.Copy(src, dst, fsatomic.Options{})
	} else {
		err = fsatomic.Move(src, dst, fsatomic.Options{PreserveOwner: true})
	}
	if err != nil {
		for _, c := range changes {
			if rerr := j.restore(c.item); rerr != nil {
				slog.Error("failed to put back replaced file", "path", c.src, "error", rerr)
			}
		}
		return nil, classify(name, dst, err)
	}

	slog.Info(name, "src", src, "dst", dst)
	return append(changes, change{op: op, src: src, dst: dst}), nil
}

func (j *Journal) mkdir(path string) (change, error) {
	if err := j.guard("mkdir", path, false); err != nil {
		return change{}, err
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return change{}, errs.Wrap("mkdir", path, err)
	}
	return change{op: OpMkdir, dst: path}, nil
}

func (j *Journal) touch(path string) (change, error) {
	if err := j.guard("touch", path, false); err != nil {
		return change{}, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return change{}, errs.Wrap("touch", path, err)
	}
	if err := f.Close(); err != nil {
		return change{}, errs.Wrap("touch", path, err)
	}
	return change{op: OpTouch, dst: path}, nil
}

// classify maps move and copy failures onto error kinds
func classify(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case fsatomic.IsDestinationExists(err), errors.Is(err, fsatomic.ErrSameFile):
		return errs.New(errs.Conflict, op, path, err)
	case fsatomic.IsSourceNotFound(err):
		return errs.New(errs.NotFound, op, path, err)
	}
	return errs.Wrap(op, path, err)
}
