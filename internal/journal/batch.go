package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/samber/lo"
)

// Target is one unit of a batch. Delete, Mkdir and Touch only use Src.
type Target struct {
	Src string
	Dst string
}

// Outcome reports what happened to one target
type Outcome struct {
	Target Target
	// Item is set for successful deletes
	Item Item
	Err  error
}

func (o Outcome) OK() bool { return o.Err == nil }

// BatchOptions tunes a batch
type BatchOptions struct {
	// Overwrite trashes an existing destination instead of failing with Conflict
	Overwrite bool
}

// Batch runs op on every target and keeps going after failures. Targets
// are copied before the first step runs, and the successful steps form a
// single undo entry.
func (j *Journal) Batch(ctx context.Context, op Op, targets []Target) []Outcome {
	return j.BatchWith(ctx, op, targets, BatchOptions{})
}

// BatchWith runs every target as a background job on the journal's
// scheduler and waits for all of them. Cancelling ctx drops the targets
// that have not started.
func (j *Journal) BatchWith(ctx context.Context, op Op, targets []Target, opts BatchOptions) []Outcome {
	targets = slices.Clone(targets)
	outcomes := make([]Outcome, len(targets))
	changes := make([][]change, len(targets))
	started := make([]bool, len(targets))

	tickets := make([]*scheduler.Ticket, len(targets))
	for i, t := range targets {
		outcomes[i].Target = t
		tickets[i] = j.sched.Submit(scheduler.Job{
			Name:     op.String() + " " + t.Src,
			Priority: scheduler.Background,
			Run: func(context.Context) error {
				started[i] = true
				if err := ctx.Err(); err != nil {
					outcomes[i].Err = errs.New(errs.Cancelled, op.String(), t.Src, err)
					return nil
				}
				cs, item, err := j.apply(op, t, opts)
				outcomes[i].Item = item
				outcomes[i].Err = err
				changes[i] = cs
				return err
			},
		})
	}

	stop := context.AfterFunc(ctx, func() {
		for _, t := range tickets {
			t.Cancel()
		}
	})
	defer stop()

	for i, t := range tickets {
		// a step that started always finishes, its own outcome wins
		if err := t.Err(); err != nil && !started[i] {
			outcomes[i].Err = errs.New(errs.Cancelled, op.String(), targets[i].Src, err)
		}
	}

	j.push(slices.Concat(changes...))
	return outcomes
}

func (j *Journal) apply(op Op, t Target, opts BatchOptions) ([]change, Item, error) {
	switch op {
	case OpDelete:
		c, item, err := j.delete(t.Src, Deleted)
		if err != nil {
			return nil, Item{}, err
		}
		return []change{c}, item, nil
	case OpRename:
		if !ValidName(filepath.Base(t.Dst)) || filepath.Dir(t.Dst) != filepath.Dir(t.Src) {
			return nil, Item{}, errs.New(errs.IoError, "rename", t.Src, ErrInvalidName)
		}
		cs, err := j.transfer(OpRename, t.Src, t.Dst, opts.Overwrite)
		return cs, Item{}, err
	case OpMove, OpCopy:
		cs, err := j.transfer(op, t.Src, t.Dst, opts.Overwrite)
		return cs, Item{}, err
	case OpMkdir:
		c, err := j.mkdir(t.Src)
		if err != nil {
			return nil, Item{}, err
		}
		return []change{c}, Item{}, nil
	case OpTouch:
		c, err := j.touch(t.Src)
		if err != nil {
			return nil, Item{}, err
		}
		return []change{c}, Item{}, nil
	}
	return nil, Item{}, errs.New(errs.IoError, op.String(), t.Src, fmt.Errorf("unknown operation %d", op))
}

// Failed returns the outcomes that did not succeed, leaving out cancellations
func Failed(outcomes []Outcome) []Outcome {
	return lo.Filter(outcomes, func(o Outcome, _ int) bool {
		return o.Err != nil && !errs.IsCancelled(o.Err)
	})
}

// Summary renders outcomes as "N succeeded, M failed"
func Summary(outcomes []Outcome) string {
	ok := lo.CountBy(outcomes, Outcome.OK)
	return fmt.Sprintf("%d succeeded, %d failed", ok, len(outcomes)-ok)
}
