package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/samber/lo"
)

// Slot names an independent load stream. Starting a load in a slot cancels
// the one still outstanding there.
type Slot uint8

const (
	Current Slot = iota
	Parent
)

// Loaded is the outcome of one directory load
type Loaded struct {
	Slot       Slot
	Dir        string
	Generation uint64
	Snapshot   *entry.Snapshot
	Err        error
}

// Load is an outstanding directory load
type Load struct {
	ticket *scheduler.Ticket
	res    Loaded
}

// Wait blocks until the load finishes or is cancelled
func (l *Load) Wait() Loaded {
	if err := l.ticket.Err(); err != nil && l.res.Err == nil {
		l.res.Err = err
		l.res.Snapshot = nil
	}
	return l.res
}

func (l *Load) Cancel() { l.ticket.Cancel() }

// Loader runs entry.Load on the scheduler
type Loader struct {
	sched *scheduler.Scheduler
	opts  entry.LoadOptions

	mu    sync.Mutex
	slots map[Slot]*scheduler.Ticket
}

func NewLoader(sched *scheduler.Scheduler, opts entry.LoadOptions) *Loader {
	return &Loader{
		sched: sched,
		opts:  opts,
		slots: make(map[Slot]*scheduler.Ticket),
	}
}

// Start loads dir stamped with gen. Loads are background work; only the
// selected entry's preview goes ahead of them.
func (l *Loader) Start(slot Slot, dir string, gen uint64) *Load {
	ld := &Load{res: Loaded{Slot: slot, Dir: dir, Generation: gen}}
	ld.ticket = l.sched.Submit(scheduler.Job{
		Name:     "load " + dir,
		Priority: scheduler.Background,
		Run: func(ctx context.Context) error {
			snap, err := entry.Load(ctx, dir, gen, l.opts)
			if err != nil {
				return err
			}
			ld.res.Snapshot = snap
			return nil
		},
	})

	l.mu.Lock()
	prev := l.slots[slot]
	l.slots[slot] = ld.ticket
	l.mu.Unlock()

	if prev != nil {
		slog.Debug("superseded load", "slot", slot, "ticket", prev.ID())
		prev.Cancel()
	}
	return ld
}

// CancelAll cancels the outstanding load of every slot
func (l *Loader) CancelAll() {
	l.mu.Lock()
	tickets := lo.Values(l.slots)
	clear(l.slots)
	l.mu.Unlock()

	for _, t := range tickets {
		t.Cancel()
	}
}
