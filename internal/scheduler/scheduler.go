package scheduler

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"golang.org/x/sync/errgroup"
)

// Priority selects the queue a job waits in
type Priority uint8

const (
	// Background covers prefetch and directory reloads
	Background Priority = iota
	// Interactive covers work the user is waiting on right now
	Interactive
)

func (p Priority) String() string {
	if p == Interactive {
		return "interactive"
	}
	return "background"
}

// ErrClosed is returned by tickets submitted after Close
var ErrClosed = errors.New("scheduler is closed")

// Job is one unit of work. Run must honor ctx for anything that can block
// for long; subprocesses should be started with exec.CommandContext.
type Job struct {
	Name     string
	Priority Priority
	// Timeout is a hard deadline measured from the moment the job starts
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Options configures a Scheduler
type Options struct {
	Workers int
}

// Scheduler is a fixed-size worker pool draining two FIFO queues.
// Interactive jobs always start before background ones.
type Scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queues [2]*list.List
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	seq     atomic.Uint64
	running atomic.Int32
}

// New starts the workers
func New(ctx context.Context, opts Options) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		queues: [2]*list.List{list.New(), list.New()},
		ctx:    ctx,
		cancel: cancel,
		group:  &errgroup.Group{},
	}
	s.cond = sync.NewCond(&s.mu)

	for i := 0; i < opts.Workers; i++ {
		s.group.Go(func() error {
			s.worker(i)
			return nil
		})
	}
	slog.Debug("scheduler started", "workers", opts.Workers)
	return s
}

// Submit enqueues job and returns a ticket to observe or cancel it
func (s *Scheduler) Submit(job Job) *Ticket {
	t := &Ticket{
		id:   s.seq.Add(1),
		job:  job,
		done: make(chan struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		t.finish(ErrClosed)
		return t
	}
	t.sched = s
	t.elem = s.queues[job.Priority].PushBack(t)
	s.cond.Signal()
	return t
}

// Pending returns the number of queued jobs per priority
func (s *Scheduler) Pending() (interactive, background int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queues[Interactive].Len(), s.queues[Background].Len()
}

// Running returns the number of jobs currently executing
func (s *Scheduler) Running() int {
	return int(s.running.Load())
}

// Close drops every queued job, cancels running ones and waits for the workers
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var dropped []*Ticket
	for _, q := range s.queues {
		for e := q.Front(); e != nil; e = e.Next() {
			t := e.Value.(*Ticket)
			t.mu.Lock()
			t.elem = nil
			t.state = stateCancelled
			t.mu.Unlock()
			dropped = append(dropped, t)
		}
		q.Init()
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	for _, t := range dropped {
		t.finish(errs.New(errs.Cancelled, "job", t.job.Name, ErrClosed))
	}

	s.cancel()
	err := s.group.Wait()
	slog.Debug("scheduler stopped", "dropped", len(dropped))
	return err
}

// next blocks until a job is available. It returns nil once closed.
func (s *Scheduler) next() *Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.closed {
			return nil
		}
		for _, p := range []Priority{Interactive, Background} {
			q := s.queues[p]
			if e := q.Front(); e != nil {
				q.Remove(e)
				t := e.Value.(*Ticket)
				t.mu.Lock()
				t.elem = nil
				t.state = stateRunning
				t.mu.Unlock()
				return t
			}
		}
		s.cond.Wait()
	}
}

func (s *Scheduler) worker(id int) {
	for {
		t := s.next()
		if t == nil {
			return
		}
		s.running.Add(1)
		s.execute(id, t)
		s.running.Add(-1)
	}
}

func (s *Scheduler) execute(worker int, t *Ticket) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t.job.Timeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, t.job.Timeout)
	} else {
		ctx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	t.mu.Lock()
	if t.state == stateCancelled {
		t.mu.Unlock()
		t.finish(errs.New(errs.Cancelled, "job", t.job.Name, context.Canceled))
		return
	}
	t.cancel = cancel
	t.mu.Unlock()

	start := time.Now()
	err := run(ctx, t.job)
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = classify(t.job.Name, ctxErr, err)
	}

	slog.Debug("job finished",
		"job", t.job.Name,
		"priority", t.job.Priority,
		"worker", worker,
		"elapsed", time.Since(start),
		"error", err)
	t.finish(err)
}

func run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", job.Name, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

func classify(name string, ctxErr, err error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return errs.New(errs.Timeout, "job", name, err)
	}
	return errs.New(errs.Cancelled, "job", name, err)
}
