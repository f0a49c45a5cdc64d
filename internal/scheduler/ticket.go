package scheduler

import (
	"container/list"
	"context"
	"sync"

	"github.com/babarot/tana/internal/core/errs"
)

type ticketState uint8

const (
	stateQueued ticketState = iota
	stateRunning
	stateCancelled
	stateDone
)

// Ticket tracks a submitted job
type Ticket struct {
	id  uint64
	job Job

	mu     sync.Mutex
	sched  *Scheduler
	elem   *list.Element
	state  ticketState
	cancel context.CancelFunc

	once sync.Once
	done chan struct{}
	err  error
}

func (t *Ticket) ID() uint64 { return t.id }

// Cancel removes a queued job so it never runs, or cancels the context of
// a running one. It is safe to call more than once.
func (t *Ticket) Cancel() {
	// lock order is scheduler then ticket
	if s := t.sched; s != nil {
		s.mu.Lock()
		t.mu.Lock()
		if t.state == stateQueued {
			if t.elem != nil {
				s.queues[t.job.Priority].Remove(t.elem)
				t.elem = nil
			}
			t.state = stateCancelled
			t.mu.Unlock()
			s.mu.Unlock()
			t.finish(errs.New(errs.Cancelled, "job", t.job.Name, context.Canceled))
			return
		}
		t.mu.Unlock()
		s.mu.Unlock()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == stateRunning {
		t.state = stateCancelled
		if t.cancel != nil {
			t.cancel()
		}
	}
}

// Done is closed when the job has finished, failed or been cancelled
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Err returns the job result once Done is closed
func (t *Ticket) Err() error {
	<-t.done
	return t.err
}

// Wait blocks until the job is done or ctx ends
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) finish(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		if t.state != stateCancelled {
			t.state = stateDone
		}
		t.mu.Unlock()
		t.err = err
		close(t.done)
	})
}
