package scheduler

import (
	"context"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/babarot/tana/internal/core/errs"
)

// blocker occupies the only worker until release is closed
func blocker(s *Scheduler) (started chan struct{}, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	s.Submit(Job{
		Name:     "blocker",
		Priority: Interactive,
		Run: func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
	})
	return started, release
}

func TestPriorityAndFIFO(t *testing.T) {
	s := New(context.Background(), Options{Workers: 1})
	defer s.Close()

	started, release := blocker(s)
	<-started

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	var tickets []*Ticket
	for _, j := range []Job{
		{Name: "b1", Priority: Background},
		{Name: "b2", Priority: Background},
		{Name: "i1", Priority: Interactive},
		{Name: "i2", Priority: Interactive},
	} {
		j.Run = record(j.Name)
		tickets = append(tickets, s.Submit(j))
	}
	close(release)
	for _, tk := range tickets {
		if err := tk.Err(); err != nil {
			t.Fatalf("%v", err)
		}
	}

	want := []string{"i1", "i2", "b1", "b2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestCancelQueuedNeverRuns(t *testing.T) {
	s := New(context.Background(), Options{Workers: 1})
	defer s.Close()

	started, release := blocker(s)
	<-started

	var ran atomic.Bool
	tk := s.Submit(Job{Name: "victim", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})
	tk.Cancel()
	close(release)

	if err := tk.Err(); !errs.IsCancelled(err) {
		t.Fatalf("expected Cancelled, got %v", err)
	}

	// a later job proves the worker moved past the removed one
	if err := s.Submit(Job{Name: "after", Run: func(context.Context) error { return nil }}).Err(); err != nil {
		t.Fatal(err)
	}
	if ran.Load() {
		t.Fatal("cancelled job ran")
	}
	if i, b := s.Pending(); i+b != 0 {
		t.Fatalf("queue not empty: %d %d", i, b)
	}
}

func TestCancelRunningKillsSubprocess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	s := New(context.Background(), Options{Workers: 1})
	defer s.Close()

	running := make(chan struct{})
	tk := s.Submit(Job{Name: "sleep", Priority: Interactive, Run: func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, "sleep", "30")
		if err := cmd.Start(); err != nil {
			return err
		}
		close(running)
		return cmd.Wait()
	}})
	<-running

	begin := time.Now()
	tk.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := tk.Wait(ctx)
	if !errs.IsCancelled(err) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if time.Since(begin) > 5*time.Second {
		t.Fatal("subprocess was not killed")
	}
}

func TestTimeout(t *testing.T) {
	s := New(context.Background(), Options{Workers: 2})
	defer s.Close()

	tk := s.Submit(Job{Name: "slow", Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	if err := tk.Err(); !errs.IsTimeout(err) {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

func TestBoundedConcurrency(t *testing.T) {
	const workers = 3
	s := New(context.Background(), Options{Workers: workers})
	defer s.Close()

	var cur, peak atomic.Int32
	var tickets []*Ticket
	for i := 0; i < 20; i++ {
		tickets = append(tickets, s.Submit(Job{Name: "n", Run: func(context.Context) error {
			n := cur.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			cur.Add(-1)
			return nil
		}}))
	}
	for _, tk := range tickets {
		_ = tk.Err()
	}
	if peak.Load() > workers {
		t.Fatalf("peak concurrency %d exceeds %d workers", peak.Load(), workers)
	}
}

func TestCloseDropsQueued(t *testing.T) {
	s := New(context.Background(), Options{Workers: 1})
	started, release := blocker(s)
	<-started

	tk := s.Submit(Job{Name: "queued", Run: func(context.Context) error { return nil }})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tk.Err(); !errs.IsCancelled(err) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if err := s.Submit(Job{Name: "late", Run: func(context.Context) error { return nil }}).Err(); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPanicBecomesError(t *testing.T) {
	s := New(context.Background(), Options{Workers: 1})
	defer s.Close()

	tk := s.Submit(Job{Name: "boom", Run: func(context.Context) error { panic("boom") }})
	if tk.Err() == nil {
		t.Fatal("expected error from panicking job")
	}
}
