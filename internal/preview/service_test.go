package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/scheduler"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	sched := scheduler.New(context.Background(), scheduler.Options{Workers: 2})
	t.Cleanup(func() { sched.Close() })
	return NewService(NewCache(1<<20), NewGenerator(opts), sched)
}

func TestServiceCacheFastPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := statEntry(t, path)
	s := newTestService(t, testOptions())

	first := s.Request(Request{Entry: e, Generation: 1}).Wait()
	if first.Err != nil {
		t.Fatal(first.Err)
	}
	if first.Cached {
		t.Error("first request should not be a cache hit")
	}
	if first.Handle == nil || first.Handle.Artifact.Kind != Text {
		t.Fatal("expected a text artifact")
	}
	first.Handle.Release()

	p := s.Request(Request{Entry: e, Generation: 2})
	select {
	case <-p.Done():
	default:
		t.Fatal("cache hit should resolve synchronously")
	}
	second := p.Wait()
	defer second.Handle.Release()
	if !second.Cached {
		t.Error("second request should be a cache hit")
	}
	if second.Request.Generation != 2 {
		t.Errorf("generation = %d, want 2", second.Request.Generation)
	}
	if second.Handle.Artifact != first.Handle.Artifact {
		t.Error("cache returned a different artifact")
	}
}

func TestServiceCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(path, []byte{0x00, 0xff, 0x00, 0xfe}, 0o644); err != nil {
		t.Fatal(err)
	}
	e := statEntry(t, path)

	opts := testOptions()
	opts.ExternalCommand = "sleep 10;"
	opts.ExternalTimeout = 10 * time.Second
	s := newTestService(t, opts)

	p := s.Request(Request{Entry: e, Generation: 1})
	time.Sleep(50 * time.Millisecond)
	p.Cancel()

	select {
	case <-p.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("cancelled request did not resolve")
	}
	res := p.Wait()
	if res.Handle != nil {
		t.Error("cancelled request should carry no handle")
	}
	if !errs.IsCancelled(res.Err) {
		t.Errorf("err = %v, want cancelled", res.Err)
	}
	if _, ok := s.Cache().Get(e.Fingerprint()); ok {
		t.Error("cancelled preview must not be cached")
	}
}

func TestServicePrefetch(t *testing.T) {
	dir := t.TempDir()
	var entries []entry.Entry
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		entries = append(entries, statEntry(t, p))
	}
	s := newTestService(t, testOptions())

	s.Prefetch(entries)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, count := s.Cache().Stats(); count == len(entries) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	_, _, count := s.Cache().Stats()
	t.Errorf("cached %d entries, want %d", count, len(entries))
}

func TestServiceRequestReplacesPrefetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := statEntry(t, path)
	s := newTestService(t, testOptions())

	// keep both workers busy so the prefetch stays queued
	release := make(chan struct{})
	for i := 0; i < 2; i++ {
		s.sched.Submit(scheduler.Job{
			Name:     "busy",
			Priority: scheduler.Background,
			Run: func(ctx context.Context) error {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil
			},
		})
	}

	s.Prefetch([]entry.Entry{e})
	s.mu.Lock()
	prefetch := s.prefetch[path]
	s.mu.Unlock()
	if prefetch == nil {
		t.Fatal("prefetch not queued")
	}

	p := s.Request(Request{Entry: e, Generation: 1})
	if err := prefetch.Err(); !errs.IsCancelled(err) {
		t.Errorf("prefetch err = %v, want cancelled", err)
	}
	close(release)

	res := p.Wait()
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	defer res.Handle.Release()
	if res.Cached {
		t.Error("nothing should have been cached before the request ran")
	}
	s.mu.Lock()
	left := len(s.prefetch)
	s.mu.Unlock()
	if left != 0 {
		t.Errorf("%d prefetches still tracked", left)
	}
}
