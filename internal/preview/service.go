package preview

import (
	"context"
	"sync"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/samber/lo"
)

// Request asks for the preview of one entry as seen at one generation
type Request struct {
	Entry      entry.Entry
	Generation uint64
}

// Result is delivered once per request. A non-nil Handle must be released
// by whoever ends up holding it.
type Result struct {
	Request Request
	Handle  *Handle
	Cached  bool
	Err     error
}

// Pending is the in-flight side of a request
type Pending struct {
	req    Request
	ticket *scheduler.Ticket

	mu        sync.Mutex
	resolved  bool
	cancelled bool
	done      chan struct{}
	res       Result
}

func (p *Pending) Request() Request { return p.req }

// Cancel drops the job if it has not started and kills any subprocess it
// runs. A handle delivered to a cancelled Pending is released.
func (p *Pending) Cancel() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return
	}
	p.cancelled = true
	if p.resolved && p.res.Handle != nil {
		p.res.Handle.Release()
		p.res.Handle = nil
		p.res.Err = errs.New(errs.Cancelled, "preview", p.req.Entry.Path, context.Canceled)
	}
	p.mu.Unlock()

	if p.ticket != nil {
		p.ticket.Cancel()
	}
}

// Done is closed when the result is available
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the result is available
func (p *Pending) Wait() Result {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.res
}

func (p *Pending) resolve(res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		res.Handle.Release()
		return
	}
	p.resolved = true
	if p.cancelled && res.Handle != nil {
		res.Handle.Release()
		res.Handle = nil
		res.Err = errs.New(errs.Cancelled, "preview", p.req.Entry.Path, context.Canceled)
	}
	p.res = res
	close(p.done)
}

// Service connects the cache, the generator and the scheduler
type Service struct {
	cache   *Cache
	gen     *Generator
	sched   *scheduler.Scheduler
	timeout time.Duration

	mu       sync.Mutex
	prefetch map[string]*scheduler.Ticket
}

func NewService(cache *Cache, gen *Generator, sched *scheduler.Scheduler) *Service {
	// the generator enforces the tool timeout itself; the job deadline is a backstop
	timeout := gen.opts.ExternalTimeout
	if timeout > 0 {
		timeout *= 2
	}
	return &Service{
		cache:    cache,
		gen:      gen,
		sched:    sched,
		timeout:  timeout,
		prefetch: make(map[string]*scheduler.Ticket),
	}
}

func (s *Service) Cache() *Cache { return s.cache }

// Request returns immediately. A cache hit resolves the Pending before
// Request returns and never touches the scheduler.
func (s *Service) Request(req Request) *Pending {
	p := &Pending{req: req, done: make(chan struct{})}

	if h, ok := s.cache.Get(req.Entry.Fingerprint()); ok {
		p.resolve(Result{Request: req, Handle: h, Cached: true})
		return p
	}
	// this request generates the entry itself
	s.dropPrefetch(req.Entry.Path)

	p.ticket = s.sched.Submit(scheduler.Job{
		Name:     "preview " + req.Entry.Name,
		Priority: scheduler.Interactive,
		Timeout:  s.timeout,
		Run: func(ctx context.Context) error {
			h, err := s.generate(ctx, req.Entry)
			if err != nil {
				return err
			}
			p.resolve(Result{Request: req, Handle: h})
			return nil
		},
	})
	go func() {
		// covers jobs dropped before running
		if err := p.ticket.Err(); err != nil {
			p.resolve(Result{Request: req, Err: err})
		}
	}()
	return p
}

// Prefetch warms the cache for entries at background priority.
// Entries already cached or already being prefetched are skipped.
func (s *Service) Prefetch(entries []entry.Entry) {
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fp := e.Fingerprint()
		if h, ok := s.cache.Get(fp); ok {
			h.Release()
			continue
		}

		s.mu.Lock()
		if _, ok := s.prefetch[e.Path]; ok {
			s.mu.Unlock()
			continue
		}
		e := e
		t := s.sched.Submit(scheduler.Job{
			Name:     "prefetch " + e.Name,
			Priority: scheduler.Background,
			Timeout:  s.timeout,
			Run: func(ctx context.Context) error {
				h, err := s.generate(ctx, e)
				h.Release()
				return err
			},
		})
		s.prefetch[e.Path] = t
		s.mu.Unlock()

		go func() {
			<-t.Done()
			s.mu.Lock()
			if s.prefetch[e.Path] == t {
				delete(s.prefetch, e.Path)
			}
			s.mu.Unlock()
		}()
	}
}

func (s *Service) dropPrefetch(path string) {
	s.mu.Lock()
	t, ok := s.prefetch[path]
	delete(s.prefetch, path)
	s.mu.Unlock()
	if ok {
		t.Cancel()
	}
}

// CancelPrefetch cancels every outstanding background preview
func (s *Service) CancelPrefetch() {
	s.mu.Lock()
	tickets := lo.Values(s.prefetch)
	s.prefetch = make(map[string]*scheduler.Ticket)
	s.mu.Unlock()

	for _, t := range tickets {
		t.Cancel()
	}
}

// Invalidate forgets every cached version of path so the next request regenerates it
func (s *Service) Invalidate(path string) {
	s.cache.RemovePath(path)
}

// generate runs outside any lock and inserts the result afterwards
func (s *Service) generate(ctx context.Context, e entry.Entry) (*Handle, error) {
	a := s.gen.Generate(ctx, e)
	if a.Kind == Error && a.ErrKind == errs.Cancelled {
		return nil, errs.New(errs.Cancelled, "preview", e.Path, context.Canceled)
	}
	return s.cache.Put(e.Fingerprint(), a), nil
}
