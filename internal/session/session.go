package session

import (
	"path/filepath"
	"sync"

	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/preview"
)

// Session is the browsing state of one directory: the applied snapshot, the
// cursor, the marked set and the search filter. It is an owned value; every
// method is synchronous and never touches the filesystem.
type Session struct {
	mu sync.Mutex

	dir  string
	prev string
	// gen is the generation of the most recent load request
	gen  uint64
	snap *entry.Snapshot

	view     []int
	cursor   int
	selected string
	cursors  map[string]string

	marked     map[string]struct{}
	filter     *Filter
	showHidden bool
}

func New(dir string, showHidden bool) *Session {
	return &Session{
		dir:        dir,
		cursors:    make(map[string]string),
		marked:     make(map[string]struct{}),
		showHidden: showHidden,
	}
}

func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Previous is the directory visited before the current one
func (s *Session) Previous() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev
}

// Generation returns the generation of the latest requested load
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Snapshot returns the applied snapshot, nil while the first load is pending
func (s *Session) Snapshot() *entry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Cd switches to dir. Marks are cleared and the generation bumped in the same
// critical section, so no result from the old directory can be applied after
// Cd returns. The returned generation must be passed to the load.
func (s *Session) Cd(dir string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != "" {
		s.cursors[s.dir] = s.selected
	}
	old := s.dir
	if dir != old {
		s.prev = old
	}
	s.dir = dir
	clear(s.marked)
	s.filter = nil
	s.snap = nil
	s.view = nil
	s.cursor = 0

	s.selected = s.cursors[dir]
	if filepath.Dir(old) == dir && old != dir {
		// coming up from a child lands on it
		s.selected = old
	}
	s.gen++
	return s.gen
}

// Back returns to the previous directory
func (s *Session) Back() (string, uint64, bool) {
	prev := s.Previous()
	if prev == "" {
		return "", 0, false
	}
	return prev, s.Cd(prev), true
}

// Reload requests a fresh snapshot of the current directory keeping marks
// and selection
func (s *Session) Reload() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Apply installs snap if it answers the latest load request. Anything older,
// or for another directory, is discarded and false is returned.
func (s *Session) Apply(snap *entry.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil || snap.Generation != s.gen || snap.Dir != s.dir {
		return false
	}
	if s.snap != nil && snap.Generation <= s.snap.Generation {
		return false
	}
	s.snap = snap
	for p := range s.marked {
		if snap.Index(p) < 0 {
			delete(s.marked, p)
		}
	}
	s.rebuild()
	return true
}

// Entries returns a copy of the visible entries with their marked flag set
func (s *Session) Entries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entry.Entry, len(s.view))
	for i, idx := range s.view {
		out[i] = s.entry(idx)
	}
	return out
}

// Len is the number of visible entries
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.view)
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Selected returns the entry under the cursor
func (s *Session) Selected() (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// MoveCursor moves by delta, clamped to the visible range. It reports
// whether the selection changed.
func (s *Session) MoveCursor(delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCursor(s.cursor + delta)
}

// SetCursor moves to index i, clamped to the visible range
func (s *Session) SetCursor(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCursor(i)
}

// Select moves the cursor to path if it is visible. Otherwise the path is
// remembered and selected by the next snapshot that contains it.
func (s *Session) Select(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, idx := range s.view {
		if s.snap.Entries[idx].Path == path {
			s.setCursor(i)
			return true
		}
	}
	s.selected = path
	return false
}

// ToggleMark flips the mark of the selected entry and returns its new state
func (s *Session) ToggleMark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.current()
	if !ok {
		return false
	}
	if _, marked := s.marked[e.Path]; marked {
		delete(s.marked, e.Path)
		return false
	}
	s.marked[e.Path] = struct{}{}
	return true
}

// MarkAll marks every visible entry
func (s *Session) MarkAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.view {
		s.marked[s.snap.Entries[idx].Path] = struct{}{}
	}
}

func (s *Session) ClearMarks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.marked)
}

func (s *Session) MarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

// MarkedOrSelected returns the marked entries in listing order, or the
// selected entry when nothing is marked. The slice is a copy, so it can be
// handed to a batch operation as a snapshot of the targets.
func (s *Session) MarkedOrSelected() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.marked) == 0 || s.snap == nil {
		if e, ok := s.current(); ok {
			return []entry.Entry{e}
		}
		return nil
	}
	out := make([]entry.Entry, 0, len(s.marked))
	for i, e := range s.snap.Entries {
		if _, ok := s.marked[e.Path]; ok {
			out = append(out, s.entry(i))
		}
	}
	return out
}

// NextMarked moves to the next visible marked entry, wrapping around
func (s *Session) NextMarked() bool {
	return s.seekMarked(1)
}

// PrevMarked moves to the previous visible marked entry, wrapping around
func (s *Session) PrevMarked() bool {
	return s.seekMarked(-1)
}

func (s *Session) seekMarked(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.view)
	for k := 1; k <= n; k++ {
		i := ((s.cursor+step*k)%n + n) % n
		if _, ok := s.marked[s.snap.Entries[s.view[i]].Path]; ok {
			s.setCursor(i)
			return true
		}
	}
	return false
}

// SetFilter narrows the visible entries. Marks are left alone.
func (s *Session) SetFilter(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pattern == "" {
		s.filter = nil
	} else {
		s.filter = NewFilter(pattern)
	}
	s.rebuild()
}

func (s *Session) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Pattern()
}

// CommitFilter marks every entry the filter leaves visible, then drops the
// filter. It returns the number of entries marked.
func (s *Session) CommitFilter() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter == nil {
		return 0
	}
	for _, idx := range s.view {
		s.marked[s.snap.Entries[idx].Path] = struct{}{}
	}
	n := len(s.view)
	s.filter = nil
	s.rebuild()
	return n
}

// ClearFilter drops the filter without touching marks
func (s *Session) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = nil
	s.rebuild()
}

// ToggleHidden flips dotfile visibility and returns the new setting
func (s *Session) ToggleHidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showHidden = !s.showHidden
	s.rebuild()
	return s.showHidden
}

func (s *Session) ShowHidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showHidden
}

// PreviewRequest stamps the selected entry with the applied generation
func (s *Session) PreviewRequest() (preview.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.current()
	if !ok {
		return preview.Request{}, false
	}
	return preview.Request{Entry: e, Generation: s.snap.Generation}, true
}

// AcceptPreview reports whether a result for req still matches what is on
// screen: the same snapshot generation and the same selected version of the file.
func (s *Session) AcceptPreview(req preview.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap == nil || req.Generation != s.snap.Generation {
		return false
	}
	e, ok := s.current()
	if !ok {
		return false
	}
	return e.Fingerprint() == req.Entry.Fingerprint()
}

// Neighbours returns up to n visible entries on each side of the cursor,
// nearest first
func (s *Session) Neighbours(n int) []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entry.Entry
	for k := 1; k <= n; k++ {
		if i := s.cursor + k; i < len(s.view) {
			out = append(out, s.entry(s.view[i]))
		}
		if i := s.cursor - k; i >= 0 && i < len(s.view) {
			out = append(out, s.entry(s.view[i]))
		}
	}
	return out
}

// current must be called with the lock held
func (s *Session) current() (entry.Entry, bool) {
	if s.cursor < 0 || s.cursor >= len(s.view) {
		return entry.Entry{}, false
	}
	return s.entry(s.view[s.cursor]), true
}

// entry copies the snapshot entry at idx and sets its marked flag
func (s *Session) entry(idx int) entry.Entry {
	e := s.snap.Entries[idx]
	_, e.Marked = s.marked[e.Path]
	return e
}

func (s *Session) setCursor(i int) bool {
	if len(s.view) == 0 {
		s.cursor = 0
		return false
	}
	i = max(0, min(i, len(s.view)-1))
	before := s.selected
	s.cursor = i
	s.selected = s.snap.Entries[s.view[i]].Path
	return s.selected != before
}

// rebuild recomputes the visible list and keeps the cursor on the selected
// path when it is still visible
func (s *Session) rebuild() {
	s.view = s.view[:0]
	if s.snap == nil {
		s.cursor = 0
		return
	}
	for i, e := range s.snap.Entries {
		if !s.showHidden && e.IsHidden() {
			continue
		}
		if !s.filter.Match(e) {
			continue
		}
		s.view = append(s.view, i)
	}

	for i, idx := range s.view {
		if s.snap.Entries[idx].Path == s.selected {
			s.cursor = i
			return
		}
	}
	s.setCursor(s.cursor)
}
