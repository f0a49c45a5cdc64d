package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/scheduler"
)

// makeDir creates files under a fresh temp dir. Names ending in "/" become directories.
func makeDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// open creates a session on dir with its first snapshot applied
func open(t *testing.T, dir string, hidden bool) *Session {
	t.Helper()
	s := New(dir, hidden)
	apply(t, s)
	return s
}

func apply(t *testing.T, s *Session) {
	t.Helper()
	gen := s.Reload()
	snap, err := entry.Load(context.Background(), s.Dir(), gen, entry.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Apply(snap) {
		t.Fatal("fresh snapshot rejected")
	}
}

func names(entries []entry.Entry) string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return strings.Join(out, ",")
}

func TestCursorClamps(t *testing.T) {
	s := open(t, makeDir(t, "a", "b", "c"), false)

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 1, want: "b"},
		{delta: 5, want: "c"},
		{delta: -10, want: "a"},
		{delta: 0, want: "a"},
	}
	for _, tt := range tests {
		s.MoveCursor(tt.delta)
		e, ok := s.Selected()
		if !ok || e.Name != tt.want {
			t.Errorf("after %+d selected %q, want %q", tt.delta, e.Name, tt.want)
		}
	}
}

func TestCdClearsMarks(t *testing.T) {
	root := makeDir(t, "sub/", "a", "b")
	s := open(t, root, false)

	s.MarkAll()
	if s.MarkedCount() != 3 {
		t.Fatalf("marked %d, want 3", s.MarkedCount())
	}
	before := s.Generation()

	gen := s.Cd(filepath.Join(root, "sub"))
	if gen <= before {
		t.Errorf("generation did not increase: %d -> %d", before, gen)
	}
	if s.MarkedCount() != 0 {
		t.Errorf("marks survived cd: %d", s.MarkedCount())
	}
	if len(s.MarkedOrSelected()) != 0 {
		t.Error("nothing should be selected before the new snapshot arrives")
	}
	if s.Previous() != root {
		t.Errorf("previous = %q, want %q", s.Previous(), root)
	}
}

func TestApplyRejectsStale(t *testing.T) {
	root := makeDir(t, "sub/", "a")
	s := New(root, false)

	oldGen := s.Reload()
	old, err := entry.Load(context.Background(), root, oldGen, entry.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}

	newGen := s.Reload()
	if s.Apply(old) {
		t.Error("older generation applied")
	}

	cur, err := entry.Load(context.Background(), root, newGen, entry.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Apply(cur) {
		t.Fatal("current generation rejected")
	}
	if s.Apply(cur) {
		t.Error("same snapshot applied twice")
	}

	// a load for the previous directory arriving after cd is stale too
	sub := filepath.Join(root, "sub")
	gen := s.Cd(sub)
	late, err := entry.Load(context.Background(), root, gen, entry.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Apply(late) {
		t.Error("snapshot of another directory applied")
	}
}

func TestGenerationMonotonic(t *testing.T) {
	s := New(t.TempDir(), false)
	var last uint64
	for i := 0; i < 5; i++ {
		var gen uint64
		if i%2 == 0 {
			gen = s.Reload()
		} else {
			gen = s.Cd(s.Dir())
		}
		if gen <= last {
			t.Fatalf("generation %d not greater than %d", gen, last)
		}
		last = gen
	}
}

func TestFilterKeepsMarks(t *testing.T) {
	s := open(t, makeDir(t, "apple.go", "banana.txt", "apricot.go", "cherry.md"), false)

	s.Select(filepath.Join(s.Dir(), "cherry.md"))
	s.ToggleMark()

	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "ap", want: "apple.go,apricot.go"},
		{pattern: "AP", want: "apple.go,apricot.go"},
		{pattern: "*.go", want: "apple.go,apricot.go"},
		{pattern: "b*", want: "banana.txt"},
		{pattern: "zzz", want: ""},
		{pattern: "", want: "apple.go,apricot.go,banana.txt,cherry.md"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s.SetFilter(tt.pattern)
			if got := names(s.Entries()); got != tt.want {
				t.Errorf("visible = %q, want %q", got, tt.want)
			}
			if s.MarkedCount() != 1 {
				t.Errorf("filter changed marks: %d", s.MarkedCount())
			}
		})
	}
}

func TestCommitFilterPromotesVisible(t *testing.T) {
	s := open(t, makeDir(t, "a.go", "b.go", "c.txt"), false)

	s.SetFilter("*.go")
	if n := s.CommitFilter(); n != 2 {
		t.Errorf("committed %d, want 2", n)
	}
	if s.Filter() != "" {
		t.Error("filter should be dropped after commit")
	}
	if got := names(s.MarkedOrSelected()); got != "a.go,b.go" {
		t.Errorf("marked = %q", got)
	}
	if s.Len() != 3 {
		t.Errorf("visible = %d, want 3", s.Len())
	}

	s.SetFilter("c")
	s.ClearFilter()
	if s.MarkedCount() != 2 {
		t.Errorf("clearing the filter changed marks: %d", s.MarkedCount())
	}
}

func TestHiddenToggle(t *testing.T) {
	s := open(t, makeDir(t, ".dot", "a"), false)
	if got := names(s.Entries()); got != "a" {
		t.Errorf("visible = %q", got)
	}
	if !s.ToggleHidden() {
		t.Error("ToggleHidden should report true")
	}
	if got := names(s.Entries()); got != ".dot,a" {
		t.Errorf("visible = %q", got)
	}
}

func TestSelectionSurvivesReload(t *testing.T) {
	dir := makeDir(t, "a", "b", "c")
	s := open(t, dir, false)
	s.Select(filepath.Join(dir, "c"))
	s.ToggleMark()

	// a new file sorts before c and b disappears
	os.WriteFile(filepath.Join(dir, "aa"), nil, 0o644)
	os.Remove(filepath.Join(dir, "b"))
	apply(t, s)

	e, ok := s.Selected()
	if !ok || e.Name != "c" {
		t.Errorf("selected %q, want c", e.Name)
	}
	if !e.Marked {
		t.Error("mark lost across reload")
	}
}

func TestMarksPrunedOnReload(t *testing.T) {
	dir := makeDir(t, "a", "b")
	s := open(t, dir, false)
	s.MarkAll()
	os.Remove(filepath.Join(dir, "b"))
	apply(t, s)
	if s.MarkedCount() != 1 {
		t.Errorf("marked = %d, want 1", s.MarkedCount())
	}
}

func TestNextPrevMarked(t *testing.T) {
	dir := makeDir(t, "a", "b", "c", "d")
	s := open(t, dir, false)
	for _, n := range []string{"b", "d"} {
		s.Select(filepath.Join(dir, n))
		s.ToggleMark()
	}
	s.SetCursor(0)

	steps := []struct {
		next bool
		want string
	}{
		{next: true, want: "b"},
		{next: true, want: "d"},
		{next: true, want: "b"},
		{next: false, want: "d"},
	}
	for _, st := range steps {
		if st.next {
			s.NextMarked()
		} else {
			s.PrevMarked()
		}
		if e, _ := s.Selected(); e.Name != st.want {
			t.Errorf("selected %q, want %q", e.Name, st.want)
		}
	}
}

func TestCdUpSelectsChild(t *testing.T) {
	root := makeDir(t, "a/", "b/", "c/")
	child := filepath.Join(root, "b")
	s := New(child, false)

	gen := s.Cd(root)
	snap, err := entry.Load(context.Background(), root, gen, entry.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(snap)
	if e, _ := s.Selected(); e.Path != child {
		t.Errorf("selected %q, want %q", e.Path, child)
	}

	dir, _, ok := s.Back()
	if !ok || dir != child {
		t.Errorf("back = %q, %v", dir, ok)
	}
}

func TestStalePreviewDiscarded(t *testing.T) {
	dir := makeDir(t, "a", "b")
	s := open(t, dir, false)

	req, ok := s.PreviewRequest()
	if !ok {
		t.Fatal("no preview request")
	}
	if !s.AcceptPreview(req) {
		t.Error("current request rejected")
	}

	// selection moved on
	s.MoveCursor(1)
	if s.AcceptPreview(req) {
		t.Error("preview for a previous selection accepted")
	}
	s.MoveCursor(-1)

	// file changed underneath, fingerprint differs
	stale := req
	stale.Entry.Size++
	if s.AcceptPreview(stale) {
		t.Error("preview for an old version accepted")
	}

	// new snapshot bumps the generation
	apply(t, s)
	if s.AcceptPreview(req) {
		t.Error("preview from an older generation accepted")
	}
	if _, ok := s.PreviewRequest(); !ok {
		t.Error("no request after reload")
	}
	if s.AcceptPreview(preview.Request{}) {
		t.Error("zero request accepted")
	}
}

func TestLoaderSupersedes(t *testing.T) {
	sched := scheduler.New(context.Background(), scheduler.Options{Workers: 1})
	defer sched.Close()

	// hold the only worker so both loads queue up
	started, release := make(chan struct{}), make(chan struct{})
	sched.Submit(scheduler.Job{
		Name:     "blocker",
		Priority: scheduler.Interactive,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	})
	<-started

	dir := makeDir(t, "a")
	s := New(dir, false)
	l := NewLoader(sched, entry.LoadOptions{})

	first := l.Start(Current, dir, s.Reload())
	second := l.Start(Current, dir, s.Reload())
	close(release)

	if res := first.Wait(); res.Err == nil {
		t.Error("superseded load should be cancelled")
	}
	done := make(chan Loaded, 1)
	go func() { done <- second.Wait() }()
	select {
	case res := <-done:
		if res.Err != nil {
			t.Fatal(res.Err)
		}
		if !s.Apply(res.Snapshot) {
			t.Error("latest load rejected")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("load did not finish")
	}
}

func TestLoaderYieldsToPreviews(t *testing.T) {
	sched := scheduler.New(context.Background(), scheduler.Options{Workers: 1})
	defer sched.Close()

	started, release := make(chan struct{}), make(chan struct{})
	sched.Submit(scheduler.Job{
		Name:     "blocker",
		Priority: scheduler.Background,
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
	})
	<-started

	dir := makeDir(t, "a")
	l := NewLoader(sched, entry.LoadOptions{})
	ld := l.Start(Current, dir, 1)

	// submitted after the load, must still run before it
	var queuedLoads int
	preview := sched.Submit(scheduler.Job{
		Name:     "preview",
		Priority: scheduler.Interactive,
		Run: func(context.Context) error {
			_, queuedLoads = sched.Pending()
			return nil
		},
	})
	close(release)

	if err := preview.Err(); err != nil {
		t.Fatal(err)
	}
	if queuedLoads != 1 {
		t.Errorf("load was not queued behind the preview (background pending = %d)", queuedLoads)
	}
	if res := ld.Wait(); res.Err != nil || res.Snapshot == nil {
		t.Fatalf("load = %+v", res)
	}
}
