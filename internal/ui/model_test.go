package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/babarot/tana/internal/config"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/opener"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/scheduler"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, dir string) *Model {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.Preview.Delay = "0s"
	cfg.Preview.Prefetch = 0
	cfg.Preview.SyntaxHighlight = false

	sched := scheduler.New(ctx, scheduler.Options{Workers: 2})
	opts := preview.DefaultOptions()
	opts.SyntaxHighlight = false
	opts.ExternalCommand = ""
	svc := preview.NewService(preview.NewCache(1<<20), preview.NewGenerator(opts), sched)

	j, err := journal.Open(journal.Options{RunID: "test", BaseDir: t.TempDir(), Scheduler: sched})
	if err != nil {
		t.Fatal(err)
	}
	op, err := opener.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	m := New(ctx, Options{
		Config:    cfg,
		Dir:       dir,
		Scheduler: sched,
		Previews:  svc,
		Journal:   j,
		Opener:    op,
	})
	t.Cleanup(func() {
		m.shutdown()
		j.Close()
		sched.Close()
	})
	drive(t, m, m.Init())
	return m
}

// drive runs cmd and every command that follows from it until the model
// settles
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("model did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func press(t *testing.T, m *Model, k string) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	drive(t, m, cmd)
}

func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func selectName(t *testing.T, m *Model, name string) {
	t.Helper()
	if !m.session.Select(filepath.Join(m.session.Dir(), name)) {
		t.Fatalf("%s is not listed", name)
	}
	drive(t, m, m.schedulePreview())
}

func TestModelLoadsAndPreviews(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)

	if got := m.session.Len(); got != 3 {
		t.Fatalf("listed %d entries, want 3", got)
	}
	if m.parent == nil {
		t.Error("parent column was not loaded")
	}

	selectName(t, m, "a.txt")
	if m.shown == nil {
		t.Fatalf("no preview shown (err %q)", m.previewErr)
	}
	if got := m.shown.Artifact.String(); got != "a.txt" {
		t.Errorf("preview = %q", got)
	}
	if view := m.View(); !strings.Contains(view, "b.txt") {
		t.Errorf("view does not list b.txt:\n%s", view)
	}
}

func TestModelTrashAndUndo(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)
	selectName(t, m, "a.txt")

	press(t, m, " ")
	if m.session.MarkedCount() != 1 {
		t.Fatalf("marked %d, want 1", m.session.MarkedCount())
	}
	press(t, m, "D")
	if m.state.current != CONFIRM_VIEW {
		t.Fatalf("view = %v, want confirm", m.state.current)
	}
	press(t, m, "y")

	if _, err := os.Stat(filepath.Join(dir, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("a.txt still present: %v", err)
	}
	if got := len(m.journal.Items()); got != 1 {
		t.Errorf("journal has %d items, want 1", got)
	}
	if got := m.session.Len(); got != 2 {
		t.Errorf("listed %d entries after trash, want 2", got)
	}

	press(t, m, "u")
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatalf("undo did not restore a.txt: %v", err)
	}
	if got := m.session.Len(); got != 3 {
		t.Errorf("listed %d entries after undo, want 3", got)
	}

	press(t, m, "u")
	if m.status != "nothing to undo" {
		t.Errorf("status = %q", m.status)
	}
}

func TestModelDeclineKeepsFile(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)
	selectName(t, m, "b.txt")

	press(t, m, "D")
	press(t, m, "n")
	if m.state.current != NORMAL_VIEW {
		t.Errorf("view = %v", m.state.current)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); err != nil {
		t.Error("declined trash removed the file")
	}
}

func TestModelSearchCommitMarks(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)

	press(t, m, "/")
	press(t, m, "*.txt")
	if got := m.session.Len(); got != 2 {
		t.Fatalf("filter shows %d entries, want 2", got)
	}
	press(t, m, "enter")

	if got := m.session.MarkedCount(); got != 2 {
		t.Errorf("marked %d, want 2", got)
	}
	if m.session.Filter() != "" {
		t.Errorf("filter %q still active", m.session.Filter())
	}
	if got := m.session.Len(); got != 3 {
		t.Errorf("listed %d entries after commit, want 3", got)
	}

	press(t, m, "esc")
	if got := m.session.MarkedCount(); got != 0 {
		t.Errorf("esc left %d marks", got)
	}
}

func TestModelRenameFocusesResult(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)
	selectName(t, m, "b.txt")

	press(t, m, "r")
	if m.state.current != RENAME_VIEW {
		t.Fatalf("view = %v", m.state.current)
	}
	m.input.SetValue("c.txt")
	press(t, m, "enter")

	if _, err := os.Stat(filepath.Join(dir, "c.txt")); err != nil {
		t.Fatal(err)
	}
	e, ok := m.session.Selected()
	if !ok || e.Name != "c.txt" {
		t.Errorf("selected %q, want c.txt", e.Name)
	}
}

func TestModelConsoleCd(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)

	press(t, m, ":")
	m.input.SetValue("sub")
	press(t, m, "enter")

	if got := m.session.Dir(); got != filepath.Join(dir, "sub") {
		t.Errorf("dir = %q", got)
	}
	if m.parent == nil || m.parent.Dir != dir {
		t.Error("parent column does not show the previous directory")
	}

	press(t, m, ":")
	m.input.SetValue("missing")
	press(t, m, "enter")
	if !m.statusErr {
		t.Error("cd into a missing directory should report an error")
	}
}

func TestModelCreate(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)

	press(t, m, "M")
	m.input.SetValue("newdir")
	press(t, m, "enter")
	info, err := os.Stat(filepath.Join(dir, "newdir"))
	if err != nil || !info.IsDir() {
		t.Fatalf("newdir not created: %v", err)
	}

	press(t, m, "t")
	m.input.SetValue("bad/name")
	press(t, m, "enter")
	if !m.statusErr {
		t.Error("invalid name should be refused")
	}
}

func TestModelFileOpsQueueBehindWorkers(t *testing.T) {
	dir := fixture(t)
	m := newTestModel(t, dir)

	// both workers busy
	release := make(chan struct{})
	for i := 0; i < 2; i++ {
		m.sched.Submit(scheduler.Job{
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

	done := make(chan tea.Msg, 1)
	cmd := m.rename(filepath.Join(dir, "a.txt"), "c.txt")
	go func() { done <- cmd() }()

	select {
	case <-done:
		t.Fatal("rename finished while every worker was busy")
	case <-time.After(50 * time.Millisecond):
	}
	if _, err := os.Stat(filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal("rename ran outside the scheduler")
	}

	close(release)
	msg := (<-done).(opDoneMsg)
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c.txt")); err != nil {
		t.Errorf("c.txt missing after rename: %v", err)
	}
}
