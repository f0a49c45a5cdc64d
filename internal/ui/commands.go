package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/opener"
	"github.com/babarot/tana/internal/preview"
	"github.com/babarot/tana/internal/scheduler"
	"github.com/babarot/tana/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
)

const logRefresh = 500 * time.Millisecond

func waitLoad(ld *session.Load) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(ld.Wait())
	}
}

func waitPreview(p *preview.Pending) tea.Cmd {
	return func() tea.Msg {
		return previewMsg{pending: p, res: p.Wait()}
	}
}

// cd switches directories and starts loading both columns
func (m *Model) cd(dir string) tea.Cmd {
	m.previews.CancelPrefetch()
	m.dropPreview()
	gen := m.session.Cd(dir)
	m.parent = nil
	slog.Debug("cd", "dir", dir, "generation", gen)

	cmds := []tea.Cmd{waitLoad(m.loader.Start(session.Current, dir, gen))}
	if parent := filepath.Dir(dir); parent != dir {
		cmds = append(cmds, waitLoad(m.loader.Start(session.Parent, parent, gen)))
	}
	return tea.Batch(cmds...)
}

// reload refreshes the current directory keeping marks and selection
func (m *Model) reload() tea.Cmd {
	dir := m.session.Dir()
	gen := m.session.Reload()
	return waitLoad(m.loader.Start(session.Current, dir, gen))
}

// schedulePreview asks for the selected entry's preview after the configured
// delay, so scrolling quickly does not queue a job per line
func (m *Model) schedulePreview() tea.Cmd {
	m.previewSeq++
	seq := m.previewSeq
	delay := m.cfg.Preview.DelayDuration()
	if delay <= 0 {
		return func() tea.Msg { return previewTickMsg{seq: seq} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return previewTickMsg{seq: seq} })
}

// requestPreview submits the request for the selected entry and warms
// the cache for its neighbours
func (m *Model) requestPreview() tea.Cmd {
	req, ok := m.session.PreviewRequest()
	if !ok {
		m.dropPreview()
		return nil
	}
	if m.shown != nil && m.shownFor.Entry.Fingerprint() == req.Entry.Fingerprint() {
		m.shownFor = req
		return nil
	}

	m.pending.Cancel()
	m.pending = m.previews.Request(req)
	if n := m.cfg.Preview.Prefetch; n > 0 {
		m.previews.Prefetch(m.session.Neighbours(n))
	}
	return waitPreview(m.pending)
}

// dropPreview forgets the shown artifact and any outstanding request
func (m *Model) dropPreview() {
	m.pending.Cancel()
	m.pending = nil
	m.shown.Release()
	m.shown = nil
	m.shownFor = preview.Request{}
	m.previewErr = ""
	m.scroll = 0
}

// batch hands every target to the scheduler through the journal
func (m *Model) batch(op journal.Op, targets []journal.Target, afterCut bool) tea.Cmd {
	if len(targets) == 0 {
		return nil
	}
	ctx := m.ctx
	j := m.journal
	return func() tea.Msg {
		return batchDoneMsg{op: op, outcomes: j.Batch(ctx, op, targets), afterCut: afterCut}
	}
}

func (m *Model) trash(entries []entry.Entry) tea.Cmd {
	targets := lo.Map(entries, func(e entry.Entry, _ int) journal.Target {
		return journal.Target{Src: e.Path}
	})
	return m.batch(journal.OpDelete, targets, false)
}

// onPool runs fn as a background job and blocks until it has finished.
// A job dropped before it started reports the scheduler's error.
func onPool(sched *scheduler.Scheduler, name string, fn func() error) error {
	var (
		started bool
		err     error
	)
	t := sched.Submit(scheduler.Job{
		Name:     name,
		Priority: scheduler.Background,
		Run: func(context.Context) error {
			started = true
			err = fn()
			return err
		},
	})
	if terr := t.Err(); !started {
		return terr
	}
	return err
}

func (m *Model) undo() tea.Cmd {
	j, sched := m.journal, m.sched
	return func() tea.Msg {
		var op journal.Op
		err := onPool(sched, "undo", func() (err error) {
			op, err = j.Undo()
			return err
		})
		if errors.Is(err, journal.ErrNothingToUndo) {
			return opDoneMsg{what: "nothing to undo"}
		}
		return opDoneMsg{what: "undo " + op.String(), err: err}
	}
}

func (m *Model) rename(src, name string) tea.Cmd {
	j, sched := m.journal, m.sched
	return func() tea.Msg {
		err := onPool(sched, "rename "+src, func() error {
			return j.Rename(src, name)
		})
		return opDoneMsg{what: "renamed to " + name, err: err, focus: filepath.Join(filepath.Dir(src), name)}
	}
}

func (m *Model) create(name string, dir bool) tea.Cmd {
	j, sched := m.journal, m.sched
	path := filepath.Join(m.session.Dir(), name)
	return func() tea.Msg {
		if !journal.ValidName(name) {
			return opDoneMsg{what: "create", err: errs.New(errs.IoError, "create", path, journal.ErrInvalidName)}
		}
		err := onPool(sched, "create "+path, func() error {
			if dir {
				return j.Mkdir(path)
			}
			return j.Touch(path)
		})
		return opDoneMsg{what: "created " + name, err: err, focus: path}
	}
}

// open runs the opener rule for e. Terminal programs take over the screen
// until they exit.
func (m *Model) open(e entry.Entry) tea.Cmd {
	cmd, terminal, err := m.opener.Command(e.Path)
	if err != nil {
		return func() tea.Msg { return opDoneMsg{what: "open", err: err} }
	}
	if terminal {
		return tea.ExecProcess(cmd, func(err error) tea.Msg { return openDoneMsg{err: err} })
	}
	return func() tea.Msg {
		return opDoneMsg{what: "opened " + e.Name, err: opener.Start(cmd)}
	}
}

// bulkRename writes the names to a temp file and opens the editor on it
func (m *Model) bulkRename(entries []entry.Entry) tea.Cmd {
	dir := m.session.Dir()
	names := lo.Map(entries, func(e entry.Entry, _ int) string { return e.Name })
	tf, err := writeRenameFile(names)
	if err != nil {
		return func() tea.Msg { return opDoneMsg{what: "bulk rename", err: err} }
	}
	cmd := exec.Command("sh", "-c", editor()+` "$1"`, "sh", tf.Path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{dir: dir, names: names, file: tf, err: err}
	})
}

// finishBulkRename reads back the edited names and renames in one batch
func (m *Model) finishBulkRename(msg editorDoneMsg) tea.Cmd {
	defer msg.file.Cleanup()
	if msg.err != nil {
		return func() tea.Msg { return opDoneMsg{what: "bulk rename", err: msg.err} }
	}
	data, err := os.ReadFile(msg.file.Path)
	if err != nil {
		return func() tea.Msg { return opDoneMsg{what: "bulk rename", err: err} }
	}
	targets, err := renamePlan(msg.dir, msg.names, string(data))
	if err != nil {
		return func() tea.Msg { return opDoneMsg{what: "bulk rename", err: err} }
	}
	if len(targets) == 0 {
		return func() tea.Msg { return opDoneMsg{what: "no names changed"} }
	}
	return m.batch(journal.OpRename, targets, false)
}

func (m *Model) logTick() tea.Cmd {
	if m.ring == nil {
		return nil
	}
	return tea.Tick(logRefresh, func(time.Time) tea.Msg { return logTickMsg{} })
}

// describe renders a batch result for the status line
func describe(msg batchDoneMsg) (string, bool) {
	failed := journal.Failed(msg.outcomes)
	s := fmt.Sprintf("%s: %s", msg.op, journal.Summary(msg.outcomes))
	if len(failed) == 0 {
		return s, false
	}
	first := failed[0].Err.Error()
	if len(failed) > 1 {
		first += fmt.Sprintf(" (+%d more)", len(failed)-1)
	}
	return s + ": " + strings.TrimSpace(first), true
}
