package ui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/session"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all UI state updates based on incoming messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		slog.Debug("key pressed", "key", msg.String(), "view", m.state.current)
		switch m.state.current {
		case NORMAL_VIEW:
			return m.updateNormalView(msg)
		case CONFIRM_VIEW:
			return m.updateConfirmView(msg)
		case CONSOLE_VIEW, CREATE_VIEW, SEARCH_VIEW, RENAME_VIEW:
			return m.updatePromptView(msg)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		return m, m.handleLoaded(session.Loaded(msg))

	case previewTickMsg:
		if msg.seq != m.previewSeq {
			return m, nil
		}
		return m, m.requestPreview()

	case previewMsg:
		m.handlePreview(msg)
		return m, nil

	case batchDoneMsg:
		m.status, m.statusErr = describe(msg)
		for _, o := range msg.outcomes {
			if o.Err != nil {
				slog.Warn("batch step failed", "op", msg.op, "src", o.Target.Src, "dst", o.Target.Dst, "error", o.Err)
			}
			m.previews.Invalidate(o.Target.Src)
			if o.Target.Dst != "" {
				m.previews.Invalidate(o.Target.Dst)
			}
		}
		if msg.afterCut && !m.statusErr {
			m.yanked = yanked{}
		}
		return m, m.reload()

	case opDoneMsg:
		m.setStatus(msg.what, msg.err)
		if msg.focus != "" && msg.err == nil {
			m.session.Select(msg.focus)
		}
		return m, m.reload()

	case editorDoneMsg:
		return m, m.finishBulkRename(msg)

	case openDoneMsg:
		if msg.err != nil {
			m.setStatus("open", msg.err)
		}
		return m, m.reload()

	case logTickMsg:
		// the view reads the ring directly; this only triggers a redraw
		m.logSeq = m.ring.Seq()
		return m, m.logTick()

	case errorMsg:
		m.state.SetView(QUITTING)
		m.err = msg
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) handleLoaded(msg session.Loaded) tea.Cmd {
	switch msg.Slot {
	case session.Parent:
		if msg.Err == nil && msg.Dir == filepath.Dir(m.session.Dir()) {
			m.parent = msg.Snapshot
		}
		return nil
	}

	if msg.Err != nil {
		if errs.IsCancelled(msg.Err) {
			return nil
		}
		slog.Error("load failed", "dir", msg.Dir, "error", msg.Err)
		if msg.Dir != m.session.Dir() {
			return nil
		}
		m.setStatus("load", msg.Err)
		// a directory that vanished or cannot be read is left for its parent
		if m.session.Snapshot() == nil && msg.Generation == m.session.Generation() {
			if parent := filepath.Dir(msg.Dir); parent != msg.Dir {
				return m.cd(parent)
			}
		}
		return nil
	}

	if !m.session.Apply(msg.Snapshot) {
		slog.Debug("discarded stale snapshot", "dir", msg.Dir, "generation", msg.Generation)
		return nil
	}
	return m.schedulePreview()
}

func (m *Model) handlePreview(msg previewMsg) {
	if msg.pending != m.pending {
		msg.res.Handle.Release()
		return
	}
	m.pending = nil

	if !m.session.AcceptPreview(msg.res.Request) {
		msg.res.Handle.Release()
		return
	}
	if msg.res.Err != nil {
		if !errs.IsCancelled(msg.res.Err) {
			m.previewErr = msg.res.Err.Error()
		}
		return
	}
	m.shown.Release()
	m.shown = msg.res.Handle
	m.shownFor = msg.res.Request
	m.previewErr = ""
	m.scroll = 0
}

// moved refreshes the preview after the selection changed
func (m *Model) moved(changed bool) tea.Cmd {
	if !changed {
		return nil
	}
	m.scroll = 0
	return m.schedulePreview()
}

func (m *Model) setStatus(what string, err error) {
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", what, err)
		m.statusErr = true
		return
	}
	m.status = what
	m.statusErr = false
}

// updateNormalView handles keys while browsing
func (m *Model) updateNormalView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.keyMap.Normal
	half := max(1, m.listHeight()/2)

	switch {
	case key.Matches(msg, m.keyMap.Common.Quit):
		m.state.SetView(QUITTING)
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Common.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, n.Up):
		return m, m.moved(m.session.MoveCursor(-1))
	case key.Matches(msg, n.Down):
		return m, m.moved(m.session.MoveCursor(1))
	case key.Matches(msg, n.PageUp):
		return m, m.moved(m.session.MoveCursor(-half))
	case key.Matches(msg, n.PageDown):
		return m, m.moved(m.session.MoveCursor(half))
	case key.Matches(msg, n.Top):
		return m, m.moved(m.session.SetCursor(0))
	case key.Matches(msg, n.Bottom):
		return m, m.moved(m.session.SetCursor(m.session.Len() - 1))

	case key.Matches(msg, n.Left):
		dir := m.session.Dir()
		if parent := filepath.Dir(dir); parent != dir {
			return m, m.cd(parent)
		}
		return m, nil

	case key.Matches(msg, n.Right), key.Matches(msg, n.Open):
		e, ok := m.session.Selected()
		if !ok {
			return m, nil
		}
		if e.IsDir() {
			return m, m.cd(e.Path)
		}
		if key.Matches(msg, n.Right) {
			return m, nil
		}
		return m, m.open(e)

	case key.Matches(msg, n.Back):
		if prev := m.session.Previous(); prev != "" {
			return m, m.cd(prev)
		}
		return m, nil

	case key.Matches(msg, n.Home):
		if home, err := os.UserHomeDir(); err == nil {
			return m, m.cd(home)
		}
		return m, nil

	case key.Matches(msg, n.Trash):
		return m, m.cd(m.journal.Dir())

	case key.Matches(msg, n.Mark):
		m.session.ToggleMark()
		return m, m.moved(m.session.MoveCursor(1))
	case key.Matches(msg, n.MarkAll):
		m.session.MarkAll()
		return m, nil
	case key.Matches(msg, n.ClearMarks):
		m.session.ClearMarks()
		m.status = ""
		return m, nil
	case key.Matches(msg, n.NextMarked):
		return m, m.moved(m.session.NextMarked())
	case key.Matches(msg, n.PrevMarked):
		return m, m.moved(m.session.PrevMarked())

	case key.Matches(msg, n.Yank), key.Matches(msg, n.Cut):
		op := journal.OpCopy
		if key.Matches(msg, n.Cut) {
			op = journal.OpMove
		}
		entries := m.session.MarkedOrSelected()
		if len(entries) == 0 {
			return m, nil
		}
		m.yanked = newYanked(op, entries)
		m.setStatus(fmt.Sprintf("%d %s", len(entries), m.yanked.verb()), nil)
		m.session.ClearMarks()
		return m, nil

	case key.Matches(msg, n.Paste):
		if m.yanked.empty() {
			m.setStatus("nothing to paste", nil)
			return m, nil
		}
		y := m.yanked
		return m, m.batch(y.op, y.targets(m.session.Dir()), y.op == journal.OpMove)

	case key.Matches(msg, n.CopyPath):
		entries := m.session.MarkedOrSelected()
		if len(entries) == 0 {
			return m, nil
		}
		err := copyPaths(entries)
		m.setStatus(fmt.Sprintf("copied %d path(s) to clipboard", len(entries)), err)
		return m, nil

	case key.Matches(msg, n.Delete):
		entries := m.session.MarkedOrSelected()
		if len(entries) == 0 {
			return m, nil
		}
		prompt := fmt.Sprintf("Move %d items to trash?", len(entries))
		if len(entries) == 1 {
			prompt = fmt.Sprintf("Move %q to trash?", entries[0].Name)
		}
		m.ask(prompt, func() tea.Cmd { return m.trash(entries) })
		return m, nil

	case key.Matches(msg, n.Undo):
		return m, m.undo()

	case key.Matches(msg, n.Rename):
		e, ok := m.session.Selected()
		if !ok {
			return m, nil
		}
		m.prompt(RENAME_VIEW, "rename: ", e.Name)
		return m, nil

	case key.Matches(msg, n.Bulk):
		entries := m.session.MarkedOrSelected()
		if len(entries) == 0 {
			return m, nil
		}
		return m, m.bulkRename(entries)

	case key.Matches(msg, n.NewFile), key.Matches(msg, n.NewDir):
		m.state.createDir = key.Matches(msg, n.NewDir)
		label := "new file: "
		if m.state.createDir {
			label = "new dir: "
		}
		m.prompt(CREATE_VIEW, label, "")
		return m, nil

	case key.Matches(msg, n.Search):
		m.prompt(SEARCH_VIEW, "/", m.session.Filter())
		return m, nil

	case key.Matches(msg, n.Console):
		m.prompt(CONSOLE_VIEW, ":cd ", "")
		m.refreshCandidates()
		return m, nil

	case key.Matches(msg, n.Hidden):
		shown := m.session.ToggleHidden()
		m.setStatus(fmt.Sprintf("hidden files %s", onOff(shown)), nil)
		return m, m.schedulePreview()

	case key.Matches(msg, n.Reload):
		return m, m.reload()

	case key.Matches(msg, n.Log):
		m.state.showLog = !m.state.showLog
		return m, nil

	case key.Matches(msg, n.Date):
		m.state.ToggleDateFormat()
		return m, nil

	case key.Matches(msg, n.PreviewUp):
		m.scroll = max(0, m.scroll-1)
		return m, nil
	case key.Matches(msg, n.PreviewDown):
		m.scroll++
		return m, nil
	}
	return m, nil
}

// updateConfirmView handles keys while a question is open
func (m *Model) updateConfirmView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch {
	case key.Matches(msg, m.keyMap.Confirm.Yes):
		m.confirm = nil
		m.state.SetView(NORMAL_VIEW)
		if c != nil {
			return m, c.yes()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Confirm.No):
		m.confirm = nil
		m.state.SetView(NORMAL_VIEW)
		return m, nil

	case msg.Type == tea.KeyCtrlC:
		m.state.SetView(QUITTING)
		return m, tea.Quit
	}
	return m, nil
}

// updatePromptView handles keys while the text input has focus
func (m *Model) updatePromptView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.keyMap.Prompt
	view := m.state.current

	switch {
	case key.Matches(msg, p.Cancel):
		if view == SEARCH_VIEW {
			m.session.ClearFilter()
		}
		m.closePrompt()
		return m, m.schedulePreview()

	case key.Matches(msg, p.Submit):
		value := m.input.Value()
		m.closePrompt()
		return m, m.submit(view, value)

	case view == CONSOLE_VIEW && key.Matches(msg, p.Complete):
		if len(m.candidates) > 0 {
			m.input.SetValue(m.candidates[m.candidate])
			m.input.CursorEnd()
			m.refreshCandidates()
		}
		return m, nil

	case view == CONSOLE_VIEW && key.Matches(msg, p.Next):
		if len(m.candidates) > 0 {
			m.candidate = (m.candidate + 1) % len(m.candidates)
		}
		return m, nil

	case view == CONSOLE_VIEW && key.Matches(msg, p.Prev):
		if len(m.candidates) > 0 {
			m.candidate = (m.candidate - 1 + len(m.candidates)) % len(m.candidates)
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	switch view {
	case SEARCH_VIEW:
		m.session.SetFilter(m.input.Value())
		return m, tea.Batch(cmd, m.schedulePreview())
	case CONSOLE_VIEW:
		m.refreshCandidates()
	}
	return m, cmd
}

// submit runs the action of a prompt once enter is pressed
func (m *Model) submit(view ViewType, value string) tea.Cmd {
	switch view {
	case SEARCH_VIEW:
		if value == "" {
			m.session.ClearFilter()
			return m.schedulePreview()
		}
		n := m.session.CommitFilter()
		m.setStatus(fmt.Sprintf("marked %d matching %q", n, value), nil)
		return m.schedulePreview()

	case CONSOLE_VIEW:
		dir, err := resolveDir(value, m.session.Dir())
		if err != nil {
			m.setStatus("cd", err)
			return nil
		}
		return m.cd(dir)

	case CREATE_VIEW:
		if value == "" {
			return nil
		}
		return m.create(value, m.state.createDir)

	case RENAME_VIEW:
		e, ok := m.session.Selected()
		if !ok || value == "" || value == e.Name {
			return nil
		}
		return m.rename(e.Path, value)
	}
	return nil
}

func (m *Model) prompt(view ViewType, label, value string) {
	m.state.SetView(view)
	m.input.Prompt = label
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.input.Blur()
	m.input.SetValue("")
	m.candidates = nil
	m.candidate = 0
	m.state.SetView(NORMAL_VIEW)
}

func (m *Model) ask(prompt string, yes func() tea.Cmd) {
	m.confirm = &confirmation{prompt: prompt, yes: yes}
	m.state.SetView(CONFIRM_VIEW)
}

func (m *Model) refreshCandidates() {
	m.candidates = completions(m.input.Value(), m.session.Dir(), m.session.ShowHidden())
	m.candidate = 0
}

func onOff(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}
