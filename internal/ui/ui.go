package ui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/babarot/tana/internal/ui/components/confirm"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	ellipsis = "…"

	defaultWidth  = 80
	defaultHeight = 24

	// logLines is how many ring lines the log pane shows
	logLines = 6
)

// Run shows the browser until the user quits and returns the directory
// that was current at that moment
func Run(ctx context.Context, opts Options) (string, error) {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return m.Dir(), err
	}
	m.shutdown()
	return m.Dir(), m.Err()
}

// Confirm asks a yes/no question on the terminal outside the browser
func Confirm(prompt string) bool {
	m := confirm.New(prompt)
	p := tea.NewProgram(&m)
	if _, err := p.Run(); err != nil {
		slog.Error("confirm failed", "error", err)
		return false
	}
	return m.Selected().IsAccepted()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.cd(m.session.Dir()),
		m.logTick(),
	)
}

// shutdown stops outstanding work and unpins the shown preview
func (m *Model) shutdown() {
	m.loader.CancelAll()
	m.previews.CancelPrefetch()
	m.pending.Cancel()
	m.shown.Release()
	m.shown = nil
}
