// Package confirm is a single-keystroke yes/no prompt for use outside the
// main browser, e.g. before cleaning stale trash from the command line.
package confirm

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jimschubert/answer/colors"
)

// Decision is the answer given to the prompt
type Decision int

const (
	Undecided Decision = iota
	Accepted
	Denied
)

func (d Decision) String() string {
	return [...]string{"undecided", "accepted", "denied"}[d]
}

func (d Decision) IsAccepted() bool { return d == Accepted }

type Styles struct {
	PromptPrefix lipgloss.Style
	Prompt       lipgloss.Style
	Placeholder  lipgloss.Style
}

// Model answers on the first y or n, esc and ctrl+c deny
type Model struct {
	PromptPrefix string
	Prompt       string
	// DefaultValue is taken on enter
	DefaultValue Decision
	Styles       Styles

	selected Decision
	done     bool
}

func New(prompt string) Model {
	return Model{
		PromptPrefix: "?",
		Prompt:       prompt,
		DefaultValue: Denied,
		Styles: Styles{
			PromptPrefix: lipgloss.NewStyle().Foreground(lipgloss.Color(colors.PromptPrefix)),
			Placeholder:  lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Placeholder)),
		},
	}
}

func (m *Model) Selected() Decision { return m.selected }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.decide(Denied)
	case tea.KeyEnter:
		return m.decide(m.DefaultValue)
	}
	switch strings.ToLower(k.String()) {
	case "y":
		return m.decide(Accepted)
	case "n":
		return m.decide(Denied)
	}
	return m, nil
}

func (m *Model) decide(d Decision) (tea.Model, tea.Cmd) {
	m.selected = d
	m.done = true
	return m, tea.Quit
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.Styles.PromptPrefix.Render(m.PromptPrefix))
	b.WriteString(" ")
	b.WriteString(m.Styles.Prompt.Render(m.Prompt))
	b.WriteString(" ")

	if m.done {
		if m.selected.IsAccepted() {
			b.WriteString("yes")
		} else {
			b.WriteString("no")
		}
		b.WriteRune('\n')
		return b.String()
	}

	hint := "y/N"
	if m.DefaultValue == Accepted {
		hint = "Y/n"
	}
	b.WriteString(m.Styles.Placeholder.Render(hint))
	return b.String()
}
