package styles

import (
	"github.com/babarot/tana/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// Color chart: https://github.com/muesli/termenv

// Styles is built once from the ui section of the config
type Styles struct {
	Cursor    lipgloss.Style
	Marked    lipgloss.Style
	Directory lipgloss.Style
	Symlink   lipgloss.Style
	Broken    lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style

	Header  lipgloss.Style
	Pane    lipgloss.Style
	Footer  lipgloss.Style
	Prompt  lipgloss.Style
	LogPane lipgloss.Style
}

func New(cfg config.UI) *Styles {
	c := cfg.Style
	border := lipgloss.Color(c.Border)
	return &Styles{
		Cursor:    lipgloss.NewStyle().Reverse(true).Foreground(lipgloss.Color(c.Cursor)),
		Marked:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Marked)).Bold(true),
		Directory: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Directory)).Bold(true),
		Symlink:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Symlink)),
		Broken:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error)).Strikethrough(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error)).Bold(true),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color(c.Marked)),

		Header: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Directory)).Bold(true),
		Pane: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(border),
		Footer: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Cursor)).Bold(true),
		LogPane: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(border).
			Foreground(lipgloss.Color("245")),
	}
}
