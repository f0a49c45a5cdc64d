package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	fsatomic "github.com/babarot/tana/internal/core/atomic"
	"github.com/babarot/tana/internal/entry"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/samber/lo"
)

// fileMeta caches footer lookups that need syscalls
type fileMeta struct {
	path  string
	owner string
	group string
	dir   string
	mount string
}

// View returns the string representation of the current UI state
func (m *Model) View() string {
	defer color.Unset()

	if m.err != nil {
		return m.err.Error()
	}
	if m.state.current == QUITTING {
		return ""
	}

	width := m.width
	bodyHeight := m.listHeight()

	pw := width / 6
	cw := width * 2 / 6
	vw := width - pw - cw

	entries := m.session.Entries()
	left := block(m.parentColumn(pw-1, bodyHeight), pw-1, bodyHeight, m.styles.Pane)
	middle := block(m.renderColumn(entries, m.session.Cursor(), cw-1, bodyHeight, true), cw-1, bodyHeight, m.styles.Pane)
	right := block(m.previewColumn(vw-1, bodyHeight), vw-1, bodyHeight, lipgloss.NewStyle().PaddingLeft(1))

	sections := []string{
		m.header(width),
		lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right),
	}
	if m.state.showLog && m.ring != nil {
		sections = append(sections, m.logPane(width))
	}
	sections = append(sections,
		m.footer(width),
		m.statusLine(width),
		m.helpLine(width),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// listHeight is the number of rows available to the columns
func (m *Model) listHeight() int {
	// header, footer, status and help
	h := m.height - 4
	if m.state.showLog && m.ring != nil {
		h -= logLines + 1
	}
	if m.help.ShowAll {
		// full help is drawn in columns, the short line is already counted
		rows := lo.Max(lo.Map(m.keyMap.FullHelp(), func(g []key.Binding, _ int) int { return len(g) }))
		h -= rows - 1
	}
	return max(1, h)
}

func (m *Model) header(width int) string {
	dir := m.session.Dir()
	s := m.styles.Header.Render(dir)
	if f := m.session.Filter(); f != "" {
		s += m.styles.Dim.Render("  [filter: " + f + "]")
	}
	if !m.yanked.empty() {
		s += m.styles.Dim.Render(fmt.Sprintf("  [%d %s]", len(m.yanked.paths), m.yanked.verb()))
	}
	return ansi.Truncate(s, width, ellipsis)
}

func (m *Model) footer(width int) string {
	e, ok := m.session.Selected()
	if !ok {
		return m.styles.Footer.Render(fit("", width))
	}
	meta := m.lookup(e)

	fields := []string{
		e.Mode.String(),
		meta.owner + ":" + meta.group,
		humanize.Bytes(uint64(e.Size)),
		m.state.FormatDate(e.ModTime),
	}
	if m.shown != nil && m.shownFor.Entry.Path == e.Path && m.shown.Artifact.Mime != "" {
		fields = append(fields, m.shown.Artifact.Mime)
	}
	if meta.mount != "" {
		fields = append(fields, "on "+meta.mount)
	}
	left := strings.Join(fields, "  ")

	right := fmt.Sprintf("%d/%d", m.session.Cursor()+1, m.session.Len())
	if n := m.session.MarkedCount(); n > 0 {
		right = fmt.Sprintf("%d marked  %s", n, right)
	}
	gap := width - ansi.StringWidth(right) - 1
	return m.styles.Footer.Render(fit(left, gap) + " " + right)
}

// lookup resolves owner and mount point for the footer
func (m *Model) lookup(e entry.Entry) fileMeta {
	meta := &m.meta
	if meta.path != e.Path {
		meta.path = e.Path
		meta.owner, meta.group = entry.Owner(e.Path)
	}
	if dir := filepath.Dir(e.Path); meta.dir != dir {
		meta.dir = dir
		meta.mount = fsatomic.MountPoint(dir)
	}
	return *meta
}

func (m *Model) statusLine(width int) string {
	switch m.state.current {
	case CONFIRM_VIEW:
		if m.confirm != nil {
			return m.styles.Error.Render(ansi.Truncate(m.confirm.prompt+" [y/n]", width, ellipsis))
		}
	case CONSOLE_VIEW:
		line := m.input.View()
		if len(m.candidates) > 0 {
			parts := make([]string, len(m.candidates))
			for i, c := range m.candidates {
				name := filepath.Base(strings.TrimSuffix(c, string(filepath.Separator))) + "/"
				if i == m.candidate {
					name = m.styles.Cursor.Render(name)
				} else {
					name = m.styles.Directory.Render(name)
				}
				parts[i] = name
			}
			line += "  " + strings.Join(parts, " ")
		}
		return ansi.Truncate(line, width, ellipsis)
	case CREATE_VIEW, SEARCH_VIEW, RENAME_VIEW:
		return ansi.Truncate(m.input.View(), width, ellipsis)
	}

	if m.status == "" {
		return ""
	}
	style := m.styles.Info
	if m.statusErr {
		style = m.styles.Error
	}
	return style.Render(ansi.Truncate(m.status, width, ellipsis))
}

func (m *Model) helpLine(width int) string {
	m.help.Width = width
	switch m.state.current {
	case CONFIRM_VIEW:
		return m.help.View(m.keyMap.AsConfirmKeyMap())
	case CONSOLE_VIEW, CREATE_VIEW, SEARCH_VIEW, RENAME_VIEW:
		return m.help.View(m.keyMap.AsPromptKeyMap(m.state.current == CONSOLE_VIEW))
	}
	return m.help.View(m.keyMap)
}

func (m *Model) logPane(width int) string {
	lines := m.ring.Lines()
	if len(lines) > logLines {
		lines = lines[len(lines)-logLines:]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, ellipsis)
	}
	return block(lines, width, logLines, m.styles.LogPane)
}
