package ui

import (
	"fmt"
	"strings"

	"github.com/babarot/tana/internal/entry"
	"github.com/babarot/tana/internal/preview"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
)

// window returns the first visible row so that cursor stays on screen
func window(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	off := cursor - height/2
	return max(0, min(off, total-height))
}

// fit truncates s to w cells and pads it to exactly w
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, ellipsis)
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m *Model) nameStyle(e entry.Entry) lipgloss.Style {
	switch {
	case e.Marked:
		return m.styles.Marked
	case e.Kind == entry.BrokenLink:
		return m.styles.Broken
	case e.IsDir():
		return m.styles.Directory
	case e.Kind == entry.Symlink:
		return m.styles.Symlink
	}
	return lipgloss.NewStyle()
}

// renderColumn draws a listing. The cursor row is highlighted when
// cursor >= 0. Sizes are shown when detail is set.
func (m *Model) renderColumn(entries []entry.Entry, cursor, width, height int, detail bool) []string {
	lines := make([]string, 0, height)
	off := window(cursor, len(entries), height)
	for i := off; i < len(entries) && len(lines) < height; i++ {
		e := entries[i]
		mark := " "
		if e.Marked {
			mark = "*"
		}
		right := ""
		if detail && !e.IsDir() {
			right = " " + humanize.Bytes(uint64(e.Size))
		}
		nameWidth := width - 1 - ansi.StringWidth(right)
		row := mark + fit(e.DisplayName(), nameWidth) + right

		if i == cursor {
			lines = append(lines, m.styles.Cursor.Render(fit(row, width)))
			continue
		}
		lines = append(lines, m.nameStyle(e).Render(fit(row, width)))
	}
	if len(entries) == 0 && height > 0 {
		lines = append(lines, m.styles.Dim.Render(fit(" (empty)", width)))
	}
	return lines
}

// parentColumn lists the parent directory with the current one highlighted
func (m *Model) parentColumn(width, height int) []string {
	if m.parent == nil {
		return nil
	}
	var entries []entry.Entry
	for _, e := range m.parent.Entries {
		if !m.session.ShowHidden() && e.IsHidden() && e.Path != m.session.Dir() {
			continue
		}
		entries = append(entries, e)
	}
	cursor := -1
	for i, e := range entries {
		if e.Path == m.session.Dir() {
			cursor = i
			break
		}
	}
	return m.renderColumn(entries, cursor, width, height, false)
}

// previewColumn renders the artifact for the selected entry
func (m *Model) previewColumn(width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	if m.previewErr != "" {
		return m.wrapped(m.styles.Error, m.previewErr, width, height)
	}
	sel, ok := m.session.Selected()
	if !ok {
		return nil
	}
	if m.shown == nil || m.shownFor.Entry.Fingerprint() != sel.Fingerprint() {
		if m.pending != nil {
			return []string{m.styles.Dim.Render(fit("loading"+ellipsis, width))}
		}
		return nil
	}

	a := m.shown.Artifact
	switch a.Kind {
	case preview.Text:
		lines := a.Lines
		if a.Truncated {
			lines = append(lines[:len(lines):len(lines)], m.styles.Dim.Render(ellipsis+" truncated"))
		}
		return scrolled(lines, m.scroll, width, height)

	case preview.External:
		wrapped := wordwrap.String(a.Output, width)
		return scrolled(strings.Split(wrapped, "\n"), m.scroll, width, height)

	case preview.Image:
		return strings.Split(m.renderImage(a, width, height), "\n")

	case preview.Unsupported:
		return m.wrapped(m.styles.Dim, a.Reason, width, height)

	case preview.Error:
		return m.wrapped(m.styles.Error, a.Reason, width, height)
	}
	return nil
}

func (m *Model) wrapped(style lipgloss.Style, s string, width, height int) []string {
	lines := strings.Split(wordwrap.String(s, width), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = style.Render(l)
	}
	return lines
}

// scrolled clips lines to the window starting at off
func scrolled(lines []string, off, width, height int) []string {
	off = max(0, min(off, len(lines)-1))
	out := make([]string, 0, height)
	for i := off; i < len(lines) && len(out) < height; i++ {
		out = append(out, ansi.Truncate(lines[i], width, ""))
	}
	return out
}

func (m *Model) renderImage(a *preview.Artifact, width, height int) string {
	if m.image.fp == a.Fingerprint && m.image.w == width && m.image.h == height {
		return m.image.out
	}
	out, err := preview.RenderImage(a.Image, width, height, m.cfg.Preview.Image.Dithering)
	if err != nil {
		out = m.styles.Error.Render(fmt.Sprintf("render: %v", err))
	}
	m.image = renderedImage{fp: a.Fingerprint, w: width, h: height, out: strings.TrimRight(out, "\n")}
	return m.image.out
}

// block renders lines into a fixed width x height box
func block(lines []string, width, height int, style lipgloss.Style) string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return style.Width(width).Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}
