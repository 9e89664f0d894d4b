package tui

import (
	"fmt"
	"strings"

	"github.com/Zuo-Peng/ai-session-stats/internal/search"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	linesPerItem  = 2
	projectWidth  = 12
	durationWidth = 7
	dateWidth     = 5 // MM-DD
)

var flatten = strings.NewReplacer("\n", " ", "\t", " ", ">>>", "", "<<<", "")

// renderList draws the session list from offset, two lines per session.
func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No sessions")
	}

	lines := make([]string, 0, height)
	for i := m.offset; i < len(m.results) && len(lines)+linesPerItem <= height; i++ {
		lines = append(lines, formatResultLine(m.results[i], width, i == m.cursor)...)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatResultLine renders one session:
//
//	> project      MM-DD  active first request
//	    snippet
func formatResultLine(r search.Result, width int, selected bool) []string {
	project := runewidth.FillRight(runewidth.Truncate(r.ProjectName, projectWidth, ""), projectWidth)

	date := "--:--"
	if len(r.CreatedAt) >= 10 {
		date = r.CreatedAt[5:10]
	}

	fixed := 2 + projectWidth + 1 + dateWidth + 1 + durationWidth + 1
	head := fmt.Sprintf("%s %s %s %s",
		styleProject.Render(project),
		date,
		styleDuration.Render(runewidth.FillLeft(r.ActiveDuration, durationWidth)),
		clip(strings.ReplaceAll(r.FirstRequest, "\n", " "), width-fixed),
	)

	marker := "  "
	if selected {
		marker = styleListSelected.Render("> ")
	}

	snippet := lipgloss.NewStyle().Foreground(colorDim).Render(clip(flatten.Replace(r.Snippet), width-4))
	return []string{marker + head, "    " + snippet}
}

func clip(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "")
}

// adjustListScroll moves offset so the cursor stays inside a list panel of
// listHeight lines.
func (m *model) adjustListScroll(listHeight int) {
	visible := max(listHeight/linesPerItem, 1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}
