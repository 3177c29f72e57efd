package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// minColumnWidth keeps titles readable on narrow terminals.
const minColumnWidth = 18

// View renders the board.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeNormal, ModeDrag, ModeFilter, ModeConfirm:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the columns with header, overlays and status line.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if msg := m.session.LastError(); msg != "" {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+msg) + "\n")
	}

	switch {
	case m.mode == ModeFilter:
		b.WriteString("Filter: " + m.filterInput.View() + "\n")
	case m.filterInput.Value() != "":
		b.WriteString(m.styles.Muted.Render("Filtered: "+m.filterInput.Value()) + "\n")
	}

	b.WriteString(m.viewBoard())
	b.WriteString("\n")

	if m.mode == ModeConfirm {
		b.WriteString(m.viewConfirmDialog())
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine.Render(m.GetStatusInfo()))
	return b.String()
}

// viewHeader renders the title and the active filters.
func (m *Model) viewHeader() string {
	header := m.styles.Header.Render("Board")
	var tags []string
	if m.onlyMine {
		tags = append(tags, fmt.Sprintf("mine:#%d", m.userID))
	}
	if m.mode == ModeDrag {
		if id, ok := m.session.Drag().Dragged(); ok {
			tags = append(tags, fmt.Sprintf("dragging #%d", id))
		}
	}
	if len(tags) > 0 {
		header += "  " + m.styles.Muted.Render(strings.Join(tags, "  "))
	}
	return header
}

// viewBoard renders the columns side by side.
func (m *Model) viewBoard() string {
	cols := m.columns()
	if len(cols) == 0 {
		if !m.session.Loaded() {
			return m.styles.ColumnEmpty.Render("Waiting for the board...")
		}
		return m.styles.ColumnEmpty.Render("No columns")
	}

	width := max((m.width-2)/len(cols)-4, minColumnWidth)
	rendered := make([]string, 0, len(cols))
	for i, st := range cols {
		rendered = append(rendered, m.viewColumn(i, st, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// viewColumn renders one column with its issues.
func (m *Model) viewColumn(idx int, status domain.IssueStatus, width int) string {
	issues := m.columnIssues(idx)
	dragged, dragging := m.session.Drag().Dragged()

	lines := make([]string, 0, len(issues)+2)
	lines = append(lines,
		m.styles.ColumnTitle.Render(status.Name)+" "+m.styles.ColumnCount.Render(fmt.Sprintf("(%d)", len(issues))),
		"")
	if len(issues) == 0 {
		lines = append(lines, m.styles.ColumnEmpty.Render("empty"))
	}
	for row, issue := range issues {
		selected := idx == m.col && row == m.row
		lines = append(lines, m.renderIssue(issue, selected, dragging && issue.ID == dragged, width))
	}

	style := m.styles.Column
	if idx == m.col {
		style = m.styles.ColumnFocused
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

// renderIssue renders a single issue row.
func (m *Model) renderIssue(issue domain.Issue, selected, dragged bool, width int) string {
	cursor := "  "
	titleStyle := m.styles.Issue
	switch {
	case dragged:
		cursor = "≡ "
		titleStyle = m.styles.IssueDragged
	case selected:
		cursor = "> "
		titleStyle = m.styles.IssueSelected
	}

	id := fmt.Sprintf("#%d ", issue.ID)
	title := issue.Title
	if room := width - lipgloss.Width(cursor) - lipgloss.Width(id); room > 3 && lipgloss.Width(title) > room {
		title = lipgloss.NewStyle().MaxWidth(room-3).Render(title) + "..."
	}
	return cursor + m.styles.IssueID.Render(id) + titleStyle.Render(title)
}

// viewConfirmDialog renders the delete confirmation.
func (m *Model) viewConfirmDialog() string {
	title := fmt.Sprintf("#%d", m.confirmID)
	if issue, ok := m.session.Issue(m.confirmID); ok {
		title += " " + issue.Title
	}
	return m.styles.Dialog.Render(
		"Delete " + title + "?\n\n" +
			m.styles.FooterKey.Render("y") + " delete  " +
			m.styles.FooterKey.Render("n") + " keep",
	)
}

// viewHelp renders the full key reference.
func (m *Model) viewHelp() string {
	m.help.ShowAll = true
	return m.styles.Header.Render("KEYBOARD SHORTCUTS") + "\n\n" +
		m.help.View(m.keys) + "\n\n" +
		m.statusLine.Render(m.GetStatusInfo())
}
