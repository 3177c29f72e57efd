package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// StatusLineInfo contains information for rendering the status line.
// Fields are ordered to minimize memory padding.
type StatusLineInfo struct {
	State    string // Connection state badge, already styled
	Notice   string
	KeyHints []KeyHint
	Pending  int // Messages waiting for the connection
	Dirty    int // Issues changed locally and not yet synced
}

// KeyHint represents a key and its description.
type KeyHint struct {
	Key  string
	Desc string
}

// hintsFor converts key bindings into status line hints.
func hintsFor(bindings []key.Binding) []KeyHint {
	hints := make([]KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, KeyHint{Key: h.Key, Desc: h.Desc})
	}
	return hints
}

// StatusLine renders a unified status line at the bottom of the screen.
// Fields are ordered to minimize memory padding.
type StatusLine struct {
	styles *Styles
	width  int
}

// NewStatusLine creates a new StatusLine with the given width and styles.
func NewStatusLine(width int, styles *Styles) *StatusLine {
	return &StatusLine{
		width:  width,
		styles: styles,
	}
}

// SetWidth updates the status line width.
func (s *StatusLine) SetWidth(width int) {
	s.width = width
}

// Render renders the status line with the given info.
func (s *StatusLine) Render(info StatusLineInfo) string {
	hints := make([]string, 0, len(info.KeyHints))
	for _, h := range info.KeyHints {
		hints = append(hints, s.styles.FooterKey.Render(h.Key)+" "+h.Desc)
	}
	content := strings.Join(hints, "  ")
	if info.Notice != "" {
		content = s.styles.Notice.Render(info.Notice)
	}

	right := info.State
	if info.Pending > 0 {
		right += s.styles.Muted.Render(fmt.Sprintf("  queued:%d", info.Pending))
	}
	if info.Dirty > 0 {
		right += s.styles.Muted.Render(fmt.Sprintf("  dirty:%d", info.Dirty))
	}

	contentWidth := s.width - 2 // Account for padding
	rightLen := lipgloss.Width(right)
	contentLen := lipgloss.Width(content)

	maxContentWidth := contentWidth - rightLen - 2
	if contentLen > maxContentWidth {
		if maxContentWidth <= 3 {
			content = "..."
		} else {
			content = lipgloss.NewStyle().MaxWidth(maxContentWidth-3).Render(content) + "..."
		}
		contentLen = lipgloss.Width(content)
	}

	spacing := max(contentWidth-contentLen-rightLen, 1)
	return s.styles.Footer.Width(s.width).Render(content + strings.Repeat(" ", spacing) + right)
}

// GetStatusInfo returns status line info for the board model.
func (m *Model) GetStatusInfo() StatusLineInfo {
	state := m.session.State()
	info := StatusLineInfo{
		State:   m.styles.StateStyle(state).Render("● " + state.String()),
		Notice:  m.notice,
		Pending: m.session.Pending(),
		Dirty:   m.session.Drag().Dirty().Len(),
	}

	switch m.mode {
	case ModeNormal:
		info.KeyHints = hintsFor(m.keys.ShortHelp())
	case ModeDrag:
		info.KeyHints = hintsFor(m.keys.dragHelp())
	case ModeFilter:
		info.KeyHints = []KeyHint{
			{Key: "enter", Desc: "apply"},
			{Key: "esc", Desc: "clear"},
		}
	case ModeConfirm:
		info.KeyHints = []KeyHint{
			{Key: "y", Desc: "delete"},
			{Key: "n", Desc: "keep"},
		}
	case ModeHelp:
		info.KeyHints = []KeyHint{{Key: "?", Desc: "close"}}
	}
	return info
}
