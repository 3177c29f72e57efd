package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/kanban-sync/internal/channel"
)

// Colors defines the color palette for the board.
var Colors = struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color
	Dragged       lipgloss.Color
	Border        lipgloss.Color
}{
	Primary:   lipgloss.Color("#6C5CE7"), // Purple
	Secondary: lipgloss.Color("#A29BFE"), // Lavender
	Muted:     lipgloss.Color("#636E72"), // Gray
	Error:     lipgloss.Color("#D63031"), // Red
	Success:   lipgloss.Color("#00B894"), // Green
	Warning:   lipgloss.Color("#FDCB6E"), // Yellow

	TitleNormal:   lipgloss.Color("#DFE6E9"), // Light gray
	TitleSelected: lipgloss.Color("#FFEAA7"), // Pale yellow
	Dragged:       lipgloss.Color("#74B9FF"), // Light blue
	Border:        lipgloss.Color("#636E72"),
}

// Styles contains all the lipgloss styles for the board.
type Styles struct {
	App    lipgloss.Style
	Header lipgloss.Style

	// Columns
	Column        lipgloss.Style
	ColumnFocused lipgloss.Style
	ColumnTitle   lipgloss.Style
	ColumnCount   lipgloss.Style
	ColumnEmpty   lipgloss.Style

	// Issues
	Issue         lipgloss.Style
	IssueSelected lipgloss.Style
	IssueDragged  lipgloss.Style
	IssueID       lipgloss.Style

	// Connection state badges
	StateOpen       lipgloss.Style
	StateConnecting lipgloss.Style
	StateClosed     lipgloss.Style

	// Footer
	Footer    lipgloss.Style
	FooterKey lipgloss.Style

	Dialog   lipgloss.Style
	Input    lipgloss.Style
	ErrorMsg lipgloss.Style
	Notice   lipgloss.Style
	Muted    lipgloss.Style
}

// DefaultStyles returns the default styles for the board.
func DefaultStyles() Styles {
	column := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Colors.Border).
		Padding(0, 1)

	return Styles{
		App: lipgloss.NewStyle().
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		Column: column,

		ColumnFocused: column.
			BorderForeground(Colors.Secondary),

		ColumnTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.TitleNormal),

		ColumnCount: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		ColumnEmpty: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Italic(true),

		Issue: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		IssueSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.TitleSelected),

		IssueDragged: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Dragged),

		IssueID: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		StateOpen: lipgloss.NewStyle().
			Foreground(Colors.Success),

		StateConnecting: lipgloss.NewStyle().
			Foreground(Colors.Warning),

		StateClosed: lipgloss.NewStyle().
			Foreground(Colors.Error),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Padding(0, 1),

		FooterKey: lipgloss.NewStyle().
			Foreground(Colors.Secondary).
			Bold(true),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Warning).
			Padding(0, 1),

		Input: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(Colors.Muted),
	}
}

// StateStyle returns the badge style for a channel state.
func (s Styles) StateStyle(state channel.State) lipgloss.Style {
	switch state {
	case channel.Open:
		return s.StateOpen
	case channel.Connecting:
		return s.StateConnecting
	case channel.Closed:
		return s.StateClosed
	}
	return s.Muted
}
