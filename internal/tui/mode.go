// Package tui provides the terminal kanban board client.
package tui

// Mode represents the current UI mode.
type Mode int

const (
	ModeNormal  Mode = iota // Cursor navigation
	ModeDrag                // An issue is picked up
	ModeFilter              // Title filter input
	ModeConfirm             // Delete confirmation
	ModeHelp                // Full help overlay
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModeFilter:
		return "filter"
	case ModeConfirm:
		return "confirm"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IsInputMode returns true if the mode accepts text input.
func (m Mode) IsInputMode() bool {
	return m == ModeFilter
}
