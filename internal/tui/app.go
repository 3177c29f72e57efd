package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/kanban-sync/internal/board"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
)

// Ensure the board session can consume transport events.
var _ wsclient.Sink = (*board.Session)(nil)

// noticeTTL is how long a notice stays in the status line.
const noticeTTL = 4 * time.Second

// Options configures a Model.
type Options struct {
	Logger domain.Logger
	UserID domain.UserID // Used by the "only mine" filter; 0 disables it
}

// Model is the main bubbletea model for the board.
type Model struct {
	// Dependencies (pointers first for alignment)
	session    *board.Session
	events     <-chan wsclient.Event
	logger     domain.Logger
	statusLine *StatusLine

	notice string

	// Components (structs with pointers)
	keys        KeyMap
	styles      Styles
	help        help.Model
	filterInput textinput.Model

	// Numeric state (smaller types last)
	mode      Mode
	col       int
	row       int
	width     int
	height    int
	noticeSeq int
	confirmID domain.IssueID
	userID    domain.UserID
	onlyMine  bool
}

// New creates a board model over session, fed by events.
func New(session *board.Session, events <-chan wsclient.Event, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = domain.NopLogger{}
	}

	fi := textinput.New()
	fi.Placeholder = "Filter by title..."
	fi.CharLimit = 100

	styles := DefaultStyles()
	return &Model{
		session:     session,
		events:      events,
		logger:      opts.Logger,
		keys:        DefaultKeyMap(),
		styles:      styles,
		help:        help.New(),
		filterInput: fi,
		statusLine:  NewStatusLine(0, &styles),
		mode:        ModeNormal,
		userID:      opts.UserID,
	}
}

// Run shows the board until the user quits or ctx is done. The client is
// started here and closed on return.
func Run(ctx context.Context, client *wsclient.Client, session *board.Session, opts Options) error {
	client.Start(ctx)
	defer client.Close()

	m := New(session, client.Events(), opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run board: %w", err)
	}
	return nil
}

// Init starts listening for transport events.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that blocks on the next transport event.
func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return MsgTransportDone{}
		}
		return MsgTransport{Event: ev}
	}
}

// setNotice shows text in the status line and schedules its removal.
func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return MsgClearNotice{Seq: seq}
	})
}

// columns returns the board columns in display order.
func (m *Model) columns() []domain.IssueStatus {
	return m.session.Statuses()
}

// visible reports whether the filters let an issue through. The dragged
// issue is always visible.
func (m *Model) visible(issue *domain.Issue) bool {
	if id, ok := m.session.Drag().Dragged(); ok && id == issue.ID {
		return true
	}
	if m.onlyMine && m.userID != 0 && !issue.Involves(m.userID) {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if query != "" && !strings.Contains(strings.ToLower(issue.Title), query) {
		return false
	}
	return true
}

// columnIssues returns the visible issues of column index col.
func (m *Model) columnIssues(col int) []domain.Issue {
	cols := m.columns()
	if col < 0 || col >= len(cols) {
		return nil
	}
	all := m.session.Column(cols[col].ID)
	out := make([]domain.Issue, 0, len(all))
	for i := range all {
		if m.visible(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// SelectedIssue returns the issue under the cursor, or nil.
func (m *Model) SelectedIssue() *domain.Issue {
	issues := m.columnIssues(m.col)
	if m.row < 0 || m.row >= len(issues) {
		return nil
	}
	issue := issues[m.row]
	return &issue
}

// clampCursor keeps the cursor inside the board.
func (m *Model) clampCursor() {
	cols := m.columns()
	if m.col >= len(cols) {
		m.col = len(cols) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	n := len(m.columnIssues(m.col))
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// focusIssue moves the cursor onto id if it is visible.
func (m *Model) focusIssue(id domain.IssueID) bool {
	for col := range m.columns() {
		for row, issue := range m.columnIssues(col) {
			if issue.ID == id {
				m.col, m.row = col, row
				return true
			}
		}
	}
	return false
}

// draggedColumn returns the column index of the dragged issue, or -1.
func (m *Model) draggedColumn() int {
	id, ok := m.session.Drag().Dragged()
	if !ok {
		return -1
	}
	issue, ok := m.session.Issue(id)
	if !ok {
		return -1
	}
	for col, st := range m.columns() {
		if st.ID == issue.IssueStatusID {
			return col
		}
	}
	return -1
}
