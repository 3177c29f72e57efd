package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/kanban-sync/internal/board"
	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.statusLine.SetWidth(msg.Width)
		return m, nil

	case MsgTransport:
		m.handleTransport(msg.Event)
		return m, m.waitForEvent()

	case MsgTransportDone:
		m.events = nil
		return m, nil

	case MsgClearNotice:
		if msg.Seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

// handleTransport applies one client event to the session and keeps the
// cursor on the same issue.
func (m *Model) handleTransport(ev wsclient.Event) {
	var selected domain.IssueID
	if issue := m.SelectedIssue(); issue != nil {
		selected = issue.ID
	}

	wsclient.Deliver(ev, m.session)

	switch {
	case m.mode == ModeDrag:
		if !m.session.Drag().IsDragging() {
			m.mode = ModeNormal
		}
		if id, ok := m.session.Drag().Dragged(); ok && m.draggedColumn() == m.col {
			m.focusIssue(id)
		}
	case selected != 0:
		if !m.focusIssue(selected) {
			m.clampCursor()
		}
	default:
		m.clampCursor()
	}

	if ev.Kind == wsclient.EventClosed && ev.Err != nil {
		m.logger.Warn("tui", fmt.Sprintf("connection lost: %v", ev.Err))
	}
}

// handleKeyMsg dispatches a key press by mode.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeNormal:
		return m.handleNormalMode(msg)
	case ModeDrag:
		return m.handleDragMode(msg)
	case ModeFilter:
		return m.handleFilterMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeHelp:
		return m.handleHelpMode(msg)
	}

	return m, nil
}

// handleNormalMode handles keys in normal mode.
func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Pick):
		issue := m.SelectedIssue()
		if issue == nil {
			return m, nil
		}
		m.session.Handle(board.DragStarted{ID: issue.ID})
		m.mode = ModeDrag
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.session.Refresh()
		if m.session.State() != channel.Open {
			return m, m.setNotice("offline, refresh queued")
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		issue := m.SelectedIssue()
		if issue == nil {
			return m, nil
		}
		m.confirmID = issue.ID
		m.mode = ModeConfirm
		return m, nil

	case key.Matches(msg, m.keys.Mine):
		if m.userID == 0 {
			return m, m.setNotice("no user_id configured")
		}
		m.onlyMine = !m.onlyMine
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.mode = ModeFilter
		m.filterInput.Focus()
		return m, nil
	}

	return m, nil
}

// handleDragMode handles keys while an issue is picked up. Moving up or down
// in the dragged issue's column hovers it over the neighbour, which swaps the
// two. In other columns the cursor picks the drop target.
func (m *Model) handleDragMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	draggedID, ok := m.session.Drag().Dragged()
	if !ok {
		m.mode = ModeNormal
		return m, nil
	}
	home := m.draggedColumn() == m.col

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Handle(board.DragCancelled{})
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		m.session.Handle(board.DragCancelled{})
		m.mode = ModeNormal
		if !m.focusIssue(draggedID) {
			m.clampCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		step := 1
		if key.Matches(msg, m.keys.Up) {
			step = -1
		}
		if !home {
			m.row += step
			m.clampCursor()
			return m, nil
		}
		issues := m.columnIssues(m.col)
		target := m.row + step
		if target < 0 || target >= len(issues) {
			return m, nil
		}
		m.session.Handle(board.DragLeave{})
		m.session.Handle(board.DragOverIssue{ID: issues[target].ID})
		m.focusIssue(draggedID)
		return m, nil

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		if key.Matches(msg, m.keys.Left) {
			m.col--
		} else {
			m.col++
		}
		m.clampCursor()
		if m.draggedColumn() == m.col {
			m.focusIssue(draggedID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Drop):
		var res board.Result
		switch target := m.SelectedIssue(); {
		case home:
			res = m.session.Handle(board.DragEnded{})
		case target != nil:
			m.session.Handle(board.DragLeave{})
			res = m.session.Handle(board.DropOnIssue{ID: target.ID})
		default:
			res = m.dropOnColumn()
		}
		return m, m.afterDrop(draggedID, res)

	case key.Matches(msg, m.keys.DropColumn):
		return m, m.afterDrop(draggedID, m.dropOnColumn())
	}

	return m, nil
}

// dropOnColumn drops the dragged issue at the end of the cursor's column.
func (m *Model) dropOnColumn() board.Result {
	cols := m.columns()
	if m.col < 0 || m.col >= len(cols) {
		return m.session.Handle(board.DragEnded{})
	}
	return m.session.Handle(board.DropOnColumn{Status: cols[m.col].ID})
}

// afterDrop returns to normal mode with the cursor on the dropped issue.
func (m *Model) afterDrop(id domain.IssueID, res board.Result) tea.Cmd {
	m.mode = ModeNormal
	if !m.focusIssue(id) {
		m.clampCursor()
	}
	if !res.Synced || res.Sync.Issues == 0 {
		return nil
	}
	if res.Sync.Bounced > 0 {
		return m.setNotice(fmt.Sprintf("%d issues changed, %d updates queued", res.Sync.Issues, res.Sync.Bounced))
	}
	return m.setNotice(fmt.Sprintf("%d issues synced", res.Sync.Issues))
}

// handleFilterMode handles keys in filter mode.
func (m *Model) handleFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = ModeNormal
		m.filterInput.Reset()
		m.filterInput.Blur()
		m.clampCursor()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.mode = ModeNormal
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.clampCursor()
	return m, cmd
}

// handleConfirmMode handles keys in confirm mode.
func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), msg.String() == "n", msg.String() == "N":
		m.mode = ModeNormal
		m.confirmID = 0
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		id := m.confirmID
		m.mode = ModeNormal
		m.confirmID = 0
		if m.session.RequestDelete(id) == channel.Bounced {
			return m, m.setNotice(fmt.Sprintf("offline, deletion of #%d queued", id))
		}
		return m, nil
	}

	return m, nil
}

// handleHelpMode handles keys in help mode.
func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Escape):
		m.mode = ModeNormal
	}
	return m, nil
}
