package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/board"
	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
	"github.com/runoshun/kanban-sync/internal/protocol"
	"github.com/runoshun/kanban-sync/internal/testutil"
)

func testIssues() []domain.Issue {
	return []domain.Issue{
		{ID: 1, Title: "Write docs", IssueStatusID: 1, ListPosition: 0, ReporterID: 1},
		{ID: 2, Title: "Fix login", IssueStatusID: 1, ListPosition: 1, AssigneeIDs: []domain.UserID{2}},
		{ID: 3, Title: "Ship release", IssueStatusID: 3, ListPosition: 0, ReporterID: 2},
		{ID: 4, Title: "Plan sprint", IssueStatusID: 1, ListPosition: 2, ReporterID: 2},
	}
}

func newTestModel(t *testing.T, open bool, userID domain.UserID) (*Model, *testutil.MockTransport) {
	t.Helper()
	tr := &testutil.MockTransport{}
	q := channel.NewQueue(tr, nil)
	if open {
		q.SetState(channel.Open)
	}
	s := board.NewSession(q, nil)
	s.SetStatuses(domain.DefaultStatuses())
	s.SetIssues(testIssues())

	m := New(s, nil, Options{UserID: userID})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, tr
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
)

func columnIDs(m *Model, col int) []domain.IssueID {
	var ids []domain.IssueID
	for _, issue := range m.columnIssues(col) {
		ids = append(ids, issue.ID)
	}
	return ids
}

func decodeFrames(t *testing.T, frames [][]byte) []protocol.Message {
	t.Helper()
	out := make([]protocol.Message, 0, len(frames))
	for _, f := range frames {
		msg, err := protocol.Decode(f)
		require.NoError(t, err)
		out = append(out, msg)
	}
	return out
}

func TestModel_PickMoveAndDrop(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, keySpace)
	assert.Equal(t, ModeDrag, m.mode)
	id, ok := m.session.Drag().Dragged()
	require.True(t, ok)
	assert.Equal(t, domain.IssueID(1), id)

	press(m, keyDown)
	assert.Equal(t, []domain.IssueID{2, 1, 4}, columnIDs(m, 0))
	assert.Equal(t, 1, m.row, "cursor follows the dragged issue")
	assert.Empty(t, tr.Written(), "hovering does not sync")

	press(m, keyDown)
	assert.Equal(t, []domain.IssueID{2, 4, 1}, columnIDs(m, 0))

	press(m, keyUp)
	assert.Equal(t, []domain.IssueID{2, 1, 4}, columnIDs(m, 0), "moving back swaps again")

	cmd := press(m, keyEnter)
	assert.Equal(t, ModeNormal, m.mode)
	assert.False(t, m.session.Drag().IsDragging())
	assert.NotNil(t, cmd)
	assert.Equal(t, "3 issues synced", m.notice)
	assert.Len(t, tr.Written(), 6)
	assert.Equal(t, 0, m.session.Drag().Dirty().Len())
}

func TestModel_DropOnIssueInOtherColumn(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, keySpace, keyRight, keyRight)
	assert.Equal(t, 2, m.col)
	assert.Equal(t, []domain.IssueID{3}, columnIDs(m, 2), "the dragged issue stays home until dropped")

	press(m, keyEnter)
	assert.Equal(t, []domain.IssueID{3, 1}, columnIDs(m, 2))
	assert.Equal(t, 2, m.col)
	assert.Equal(t, 1, m.row)

	msgs := decodeFrames(t, tr.Written())
	assert.Contains(t, msgs, protocol.UpdateStatus(1, 3))
	assert.Contains(t, msgs, protocol.UpdatePosition(1, 1))
}

func TestModel_DropOnEmptyColumn(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, keySpace, keyRight, keyEnter)

	assert.Equal(t, []domain.IssueID{1}, columnIDs(m, 1))
	assert.Equal(t, []domain.IssueID{2, 4}, columnIDs(m, 0))
	assert.Equal(t, 1, m.col)
	assert.Equal(t, []protocol.Message{
		protocol.UpdateStatus(1, 2),
		protocol.UpdatePosition(1, 0),
	}, decodeFrames(t, tr.Written()))
}

func TestModel_DropColumnKey(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, keySpace, keyRight, keyRight, runes("c"))

	assert.Equal(t, []domain.IssueID{3, 1}, columnIDs(m, 2))
	assert.Contains(t, decodeFrames(t, tr.Written()), protocol.UpdatePosition(1, 1))
}

func TestModel_EscapeCancelsDrag(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, keySpace, keyDown, keyDown)
	require.Equal(t, []domain.IssueID{2, 4, 1}, columnIDs(m, 0))

	press(m, keyEsc)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, []domain.IssueID{1, 2, 4}, columnIDs(m, 0))
	assert.Equal(t, 0, m.row)
	assert.Equal(t, 0, m.session.Drag().Dirty().Len())
	assert.Empty(t, tr.Written())
}

func TestModel_OfflineDropIsQueued(t *testing.T) {
	m, tr := newTestModel(t, false, 0)

	press(m, keySpace, keyDown, keyEnter)

	assert.Empty(t, tr.Written())
	assert.Equal(t, 4, m.session.Pending())
	assert.Equal(t, "2 issues changed, 4 updates queued", m.notice)
}

func TestModel_OnlyMineFilter(t *testing.T) {
	m, _ := newTestModel(t, true, 2)

	press(m, runes("m"))
	assert.True(t, m.onlyMine)
	assert.Equal(t, []domain.IssueID{2, 4}, columnIDs(m, 0))
	assert.Equal(t, []domain.IssueID{3}, columnIDs(m, 2))

	press(m, runes("m"))
	assert.Equal(t, []domain.IssueID{1, 2, 4}, columnIDs(m, 0))
}

func TestModel_OnlyMineWithoutUser(t *testing.T) {
	m, _ := newTestModel(t, true, 0)

	cmd := press(m, runes("m"))
	assert.False(t, m.onlyMine)
	assert.NotNil(t, cmd)
	assert.Equal(t, "no user_id configured", m.notice)
}

func TestModel_TitleFilter(t *testing.T) {
	m, _ := newTestModel(t, true, 0)

	press(m, runes("/"))
	assert.Equal(t, ModeFilter, m.mode)
	press(m, runes("LOG"))
	assert.Equal(t, []domain.IssueID{2}, columnIDs(m, 0))

	press(m, keyEnter)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "LOG", m.filterInput.Value())
	assert.Equal(t, domain.IssueID(2), m.SelectedIssue().ID)

	press(m, runes("/"), keyEsc)
	assert.Empty(t, m.filterInput.Value())
	assert.Equal(t, []domain.IssueID{1, 2, 4}, columnIDs(m, 0))
}

func TestModel_FilterNeverReorders(t *testing.T) {
	m, tr := newTestModel(t, true, 2)

	// Issue 1 is hidden by the filter; dragging 2 below 4 must not touch it.
	press(m, runes("m"), keySpace, keyDown, keyEnter)

	assert.Equal(t, []domain.IssueID{4, 2}, columnIDs(m, 0))
	for _, msg := range decodeFrames(t, tr.Written()) {
		u, ok := msg.(protocol.IssueUpdateRequest)
		require.True(t, ok)
		assert.NotEqual(t, domain.IssueID(1), u.ID)
	}
}

func TestModel_DeleteConfirm(t *testing.T) {
	m, tr := newTestModel(t, true, 0)

	press(m, runes("x"))
	assert.Equal(t, ModeConfirm, m.mode)
	press(m, runes("n"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, tr.Written())

	press(m, keyDown, runes("x"), runes("y"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, []protocol.Message{protocol.IssueDeleteRequest{ID: 2}}, decodeFrames(t, tr.Written()))
}

func TestModel_RefreshOffline(t *testing.T) {
	m, _ := newTestModel(t, false, 0)

	press(m, runes("r"))
	assert.Equal(t, 2, m.session.Pending())
	assert.Equal(t, "offline, refresh queued", m.notice)
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t, true, 0)

	press(m, runes("?"))
	assert.Equal(t, ModeHelp, m.mode)
	press(m, runes("?"))
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, true, 0)

	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ClearNoticeIgnoresStaleTicks(t *testing.T) {
	m, _ := newTestModel(t, true, 0)

	m.setNotice("first")
	m.setNotice("second")
	m.Update(MsgClearNotice{Seq: 1})
	assert.Equal(t, "second", m.notice)
	m.Update(MsgClearNotice{Seq: 2})
	assert.Empty(t, m.notice)
}

func TestModel_TransportEvents(t *testing.T) {
	tr := &testutil.MockTransport{}
	s := board.NewSession(channel.NewQueue(tr, nil), nil)
	events := make(chan wsclient.Event, 4)
	m := New(s, events, Options{})

	statuses, err := protocol.Encode(protocol.IssueStatusesLoaded{Statuses: domain.DefaultStatuses()})
	require.NoError(t, err)
	issues, err := protocol.Encode(protocol.IssuesLoaded{Issues: testIssues()})
	require.NoError(t, err)

	events <- wsclient.Event{Kind: wsclient.EventOpened}
	events <- wsclient.Event{Kind: wsclient.EventMessage, Frame: statuses}
	events <- wsclient.Event{Kind: wsclient.EventMessage, Frame: issues}
	close(events)

	cmd := m.Init()
	for cmd != nil {
		msg := cmd()
		_, cmd = m.Update(msg)
		if _, done := msg.(MsgTransportDone); done {
			break
		}
	}

	assert.Equal(t, channel.Open, s.State())
	assert.True(t, s.Loaded())
	assert.Len(t, s.Statuses(), 4)
	assert.Equal(t, []domain.IssueID{1, 2, 4}, columnIDs(m, 0))
	assert.Nil(t, m.events)
	assert.Len(t, tr.Written(), 2, "opening asks for statuses and issues")
}

func TestModel_ReplacementKeepsCursorOnIssue(t *testing.T) {
	m, _ := newTestModel(t, true, 0)
	press(m, keyDown)
	require.Equal(t, domain.IssueID(2), m.SelectedIssue().ID)

	moved := testIssues()
	moved[1].ListPosition = 5
	frame, err := protocol.Encode(protocol.IssuesLoaded{Issues: moved})
	require.NoError(t, err)
	m.Update(MsgTransport{Event: wsclient.Event{Kind: wsclient.EventMessage, Frame: frame}})

	assert.Equal(t, []domain.IssueID{1, 4, 2}, columnIDs(m, 0))
	assert.Equal(t, domain.IssueID(2), m.SelectedIssue().ID)
}

func TestModel_ServerDeletesDraggedIssue(t *testing.T) {
	m, _ := newTestModel(t, true, 0)
	press(m, keySpace)

	frame, err := protocol.Encode(protocol.IssueDeleted{ID: 1})
	require.NoError(t, err)
	m.Update(MsgTransport{Event: wsclient.Event{Kind: wsclient.EventMessage, Frame: frame}})

	// Dropping a vanished issue ends the drag without rewriting anything.
	press(m, keyEnter)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, []domain.IssueID{2, 4}, columnIDs(m, 0))
}
