// Package board holds the client-side board session: the issue collection,
// the drag state and the outbound queue, driven by UI and channel events.
package board

import (
	"fmt"
	"slices"

	"github.com/runoshun/kanban-sync/internal/channel"
	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/protocol"
)

// Result reports what handling one event did.
type Result struct {
	Sync    SyncReport
	Outcome domain.Outcome
	Synced  bool
}

// Session is one client's view of the board. It is not safe for concurrent
// use; the owner drives it from a single event loop.
type Session struct {
	queue    *channel.Queue
	drag     *domain.DragState
	logger   domain.Logger
	issues   []domain.Issue
	statuses []domain.IssueStatus
	// Collection and dirty ids as they were when the current drag started.
	snapshot      []domain.Issue
	snapshotDirty []domain.IssueID
	lastError     string
	loaded        bool
}

// NewSession creates an empty session sending through queue.
func NewSession(queue *channel.Queue, logger domain.Logger) *Session {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Session{
		queue:  queue,
		drag:   domain.NewDragState(),
		logger: logger,
	}
}

// Issues returns a copy of the collection sorted by list position.
func (s *Session) Issues() []domain.Issue {
	return slices.Clone(s.issues)
}

// Issue looks up one issue by id.
func (s *Session) Issue(id domain.IssueID) (domain.Issue, bool) {
	i := domain.FindIssue(s.issues, id)
	if i < 0 {
		return domain.Issue{}, false
	}
	return s.issues[i], true
}

// Statuses returns a copy of the columns sorted by position.
func (s *Session) Statuses() []domain.IssueStatus {
	return slices.Clone(s.statuses)
}

// Column returns the issues of one column in display order.
func (s *Session) Column(status domain.IssueStatusID) []domain.Issue {
	return domain.ColumnIssues(s.issues, status)
}

// Loaded reports whether a full issue collection has arrived.
func (s *Session) Loaded() bool {
	return s.loaded
}

// Drag returns the session's drag state.
func (s *Session) Drag() *domain.DragState {
	return s.drag
}

// State returns the channel state.
func (s *Session) State() channel.State {
	return s.queue.State()
}

// Pending returns the number of messages waiting for the channel.
func (s *Session) Pending() int {
	return s.queue.Pending()
}

// LastError returns the most recent error reported by the server.
func (s *Session) LastError() string {
	return s.lastError
}

// Handle applies one UI event.
func (s *Session) Handle(ev Event) Result {
	switch ev := ev.(type) {
	case DragStarted:
		if !s.drag.IsDragging() {
			s.snapshot = slices.Clone(s.issues)
			s.snapshotDirty = s.drag.Dirty().IDs()
		}
		s.drag.Drag(ev.ID)
		return Result{Outcome: domain.OutcomeUnchanged}

	case DragOverIssue:
		return Result{Outcome: s.exchange(ev.ID)}

	case DragLeave:
		s.drag.Leave()
		return Result{Outcome: domain.OutcomeUnchanged}

	case DropOnIssue:
		outcome := s.exchange(ev.ID)
		return s.finish(outcome)

	case DropOnColumn:
		issues, outcome := domain.ChangeStatus(s.drag, s.issues, ev.Status)
		s.logOutcome("change status", outcome)
		s.issues = issues
		return s.finish(outcome)

	case DragEnded:
		return s.finish(domain.OutcomeUnchanged)

	case DragCancelled:
		if s.drag.IsDragging() {
			s.issues = s.snapshot
			s.drag.Clear()
			for _, id := range s.snapshotDirty {
				s.drag.MarkDirty(id)
			}
		}
		s.drag.Stop()
		s.drag.Leave()
		s.snapshot, s.snapshotDirty = nil, nil
		return Result{Outcome: domain.OutcomeUnchanged}
	}
	return Result{Outcome: domain.OutcomeUnchanged}
}

func (s *Session) exchange(target domain.IssueID) domain.Outcome {
	issues, outcome := domain.ExchangePosition(s.drag, s.issues, target)
	s.logOutcome("exchange position", outcome)
	s.issues = issues
	return outcome
}

// finish syncs dirty issues and ends the drag.
func (s *Session) finish(outcome domain.Outcome) Result {
	report := s.Sync()
	s.drag.Stop()
	s.snapshot, s.snapshotDirty = nil, nil
	return Result{Outcome: outcome, Sync: report, Synced: true}
}

func (s *Session) logOutcome(op string, outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeNothingDragged:
		s.logger.Debug("board", op+": nothing is dragged")
	case domain.OutcomeNotFound:
		s.logger.Warn("board", op+": issue not in collection")
	}
}

// Sync pushes dirty issues through the queue.
func (s *Session) Sync() SyncReport {
	report := Sync(s.issues, s.drag.Dirty(), s.queue)
	if report.Issues > 0 {
		s.logger.Debug("sync", fmt.Sprintf("issues=%d delivered=%d bounced=%d dropped=%d",
			report.Issues, report.Delivered, report.Bounced, report.Dropped))
	}
	return report
}

// Opened flushes queued messages and asks for fresh data.
func (s *Session) Opened() channel.FlushReport {
	report := s.queue.Opened()
	s.logger.Info("channel", fmt.Sprintf("open, flushed %d queued messages", report.Delivered))
	s.Refresh()
	return report
}

// Closed marks the channel closed; queued messages are kept.
func (s *Session) Closed() {
	s.queue.Closed()
	s.logger.Info("channel", fmt.Sprintf("closed, %d messages pending", s.queue.Pending()))
}

// Connecting marks the channel as connecting.
func (s *Session) Connecting() {
	s.queue.SetState(channel.Connecting)
}

// Refresh requests the issues and columns from the server.
func (s *Session) Refresh() {
	s.queue.Send(protocol.IssueStatusesRequest{})
	s.queue.Send(protocol.IssuesRequest{})
}

// RequestDelete asks the server to delete an issue.
func (s *Session) RequestDelete(id domain.IssueID) channel.Result {
	return s.queue.Send(protocol.IssueDeleteRequest{ID: id})
}

// ReceiveFrame decodes and applies one inbound frame. Malformed frames are
// logged and dropped.
func (s *Session) ReceiveFrame(frame []byte) error {
	m, err := protocol.Decode(frame)
	if err != nil {
		s.logger.Warn("channel", fmt.Sprintf("dropping frame: %v", err))
		return err
	}
	s.Receive(m)
	return nil
}

// Receive applies one inbound message.
func (s *Session) Receive(m protocol.Message) {
	switch m := m.(type) {
	case protocol.IssuesLoaded:
		s.SetIssues(m.Issues)
	case protocol.IssueStatusesLoaded:
		s.SetStatuses(m.Statuses)
	case protocol.IssueStatusCreated:
		s.upsertStatus(m.Status)
	case protocol.IssueStatusUpdated:
		s.upsertStatus(m.Status)
	case protocol.IssueStatusDeleted:
		s.statuses = slices.DeleteFunc(slices.Clone(s.statuses), func(st domain.IssueStatus) bool {
			return st.ID == m.ID
		})
	case protocol.IssueDeleted:
		s.issues = slices.DeleteFunc(slices.Clone(s.issues), func(i domain.Issue) bool {
			return i.ID == m.ID
		})
	case protocol.ErrorMsg:
		s.lastError = m.Text
		s.logger.Error("server", m.Text)
	default:
		s.logger.Warn("channel", fmt.Sprintf("unexpected %s from server", m.Kind()))
	}
}

// SetIssues replaces the whole collection. A replacement arriving mid-drag
// also becomes the state a cancel returns to.
func (s *Session) SetIssues(issues []domain.Issue) {
	s.issues = slices.Clone(issues)
	domain.SortIssues(s.issues)
	s.loaded = true
	if s.drag.IsDragging() {
		s.snapshot = slices.Clone(s.issues)
	}
}

// SetStatuses replaces the columns.
func (s *Session) SetStatuses(statuses []domain.IssueStatus) {
	s.statuses = slices.Clone(statuses)
	domain.SortStatuses(s.statuses)
}

func (s *Session) upsertStatus(status domain.IssueStatus) {
	statuses := slices.Clone(s.statuses)
	if i := slices.IndexFunc(statuses, func(st domain.IssueStatus) bool { return st.ID == status.ID }); i >= 0 {
		statuses[i] = status
	} else {
		statuses = append(statuses, status)
	}
	domain.SortStatuses(statuses)
	s.statuses = statuses
}
