package board

import "github.com/runoshun/kanban-sync/internal/domain"

// Event is a drag gesture reported by the UI.
type Event interface {
	sealed()
}

// DragStarted picks up an issue.
type DragStarted struct {
	ID domain.IssueID
}

// DragOverIssue hovers the dragged issue over another issue.
type DragOverIssue struct {
	ID domain.IssueID
}

// DragLeave reports that the pointer left the last hovered issue.
type DragLeave struct{}

// DropOnIssue releases the dragged issue over another issue.
type DropOnIssue struct {
	ID domain.IssueID
}

// DropOnColumn releases the dragged issue over a column's empty area.
type DropOnColumn struct {
	Status domain.IssueStatusID
}

// DragEnded releases the dragged issue outside any target.
type DragEnded struct{}

// DragCancelled abandons the drag.
type DragCancelled struct{}

func (DragStarted) sealed()   {}
func (DragOverIssue) sealed() {}
func (DragLeave) sealed()     {}
func (DropOnIssue) sealed()   {}
func (DropOnColumn) sealed()  {}
func (DragEnded) sealed()     {}
func (DragCancelled) sealed() {}
