// Package domain contains core board entities, the drag state machine and the
// reordering engine.
package domain

import (
	"cmp"
	"slices"
	"time"
)

// IssueID identifies an issue.
type IssueID int32

// IssueStatusID identifies a status column.
type IssueStatusID int32

// UserID identifies a board user.
type UserID int32

// Issue is a work item shown on the board.
// Fields are ordered to minimize memory padding.
type Issue struct {
	UpdatedAt     time.Time     `json:"updatedAt" yaml:"updatedAt" cbor:"updated_at"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"createdAt" cbor:"created_at"`
	Title         string        `json:"title" yaml:"title" cbor:"title"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty" cbor:"description,omitempty"`
	AssigneeIDs   []UserID      `json:"assigneeIds,omitempty" yaml:"assigneeIds,omitempty" cbor:"assignee_ids,omitempty"`
	ID            IssueID       `json:"id" yaml:"-" cbor:"id"`
	IssueStatusID IssueStatusID `json:"issueStatusId" yaml:"issueStatusId" cbor:"issue_status_id"`
	ListPosition  int32         `json:"listPosition" yaml:"listPosition" cbor:"list_position"`
	ReporterID    UserID        `json:"reporterId" yaml:"reporterId" cbor:"reporter_id"`
}

// IsAssignedTo reports whether the user is among the assignees.
func (i *Issue) IsAssignedTo(user UserID) bool {
	return slices.Contains(i.AssigneeIDs, user)
}

// Involves reports whether the user reported or is assigned to the issue.
func (i *Issue) Involves(user UserID) bool {
	return i.ReporterID == user || i.IsAssignedTo(user)
}

// IssueStatus is a board column.
type IssueStatus struct {
	Name     string        `json:"name" yaml:"name" cbor:"name"`
	ID       IssueStatusID `json:"id" yaml:"-" cbor:"id"`
	Position int32         `json:"position" yaml:"position" cbor:"position"`
}

// SortIssues orders issues by list position. The sort is stable so issues
// sharing a position keep their relative order.
func SortIssues(issues []Issue) {
	slices.SortStableFunc(issues, func(a, b Issue) int {
		return cmp.Compare(a.ListPosition, b.ListPosition)
	})
}

// SortStatuses orders columns by position.
func SortStatuses(statuses []IssueStatus) {
	slices.SortStableFunc(statuses, func(a, b IssueStatus) int {
		return cmp.Compare(a.Position, b.Position)
	})
}

// ColumnIssues returns the issues of one column in display order.
func ColumnIssues(issues []Issue, status IssueStatusID) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.IssueStatusID == status {
			out = append(out, issue)
		}
	}
	SortIssues(out)
	return out
}

// FindIssue returns the index of the issue with the given id, or -1.
func FindIssue(issues []Issue, id IssueID) int {
	return slices.IndexFunc(issues, func(i Issue) bool { return i.ID == id })
}

// DefaultStatuses returns the columns created for a new board.
func DefaultStatuses() []IssueStatus {
	return []IssueStatus{
		{ID: 1, Name: "Backlog", Position: 0},
		{ID: 2, Name: "Selected", Position: 1},
		{ID: 3, Name: "In Progress", Position: 2},
		{ID: 4, Name: "Done", Position: 3},
	}
}
