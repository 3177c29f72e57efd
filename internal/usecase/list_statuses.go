package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// ListStatusesInput contains the parameters for listing columns.
type ListStatusesInput struct{}

// ListStatusesOutput contains the result of listing columns.
type ListStatusesOutput struct {
	Statuses []domain.IssueStatus // Columns sorted by position
}

// ListStatuses is the use case for listing board columns.
type ListStatuses struct {
	issues domain.IssueRepository
}

// NewListStatuses creates a new ListStatuses use case.
func NewListStatuses(issues domain.IssueRepository) *ListStatuses {
	return &ListStatuses{issues: issues}
}

// Execute lists all columns.
func (uc *ListStatuses) Execute(_ context.Context, _ ListStatusesInput) (*ListStatusesOutput, error) {
	statuses, err := uc.issues.ListStatuses()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	domain.SortStatuses(statuses)
	return &ListStatusesOutput{Statuses: statuses}, nil
}
