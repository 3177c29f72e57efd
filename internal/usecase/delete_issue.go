package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase/shared"
)

// DeleteIssueInput contains the parameters for deleting an issue.
type DeleteIssueInput struct {
	ID domain.IssueID // Issue to delete
}

// DeleteIssueOutput contains the result of deleting an issue.
type DeleteIssueOutput struct {
	Title string // Title of the deleted issue
}

// DeleteIssue is the use case for deleting an issue.
type DeleteIssue struct {
	issues   domain.IssueRepository
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewDeleteIssue creates a new DeleteIssue use case. notifier may be nil.
func NewDeleteIssue(issues domain.IssueRepository, notifier domain.ChangeNotifier, logger domain.Logger) *DeleteIssue {
	return &DeleteIssue{
		issues:   issues,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute deletes the issue. Positions of the remaining issues are left as
// they are; gaps are closed by the next column drop.
func (uc *DeleteIssue) Execute(ctx context.Context, in DeleteIssueInput) (*DeleteIssueOutput, error) {
	issue, err := shared.GetIssue(uc.issues, in.ID)
	if err != nil {
		return nil, err
	}

	if err := uc.issues.DeleteIssue(in.ID); err != nil {
		return nil, fmt.Errorf("delete issue: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("issue", fmt.Sprintf("deleted #%d", in.ID))
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeIssues)

	return &DeleteIssueOutput{Title: issue.Title}, nil
}
