package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase/shared"
)

// UpdateIssueFieldInput contains the parameters for a single-field update.
type UpdateIssueFieldInput struct {
	Value domain.Payload // New value; its variant must match Field
	Field domain.FieldID // Field to set
	ID    domain.IssueID // Issue to update
}

// UpdateIssueFieldOutput contains the result of a single-field update.
type UpdateIssueFieldOutput struct {
	Issue domain.Issue // The issue after the update
}

// UpdateIssueField sets one field of an issue. The read-modify-write runs
// inside the store, so concurrent writers to different fields all land.
// Writers to the same field are last-writer-wins.
type UpdateIssueField struct {
	issues   domain.IssueRepository
	clock    domain.Clock
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewUpdateIssueField creates a new UpdateIssueField use case. notifier may be nil.
func NewUpdateIssueField(issues domain.IssueRepository, clock domain.Clock, notifier domain.ChangeNotifier, logger domain.Logger) *UpdateIssueField {
	return &UpdateIssueField{
		issues:   issues,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute applies the update and bumps UpdatedAt.
func (uc *UpdateIssueField) Execute(ctx context.Context, in UpdateIssueFieldInput) (*UpdateIssueFieldOutput, error) {
	// Reject bad payloads before touching the store.
	var scratch domain.Issue
	if err := domain.ApplyField(&scratch, in.Field, in.Value); err != nil {
		return nil, err
	}
	if in.Field == domain.FieldIssueStatusID {
		if err := shared.RequireStatus(uc.issues, scratch.IssueStatusID); err != nil {
			return nil, err
		}
	}

	now := uc.clock.Now()
	issue, err := uc.issues.UpdateIssue(in.ID, func(issue *domain.Issue) error {
		if err := domain.ApplyField(issue, in.Field, in.Value); err != nil {
			return err
		}
		issue.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Debug("issue", fmt.Sprintf("#%d %s updated", in.ID, in.Field))
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeIssues)

	return &UpdateIssueFieldOutput{Issue: *issue}, nil
}
