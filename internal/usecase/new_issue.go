package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase/shared"
)

// NewIssueInput contains the parameters for creating a new issue.
// Fields are ordered to minimize memory padding.
type NewIssueInput struct {
	Title       string               // Issue title (required)
	Description string               // Issue description (optional)
	AssigneeIDs []domain.UserID      // Assignees (optional)
	StatusID    domain.IssueStatusID // Column (0 = first column)
	ReporterID  domain.UserID        // Reporter (optional)
}

// NewIssueOutput contains the result of creating a new issue.
type NewIssueOutput struct {
	Issue domain.Issue // The created issue
}

// NewIssue is the use case for creating a new issue at the bottom of a column.
type NewIssue struct {
	issues   domain.IssueRepository
	clock    domain.Clock
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewNewIssue creates a new NewIssue use case. notifier may be nil.
func NewNewIssue(issues domain.IssueRepository, clock domain.Clock, notifier domain.ChangeNotifier, logger domain.Logger) *NewIssue {
	return &NewIssue{
		issues:   issues,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute creates a new issue with the given input.
func (uc *NewIssue) Execute(ctx context.Context, in NewIssueInput) (*NewIssueOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	statusID := in.StatusID
	if statusID == 0 {
		statuses, err := uc.issues.ListStatuses()
		if err != nil {
			return nil, fmt.Errorf("list statuses: %w", err)
		}
		if len(statuses) == 0 {
			return nil, domain.ErrStatusNotFound
		}
		statusID = statuses[0].ID
	} else if err := shared.RequireStatus(uc.issues, statusID); err != nil {
		return nil, err
	}

	existing, err := uc.issues.ListIssues()
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	var position int32
	for _, issue := range existing {
		if issue.IssueStatusID == statusID && issue.ListPosition >= position {
			position = issue.ListPosition + 1
		}
	}

	id, err := uc.issues.NextIssueID()
	if err != nil {
		return nil, fmt.Errorf("generate issue ID: %w", err)
	}

	now := uc.clock.Now()
	issue := domain.Issue{
		ID:            id,
		Title:         title,
		Description:   in.Description,
		IssueStatusID: statusID,
		ListPosition:  position,
		ReporterID:    in.ReporterID,
		AssigneeIDs:   in.AssigneeIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.issues.SaveIssue(&issue); err != nil {
		return nil, fmt.Errorf("save issue: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("issue", fmt.Sprintf("created #%d: %q", id, title))
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeIssues)

	return &NewIssueOutput{Issue: issue}, nil
}

// notify publishes a change notice. Failures are logged only: the store
// already holds the change and clients catch up on their next refresh.
func notify(ctx context.Context, n domain.ChangeNotifier, logger domain.Logger, kind domain.ChangeKind) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, kind); err != nil && logger != nil {
		logger.Warn("notify", fmt.Sprintf("publish %s change: %v", kind, err))
	}
}
