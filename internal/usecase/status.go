package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/usecase/shared"
)

// CreateStatusInput contains the parameters for adding a column.
type CreateStatusInput struct {
	Name     string // Column name (required)
	Position *int32 // Display position (nil = after the last column)
}

// CreateStatusOutput contains the result of adding a column.
type CreateStatusOutput struct {
	Status domain.IssueStatus // The created column
}

// CreateStatus adds a board column.
type CreateStatus struct {
	issues   domain.IssueRepository
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewCreateStatus creates a new CreateStatus use case. notifier may be nil.
func NewCreateStatus(issues domain.IssueRepository, notifier domain.ChangeNotifier, logger domain.Logger) *CreateStatus {
	return &CreateStatus{issues: issues, notifier: notifier, logger: logger}
}

// Execute adds the column with the next free ID.
func (uc *CreateStatus) Execute(ctx context.Context, in CreateStatusInput) (*CreateStatusOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	statuses, err := uc.issues.ListStatuses()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	status := domain.IssueStatus{ID: 1, Name: name}
	for _, s := range statuses {
		status.ID = max(status.ID, s.ID+1)
		status.Position = max(status.Position, s.Position+1)
	}
	if in.Position != nil {
		status.Position = *in.Position
	}

	if err := uc.issues.SaveStatus(&status); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("status", fmt.Sprintf("created column %d %q", status.ID, name))
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeStatuses)

	return &CreateStatusOutput{Status: status}, nil
}

// UpdateStatusInput contains the parameters for changing a column.
type UpdateStatusInput struct {
	Name     string               // New name ("" = keep)
	Position *int32               // New position (nil = keep)
	ID       domain.IssueStatusID // Column to change
}

// UpdateStatusOutput contains the result of changing a column.
type UpdateStatusOutput struct {
	Status domain.IssueStatus // The column after the change
}

// UpdateStatus renames or moves a board column.
type UpdateStatus struct {
	issues   domain.IssueRepository
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewUpdateStatus creates a new UpdateStatus use case. notifier may be nil.
func NewUpdateStatus(issues domain.IssueRepository, notifier domain.ChangeNotifier, logger domain.Logger) *UpdateStatus {
	return &UpdateStatus{issues: issues, notifier: notifier, logger: logger}
}

// Execute applies the change.
func (uc *UpdateStatus) Execute(ctx context.Context, in UpdateStatusInput) (*UpdateStatusOutput, error) {
	status, err := shared.GetStatus(uc.issues, in.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		status.Name = name
	}
	if in.Position != nil {
		status.Position = *in.Position
	}

	if err := uc.issues.SaveStatus(status); err != nil {
		return nil, fmt.Errorf("save status: %w", err)
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeStatuses)

	return &UpdateStatusOutput{Status: *status}, nil
}

// DeleteStatusInput contains the parameters for removing a column.
type DeleteStatusInput struct {
	ID domain.IssueStatusID // Column to remove
}

// DeleteStatusOutput contains the result of removing a column.
type DeleteStatusOutput struct {
	Name string // Name of the removed column
}

// DeleteStatus removes an empty board column.
type DeleteStatus struct {
	issues   domain.IssueRepository
	notifier domain.ChangeNotifier
	logger   domain.Logger
}

// NewDeleteStatus creates a new DeleteStatus use case. notifier may be nil.
func NewDeleteStatus(issues domain.IssueRepository, notifier domain.ChangeNotifier, logger domain.Logger) *DeleteStatus {
	return &DeleteStatus{issues: issues, notifier: notifier, logger: logger}
}

// Execute removes the column. Columns that still hold issues are refused.
func (uc *DeleteStatus) Execute(ctx context.Context, in DeleteStatusInput) (*DeleteStatusOutput, error) {
	status, err := shared.GetStatus(uc.issues, in.ID)
	if err != nil {
		return nil, err
	}

	issues, err := uc.issues.ListIssues()
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	if len(domain.ColumnIssues(issues, in.ID)) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrStatusNotEmpty, status.Name)
	}

	if err := uc.issues.DeleteStatus(in.ID); err != nil {
		return nil, fmt.Errorf("delete status: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info("status", fmt.Sprintf("deleted column %d %q", in.ID, status.Name))
	}
	notify(ctx, uc.notifier, uc.logger, domain.ChangeStatuses)

	return &DeleteStatusOutput{Name: status.Name}, nil
}
