// Package shared holds helpers used by several use cases.
package shared

import (
	"fmt"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// GetIssue retrieves an issue by ID and returns domain.ErrIssueNotFound if not found.
func GetIssue(repo domain.IssueRepository, id domain.IssueID) (*domain.Issue, error) {
	issue, err := repo.GetIssue(id)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if issue == nil {
		return nil, domain.ErrIssueNotFound
	}
	return issue, nil
}

// GetStatus retrieves a column by ID and returns domain.ErrStatusNotFound if not found.
func GetStatus(repo domain.IssueRepository, id domain.IssueStatusID) (*domain.IssueStatus, error) {
	statuses, err := repo.ListStatuses()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	for i := range statuses {
		if statuses[i].ID == id {
			return &statuses[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domain.ErrStatusNotFound, id)
}

// RequireStatus returns domain.ErrStatusNotFound unless the column exists.
func RequireStatus(repo domain.IssueRepository, id domain.IssueStatusID) error {
	_, err := GetStatus(repo, id)
	return err
}
