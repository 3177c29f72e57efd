package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// ListIssuesInput contains the parameters for listing issues.
type ListIssuesInput struct {
	Query    string               // Case-insensitive title filter (optional)
	StatusID domain.IssueStatusID // Only this column (0 = all)
	UserID   domain.UserID        // Only issues the user reported or is assigned to (0 = all)
}

// ListIssuesOutput contains the result of listing issues.
type ListIssuesOutput struct {
	Issues []domain.Issue // Matching issues sorted by list position
}

// ListIssues is the use case for listing issues.
type ListIssues struct {
	issues domain.IssueRepository
}

// NewListIssues creates a new ListIssues use case.
func NewListIssues(issues domain.IssueRepository) *ListIssues {
	return &ListIssues{issues: issues}
}

// Execute lists issues matching the given input criteria.
func (uc *ListIssues) Execute(_ context.Context, in ListIssuesInput) (*ListIssuesOutput, error) {
	all, err := uc.issues.ListIssues()
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(in.Query))
	out := make([]domain.Issue, 0, len(all))
	for i := range all {
		issue := &all[i]
		if in.StatusID != 0 && issue.IssueStatusID != in.StatusID {
			continue
		}
		if in.UserID != 0 && !issue.Involves(in.UserID) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(issue.Title), query) {
			continue
		}
		out = append(out, *issue)
	}
	domain.SortIssues(out)

	return &ListIssuesOutput{Issues: out}, nil
}
