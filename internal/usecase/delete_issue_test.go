package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/testutil"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

func TestDeleteIssue_Execute(t *testing.T) {
	repo := newSeededRepo()
	notifier := &testutil.MockNotifier{}

	out, err := usecase.NewDeleteIssue(repo, notifier, nil).Execute(context.Background(), usecase.DeleteIssueInput{ID: 2})

	require.NoError(t, err)
	assert.Equal(t, "Fix login", out.Title)
	issue, err := repo.GetIssue(2)
	require.NoError(t, err)
	assert.Nil(t, issue)
	assert.Equal(t, 1, notifier.Count())
}

func TestDeleteIssue_NotFound(t *testing.T) {
	notifier := &testutil.MockNotifier{}

	_, err := usecase.NewDeleteIssue(newSeededRepo(), notifier, nil).Execute(context.Background(), usecase.DeleteIssueInput{ID: 9})

	assert.ErrorIs(t, err, domain.ErrIssueNotFound)
	assert.Equal(t, 0, notifier.Count())
}
