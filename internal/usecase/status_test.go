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

func TestCreateStatus_Execute(t *testing.T) {
	repo := newSeededRepo()
	notifier := &testutil.MockNotifier{}

	out, err := usecase.NewCreateStatus(repo, notifier, nil).Execute(context.Background(), usecase.CreateStatusInput{
		Name: " Review ",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatus{ID: 5, Name: "Review", Position: 4}, out.Status)
	assert.Equal(t, []domain.ChangeKind{domain.ChangeStatuses}, notifier.Changes)

	pos := int32(1)
	out, err = usecase.NewCreateStatus(repo, nil, nil).Execute(context.Background(), usecase.CreateStatusInput{
		Name:     "Blocked",
		Position: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusID(6), out.Status.ID)
	assert.Equal(t, int32(1), out.Status.Position)
}

func TestCreateStatus_EmptyName(t *testing.T) {
	_, err := usecase.NewCreateStatus(newSeededRepo(), nil, nil).Execute(context.Background(), usecase.CreateStatusInput{Name: " "})
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestUpdateStatus_Execute(t *testing.T) {
	repo := newSeededRepo()
	pos := int32(9)

	out, err := usecase.NewUpdateStatus(repo, nil, nil).Execute(context.Background(), usecase.UpdateStatusInput{
		ID:       2,
		Name:     "Ready",
		Position: &pos,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatus{ID: 2, Name: "Ready", Position: 9}, out.Status)

	out, err = usecase.NewUpdateStatus(repo, nil, nil).Execute(context.Background(), usecase.UpdateStatusInput{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Ready", out.Status.Name, "empty name keeps the old one")

	_, err = usecase.NewUpdateStatus(repo, nil, nil).Execute(context.Background(), usecase.UpdateStatusInput{ID: 77, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
}

func TestDeleteStatus_Execute(t *testing.T) {
	repo := newSeededRepo()
	notifier := &testutil.MockNotifier{}
	uc := usecase.NewDeleteStatus(repo, notifier, nil)

	out, err := uc.Execute(context.Background(), usecase.DeleteStatusInput{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, "Selected", out.Name)
	assert.NotContains(t, repo.Statuses, domain.IssueStatusID(2))

	_, err = uc.Execute(context.Background(), usecase.DeleteStatusInput{ID: 1})
	assert.ErrorIs(t, err, domain.ErrStatusNotEmpty)

	_, err = uc.Execute(context.Background(), usecase.DeleteStatusInput{ID: 2})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)

	assert.Equal(t, 1, notifier.Count())
}
