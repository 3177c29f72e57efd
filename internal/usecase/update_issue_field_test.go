package usecase_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/jsonstore"
	"github.com/runoshun/kanban-sync/internal/testutil"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

func TestUpdateIssueField_Execute(t *testing.T) {
	repo := newSeededRepo()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	notifier := &testutil.MockNotifier{}
	uc := usecase.NewUpdateIssueField(repo, clock, notifier, nil)

	out, err := uc.Execute(context.Background(), usecase.UpdateIssueFieldInput{
		ID:    2,
		Field: domain.FieldIssueStatusID,
		Value: domain.I32(3),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusID(3), out.Issue.IssueStatusID)
	assert.Equal(t, clock.NowTime, out.Issue.UpdatedAt)

	_, err = uc.Execute(context.Background(), usecase.UpdateIssueFieldInput{
		ID:    2,
		Field: domain.FieldListPosition,
		Value: domain.I32(1),
	})
	require.NoError(t, err)

	saved, err := repo.GetIssue(2)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusID(3), saved.IssueStatusID)
	assert.Equal(t, int32(1), saved.ListPosition)
	assert.Equal(t, 2, notifier.Count())
}

func TestUpdateIssueField_LastWriterWins(t *testing.T) {
	repo := newSeededRepo()
	uc := usecase.NewUpdateIssueField(repo, &testutil.MockClock{}, nil, nil)

	for _, pos := range []int32{7, 3} {
		_, err := uc.Execute(context.Background(), usecase.UpdateIssueFieldInput{
			ID: 1, Field: domain.FieldListPosition, Value: domain.I32(pos),
		})
		require.NoError(t, err)
	}

	saved, _ := repo.GetIssue(1)
	assert.Equal(t, int32(3), saved.ListPosition)
}

func TestUpdateIssueField_ConcurrentFields(t *testing.T) {
	store := jsonstore.New(filepath.Join(t.TempDir(), "board.json"))
	require.NoError(t, store.Initialize(domain.DefaultStatuses()))
	uc := usecase.NewUpdateIssueField(store, domain.RealClock{}, nil, nil)

	for round := range 10 {
		require.NoError(t, store.SaveIssue(&domain.Issue{ID: 1, Title: "Write docs", IssueStatusID: 1}))

		inputs := []usecase.UpdateIssueFieldInput{
			{ID: 1, Field: domain.FieldIssueStatusID, Value: domain.I32(3)},
			{ID: 1, Field: domain.FieldListPosition, Value: domain.I32(7)},
		}
		start := make(chan struct{})
		errs := make([]error, len(inputs))
		var wg sync.WaitGroup
		for i, in := range inputs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = uc.Execute(context.Background(), in)
			}()
		}
		close(start)
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		saved, err := store.GetIssue(1)
		require.NoError(t, err)
		assert.Equal(t, domain.IssueStatusID(3), saved.IssueStatusID, "round %d", round)
		assert.Equal(t, int32(7), saved.ListPosition, "round %d", round)
	}
}

func TestUpdateIssueField_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		input   usecase.UpdateIssueFieldInput
	}{
		{
			name:    "missing issue",
			input:   usecase.UpdateIssueFieldInput{ID: 99, Field: domain.FieldTitle, Value: domain.String("x")},
			wantErr: domain.ErrIssueNotFound,
		},
		{
			name:    "unknown column",
			input:   usecase.UpdateIssueFieldInput{ID: 1, Field: domain.FieldIssueStatusID, Value: domain.I32(77)},
			wantErr: domain.ErrStatusNotFound,
		},
		{
			name:    "payload mismatch",
			input:   usecase.UpdateIssueFieldInput{ID: 1, Field: domain.FieldTitle, Value: domain.I32(1)},
			wantErr: domain.ErrInvalidPayload,
		},
		{
			name:    "unknown field",
			input:   usecase.UpdateIssueFieldInput{ID: 1, Field: "points", Value: domain.I32(1)},
			wantErr: domain.ErrInvalidField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newSeededRepo()
			before, _ := repo.GetIssue(1)

			_, err := usecase.NewUpdateIssueField(repo, &testutil.MockClock{}, nil, nil).
				Execute(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			after, _ := repo.GetIssue(1)
			assert.Equal(t, before, after, "store untouched on error")
		})
	}
}
