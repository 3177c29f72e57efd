// Package storetest holds the behaviour every domain.Store backend must share.
package storetest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// Factory returns a fresh, uninitialized store.
type Factory func(t *testing.T) domain.Store

// Run runs the shared store tests against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Initialize", func(t *testing.T) { testInitialize(t, newStore(t)) })
	t.Run("NotInitialized", func(t *testing.T) { testNotInitialized(t, newStore(t)) })
	t.Run("SaveAndGetIssue", func(t *testing.T) { testSaveAndGetIssue(t, initialized(t, newStore)) })
	t.Run("ListIssuesOrder", func(t *testing.T) { testListIssuesOrder(t, initialized(t, newStore)) })
	t.Run("NextIssueID", func(t *testing.T) { testNextIssueID(t, initialized(t, newStore)) })
	t.Run("UpdateIssue", func(t *testing.T) { testUpdateIssue(t, initialized(t, newStore)) })
	t.Run("UpdateIssueConcurrent", func(t *testing.T) { testUpdateIssueConcurrent(t, initialized(t, newStore)) })
	t.Run("DeleteIssue", func(t *testing.T) { testDeleteIssue(t, initialized(t, newStore)) })
	t.Run("Statuses", func(t *testing.T) { testStatuses(t, initialized(t, newStore)) })
}

func initialized(t *testing.T, newStore Factory) domain.Store {
	t.Helper()
	s := newStore(t)
	require.NoError(t, s.Initialize(domain.DefaultStatuses()))
	return s
}

func testInitialize(t *testing.T, s domain.Store) {
	assert.False(t, s.IsInitialized())

	require.NoError(t, s.Initialize(domain.DefaultStatuses()))
	assert.True(t, s.IsInitialized())

	// A second call must not reseed.
	require.NoError(t, s.Initialize([]domain.IssueStatus{{ID: 9, Name: "Other"}}))

	statuses, err := s.ListStatuses()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStatuses(), statuses)
}

func testNotInitialized(t *testing.T, s domain.Store) {
	_, err := s.ListIssues()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func testSaveAndGetIssue(t *testing.T, s domain.Store) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	issue := &domain.Issue{
		ID:            1,
		Title:         "Wire the board",
		Description:   "multi\nline",
		IssueStatusID: 2,
		ListPosition:  3,
		ReporterID:    4,
		AssigneeIDs:   []domain.UserID{5, 6},
		CreatedAt:     now,
		UpdatedAt:     now.Add(time.Minute),
	}
	require.NoError(t, s.SaveIssue(issue))

	got, err := s.GetIssue(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, issue.Title, got.Title)
	assert.Equal(t, issue.Description, got.Description)
	assert.Equal(t, issue.IssueStatusID, got.IssueStatusID)
	assert.Equal(t, issue.ListPosition, got.ListPosition)
	assert.Equal(t, issue.ReporterID, got.ReporterID)
	assert.Equal(t, issue.AssigneeIDs, got.AssigneeIDs)
	assert.True(t, issue.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, issue.UpdatedAt.Equal(got.UpdatedAt))

	got.ListPosition = 9
	require.NoError(t, s.SaveIssue(got))
	again, err := s.GetIssue(1)
	require.NoError(t, err)
	assert.Equal(t, int32(9), again.ListPosition)

	missing, err := s.GetIssue(42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testListIssuesOrder(t *testing.T, s domain.Store) {
	for _, i := range []domain.Issue{
		{ID: 3, Title: "c", IssueStatusID: 1, ListPosition: 1},
		{ID: 1, Title: "a", IssueStatusID: 2, ListPosition: 1},
		{ID: 2, Title: "b", IssueStatusID: 1, ListPosition: 0},
		{ID: 4, Title: "d", IssueStatusID: 1, ListPosition: -1},
	} {
		require.NoError(t, s.SaveIssue(&i))
	}

	issues, err := s.ListIssues()
	require.NoError(t, err)

	ids := make([]domain.IssueID, 0, len(issues))
	for _, i := range issues {
		ids = append(ids, i.ID)
	}
	assert.Equal(t, []domain.IssueID{4, 2, 1, 3}, ids)
}

func testNextIssueID(t *testing.T, s domain.Store) {
	first, err := s.NextIssueID()
	require.NoError(t, err)
	second, err := s.NextIssueID()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)

	require.NoError(t, s.SaveIssue(&domain.Issue{ID: 50, Title: "imported"}))
	next, err := s.NextIssueID()
	require.NoError(t, err)
	assert.Greater(t, next, domain.IssueID(50))
}

func testUpdateIssue(t *testing.T, s domain.Store) {
	require.NoError(t, s.SaveIssue(&domain.Issue{ID: 1, Title: "draft", AssigneeIDs: []domain.UserID{2}}))

	updated, err := s.UpdateIssue(1, func(i *domain.Issue) error {
		assert.Equal(t, domain.IssueID(1), i.ID)
		i.Title = "final"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, []domain.UserID{2}, updated.AssigneeIDs)

	got, err := s.GetIssue(1)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)

	errAbort := errors.New("abort")
	_, err = s.UpdateIssue(1, func(i *domain.Issue) error {
		i.Title = "discarded"
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	got, err = s.GetIssue(1)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)

	_, err = s.UpdateIssue(42, func(*domain.Issue) error { return nil })
	assert.ErrorIs(t, err, domain.ErrIssueNotFound)
}

// testUpdateIssueConcurrent races writers that each own one field; every
// write must survive.
func testUpdateIssueConcurrent(t *testing.T, s domain.Store) {
	require.NoError(t, s.SaveIssue(&domain.Issue{ID: 1, Title: "shared"}))

	setters := []func(*domain.Issue){
		func(i *domain.Issue) { i.IssueStatusID = 3 },
		func(i *domain.Issue) { i.ListPosition = 7 },
		func(i *domain.Issue) { i.ReporterID = 5 },
		func(i *domain.Issue) { i.Description = "body" },
	}
	start := make(chan struct{})
	var wg sync.WaitGroup
	for _, set := range setters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.UpdateIssue(1, func(i *domain.Issue) error {
				set(i)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	got, err := s.GetIssue(1)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusID(3), got.IssueStatusID)
	assert.Equal(t, int32(7), got.ListPosition)
	assert.Equal(t, domain.UserID(5), got.ReporterID)
	assert.Equal(t, "body", got.Description)
}

func testDeleteIssue(t *testing.T, s domain.Store) {
	require.NoError(t, s.SaveIssue(&domain.Issue{ID: 1, Title: "gone"}))
	require.NoError(t, s.DeleteIssue(1))

	got, err := s.GetIssue(1)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, s.DeleteIssue(1), domain.ErrIssueNotFound)
}

func testStatuses(t *testing.T, s domain.Store) {
	require.NoError(t, s.SaveStatus(&domain.IssueStatus{ID: 5, Name: "Review", Position: 2}))
	require.NoError(t, s.SaveStatus(&domain.IssueStatus{ID: 3, Name: "In Progress", Position: 1}))
	require.NoError(t, s.DeleteStatus(2))
	assert.ErrorIs(t, s.DeleteStatus(2), domain.ErrStatusNotFound)

	statuses, err := s.ListStatuses()
	require.NoError(t, err)
	assert.Equal(t, []domain.IssueStatus{
		{ID: 1, Name: "Backlog", Position: 0},
		{ID: 3, Name: "In Progress", Position: 1},
		{ID: 5, Name: "Review", Position: 2},
		{ID: 4, Name: "Done", Position: 3},
	}, statuses)
}
