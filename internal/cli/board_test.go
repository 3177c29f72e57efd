package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/jsonstore"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
	"github.com/runoshun/kanban-sync/internal/server"
	"github.com/runoshun/kanban-sync/internal/testutil"
)

// startBoardServer serves a seeded json board and returns its store and
// websocket URL.
func startBoardServer(t *testing.T) (*jsonstore.Store, string) {
	t.Helper()
	store := jsonstore.New(filepath.Join(t.TempDir(), "board.json"))
	require.NoError(t, store.Initialize(domain.DefaultStatuses()))
	for _, issue := range []domain.Issue{
		{ID: 1, Title: "Write docs", IssueStatusID: 1, ListPosition: 0},
		{ID: 2, Title: "Fix login", IssueStatusID: 1, ListPosition: 1},
		{ID: 3, Title: "Ship release", IssueStatusID: 3, ListPosition: 0},
	} {
		require.NoError(t, store.SaveIssue(&issue))
	}

	srv := server.New(store, domain.RealClock{}, nil, nil, server.Options{Debounce: 10 * time.Millisecond})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return store, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func moveOnce(t *testing.T, url string, id domain.IssueID, target moveTarget) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := &testutil.MockLogger{}
	client := wsclient.New(wsclient.Options{URL: url, Logger: logger, ReconnectMin: 10 * time.Millisecond, ReconnectMax: 50 * time.Millisecond})
	var buf bytes.Buffer
	err := runMove(ctx, client, id, target, logger, &buf)
	return buf.String(), err
}

func TestRunMove_SwapInColumn(t *testing.T) {
	store, url := startBoardServer(t)

	out, err := moveOnce(t, url, 1, moveTarget{onto: 2})
	require.NoError(t, err)
	assert.Contains(t, out, "Sent ")
	assert.Contains(t, out, "Moved issue #1 to column 1 at position 1")

	assert.Eventually(t, func() bool {
		moved, err1 := store.GetIssue(1)
		other, err2 := store.GetIssue(2)
		return err1 == nil && err2 == nil && moved.ListPosition == 1 && other.ListPosition == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRunMove_ToColumn(t *testing.T) {
	store, url := startBoardServer(t)

	out, err := moveOnce(t, url, 2, moveTarget{column: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "Moved issue #2 to column 3 at position 1")

	assert.Eventually(t, func() bool {
		moved, err := store.GetIssue(2)
		return err == nil && moved.IssueStatusID == 3 && moved.ListPosition == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRunMove_AlreadyThere(t *testing.T) {
	_, url := startBoardServer(t)

	out, err := moveOnce(t, url, 3, moveTarget{column: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "Issue #3 is already there")
	assert.NotContains(t, out, "Moved")
}

func TestRunMove_UnknownTargets(t *testing.T) {
	_, url := startBoardServer(t)

	_, err := moveOnce(t, url, 42, moveTarget{column: 3})
	assert.ErrorIs(t, err, domain.ErrIssueNotFound)

	_, err = moveOnce(t, url, 1, moveTarget{onto: 42})
	assert.ErrorIs(t, err, domain.ErrIssueNotFound)

	_, err = moveOnce(t, url, 1, moveTarget{column: 9})
	assert.ErrorIs(t, err, domain.ErrStatusNotFound)
}

func TestRunMove_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	logger := &testutil.MockLogger{}
	client := wsclient.New(wsclient.Options{URL: "ws://127.0.0.1:1/ws", Logger: logger, ReconnectMin: 10 * time.Millisecond, ReconnectMax: 20 * time.Millisecond})
	err := runMove(ctx, client, 1, moveTarget{column: 2}, logger, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMoveCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no target", args: []string{"1"}},
		{name: "both targets", args: []string{"1", "--onto", "2", "--column", "3"}},
		{name: "bad id", args: []string{"x", "--column", "3"}},
		{name: "missing id", args: []string{"--column", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newMoveCommand(newTestContainer(seededRepo()))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}

func TestParseIssueID(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.IssueID
		wantErr bool
	}{
		{in: "7", want: 7},
		{in: "#12", want: 12},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "#", wantErr: true},
		{in: "99999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseIssueID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
