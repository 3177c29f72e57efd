package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/kanban-sync/internal/domain"
)

func TestIssueNewCommand(t *testing.T) {
	repo := seededRepo()
	cmd := newIssueCommand(newTestContainer(repo))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"new", "--title", "Review PR", "--assignee", "2", "--assignee", "5", "--reporter", "1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Created issue #4 in column 1 at position 2")

	issue := repo.Issues[4]
	require.NotNil(t, issue)
	assert.Equal(t, "Review PR", issue.Title)
	assert.Equal(t, []domain.UserID{2, 5}, issue.AssigneeIDs)
	assert.Equal(t, domain.UserID(1), issue.ReporterID)
}

func TestIssueNewCommand_IntoColumn(t *testing.T) {
	repo := seededRepo()
	cmd := newIssueCommand(newTestContainer(repo))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"new", "--title", "Hotfix", "--status", "3"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "in column 3 at position 1")
}

func TestIssueNewCommand_RequiresTitle(t *testing.T) {
	cmd := newIssueCommand(newTestContainer(seededRepo()))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"new"})

	assert.Error(t, cmd.Execute())
}

func TestIssueListCommand(t *testing.T) {
	cmd := newIssueCommand(newTestContainer(seededRepo()))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "2,3")
	assert.Contains(t, out, "Ship release")
}

func TestIssueListCommand_Filters(t *testing.T) {
	cmd := newIssueCommand(newTestContainer(seededRepo()))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "--user", "2", "--status", "1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Fix login")
	assert.NotContains(t, buf.String(), "Write docs")
	assert.NotContains(t, buf.String(), "Ship release")
}

func TestIssueListCommand_Mine(t *testing.T) {
	c := newTestContainer(seededRepo())
	cmd := newIssueCommand(c)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "--mine"})
	assert.Error(t, cmd.Execute(), "no user_id configured")

	c.AppConfig.Client.UserID = 1
	var buf bytes.Buffer
	cmd = newIssueCommand(c)
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "--mine"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Write docs")
	assert.NotContains(t, buf.String(), "Fix login")
}

func TestIssueListCommand_JSON(t *testing.T) {
	cmd := newIssueCommand(newTestContainer(seededRepo()))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "--json", "-q", "LOGIN"})

	require.NoError(t, cmd.Execute())
	var issues []domain.Issue
	require.NoError(t, json.Unmarshal(buf.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueID(2), issues[0].ID)
}

func TestIssueRmCommand(t *testing.T) {
	repo := seededRepo()
	cmd := newIssueCommand(newTestContainer(repo))
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"rm", "#2"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Deleted issue #2: Fix login")
	assert.NotContains(t, repo.Issues, domain.IssueID(2))
}

func TestIssueRmCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want error
	}{
		{name: "not a number", arg: "abc"},
		{name: "zero", arg: "0"},
		{name: "missing", arg: "42", want: domain.ErrIssueNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newIssueCommand(newTestContainer(seededRepo()))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs([]string{"rm", tt.arg})

			err := cmd.Execute()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
