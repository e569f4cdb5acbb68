package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/testutil"
)

func TestCommentsList(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	env.api.Comments["T2"] = []domain.Comment{
		{ID: "C1", TaskID: "T2", Text: "first", Author: &domain.UserRef{Email: "admin@example.com"}},
		{ID: "C2", TaskID: "T2", Text: "second"},
	}
	cmd := newCommentsCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "P1", "T2"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Equal(t, "[-] admin@example.com: first\n[-] unknown: second\n", buf.String())
	assert.Len(t, testutil.TaskOf(t, env.container.Board, "T2").Comments, 2)
}

func TestCommentsList_Empty(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newCommentsCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "P1", "T1"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Equal(t, "No comments\n", buf.String())
}

func TestCommentsAdd_Assignee(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newCommentsCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"add", "P1", "T2", "  on it  "})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Added comment C1 to T2")
	comments := testutil.TaskOf(t, env.container.Board, "T2").Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "on it", comments[0].Text)
	assert.Zero(t, env.api.CallCount("ListActivity"), "non-admins do not fetch the activity log")
}

func TestCommentsAdd_AdminRefreshesActivity(t *testing.T) {
	// Setup
	env := newTestEnv(adminSession, boardTasks()...)
	env.api.Activity = []domain.ActivityEntry{{ID: "A1", Action: "commented", ProjectID: "P1"}}
	cmd := newCommentsCommand(env.container)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"add", "P1", "T1", "looks good"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Equal(t, []string{"ListTasks", "AddComment", "ListActivity"}, env.api.Calls())
	assert.Len(t, env.container.Board.Snapshot().Activity.Entries, 1)
}

func TestCommentsAdd_NotAssigned(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newCommentsCommand(env.container)
	cmd.SetArgs([]string{"add", "P1", "T1", "hello"})

	err := cmd.ExecuteContext(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not assigned to you")
	assert.Zero(t, env.api.CallCount("AddComment"))
}

func TestCommentsAdd_EmptyText(t *testing.T) {
	env := newTestEnv(adminSession, boardTasks()...)
	cmd := newCommentsCommand(env.container)
	cmd.SetArgs([]string{"add", "P1", "T1", "   "})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrEmptyComment)
	assert.Zero(t, env.api.CallCount("AddComment"))
}

func TestActivity_Admin(t *testing.T) {
	// Setup
	env := newTestEnv(adminSession)
	env.api.Activity = []domain.ActivityEntry{
		{ID: "A1", Action: "created task", Details: "Write docs", ProjectID: "P1", User: domain.UserRef{Email: "admin@example.com"},
			CreatedAt: time.Date(2026, 3, 9, 12, 0, 0, 0, time.Local)},
	}
	cmd := newActivityCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"P1"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "TIME")
	assert.Contains(t, out, "2026-03-09 12:00")
	assert.Contains(t, out, "created task")
	assert.Contains(t, out, "Write docs")
}

func TestActivity_NonAdminRejected(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newActivityCommand(env.container)
	cmd.SetArgs([]string{"P1"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, errActivityAdminOnly)
	assert.Empty(t, env.api.Calls())
}
