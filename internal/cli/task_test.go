package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/testutil"
)

var (
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	adminSession = domain.Session{Token: "tok-admin", Role: domain.RoleAdmin, UserID: "U1", Email: "admin@example.com"}
	userSession  = domain.Session{Token: "tok-user", Role: domain.RoleUser, UserID: "U2", Email: "user@example.com"}
)

// testEnv bundles a container built from mocks.
type testEnv struct {
	container *app.Container
	api       *testutil.MockBoardAPI
	push      *testutil.MockPushChannel
	sessions  *testutil.MockSessionStore
	logger    *testutil.MockLogger
	manager   *testutil.MockConfigManager
}

// newTestEnv creates an app.Container with mock dependencies.
func newTestEnv(session domain.Session, tasks ...domain.Task) *testEnv {
	env := &testEnv{
		api:      testutil.NewMockBoardAPI(tasks...),
		push:     testutil.NewMockPushChannel(),
		sessions: &testutil.MockSessionStore{Session: session},
		logger:   &testutil.MockLogger{},
		manager:  testutil.NewMockConfigManager(),
	}
	env.container = app.NewWithDeps(
		app.Config{},
		nil,
		env.api,
		env.push,
		env.sessions,
		&testutil.MockClock{NowTime: testNow},
		env.logger,
	)
	env.container.ConfigLoader = &testutil.MockConfigLoader{}
	env.container.ConfigManager = env.manager
	return env
}

func boardTasks() []domain.Task {
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Task{
		{ID: "T1", Title: "Write docs", Status: domain.StatusTodo, ProjectID: "P1", CreatorID: "U2", Priority: domain.PriorityHigh, Tags: []string{"docs"}},
		{ID: "T2", Title: "Fix login", Status: domain.StatusInProgress, ProjectID: "P1", AssigneeEmail: "user@example.com", Deadline: &deadline},
		{ID: "T3", Title: "Ship it", Status: domain.StatusDone, ProjectID: "P1"},
		{ID: "X1", Title: "Other project", Status: domain.StatusTodo, ProjectID: "P2"},
	}
}

// =============================================================================
// tasks list
// =============================================================================

func TestTasksList_PrintsColumns(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "P1"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "To Do (1)")
	assert.Contains(t, out, "In Progress (1)")
	assert.Contains(t, out, "Done (1)")
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "2026-03-01 (overdue)")
	assert.NotContains(t, out, "Other project")
}

func TestTasksList_EmptyColumns(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"list", "P1"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Contains(t, buf.String(), "To Do (0)\n  (empty)")
}

func TestTasksList_PassesFilter(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "P1", "--title", "docs", "--tag", "docs", "--priority", "high", "--assignee", "U2"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	require.Len(t, env.api.Filters, 1)
	assert.Equal(t, domain.TaskFilter{
		ProjectID: "P1",
		Title:     "docs",
		Tag:       "docs",
		Assignee:  "U2",
		Priority:  domain.PriorityHigh,
	}, env.api.Filters[0])
}

func TestTasksList_InvalidPriority(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"list", "P1", "--priority", "urgent"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	assert.Zero(t, env.api.CallCount("ListTasks"))
}

func TestTasksList_RequiresLogin(t *testing.T) {
	env := newTestEnv(domain.Session{})
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"list", "P1"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, env.api.Calls())
}

func TestTasksList_LoadFailure(t *testing.T) {
	env := newTestEnv(userSession)
	env.api.ListErr = &domain.APIError{Message: "Server unavailable", Status: 503}
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"list", "P1"})

	err := cmd.ExecuteContext(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Server unavailable")
	assert.Equal(t, "Server unavailable", env.container.Board.Snapshot().Tasks.Error)
}

// =============================================================================
// tasks show
// =============================================================================

func TestTasksShow_PrintsTaskAndComments(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	env.api.Comments["T2"] = []domain.Comment{
		{ID: "C1", TaskID: "T2", Text: "looking into it", Author: &domain.UserRef{Email: "user@example.com"}},
	}
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"show", "P1", "T2"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "# T2: Fix login")
	assert.Contains(t, out, "Status: In Progress")
	assert.Contains(t, out, "Assignee: user@example.com")
	assert.Contains(t, out, "user@example.com: looking into it")
}

func TestTasksShow_UnknownTask(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"show", "P1", "T9"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// =============================================================================
// tasks create
// =============================================================================

func TestTasksCreate_AddsTaskToColumn(t *testing.T) {
	// Setup
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"create", "P1", "--title", "T1 title", "--priority", "medium", "--tags", "a, b,a", "--deadline", "2026-04-01"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Created task T1: T1 title [To Do]")

	board := env.container.Board.Snapshot().Board()
	todo := board.Column(domain.StatusTodo)
	require.Len(t, todo, 1)
	assert.Equal(t, "T1", todo[0].ID)
	assert.Equal(t, domain.PriorityMedium, todo[0].Priority)
	assert.Equal(t, []string{"a", "b"}, todo[0].Tags)
	require.NotNil(t, todo[0].Deadline)
	assert.Equal(t, "2026-04-01", todo[0].Deadline.Format(dateLayout))
}

func TestTasksCreate_WithStatus(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"create", "P1", "--title", "Started", "--status", "in-progress"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))

	assert.Len(t, env.container.Board.Snapshot().Board().Column(domain.StatusInProgress), 1)
}

func TestTasksCreate_BlankTitle(t *testing.T) {
	// Setup
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"create", "P1", "--title", "   "})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	assert.Zero(t, env.api.CallCount("CreateTask"))
}

func TestTasksCreate_MissingTitleFlag(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"create", "P1"})

	err := cmd.ExecuteContext(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestTasksCreate_InvalidDeadline(t *testing.T) {
	env := newTestEnv(userSession)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"create", "P1", "--title", "x", "--deadline", "next week"})

	err := cmd.ExecuteContext(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
	assert.Zero(t, env.api.CallCount("CreateTask"))
}

// =============================================================================
// tasks edit
// =============================================================================

func TestTasksEdit_UpdatesOnlyGivenFields(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"edit", "P1", "T1", "--title", "Write more docs"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Updated task T1: Write more docs [To Do]")
	require.Len(t, env.api.Updates, 1)
	u := env.api.Updates[0]
	require.NotNil(t, u.Title)
	assert.Equal(t, "Write more docs", *u.Title)
	assert.Nil(t, u.Status)
	assert.Nil(t, u.Tags)
	assert.Equal(t, "Write more docs", testutil.TaskOf(t, env.container.Board, "T1").Title)
}

func TestTasksEdit_ClearTags(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"edit", "P1", "T1", "--tags", ""})

	require.NoError(t, cmd.ExecuteContext(t.Context()))

	require.Len(t, env.api.Updates, 1)
	assert.NotNil(t, env.api.Updates[0].Tags)
	assert.Empty(t, env.api.Updates[0].Tags)
}

func TestTasksEdit_NoFields(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"edit", "P1", "T1"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
	assert.Empty(t, env.api.Calls())
}

func TestTasksEdit_UnknownTask(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"edit", "P1", "T9", "--title", "x"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Zero(t, env.api.CallCount("UpdateTask"))
}

func TestTasksEdit_RequiresCreatorOrAdmin(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"edit", "P1", "T3", "--title", "x"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, errNotEditor)
	assert.Zero(t, env.api.CallCount("UpdateTask"))
}

func TestTasksEdit_AdminCanEditAnyTask(t *testing.T) {
	env := newTestEnv(adminSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"edit", "P1", "T3", "--title", "Shipped"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))
	assert.Equal(t, 1, env.api.CallCount("UpdateTask"))
}

// =============================================================================
// tasks move
// =============================================================================

func TestTasksMove_PersistsStatus(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"move", "P1", "T1", "in-progress"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Moved task T1 to In Progress")
	require.Len(t, env.api.Updates, 1)
	assert.Equal(t, domain.StatusUpdate(domain.StatusInProgress), env.api.Updates[0])

	snap := env.container.Board.Snapshot()
	assert.Equal(t, domain.StatusInProgress, testutil.TaskOf(t, env.container.Board, "T1").Status)
	assert.False(t, snap.Tasks.Pending["T1"])
}

func TestTasksMove_SameColumnSendsNothing(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"move", "P1", "T3", "done"})

	require.NoError(t, cmd.ExecuteContext(t.Context()))

	assert.Contains(t, buf.String(), "Task T3 is already in Done")
	assert.Zero(t, env.api.CallCount("UpdateTask"))
}

func TestTasksMove_FailureKeepsOptimisticStatus(t *testing.T) {
	// Setup
	env := newTestEnv(userSession, boardTasks()...)
	env.api.UpdateErr = &domain.APIError{Message: "Not allowed", Status: 403}
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"move", "P1", "T1", "in-progress"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not allowed")
	snap := env.container.Board.Snapshot()
	assert.Equal(t, domain.StatusInProgress, testutil.TaskOf(t, env.container.Board, "T1").Status)
	assert.Equal(t, "Not allowed", snap.Tasks.Error)
}

func TestTasksMove_FailureRevertsWhenConfigured(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	env.container.AppConfig.Board.RevertFailedMoves = true
	env.api.UpdateErr = &domain.APIError{Message: "Not allowed", Status: 403}
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"move", "P1", "T1", "done"})

	require.Error(t, cmd.ExecuteContext(t.Context()))

	assert.Equal(t, domain.StatusTodo, testutil.TaskOf(t, env.container.Board, "T1").Status)
}

func TestTasksMove_InvalidStatus(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"move", "P1", "T1", "blocked"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.Empty(t, env.api.Calls())
}

func TestTasksMove_UnknownTask(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"move", "P1", "X1", "done"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

// =============================================================================
// tasks delete
// =============================================================================

func TestTasksDelete_Admin(t *testing.T) {
	// Setup
	env := newTestEnv(adminSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"delete", "P1", "T2"})

	// Execute
	err := cmd.ExecuteContext(t.Context())

	// Verify
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Deleted task T2")
	assert.Empty(t, env.container.Board.Snapshot().Board().Column(domain.StatusInProgress))
}

func TestTasksDelete_NonAdminRejected(t *testing.T) {
	env := newTestEnv(userSession, boardTasks()...)
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"delete", "P1", "T2"})

	err := cmd.ExecuteContext(t.Context())

	assert.ErrorIs(t, err, errAdminOnly)
	assert.Empty(t, env.api.Calls())
}

func TestTasksDelete_FailureKeepsTask(t *testing.T) {
	env := newTestEnv(adminSession, boardTasks()...)
	env.api.DeleteErr = &domain.APIError{Message: "Task is locked", Status: 409}
	cmd := newTasksCommand(env.container)
	cmd.SetArgs([]string{"delete", "P1", "T2"})

	err := cmd.ExecuteContext(t.Context())

	require.Error(t, err)
	assert.Equal(t, "Fix login", testutil.TaskOf(t, env.container.Board, "T2").Title)
	assert.Equal(t, "Task is locked", env.container.Board.Snapshot().Tasks.Error)
}
