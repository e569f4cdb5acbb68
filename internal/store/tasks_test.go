package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
)

func loaded(t *testing.T, s *TaskStore, tasks ...domain.Task) {
	t.Helper()
	gen := s.BeginLoad("P1")
	require.NoError(t, s.FinishLoad(gen, tasks))
}

func TestTaskStore_FinishLoad_ReplacesSequence(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "old", ProjectID: "P1", Status: domain.StatusTodo})

	gen := s.BeginLoad("P1")
	assert.True(t, s.Snapshot().Loading)
	require.NoError(t, s.FinishLoad(gen, []domain.Task{{ID: "new", ProjectID: "P1", Status: domain.StatusDone}}))

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "new", snap.Tasks[0].ID)
}

func TestTaskStore_FailLoad_KeepsPreviousTasks(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", ProjectID: "P1", Status: domain.StatusTodo})

	gen := s.BeginLoad("P1")
	require.NoError(t, s.FailLoad(gen, "Failed to fetch tasks"))

	snap := s.Snapshot()
	assert.Equal(t, "Failed to fetch tasks", snap.Error)
	assert.False(t, snap.Loading)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "t1", snap.Tasks[0].ID)
}

func TestTaskStore_StaleLoadIsDiscarded(t *testing.T) {
	s := NewTaskStore(true)

	first := s.BeginLoad("P1")
	second := s.BeginLoad("P2")

	err := s.FinishLoad(first, []domain.Task{{ID: "p1-task", ProjectID: "P1"}})
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	assert.ErrorIs(t, s.FailLoad(first, "late"), domain.ErrStaleResponse)
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Snapshot().Loading, "newer load still in flight")

	require.NoError(t, s.FinishLoad(second, []domain.Task{{ID: "p2-task", ProjectID: "P2"}}))
	assert.Equal(t, "P2", s.ProjectID())
	_, ok := s.Task("p2-task")
	assert.True(t, ok)
}

func TestTaskStore_Prepend(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s,
		domain.Task{ID: "a", ProjectID: "P1"},
		domain.Task{ID: "b", ProjectID: "P1"},
	)

	s.Prepend(domain.Task{ID: "c", ProjectID: "P1"})

	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{snap.Tasks[0].ID, snap.Tasks[1].ID, snap.Tasks[2].ID})
}

func TestTaskStore_Remove(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "a"}, domain.Task{ID: "b"})

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 1, s.Len())
}

func TestTaskStore_AppendComment(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Comments: []domain.Comment{{ID: "c1", Text: "first"}, {ID: "c2", Text: "second"}}})

	ok := s.AppendComment("t1", domain.Comment{ID: "c3", Text: "third"})

	require.True(t, ok)
	task, _ := s.Task("t1")
	require.Len(t, task.Comments, 3)
	assert.Equal(t, "first", task.Comments[0].Text)
	assert.Equal(t, "second", task.Comments[1].Text)
	assert.Equal(t, "third", task.Comments[2].Text)
}

func TestTaskStore_AppendComment_TaskNotLoaded(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1"})
	before := s.Snapshot()

	ok := s.AppendComment("missing", domain.Comment{ID: "c1", Text: "hi"})

	assert.False(t, ok)
	assert.Equal(t, before, s.Snapshot())
}

func TestTaskStore_AppendComment_Dedupe(t *testing.T) {
	t.Run("enabled skips echoed comment", func(t *testing.T) {
		s := NewTaskStore(true)
		loaded(t, s, domain.Task{ID: "t1"})

		assert.True(t, s.AppendComment("t1", domain.Comment{ID: "c1", Text: "hi"}))
		assert.False(t, s.AppendComment("t1", domain.Comment{ID: "c1", Text: "hi"}))

		task, _ := s.Task("t1")
		assert.Len(t, task.Comments, 1)
	})

	t.Run("comments without id are always appended", func(t *testing.T) {
		s := NewTaskStore(true)
		loaded(t, s, domain.Task{ID: "t1"})

		s.AppendComment("t1", domain.Comment{Text: "hi"})
		s.AppendComment("t1", domain.Comment{Text: "hi"})

		task, _ := s.Task("t1")
		assert.Len(t, task.Comments, 2)
	})

	t.Run("disabled appends duplicates", func(t *testing.T) {
		s := NewTaskStore(false)
		loaded(t, s, domain.Task{ID: "t1"})

		s.AppendComment("t1", domain.Comment{ID: "c1"})
		s.AppendComment("t1", domain.Comment{ID: "c1"})

		task, _ := s.Task("t1")
		assert.Len(t, task.Comments, 2)
	})
}

func TestTaskStore_MoveStatusThenConfirmation_ConfirmationWins(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", ProjectID: "P1", Status: domain.StatusTodo})

	prev, ok := s.MoveStatus("t1", domain.StatusDone)
	require.True(t, ok)
	assert.Equal(t, domain.StatusTodo, prev)

	merged, err := s.Merge(domain.FullPatch(domain.Task{ID: "t1", ProjectID: "P1", Status: domain.StatusTodo, Title: "x"}), 0)
	require.NoError(t, err)
	assert.Equal(t, "x", merged.Title)

	task, _ := s.Task("t1")
	assert.Equal(t, domain.StatusTodo, task.Status)
}

func TestTaskStore_Merge_PreservesLocalFields(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{
		ID:            "t1",
		ProjectID:     "P1",
		CreatorID:     "u1",
		CreatedAt:     created,
		AssigneeEmail: "bob@x.com",
		Title:         "old",
		Comments:      []domain.Comment{{ID: "c1", Text: "keep me"}},
	})

	_, err := s.Merge(domain.NewTaskPatch(domain.Task{ID: "t1", Title: "new", Status: domain.StatusDone},
		domain.FieldTitle, domain.FieldStatus), 0)
	require.NoError(t, err)

	task, _ := s.Task("t1")
	assert.Equal(t, "new", task.Title)
	assert.Equal(t, domain.StatusDone, task.Status)
	assert.Equal(t, "bob@x.com", task.AssigneeEmail)
	assert.Equal(t, "P1", task.ProjectID)
	assert.Equal(t, "u1", task.CreatorID)
	assert.Equal(t, created, task.CreatedAt)
	require.Len(t, task.Comments, 1)
	assert.Equal(t, "keep me", task.Comments[0].Text)
}

func TestTaskStore_Merge_PartialConfirmationKeepsAbsentFields(t *testing.T) {
	// Setup
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{
		ID:        "t1",
		ProjectID: "P1",
		Title:     "Design",
		Status:    domain.StatusTodo,
		Priority:  domain.PriorityHigh,
		Tags:      []string{"ui"},
	})
	reqID := s.BeginRequest("t1")

	// Execute
	merged, err := s.Merge(domain.NewTaskPatch(domain.Task{ID: "t1", Status: domain.StatusDone}, domain.FieldStatus), reqID)

	// Verify
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, merged.Status)
	task, _ := s.Task("t1")
	assert.Equal(t, "Design", task.Title)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, []string{"ui"}, task.Tags)
	assert.Equal(t, domain.StatusDone, task.Status)
}

func TestTaskStore_Merge_StatusAbsentKeepsColumn(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", ProjectID: "P1", Title: "Design", Status: domain.StatusInProgress})

	_, err := s.Merge(domain.NewTaskPatch(domain.Task{ID: "t1", Title: "Renamed"}, domain.FieldTitle), 0)
	require.NoError(t, err)

	task, _ := s.Task("t1")
	assert.Equal(t, "Renamed", task.Title)
	assert.Equal(t, domain.StatusInProgress, task.Status)
	board := domain.BuildBoard("P1", []domain.Task{task})
	assert.Len(t, board.Columns[1].Tasks, 1)
}

func TestTaskStore_Merge_PushedCommentSurvivesConfirmation(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})
	reqID := s.BeginRequest("t1")

	s.AppendComment("t1", domain.Comment{ID: "c1", Text: "pushed"})
	_, err := s.Merge(domain.FullPatch(domain.Task{ID: "t1", Status: domain.StatusTodo, Title: "edited"}), reqID)
	require.NoError(t, err)

	task, _ := s.Task("t1")
	require.Len(t, task.Comments, 1)
	assert.Equal(t, "pushed", task.Comments[0].Text)
}

func TestTaskStore_Merge_RejectsStaleConfirmation(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})

	first, ok := s.BeginMove("t1", domain.StatusInProgress)
	require.True(t, ok)
	second, ok := s.BeginMove("t1", domain.StatusDone)
	require.True(t, ok)

	_, err := s.Merge(domain.FullPatch(domain.Task{ID: "t1", Status: domain.StatusInProgress}), first)
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
	task, _ := s.Task("t1")
	assert.Equal(t, domain.StatusDone, task.Status)
	assert.True(t, s.Pending("t1"))

	_, err = s.Merge(domain.FullPatch(domain.Task{ID: "t1", Status: domain.StatusDone}), second)
	require.NoError(t, err)
	assert.False(t, s.Pending("t1"))
}

func TestTaskStore_Merge_NewerRequestClearsOlderPendingMove(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Title: "a", Status: domain.StatusTodo})

	move, ok := s.BeginMove("t1", domain.StatusDone)
	require.True(t, ok)
	edit := s.BeginRequest("t1")

	_, err := s.Merge(domain.FullPatch(domain.Task{ID: "t1", Title: "b", Status: domain.StatusDone}), edit)
	require.NoError(t, err)
	assert.False(t, s.Pending("t1"))
	_, err = s.Merge(domain.FullPatch(domain.Task{ID: "t1", Status: domain.StatusDone}), move)
	assert.ErrorIs(t, err, domain.ErrStaleResponse)
}

func TestTaskStore_Merge_MissingTask(t *testing.T) {
	s := NewTaskStore(true)
	_, err := s.Merge(domain.FullPatch(domain.Task{ID: "gone"}), 0)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskStore_BeginMove(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})

	_, ok := s.BeginMove("t1", domain.StatusTodo)
	assert.False(t, ok, "same status is a no-op")
	assert.False(t, s.Pending("t1"))

	_, ok = s.BeginMove("missing", domain.StatusDone)
	assert.False(t, ok)

	reqID, ok := s.BeginMove("t1", domain.StatusInProgress)
	require.True(t, ok)
	assert.NotZero(t, reqID)
	assert.True(t, s.Pending("t1"))
	assert.True(t, s.Snapshot().Pending["t1"])
}

func TestTaskStore_FailRequest(t *testing.T) {
	t.Run("keeps optimistic status by default", func(t *testing.T) {
		s := NewTaskStore(true)
		loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})
		reqID, _ := s.BeginMove("t1", domain.StatusInProgress)

		reverted := s.FailRequest("t1", reqID, "Failed to edit tasks", false)

		assert.False(t, reverted)
		task, _ := s.Task("t1")
		assert.Equal(t, domain.StatusInProgress, task.Status)
		assert.False(t, s.Pending("t1"))
		assert.Equal(t, "Failed to edit tasks", s.Snapshot().Error)
	})

	t.Run("revert restores last confirmed status", func(t *testing.T) {
		s := NewTaskStore(true)
		loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})
		reqID, _ := s.BeginMove("t1", domain.StatusInProgress)

		reverted := s.FailRequest("t1", reqID, "boom", true)

		assert.True(t, reverted)
		task, _ := s.Task("t1")
		assert.Equal(t, domain.StatusTodo, task.Status)
	})

	t.Run("superseded request does not revert", func(t *testing.T) {
		s := NewTaskStore(true)
		loaded(t, s, domain.Task{ID: "t1", Status: domain.StatusTodo})
		first, _ := s.BeginMove("t1", domain.StatusInProgress)
		_, _ = s.BeginMove("t1", domain.StatusDone)

		reverted := s.FailRequest("t1", first, "boom", true)

		assert.False(t, reverted)
		task, _ := s.Task("t1")
		assert.Equal(t, domain.StatusDone, task.Status)
		assert.True(t, s.Pending("t1"))
	})
}

func TestTaskStore_ReplaceComments(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1"})

	assert.True(t, s.ReplaceComments("t1", []domain.Comment{{ID: "c1"}, {ID: "c2"}}))
	assert.False(t, s.ReplaceComments("missing", nil))

	task, _ := s.Task("t1")
	assert.Len(t, task.Comments, 2)
}

func TestTaskStore_SnapshotIsIsolated(t *testing.T) {
	s := NewTaskStore(true)
	loaded(t, s, domain.Task{ID: "t1", Title: "a"})

	snap := s.Snapshot()
	snap.Tasks[0].Title = "mutated"

	task, _ := s.Task("t1")
	assert.Equal(t, "a", task.Title)
}
