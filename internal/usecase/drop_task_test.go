package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/testutil"
	"github.com/runoshun/boardsync/internal/usecase"
)

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "edit did not complete")
		return nil
	}
}

func dragSetup(t *testing.T, revert bool) (*engine.Loop, *testutil.MockBoardAPI, *usecase.DropTask) {
	t.Helper()
	task := domain.Task{ID: "T1", ProjectID: "P1", Title: "Design", Status: domain.StatusTodo}
	board := testutil.StartLoop(t)
	testutil.SeedBoard(t, board, "P1", task)
	api := testutil.NewMockBoardAPI(task)
	return board, api, usecase.NewDropTask(api, board, domain.NopLogger{}, revert)
}

func TestDropTask_Execute_MovesBeforeServerAnswers(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, false)
	api.UpdateGate = make(chan struct{})

	// Execute
	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo, Index: 0},
		Destination: &usecase.Location{Status: domain.StatusInProgress, Index: 0},
	})

	// Verify: visible immediately, still pending
	require.NoError(t, err)
	require.True(t, out.Moved)
	snap := board.Snapshot()
	assert.Equal(t, []string{"T1"}, taskIDs(snap.Board().Column(domain.StatusInProgress)))
	assert.Empty(t, snap.Board().Column(domain.StatusTodo))
	assert.True(t, snap.Tasks.Pending["T1"])

	// Verify: confirmation clears the pending marker
	api.UpdateGate <- struct{}{}
	require.NoError(t, waitDone(t, out.Done))
	snap = board.Snapshot()
	assert.False(t, snap.Tasks.Pending["T1"])
	assert.Equal(t, domain.StatusInProgress, testutil.TaskOf(t, board, "T1").Status)
	require.Len(t, api.Updates, 1)
	assert.Equal(t, domain.StatusInProgress, *api.Updates[0].Status)
}

func TestDropTask_Execute_FailedEditKeepsMove(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, false)
	api.UpdateGate = make(chan struct{})
	api.UpdateErr = &domain.APIError{Message: "Failed to edit tasks", Status: 500}

	// Execute
	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusInProgress},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, taskIDs(board.Snapshot().Board().Column(domain.StatusInProgress)))
	api.UpdateGate <- struct{}{}

	// Verify
	assert.Error(t, waitDone(t, out.Done))
	snap := board.Snapshot()
	assert.Equal(t, []string{"T1"}, taskIDs(snap.Board().Column(domain.StatusInProgress)))
	assert.False(t, snap.Tasks.Pending["T1"])
	assert.Equal(t, "Failed to edit tasks", snap.Tasks.Error)
}

func TestDropTask_Execute_FailedEditRevertsWhenConfigured(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, true)
	api.UpdateErr = &domain.APIError{Message: "Failed to edit tasks", Status: 500}

	// Execute
	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusDone},
	})

	// Verify
	require.NoError(t, err)
	assert.Error(t, waitDone(t, out.Done))
	snap := board.Snapshot()
	assert.Equal(t, []string{"T1"}, taskIDs(snap.Board().Column(domain.StatusTodo)))
	assert.Empty(t, snap.Board().Column(domain.StatusDone))
}

func TestDropTask_Execute_SameColumnIsNoOp(t *testing.T) {
	tests := []struct {
		dest *usecase.Location
		name string
	}{
		{nil, "outside any column"},
		{&usecase.Location{Status: domain.StatusTodo, Index: 0}, "same position"},
		{&usecase.Location{Status: domain.StatusTodo, Index: 3}, "reorder within column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			board, api, uc := dragSetup(t, false)
			before := board.Snapshot().Tasks

			// Execute
			out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
				TaskID:      "T1",
				Source:      usecase.Location{Status: domain.StatusTodo, Index: 0},
				Destination: tt.dest,
			})

			// Verify
			require.NoError(t, err)
			assert.False(t, out.Moved)
			assert.Nil(t, out.Done)
			assert.Empty(t, api.Calls())
			assert.Equal(t, before, board.Snapshot().Tasks)
		})
	}
}

func TestDropTask_Execute_StaleDragStateIsNoOp(t *testing.T) {
	// Setup: the card was dragged from a column it no longer sits in.
	board, api, uc := dragSetup(t, false)
	require.NoError(t, board.Mutate(context.Background(), func(s *engine.Stores) {
		s.Tasks.MoveStatus("T1", domain.StatusDone)
	}))

	// Execute
	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusDone},
	})

	// Verify
	require.NoError(t, err)
	assert.False(t, out.Moved)
	assert.Empty(t, api.Calls())
}

func TestDropTask_Execute_DiscardsSupersededConfirmation(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, false)
	api.UpdateGate = make(chan struct{})
	api.UpdateResponse = &domain.Task{ID: "T1", ProjectID: "P1", Title: "From server", Status: domain.StatusInProgress}

	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusInProgress},
	})
	require.NoError(t, err)

	// A newer write to the same task is issued before the first one answers.
	require.NoError(t, board.Mutate(context.Background(), func(s *engine.Stores) {
		s.Tasks.BeginRequest("T1")
	}))

	// Execute
	api.UpdateGate <- struct{}{}

	// Verify
	require.NoError(t, waitDone(t, out.Done))
	assert.Equal(t, "Design", testutil.TaskOf(t, board, "T1").Title)
}

func TestDropTask_Execute_UnloadedTaskIsNoop(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, false)
	before := board.Snapshot()

	// Execute
	out, err := uc.Execute(context.Background(), usecase.DropTaskInput{
		TaskID:      "missing",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusDone},
	})

	// Verify
	require.NoError(t, err)
	assert.False(t, out.Moved)
	assert.Nil(t, out.Done)
	assert.Zero(t, out.RequestID)
	assert.Empty(t, api.Calls())
	assert.Equal(t, before.Tasks.Tasks, board.Snapshot().Tasks.Tasks)
}

func TestDropTask_Execute_Errors(t *testing.T) {
	t.Run("unknown column", func(t *testing.T) {
		_, api, uc := dragSetup(t, false)

		_, err := uc.Execute(context.Background(), usecase.DropTaskInput{
			TaskID:      "T1",
			Destination: &usecase.Location{Status: "Archived"},
		})

		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		assert.Empty(t, api.Calls())
	})
}

func TestDropTask_Execute_SurvivesCallerCancel(t *testing.T) {
	// Setup
	board, api, uc := dragSetup(t, false)
	api.UpdateGate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	out, err := uc.Execute(ctx, usecase.DropTaskInput{
		TaskID:      "T1",
		Source:      usecase.Location{Status: domain.StatusTodo},
		Destination: &usecase.Location{Status: domain.StatusDone},
	})
	require.NoError(t, err)

	// Execute
	cancel()
	api.UpdateGate <- struct{}{}

	// Verify
	require.NoError(t, waitDone(t, out.Done))
	assert.False(t, board.Snapshot().Tasks.Pending["T1"])
}
