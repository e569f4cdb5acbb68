package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/usecase"
)

func TestDragController_Lifecycle(t *testing.T) {
	// Setup
	board, api, drop := dragSetup(t, false)
	d := usecase.NewDragController(drop)
	require.Equal(t, usecase.DragIdle, d.State())

	// Execute
	require.NoError(t, d.Begin("T1", usecase.Location{Status: domain.StatusTodo}))
	assert.Equal(t, usecase.DragDragging, d.State())
	assert.Equal(t, "T1", d.TaskID())

	out, err := d.End(context.Background(), &usecase.Location{Status: domain.StatusDone})

	// Verify
	require.NoError(t, err)
	require.True(t, out.Moved)
	assert.Equal(t, usecase.DragIdle, d.State())
	assert.Empty(t, d.TaskID())
	require.NoError(t, waitDone(t, out.Done))
	assert.Equal(t, 1, api.CallCount("UpdateTask"))
	assert.Equal(t, []string{"T1"}, taskIDs(board.Snapshot().Board().Column(domain.StatusDone)))
}

func TestDragController_Errors(t *testing.T) {
	_, api, drop := dragSetup(t, false)
	d := usecase.NewDragController(drop)

	_, err := d.End(context.Background(), &usecase.Location{Status: domain.StatusDone})
	assert.ErrorIs(t, err, domain.ErrNoDragInProgress)

	assert.ErrorIs(t, d.Begin("", usecase.Location{}), domain.ErrTaskNotFound)

	require.NoError(t, d.Begin("T1", usecase.Location{Status: domain.StatusTodo}))
	assert.ErrorIs(t, d.Begin("T1", usecase.Location{Status: domain.StatusTodo}), domain.ErrDragInProgress)

	d.Cancel()
	assert.Equal(t, usecase.DragIdle, d.State())
	assert.Empty(t, api.Calls())
}

func TestDragController_DropOutsideReturnsToIdle(t *testing.T) {
	_, api, drop := dragSetup(t, false)
	d := usecase.NewDragController(drop)
	require.NoError(t, d.Begin("T1", usecase.Location{Status: domain.StatusTodo}))

	out, err := d.End(context.Background(), nil)

	require.NoError(t, err)
	assert.False(t, out.Moved)
	assert.Equal(t, usecase.DragIdle, d.State())
	assert.Empty(t, api.Calls())
}

func TestDragState_String(t *testing.T) {
	assert.Equal(t, "idle", usecase.DragIdle.String())
	assert.Equal(t, "dragging", usecase.DragDragging.String())
	assert.Equal(t, "dropped", usecase.DragDropped.String())
}
