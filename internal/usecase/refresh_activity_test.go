package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/testutil"
	"github.com/runoshun/boardsync/internal/usecase"
)

func TestRefreshActivity_Execute(t *testing.T) {
	newest := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	oldest := newest.Add(-time.Hour)

	t.Run("keeps server order", func(t *testing.T) {
		board := testutil.StartLoop(t)
		api := testutil.NewMockBoardAPI()
		api.Activity = []domain.ActivityEntry{
			{ID: "a2", CreatedAt: newest, Action: "Task moved"},
			{ID: "a1", CreatedAt: oldest, Action: "Task created"},
		}
		uc := usecase.NewRefreshActivity(api, board, domain.NopLogger{})

		out, err := uc.Execute(context.Background(), usecase.RefreshActivityInput{ProjectID: "P1"})

		require.NoError(t, err)
		assert.Len(t, out.Entries, 2)
		snap := board.Snapshot().Activity
		require.Len(t, snap.Entries, 2)
		assert.Equal(t, "a2", snap.Entries[0].ID)
		assert.Equal(t, "a1", snap.Entries[1].ID)
		assert.Equal(t, "P1", snap.ProjectID)
		assert.False(t, snap.Loading)
	})

	t.Run("failure keeps previous log", func(t *testing.T) {
		board := testutil.StartLoop(t)
		api := testutil.NewMockBoardAPI()
		api.Activity = []domain.ActivityEntry{{ID: "a1"}}
		uc := usecase.NewRefreshActivity(api, board, domain.NopLogger{})
		_, err := uc.Execute(context.Background(), usecase.RefreshActivityInput{ProjectID: "P1"})
		require.NoError(t, err)

		api.ActivityErr = &domain.APIError{Message: "Failed to fetch activity logs", Status: 500}
		_, err = uc.Execute(context.Background(), usecase.RefreshActivityInput{ProjectID: "P1"})

		require.Error(t, err)
		snap := board.Snapshot().Activity
		assert.Len(t, snap.Entries, 1)
		assert.Equal(t, "Failed to fetch activity logs", snap.Error)
	})

	t.Run("requires project", func(t *testing.T) {
		api := testutil.NewMockBoardAPI()
		uc := usecase.NewRefreshActivity(api, testutil.StartLoop(t), domain.NopLogger{})

		_, err := uc.Execute(context.Background(), usecase.RefreshActivityInput{})

		assert.ErrorIs(t, err, domain.ErrNoProject)
		assert.Empty(t, api.Calls())
	})
}
