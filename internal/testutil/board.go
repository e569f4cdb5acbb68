package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// StartLoop runs a board loop with comment deduplication enabled until the test ends.
func StartLoop(t *testing.T) *engine.Loop {
	t.Helper()
	l := engine.New(engine.NewStores(true))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Stopped()
	})
	return l
}

// SeedBoard loads tasks into the board's task store as a completed load of projectID.
func SeedBoard(t *testing.T, l *engine.Loop, projectID string, tasks ...domain.Task) {
	t.Helper()
	var err error
	require.NoError(t, l.Mutate(context.Background(), func(s *engine.Stores) {
		gen := s.Tasks.BeginLoad(projectID)
		err = s.Tasks.FinishLoad(gen, tasks)
	}))
	require.NoError(t, err)
}

// TaskOf returns task id from the latest snapshot of l, failing the test if it is missing.
func TaskOf(t *testing.T, l *engine.Loop, id string) domain.Task {
	t.Helper()
	for _, task := range l.Snapshot().Tasks.Tasks {
		if task.ID == id {
			return task
		}
	}
	require.Failf(t, "task not in snapshot", "id %s", id)
	return domain.Task{}
}
