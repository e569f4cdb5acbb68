package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// LoadTasksInput contains the parameters for loading a project's tasks.
type LoadTasksInput struct {
	Filter domain.TaskFilter // Filter.ProjectID is required
}

// LoadTasksOutput contains the result of a load.
type LoadTasksOutput struct {
	Tasks []domain.Task // Tasks as returned by the server
	Stale bool          // True if a newer load superseded this one and the response was discarded
}

// LoadTasks replaces the local task sequence with the server's tasks of a project.
type LoadTasks struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewLoadTasks creates a new LoadTasks use case.
func NewLoadTasks(api domain.BoardAPI, board Board, log domain.Logger) *LoadTasks {
	return &LoadTasks{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute loads the tasks matching in.Filter.
// On failure the previous task sequence is kept and the error is stored.
func (uc *LoadTasks) Execute(ctx context.Context, in LoadTasksInput) (*LoadTasksOutput, error) {
	filter := in.Filter
	filter.ProjectID = strings.TrimSpace(filter.ProjectID)
	if filter.ProjectID == "" {
		return nil, domain.ErrNoProject
	}

	var gen uint64
	if err := uc.board.Mutate(ctx, func(s *engine.Stores) {
		gen = s.Tasks.BeginLoad(filter.ProjectID)
	}); err != nil {
		return nil, err
	}

	tasks, err := uc.api.ListTasks(ctx, filter)
	if err != nil {
		msg := domain.UserMessage(err)
		var failErr error
		_ = uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
			failErr = s.Tasks.FailLoad(gen, msg)
		})
		if logStale(uc.log, "tasks", failErr, "load failure") {
			return &LoadTasksOutput{Stale: true}, nil
		}
		uc.log.Warn("tasks", fmt.Sprintf("load %s: %s", filter.ProjectID, msg))
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	var finishErr error
	if err := uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		finishErr = s.Tasks.FinishLoad(gen, tasks)
	}); err != nil {
		return nil, err
	}
	if logStale(uc.log, "tasks", finishErr, "task list") {
		return &LoadTasksOutput{Tasks: tasks, Stale: true}, nil
	}

	uc.log.Debug("tasks", fmt.Sprintf("loaded %d tasks of %s", len(tasks), filter.ProjectID))
	return &LoadTasksOutput{Tasks: tasks}, nil
}
