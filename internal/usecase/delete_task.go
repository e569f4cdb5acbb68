package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	TaskID string // Task to delete (required)
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct {
	Removed bool // True if the task was present locally
}

// DeleteTask deletes a task on the server, then removes it locally.
type DeleteTask struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(api domain.BoardAPI, board Board, log domain.Logger) *DeleteTask {
	return &DeleteTask{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute deletes a task. On failure the task stays and the error is stored.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	if in.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	if err := uc.api.DeleteTask(ctx, in.TaskID); err != nil {
		setError(context.WithoutCancel(ctx), uc.board, err)
		uc.log.Warn("tasks", fmt.Sprintf("delete %s: %s", in.TaskID, domain.UserMessage(err)))
		return nil, fmt.Errorf("delete task: %w", err)
	}

	var removed bool
	if err := uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		removed = s.Tasks.Remove(in.TaskID)
	}); err != nil {
		return nil, err
	}

	uc.log.Info("tasks", fmt.Sprintf("deleted %s", in.TaskID))
	return &DeleteTaskOutput{Removed: removed}, nil
}
