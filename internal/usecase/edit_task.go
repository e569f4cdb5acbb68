package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// EditTaskInput contains the parameters for editing a task.
type EditTaskInput struct {
	TaskID string            // Task to edit (required)
	Update domain.TaskUpdate // Fields to change; nil fields are left unchanged
}

// EditTaskOutput contains the result of editing a task.
type EditTaskOutput struct {
	Task  *domain.Task // The task after the server's confirmation was merged
	Stale bool         // True if a newer request for the task superseded this one
}

// EditTask sends a partial update and merges the confirmed task into the store.
type EditTask struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewEditTask creates a new EditTask use case.
func NewEditTask(api domain.BoardAPI, board Board, log domain.Logger) *EditTask {
	return &EditTask{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute edits a task. Only the fields the server sends back are merged;
// the local comment history is always kept.
// On failure the displayed task is left as it is and the error is stored.
func (uc *EditTask) Execute(ctx context.Context, in EditTaskInput) (*EditTaskOutput, error) {
	if in.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}
	if err := in.Update.Validate(); err != nil {
		return nil, err
	}

	var reqID uint64
	if err := uc.board.Mutate(ctx, func(s *engine.Stores) {
		reqID = s.Tasks.BeginRequest(in.TaskID)
	}); err != nil {
		return nil, err
	}

	updated, err := uc.api.UpdateTask(ctx, in.TaskID, in.Update)
	if err != nil {
		msg := domain.UserMessage(err)
		_ = uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
			s.Tasks.FailRequest(in.TaskID, reqID, msg, false)
		})
		uc.log.Warn("tasks", fmt.Sprintf("edit %s: %s", in.TaskID, msg))
		return nil, fmt.Errorf("update task: %w", err)
	}

	merged, stale, err := mergeConfirmed(ctx, uc.board, uc.log, *updated, reqID)
	if err != nil {
		return nil, err
	}
	return &EditTaskOutput{Task: &merged, Stale: stale}, nil
}

// mergeConfirmed merges a server confirmation tagged with reqID and returns
// the resulting task. Fields the server left out keep their local values.
// A task that is no longer loaded is not an error; the confirmed fields alone
// are returned then.
func mergeConfirmed(ctx context.Context, board Board, log domain.Logger, p domain.TaskPatch, reqID uint64) (domain.Task, bool, error) {
	id := p.Task.ID
	if id == "" {
		return p.Apply(domain.Task{}), false, nil
	}
	var (
		merged   domain.Task
		mergeErr error
	)
	if err := board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		merged, mergeErr = s.Tasks.Merge(p, reqID)
	}); err != nil {
		return domain.Task{}, false, err
	}
	switch {
	case mergeErr == nil:
		return merged, false, nil
	case logStale(log, "tasks", mergeErr, "confirmation of "+id):
		return p.Apply(domain.Task{ID: id}), true, nil
	case errors.Is(mergeErr, domain.ErrTaskNotFound):
		log.Debug("tasks", fmt.Sprintf("confirmation for unloaded task %s", id))
		return p.Apply(domain.Task{ID: id}), false, nil
	default:
		return domain.Task{}, false, mergeErr
	}
}
