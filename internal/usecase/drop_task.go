package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// Location is a card position on the board.
type Location struct {
	Status domain.Status // Column
	Index  int           // Position within the column
}

// DropTaskInput contains the parameters of a finished drag gesture.
type DropTaskInput struct {
	Destination *Location // Nil when the card was dropped outside any column
	TaskID      string    // Dragged task
	Source      Location  // Where the drag started
}

// DropTaskOutput contains the result of a drop.
type DropTaskOutput struct {
	// Done receives the outcome of the status edit and is then closed.
	// It is nil when nothing moved.
	Done      <-chan error
	RequestID uint64 // Request id of the issued edit (0 when nothing moved)
	Moved     bool   // True if the task was moved optimistically
}

// DropTask applies a drag's column change locally and persists it in the background.
type DropTask struct {
	api    domain.BoardAPI
	board  Board
	log    domain.Logger
	revert bool
}

// NewDropTask creates a new DropTask use case.
// With revertOnFailure set a failed edit restores the last confirmed status.
func NewDropTask(api domain.BoardAPI, board Board, log domain.Logger, revertOnFailure bool) *DropTask {
	return &DropTask{
		api:    api,
		board:  board,
		log:    log,
		revert: revertOnFailure,
	}
}

// Execute moves the task to the destination column and returns without
// waiting for the server. Only the column counts: dropping into the task's
// current column changes nothing and sends nothing. Neither does dropping a
// task that is no longer loaded.
func (uc *DropTask) Execute(ctx context.Context, in DropTaskInput) (*DropTaskOutput, error) {
	dest := in.Destination
	if dest == nil || *dest == in.Source {
		return &DropTaskOutput{}, nil
	}
	if !dest.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	var (
		reqID uint64
		moved bool
		found bool
	)
	if err := uc.board.Mutate(ctx, func(s *engine.Stores) {
		if _, found = s.Tasks.Task(in.TaskID); !found {
			return
		}
		reqID, moved = s.Tasks.BeginMove(in.TaskID, dest.Status)
	}); err != nil {
		return nil, err
	}
	if !found {
		uc.log.Debug("drag", fmt.Sprintf("dropped %s, which is no longer loaded", in.TaskID))
		return &DropTaskOutput{}, nil
	}
	if !moved {
		return &DropTaskOutput{}, nil
	}

	uc.log.Debug("drag", fmt.Sprintf("moved %s to %s (request %d)", in.TaskID, dest.Status, reqID))

	done := make(chan error, 1)
	go uc.persist(context.WithoutCancel(ctx), in.TaskID, dest.Status, reqID, done)

	return &DropTaskOutput{Done: done, RequestID: reqID, Moved: true}, nil
}

func (uc *DropTask) persist(ctx context.Context, taskID string, status domain.Status, reqID uint64, done chan<- error) {
	defer close(done)

	updated, err := uc.api.UpdateTask(ctx, taskID, domain.StatusUpdate(status))
	if err != nil {
		msg := domain.UserMessage(err)
		var reverted bool
		_ = uc.board.Mutate(ctx, func(s *engine.Stores) {
			reverted = s.Tasks.FailRequest(taskID, reqID, msg, uc.revert)
		})
		if reverted {
			uc.log.Warn("drag", fmt.Sprintf("move of %s failed, reverted: %s", taskID, msg))
		} else {
			uc.log.Warn("drag", fmt.Sprintf("move of %s failed: %s", taskID, msg))
		}
		done <- fmt.Errorf("update task status: %w", err)
		return
	}

	if _, _, err := mergeConfirmed(ctx, uc.board, uc.log, *updated, reqID); err != nil {
		done <- err
		return
	}
	done <- nil
}
