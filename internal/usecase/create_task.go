package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// CreateTaskInput contains the parameters for creating a task.
// Fields are ordered to minimize memory padding.
type CreateTaskInput struct {
	Deadline    *time.Time      // Optional due date
	Title       string          // Task title (required)
	Description string          // Optional description
	Status      domain.Status   // Initial column (default: To Do)
	ProjectID   string          // Owning project (required)
	Priority    domain.Priority // Optional priority
	Assignee    string          // Assignee user ID, sent only for admins
	Tags        []string        // Tags
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Task domain.Task // The task as stored by the server
}

// CreateTask creates a task and prepends it to the local sequence once confirmed.
type CreateTask struct {
	api     domain.BoardAPI
	board   Board
	session domain.SessionProvider
	log     domain.Logger
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(api domain.BoardAPI, board Board, session domain.SessionProvider, log domain.Logger) *CreateTask {
	return &CreateTask{
		api:     api,
		board:   board,
		session: session,
		log:     log,
	}
}

// Execute validates the draft, sends it and prepends the created task.
// Nothing is added locally until the server confirms.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	draft := domain.TaskDraft{
		Deadline:    in.Deadline,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		ProjectID:   strings.TrimSpace(in.ProjectID),
		Priority:    in.Priority,
		Tags:        in.Tags,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if assignee := strings.TrimSpace(in.Assignee); assignee != "" && uc.session.Current().IsAdmin() {
		draft.Assignee = assignee
	}

	created, err := uc.api.CreateTask(ctx, draft)
	if err != nil {
		setError(context.WithoutCancel(ctx), uc.board, err)
		uc.log.Warn("tasks", fmt.Sprintf("create in %s: %s", draft.ProjectID, domain.UserMessage(err)))
		return nil, fmt.Errorf("create task: %w", err)
	}

	task := created.Clone()
	if task.ProjectID == "" {
		task.ProjectID = draft.ProjectID
	}
	if err := uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		s.Tasks.Prepend(task)
	}); err != nil {
		return nil, err
	}

	uc.log.Info("tasks", fmt.Sprintf("created %s in %s", task.ID, task.ProjectID))
	return &CreateTaskOutput{Task: task}, nil
}
