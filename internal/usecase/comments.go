package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// SubmitCommentInput contains the parameters for submitting a comment.
type SubmitCommentInput struct {
	TaskID string // Task to comment on (required)
	Text   string // Comment text (required, trimmed)
}

// SubmitCommentOutput contains the created comment.
type SubmitCommentOutput struct {
	Comment domain.Comment
}

// SubmitComment sends a comment to the server.
//
// It does not touch the task's local comments. Callers follow a successful
// submit with AppendComment and RefreshActivity.
type SubmitComment struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewSubmitComment creates a new SubmitComment use case.
func NewSubmitComment(api domain.BoardAPI, board Board, log domain.Logger) *SubmitComment {
	return &SubmitComment{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute submits the comment.
func (uc *SubmitComment) Execute(ctx context.Context, in SubmitCommentInput) (*SubmitCommentOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyComment
	}
	if in.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	c, err := uc.api.AddComment(ctx, in.TaskID, text)
	if err != nil {
		setError(context.WithoutCancel(ctx), uc.board, err)
		uc.log.Warn("tasks", fmt.Sprintf("comment on %s: %s", in.TaskID, domain.UserMessage(err)))
		return nil, fmt.Errorf("add comment: %w", err)
	}

	comment := c.Clone()
	if comment.TaskID == "" {
		comment.TaskID = in.TaskID
	}
	if comment.Text == "" {
		comment.Text = text
	}
	return &SubmitCommentOutput{Comment: comment}, nil
}

// AppendCommentInput contains a comment to add to the local store.
type AppendCommentInput struct {
	TaskID  string
	Comment domain.Comment
}

// AppendCommentOutput reports whether the comment was added.
type AppendCommentOutput struct {
	Appended bool // False if the task is not loaded or the comment was a duplicate
}

// AppendComment adds a comment to a loaded task without any network call.
type AppendComment struct {
	board Board
}

// NewAppendComment creates a new AppendComment use case.
func NewAppendComment(board Board) *AppendComment {
	return &AppendComment{board: board}
}

// Execute appends the comment.
func (uc *AppendComment) Execute(ctx context.Context, in AppendCommentInput) (*AppendCommentOutput, error) {
	var appended bool
	if err := uc.board.Mutate(ctx, func(s *engine.Stores) {
		appended = s.Tasks.AppendComment(in.TaskID, in.Comment)
	}); err != nil {
		return nil, err
	}
	return &AppendCommentOutput{Appended: appended}, nil
}

// LoadCommentsInput contains the parameters for loading a task's comments.
type LoadCommentsInput struct {
	TaskID string
}

// LoadCommentsOutput contains the comment history.
type LoadCommentsOutput struct {
	Comments []domain.Comment
	Applied  bool // True if the task was loaded and its comments were replaced
}

// LoadComments fetches the full comment history of a task.
type LoadComments struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewLoadComments creates a new LoadComments use case.
func NewLoadComments(api domain.BoardAPI, board Board, log domain.Logger) *LoadComments {
	return &LoadComments{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute replaces the task's local comments with the server's history.
func (uc *LoadComments) Execute(ctx context.Context, in LoadCommentsInput) (*LoadCommentsOutput, error) {
	if in.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	comments, err := uc.api.ListComments(ctx, in.TaskID)
	if err != nil {
		setError(context.WithoutCancel(ctx), uc.board, err)
		uc.log.Warn("tasks", fmt.Sprintf("comments of %s: %s", in.TaskID, domain.UserMessage(err)))
		return nil, fmt.Errorf("list comments: %w", err)
	}

	var applied bool
	if err := uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		applied = s.Tasks.ReplaceComments(in.TaskID, comments)
	}); err != nil {
		return nil, err
	}
	return &LoadCommentsOutput{Comments: comments, Applied: applied}, nil
}
