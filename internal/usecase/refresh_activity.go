package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// RefreshActivityInput contains the parameters for refetching the activity log.
type RefreshActivityInput struct {
	ProjectID string
}

// RefreshActivityOutput contains the fetched log.
type RefreshActivityOutput struct {
	Entries []domain.ActivityEntry // In server order
	Stale   bool                   // True if a newer fetch superseded this one
}

// RefreshActivity replaces the activity log with the server's log of a project.
type RefreshActivity struct {
	api   domain.BoardAPI
	board Board
	log   domain.Logger
}

// NewRefreshActivity creates a new RefreshActivity use case.
func NewRefreshActivity(api domain.BoardAPI, board Board, log domain.Logger) *RefreshActivity {
	return &RefreshActivity{
		api:   api,
		board: board,
		log:   log,
	}
}

// Execute fetches the log. On failure the previous entries are kept.
func (uc *RefreshActivity) Execute(ctx context.Context, in RefreshActivityInput) (*RefreshActivityOutput, error) {
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, domain.ErrNoProject
	}

	var gen uint64
	if err := uc.board.Mutate(ctx, func(s *engine.Stores) {
		gen = s.Activity.BeginFetch(projectID)
	}); err != nil {
		return nil, err
	}

	entries, err := uc.api.ListActivity(ctx, projectID)
	if err != nil {
		msg := domain.UserMessage(err)
		var failErr error
		_ = uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
			failErr = s.Activity.FailFetch(gen, msg)
		})
		if logStale(uc.log, "activity", failErr, "activity failure") {
			return &RefreshActivityOutput{Stale: true}, nil
		}
		uc.log.Warn("activity", fmt.Sprintf("fetch %s: %s", projectID, msg))
		return nil, fmt.Errorf("list activity: %w", err)
	}

	var finishErr error
	if err := uc.board.Mutate(context.WithoutCancel(ctx), func(s *engine.Stores) {
		finishErr = s.Activity.FinishFetch(gen, entries)
	}); err != nil {
		return nil, err
	}
	if logStale(uc.log, "activity", finishErr, "activity log") {
		return &RefreshActivityOutput{Entries: entries, Stale: true}, nil
	}
	return &RefreshActivityOutput{Entries: entries}, nil
}
