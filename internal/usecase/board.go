package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// Board applies state changes on the board's single writer.
// *engine.Loop implements it.
type Board interface {
	Mutate(ctx context.Context, fn func(*engine.Stores)) error
}

// setError stores err's user-facing message on the task store.
func setError(ctx context.Context, board Board, err error) {
	msg := domain.UserMessage(err)
	_ = board.Mutate(ctx, func(s *engine.Stores) {
		s.Tasks.SetError(msg)
	})
}

// logStale logs a discarded response. Returns true if err was ErrStaleResponse.
func logStale(log domain.Logger, category string, err error, what string) bool {
	if !errors.Is(err, domain.ErrStaleResponse) {
		return false
	}
	log.Debug(category, fmt.Sprintf("discarded stale %s", what))
	return true
}
