package domain

import "errors"

// Domain errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrEmptyComment      = errors.New("comment cannot be empty")
	ErrEmptyCredentials  = errors.New("email and password are required")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrTaskNotFound      = errors.New("task not found")
	ErrNoProject         = errors.New("no project selected")
	ErrNoFieldsToUpdate  = errors.New("no fields to update")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrStaleResponse     = errors.New("response superseded by a newer request")
	ErrNotConnected      = errors.New("push channel not connected")
	ErrDragInProgress    = errors.New("a drag is already in progress")
	ErrNoDragInProgress  = errors.New("no drag in progress")
	ErrLoopStopped       = errors.New("board loop stopped")
	ErrUnknownPushEvent  = errors.New("unknown push event")
	ErrInvalidPushFormat = errors.New("invalid push payload")
	ErrConfigExists      = errors.New("config file already exists")
)

// APIError is a failed request to the persistence API.
// Message is suitable for showing to the user as-is.
type APIError struct {
	Err     error  // Underlying cause (transport error or a domain sentinel)
	Message string // User-facing message
	Status  int    // HTTP status (0 for transport failures)
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage renders err as a string that can be stored in a store's error
// field and shown directly to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnauthenticated) {
		return "Please log in again"
	}
	return err.Error()
}
