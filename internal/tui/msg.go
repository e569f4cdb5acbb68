package tui

import (
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
)

// Msg is the sealed interface for all TUI messages.
// All message types must implement the sealed() method.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgBoardUpdated is sent when the board loop publishes a new snapshot.
type MsgBoardUpdated struct {
	Snapshot *engine.Snapshot
}

func (MsgBoardUpdated) sealed() {}

// MsgTasksLoaded is sent when a task load has finished.
// Failures are carried by the snapshot's error field.
type MsgTasksLoaded struct{}

func (MsgTasksLoaded) sealed() {}

// MsgTaskCreated is sent when the server has confirmed a new task.
type MsgTaskCreated struct {
	Task domain.Task
}

func (MsgTaskCreated) sealed() {}

// MsgTaskDeleted is sent when a task is deleted.
type MsgTaskDeleted struct {
	TaskID string
}

func (MsgTaskDeleted) sealed() {}

// MsgMoveFinished is sent when the status edit of a drop has been answered.
type MsgMoveFinished struct {
	Err    error
	TaskID string
}

func (MsgMoveFinished) sealed() {}

// MsgCommentAdded is sent when a comment was submitted and appended.
type MsgCommentAdded struct {
	TaskID string
}

func (MsgCommentAdded) sealed() {}

// MsgCommentsLoaded is sent when the comment history of a task was loaded.
type MsgCommentsLoaded struct {
	TaskID string
}

func (MsgCommentsLoaded) sealed() {}

// MsgActivityLoaded is sent when the activity log was fetched.
type MsgActivityLoaded struct{}

func (MsgActivityLoaded) sealed() {}

// MsgPushStopped is sent when the push channel gives up.
type MsgPushStopped struct {
	Err error
}

func (MsgPushStopped) sealed() {}

// MsgError is sent when an error occurs.
type MsgError struct {
	Err error
}

func (MsgError) sealed() {}

// MsgClearError is sent to clear the current error message.
type MsgClearError struct{}

func (MsgClearError) sealed() {}
