package domain

import (
	"context"
	"time"
)

// BoardAPI is the persistence collaborator reached over REST.
// Every method except Login carries the session's bearer credential.
type BoardAPI interface {
	// Login exchanges credentials for a session.
	Login(ctx context.Context, email, password string) (Session, error)

	// ListTasks returns the tasks of filter.ProjectID matching the filter.
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)

	// CreateTask creates a task and returns it as stored by the server.
	CreateTask(ctx context.Context, draft TaskDraft) (*Task, error)

	// UpdateTask applies a partial update and returns the fields of the
	// updated task that the server sent back.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (*TaskPatch, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// ListComments returns the comment history of a task.
	ListComments(ctx context.Context, taskID string) ([]Comment, error)

	// AddComment creates a comment on a task.
	AddComment(ctx context.Context, taskID, text string) (*Comment, error)

	// ListActivity returns the activity log of a project.
	ListActivity(ctx context.Context, projectID string) ([]ActivityEntry, error)
}

// PushChannel is the long-lived, server-initiated event connection.
type PushChannel interface {
	// Run keeps the connection open until ctx is done, reconnecting after drops.
	// Handler callbacks are invoked from Run's goroutines.
	Run(ctx context.Context, h PushHandler) error

	// Emit sends an outbound event. Returns ErrNotConnected when no connection is open.
	Emit(ctx context.Context, ev PushEvent) error
}

// PushHandler receives connection lifecycle and inbound events from a PushChannel.
type PushHandler interface {
	// OnConnected is called after every successful (re)connect.
	OnConnected(ctx context.Context)

	// OnEvent is called for every decoded inbound event.
	OnEvent(ctx context.Context, ev PushEvent)

	// OnDisconnected is called when an open connection is lost.
	OnDisconnected(err error)
}

// SessionStore persists the session across restarts.
type SessionStore interface {
	// Load returns the persisted session, or the zero session if none exists.
	Load() (Session, error)

	// Save persists the session.
	Save(s Session) error

	// Clear removes the persisted session.
	Clear() error
}

// ConfigLoader loads configuration from files and the environment.
type ConfigLoader interface {
	// Load returns the merged configuration (defaults <- global <- local <- environment).
	Load() (*Config, error)
}

// Logger writes categorized log lines.
type Logger interface {
	Debug(category, msg string)
	Info(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}

// NopLogger discards all log lines.
type NopLogger struct{}

func (NopLogger) Debug(_, _ string) {}
func (NopLogger) Info(_, _ string)  {}
func (NopLogger) Warn(_, _ string)  {}
func (NopLogger) Error(_, _ string) {}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// ConfigManager inspects and creates config files.
type ConfigManager interface {
	// GlobalConfigInfo describes the global config file.
	GlobalConfigInfo() ConfigInfo

	// LocalConfigInfo describes the per-directory config file.
	LocalConfigInfo() ConfigInfo

	// InitLocalConfig writes a template to the per-directory config file.
	// Returns ErrConfigExists if it already exists.
	InitLocalConfig(cfg *Config) error

	// InitGlobalConfig writes a template to the global config file.
	// Returns ErrConfigExists if it already exists.
	InitGlobalConfig(cfg *Config) error
}
