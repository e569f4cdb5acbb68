package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/realtime"
	"github.com/runoshun/boardsync/internal/usecase"
)

// Model is the main bubbletea model for the board.
type Model struct {
	// Dependencies (pointers first for alignment)
	container *app.Container
	drag      *usecase.DragController
	realtime  *realtime.Client
	snap      *engine.Snapshot
	ctx       context.Context
	cancel    context.CancelFunc
	updates   <-chan struct{}
	unsub     func()
	err       error

	projectID    string
	detailTaskID string
	confirmID    string

	// Components (structs with pointers)
	keys   KeyMap
	styles Styles
	help   help.Model

	// Input state (large structs)
	titleInput   textinput.Model
	commentInput textinput.Model

	// Cursor per column
	rows [3]int

	// Numeric state (smaller types last)
	mode          Mode
	confirmAction ConfirmAction
	col           int // Selected column
	dragTarget    int // Column the picked up card would be dropped into
	width         int
	height        int
}

// New creates a board Model for projectID.
func New(c *app.Container, projectID string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 200

	ci := textinput.New()
	ci.Placeholder = "Comment"
	ci.CharLimit = 1000

	ctx, cancel := context.WithCancel(context.Background())
	filter := domain.TaskFilter{ProjectID: projectID}

	return &Model{
		container:    c,
		drag:         c.DragController(),
		realtime:     c.RealtimeClient(filter),
		snap:         c.Board.Snapshot(),
		ctx:          ctx,
		cancel:       cancel,
		projectID:    projectID,
		keys:         DefaultKeyMap(),
		styles:       DefaultStyles(),
		help:         help.New(),
		titleInput:   ti,
		commentInput: ci,
		mode:         ModeNormal,
	}
}

// Init starts the board loop and the push connection, subscribes to
// snapshots and loads the tasks.
func (m *Model) Init() tea.Cmd {
	m.container.Start(m.ctx)
	m.updates, m.unsub = m.container.Board.Subscribe()

	cmds := []tea.Cmd{
		m.waitForUpdate(),
		m.loadTasks(),
		m.runPush(),
	}
	if domain.CanViewActivity(m.container.Session.Current()) {
		cmds = append(cmds, m.loadActivity())
	}
	return tea.Batch(cmds...)
}

// Close stops background work started by Init.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.cancel()
}

// waitForUpdate returns a command that waits for the next published snapshot.
func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	board := m.container.Board
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-updates:
			return MsgBoardUpdated{Snapshot: board.Snapshot()}
		case <-ctx.Done():
			return nil
		}
	}
}

// runPush returns a command that keeps the push channel open until quit.
func (m *Model) runPush() tea.Cmd {
	rc := m.realtime
	ctx := m.ctx
	return func() tea.Msg {
		err := rc.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return MsgPushStopped{Err: err}
	}
}

// loadTasks returns a command that reloads the project's tasks.
func (m *Model) loadTasks() tea.Cmd {
	uc := m.container.LoadTasksUseCase()
	ctx := m.ctx
	filter := m.realtime.Filter()
	return func() tea.Msg {
		// Failures are stored in the task store and shown from the snapshot.
		_, _ = uc.Execute(ctx, usecase.LoadTasksInput{Filter: filter})
		return MsgTasksLoaded{}
	}
}

// loadActivity returns a command that refetches the activity log.
func (m *Model) loadActivity() tea.Cmd {
	uc := m.container.RefreshActivityUseCase()
	ctx := m.ctx
	projectID := m.projectID
	return func() tea.Msg {
		if _, err := uc.Execute(ctx, usecase.RefreshActivityInput{ProjectID: projectID}); err != nil {
			return MsgError{Err: err}
		}
		return MsgActivityLoaded{}
	}
}

// loadComments returns a command that loads the comment history of a task.
func (m *Model) loadComments(taskID string) tea.Cmd {
	uc := m.container.LoadCommentsUseCase()
	ctx := m.ctx
	return func() tea.Msg {
		if _, err := uc.Execute(ctx, usecase.LoadCommentsInput{TaskID: taskID}); err != nil {
			return MsgError{Err: err}
		}
		return MsgCommentsLoaded{TaskID: taskID}
	}
}

// createTask returns a command that creates a task in status.
func (m *Model) createTask(title string, status domain.Status) tea.Cmd {
	uc := m.container.CreateTaskUseCase()
	ctx := m.ctx
	projectID := m.projectID
	return func() tea.Msg {
		out, err := uc.Execute(ctx, usecase.CreateTaskInput{
			ProjectID: projectID,
			Title:     title,
			Status:    status,
		})
		if err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskCreated{Task: out.Task}
	}
}

// deleteTask returns a command that deletes a task.
func (m *Model) deleteTask(taskID string) tea.Cmd {
	uc := m.container.DeleteTaskUseCase()
	ctx := m.ctx
	return func() tea.Msg {
		if _, err := uc.Execute(ctx, usecase.DeleteTaskInput{TaskID: taskID}); err != nil {
			return MsgError{Err: err}
		}
		return MsgTaskDeleted{TaskID: taskID}
	}
}

// addComment returns a command that submits a comment, appends it locally
// and refreshes the activity log for admins.
func (m *Model) addComment(taskID, text string) tea.Cmd {
	submit := m.container.SubmitCommentUseCase()
	appendUC := m.container.AppendCommentUseCase()
	refresh := m.container.RefreshActivityUseCase()
	canViewActivity := domain.CanViewActivity(m.container.Session.Current())
	ctx := m.ctx
	projectID := m.projectID
	return func() tea.Msg {
		out, err := submit.Execute(ctx, usecase.SubmitCommentInput{TaskID: taskID, Text: text})
		if err != nil {
			return MsgError{Err: err}
		}
		if _, err := appendUC.Execute(ctx, usecase.AppendCommentInput{TaskID: taskID, Comment: out.Comment}); err != nil {
			return MsgError{Err: err}
		}
		if canViewActivity {
			if _, err := refresh.Execute(ctx, usecase.RefreshActivityInput{ProjectID: projectID}); err != nil {
				return MsgError{Err: fmt.Errorf("refresh activity: %w", err)}
			}
		}
		return MsgCommentAdded{TaskID: taskID}
	}
}

// awaitMove returns a command that waits for the status edit of a drop.
func awaitMove(taskID string, done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return MsgMoveFinished{TaskID: taskID, Err: <-done}
	}
}
