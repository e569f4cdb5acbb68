package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/usecase"
)

var (
	errAdminOnlyDelete   = errors.New("only admins can delete tasks")
	errAdminOnlyActivity = errors.New("only admins can view the activity log")
	errCannotComment     = errors.New("you can only comment on tasks assigned to you")
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case MsgBoardUpdated:
		if msg.Snapshot != nil {
			m.snap = msg.Snapshot
			m.clampCursors()
		}
		return m, m.waitForUpdate()

	case MsgTasksLoaded:
		return m, nil

	case MsgTaskCreated:
		m.mode = ModeNormal
		m.titleInput.Reset()
		m.snap = m.container.Board.Snapshot()
		m.selectTask(msg.Task.ID)
		return m, nil

	case MsgTaskDeleted:
		m.mode = ModeNormal
		m.confirmAction = ConfirmNone
		m.confirmID = ""
		return m, nil

	case MsgMoveFinished:
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case MsgCommentAdded:
		m.mode = ModeDetail
		m.detailTaskID = msg.TaskID
		m.commentInput.Reset()
		return m, nil

	case MsgCommentsLoaded, MsgActivityLoaded:
		return m, nil

	case MsgPushStopped:
		if msg.Err != nil {
			m.err = fmt.Errorf("push channel: %w", msg.Err)
		}
		return m, nil

	case MsgError:
		m.err = msg.Err
		if m.mode.IsInputMode() || m.mode == ModeConfirm {
			m.mode = ModeNormal
		}
		m.confirmAction = ConfirmNone
		return m, nil

	case MsgClearError:
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	switch m.mode {
	case ModeDrag:
		return m.handleDragMode(msg)
	case ModeInputTitle:
		return m.handleInputTitleMode(msg)
	case ModeInputComment:
		return m.handleInputCommentMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	case ModeDetail:
		return m.handleDetailMode(msg)
	case ModeActivity, ModeHelp:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Quit) ||
			key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Activity) {
			m.mode = ModeNormal
		}
		return m, nil
	case ModeNormal:
		return m.handleNormalMode(msg)
	}
	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key press clears a shown error.
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Up):
		if m.rows[m.col] > 0 {
			m.rows[m.col]--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.rows[m.col] < len(m.columnTasks(m.col))-1 {
			m.rows[m.col]++
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.col < len(domain.AllStatuses())-1 {
			m.col++
		}
		return m, nil

	case key.Matches(msg, m.keys.Grab):
		return m.beginDrag()

	case key.Matches(msg, m.keys.Detail):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.mode = ModeDetail
		m.detailTaskID = task.ID
		return m, m.loadComments(task.ID)

	case key.Matches(msg, m.keys.New):
		m.mode = ModeInputTitle
		m.titleInput.Reset()
		return m, m.titleInput.Focus()

	case key.Matches(msg, m.keys.Comment):
		return m.beginComment()

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if !domain.CanDelete(m.container.Session.Current()) {
			m.err = errAdminOnlyDelete
			return m, nil
		}
		m.mode = ModeConfirm
		m.confirmAction = ConfirmDelete
		m.confirmID = task.ID
		return m, nil

	case key.Matches(msg, m.keys.Activity):
		if !domain.CanViewActivity(m.container.Session.Current()) {
			m.err = errAdminOnlyActivity
			return m, nil
		}
		m.mode = ModeActivity
		return m, m.loadActivity()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadTasks()

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
		return m, nil
	}

	return m, nil
}

// beginDrag picks up the selected card.
func (m *Model) beginDrag() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	source := usecase.Location{Status: domain.AllStatuses()[m.col], Index: m.rows[m.col]}
	if err := m.drag.Begin(task.ID, source); err != nil {
		m.err = err
		return m, nil
	}
	m.mode = ModeDrag
	m.dragTarget = m.col
	return m, nil
}

func (m *Model) handleDragMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.dragTarget > 0 {
			m.dragTarget--
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.dragTarget < len(domain.AllStatuses())-1 {
			m.dragTarget++
		}
		return m, nil

	case key.Matches(msg, m.keys.Grab), key.Matches(msg, m.keys.Drop):
		status := domain.AllStatuses()[m.dragTarget]
		dest := &usecase.Location{Status: status, Index: len(m.columnTasks(m.dragTarget))}
		return m.endDrag(dest)

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit):
		// Dropped outside any column.
		return m.endDrag(nil)
	}
	return m, nil
}

// endDrag drops the picked up card at dest. The board shows the move as soon
// as it is applied; the status edit is awaited in the background.
func (m *Model) endDrag(dest *usecase.Location) (tea.Model, tea.Cmd) {
	taskID := m.drag.TaskID()
	m.mode = ModeNormal

	out, err := m.drag.End(m.ctx, dest)
	if err != nil {
		m.err = err
		return m, nil
	}
	if !out.Moved {
		return m, nil
	}

	m.snap = m.container.Board.Snapshot()
	m.col = m.dragTarget
	m.selectTask(taskID)
	return m, awaitMove(taskID, out.Done)
}

// beginComment opens the comment input for the selected task.
func (m *Model) beginComment() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	return m.openCommentInput(task)
}

func (m *Model) openCommentInput(task domain.Task) (tea.Model, tea.Cmd) {
	if !domain.CanComment(m.container.Session.Current(), task) {
		m.err = errCannotComment
		return m, nil
	}
	m.mode = ModeInputComment
	m.detailTaskID = task.ID
	m.commentInput.Reset()
	return m, m.commentInput.Focus()
}

func (m *Model) handleInputTitleMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.titleInput.Blur()
		return m, nil
	case tea.KeyEnter:
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			m.err = domain.ErrEmptyTitle
			return m, nil
		}
		m.titleInput.Blur()
		return m, m.createTask(title, domain.AllStatuses()[m.col])
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m *Model) handleInputCommentMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.commentInput.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.commentInput.Value())
		if text == "" {
			m.err = domain.ErrEmptyComment
			return m, nil
		}
		m.commentInput.Blur()
		return m, m.addComment(m.detailTaskID, text)
	}

	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) && m.confirmAction == ConfirmDelete {
		return m, m.deleteTask(m.confirmID)
	}
	m.mode = ModeNormal
	m.confirmAction = ConfirmNone
	m.confirmID = ""
	return m, nil
}

func (m *Model) handleDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Detail):
		m.mode = ModeNormal
		return m, nil
	case key.Matches(msg, m.keys.Comment):
		task, ok := m.task(m.detailTaskID)
		if !ok {
			m.mode = ModeNormal
			return m, nil
		}
		return m.openCommentInput(task)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

// board returns the current snapshot grouped into columns.
func (m *Model) board() domain.Board {
	return domain.BuildBoard(m.projectID, m.snap.Tasks.Tasks)
}

// columnTasks returns the tasks shown in column col.
func (m *Model) columnTasks(col int) []domain.Task {
	b := m.board()
	if col < 0 || col >= len(b.Columns) {
		return nil
	}
	return b.Columns[col].Tasks
}

// selectedTask returns the task under the cursor.
func (m *Model) selectedTask() (domain.Task, bool) {
	tasks := m.columnTasks(m.col)
	row := m.rows[m.col]
	if row < 0 || row >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[row], true
}

// task returns a loaded task by ID.
func (m *Model) task(id string) (domain.Task, bool) {
	for _, t := range m.snap.Tasks.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// selectTask moves the cursor to task id if it is on the board.
func (m *Model) selectTask(id string) {
	for c, col := range m.board().Columns {
		for r, t := range col.Tasks {
			if t.ID == id {
				m.col = c
				m.rows[c] = r
				return
			}
		}
	}
}

// clampCursors keeps every column cursor within its column.
func (m *Model) clampCursors() {
	for c := range m.rows {
		n := len(m.columnTasks(c))
		if m.rows[c] >= n {
			m.rows[c] = n - 1
		}
		if m.rows[c] < 0 {
			m.rows[c] = 0
		}
	}
}
