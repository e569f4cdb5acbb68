package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/boardsync/internal/domain"
)

const (
	minColumnWidth = 24
	dateLayout     = "2006-01-02"
	timeLayout     = "2006-01-02 15:04"
)

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.mode {
	case ModeHelp:
		content = m.viewHelp()
	case ModeDetail, ModeInputComment:
		content = m.viewDetail()
	case ModeActivity:
		content = m.viewActivity()
	case ModeNormal, ModeDrag, ModeInputTitle, ModeConfirm:
		content = m.viewMain()
	}

	return m.styles.App.Render(content)
}

// viewMain renders the board with its header and footer.
func (m *Model) viewMain() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewPresence())
	b.WriteString("\n\n")

	if msg := m.errorText(); msg != "" {
		b.WriteString(m.styles.ErrorMsg.Render("Error: "+msg) + "\n\n")
	}

	if m.snap.Tasks.Loading && len(m.snap.Tasks.Tasks) == 0 {
		b.WriteString(m.styles.Footer.Render("  Loading tasks..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.viewColumns())
		b.WriteString("\n")
	}

	switch m.mode {
	case ModeConfirm:
		b.WriteString("\n")
		b.WriteString(m.viewConfirmDialog())
	case ModeInputTitle:
		b.WriteString("\n")
		b.WriteString(m.viewTitleInput())
	case ModeNormal, ModeDrag, ModeInputComment, ModeDetail, ModeActivity, ModeHelp:
	}

	b.WriteString("\n")
	b.WriteString(m.viewFooter())

	return b.String()
}

// errorText returns the error to show, preferring the local one.
func (m *Model) errorText() string {
	if m.err != nil {
		return domain.UserMessage(m.err)
	}
	return m.snap.Tasks.Error
}

// viewHeader renders the title bar with the connection state.
func (m *Model) viewHeader() string {
	title := m.styles.HeaderText.Render("Board: " + m.projectID)

	session := m.container.Session.Current()
	user := session.Email
	if session.IsAdmin() {
		user += " (admin)"
	}
	conn := m.styles.Offline.Render("● offline")
	if m.realtime.Connected() {
		conn = m.styles.Online.Render("● connected")
	}
	rightText := lipgloss.NewStyle().Foreground(Colors.Muted).Render(user) + "  " + conn

	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(rightText) - 4
	if spacing < 2 {
		spacing = 2
	}
	return m.styles.Header.Render(title + strings.Repeat(" ", spacing) + rightText)
}

// viewPresence renders the users currently on the board.
func (m *Model) viewPresence() string {
	if len(m.snap.Presence) == 0 {
		return m.styles.Footer.Render("Online: nobody")
	}
	session := m.container.Session.Current()
	names := make([]string, 0, len(m.snap.Presence))
	for _, p := range m.snap.Presence {
		if domain.IsSelf(session, p) {
			names = append(names, m.styles.Self.Render(p.Email+" (you)"))
			continue
		}
		names = append(names, m.styles.Presence.Render(p.Email))
	}
	return m.styles.Footer.Render("Online: ") + strings.Join(names, ", ")
}

// viewColumns renders the three status columns side by side.
func (m *Model) viewColumns() string {
	board := m.board()
	width := m.columnWidth(len(board.Columns))

	cols := make([]string, 0, len(board.Columns))
	for i, col := range board.Columns {
		cols = append(cols, m.viewColumn(i, col, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *Model) columnWidth(n int) int {
	if n == 0 {
		return minColumnWidth
	}
	// Two border cells and two padding cells per column.
	w := (m.width-4)/n - 4
	if w < minColumnWidth {
		return minColumnWidth
	}
	return w
}

func (m *Model) viewColumn(idx int, col domain.Column, width int) string {
	style := m.styles.Column
	switch {
	case m.mode == ModeDrag && idx == m.dragTarget:
		style = m.styles.ColumnTarget
	case idx == m.col:
		style = m.styles.ColumnActive
	}

	header := m.styles.StatusStyle(col.Status).Render(
		fmt.Sprintf("%s %s (%d)", StatusIcon(col.Status), col.Status.Display(), len(col.Tasks)))

	lines := []string{m.styles.ColumnTitle.Render(header)}
	if len(col.Tasks) == 0 {
		lines = append(lines, m.styles.CardMeta.Render("(empty)"))
	}
	for row, task := range col.Tasks {
		selected := idx == m.col && row == m.rows[idx]
		lines = append(lines, m.renderCard(task, selected, width))
	}

	return style.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderCard renders one task card.
func (m *Model) renderCard(task domain.Task, selected bool, width int) string {
	dragged := m.mode == ModeDrag && task.ID == m.drag.TaskID()

	cursor := "  "
	titleStyle := m.styles.Card
	switch {
	case dragged:
		cursor = "⇄ "
		titleStyle = m.styles.CardDragged
	case selected:
		cursor = "> "
		titleStyle = m.styles.CardSelected
	}

	title := truncate(task.Title, width-len(cursor))
	line := cursor + titleStyle.Render(title)
	if m.snap.Tasks.Pending[task.ID] {
		line += " " + m.styles.Pending.Render("…")
	}

	var meta []string
	if task.Priority != "" {
		meta = append(meta, string(task.Priority))
	}
	if task.AssigneeEmail != "" {
		meta = append(meta, "@"+task.AssigneeEmail)
	}
	if len(task.Comments) > 0 {
		meta = append(meta, fmt.Sprintf("%d comments", len(task.Comments)))
	}

	lines := []string{line}
	if len(meta) > 0 {
		lines = append(lines, "  "+m.styles.CardMeta.Render(truncate(strings.Join(meta, " · "), width-2)))
	}
	if task.Deadline != nil {
		due := "due " + task.Deadline.Format(dateLayout)
		if task.Overdue(m.container.Clock.Now()) {
			lines = append(lines, "  "+m.styles.Overdue.Render(due+" (overdue)"))
		} else {
			lines = append(lines, "  "+m.styles.CardMeta.Render(due))
		}
	}
	if editor, ok := m.snap.Editing[task.ID]; ok {
		lines = append(lines, "  "+m.styles.Editing.Render("✎ "+editor))
	}
	return strings.Join(lines, "\n")
}

// viewConfirmDialog renders the delete confirmation.
func (m *Model) viewConfirmDialog() string {
	target := m.confirmID
	if task, ok := m.task(m.confirmID); ok {
		target = fmt.Sprintf("%q", task.Title)
	}

	action := m.confirmAction.String()
	if action != "" {
		action = strings.ToUpper(action[:1]) + action[1:]
	}
	title := m.styles.DialogTitle.Foreground(Colors.Error).
		Render(fmt.Sprintf("%s %s?", action, target))
	prompt := m.styles.DialogPrompt.Render("This action cannot be undone.")
	buttons := lipgloss.JoinHorizontal(lipgloss.Left,
		m.styles.FooterKey.Render("[ y ] Confirm"), "  ", m.styles.Footer.Render("[ n ] Cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", prompt, "", buttons)
	return m.styles.Dialog.BorderForeground(Colors.Error).Render(content)
}

// viewTitleInput renders the new task dialog.
func (m *Model) viewTitleInput() string {
	status := domain.AllStatuses()[m.col]
	title := m.styles.DialogTitle.Render("◆ New Task")
	column := m.styles.Footer.Render("Column: " + status.Display())
	label := m.styles.InputPrompt.Render("Title")
	input := m.styles.Input.Render(m.titleInput.View())
	hint := m.styles.FooterKey.Render("enter") + m.styles.Footer.Render(" create  ") +
		m.styles.FooterKey.Render("esc") + m.styles.Footer.Render(" cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, title, column, "", label, input, "", hint)
	return m.styles.Dialog.Render(content)
}

// viewFooter renders the key hints for the current mode.
func (m *Model) viewFooter() string {
	switch m.mode {
	case ModeDrag:
		return m.styles.Footer.Render(
			m.styles.FooterKey.Render("←/→") + " choose column  " +
				m.styles.FooterKey.Render("space/enter") + " drop  " +
				m.styles.FooterKey.Render("esc") + " drop outside")
	case ModeInputTitle, ModeInputComment:
		return m.styles.Footer.Render("enter submit · esc cancel")
	case ModeConfirm:
		return m.styles.Footer.Render("y confirm · any key cancel")
	case ModeNormal, ModeDetail, ModeActivity, ModeHelp:
	}
	return m.help.View(m.keys)
}

// viewDetail renders one task with its comments.
func (m *Model) viewDetail() string {
	task, ok := m.task(m.detailTaskID)
	if !ok {
		return m.styles.ErrorMsg.Render("Task not found") + "\n\n" +
			m.styles.Footer.Render("esc back")
	}

	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render(fmt.Sprintf("%s  %s", task.ID, task.Title)))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(m.styles.DetailLabel.Render(label))
		b.WriteString(m.styles.DetailValue.Render(value))
		b.WriteString("\n")
	}
	row("Status", m.styles.StatusStyle(task.Status).Render(StatusIcon(task.Status)+" "+task.Status.Display()))
	row("Priority", orDash(string(task.Priority)))
	row("Assignee", orDash(task.AssigneeEmail))
	deadline := "-"
	if task.Deadline != nil {
		deadline = task.Deadline.Format(dateLayout)
		if task.Overdue(m.container.Clock.Now()) {
			deadline = m.styles.Overdue.Render(deadline + " (overdue)")
		}
	}
	row("Deadline", deadline)
	row("Tags", orDash(strings.Join(task.Tags, ", ")))
	if editor, ok := m.snap.Editing[task.ID]; ok {
		row("Editing", m.styles.Editing.Render(editor))
	}
	if task.Description != "" {
		b.WriteString(m.styles.DetailDesc.Render(task.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.HeaderText.Render(fmt.Sprintf("Comments (%d)", len(task.Comments))))
	b.WriteString("\n")
	if len(task.Comments) == 0 {
		b.WriteString(m.styles.Footer.Render("  No comments"))
		b.WriteString("\n")
	}
	for _, c := range task.Comments {
		author := "unknown"
		if c.Author != nil && c.Author.Email != "" {
			author = c.Author.Email
		}
		b.WriteString(m.styles.CardMeta.Render(fmt.Sprintf("  [%s] %s: ", formatTime(c), author)))
		b.WriteString(c.Text)
		b.WriteString("\n")
	}

	if msg := m.errorText(); msg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.ErrorMsg.Render("Error: " + msg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == ModeInputComment {
		b.WriteString(m.styles.InputPrompt.Render("Comment"))
		b.WriteString("\n")
		b.WriteString(m.styles.Input.Render(m.commentInput.View()))
		b.WriteString("\n")
		b.WriteString(m.viewFooter())
		return b.String()
	}

	hint := m.styles.FooterKey.Render("esc") + m.styles.Footer.Render(" back")
	if domain.CanComment(m.container.Session.Current(), task) {
		hint = m.styles.FooterKey.Render("c") + m.styles.Footer.Render(" comment  ") + hint
	}
	b.WriteString(hint)
	return b.String()
}

// viewActivity renders the project's activity log.
func (m *Model) viewActivity() string {
	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render("Activity: " + m.projectID))
	b.WriteString("\n")

	act := m.snap.Activity
	switch {
	case act.Error != "":
		b.WriteString(m.styles.ErrorMsg.Render("Error: " + act.Error))
		b.WriteString("\n")
	case act.Loading && len(act.Entries) == 0:
		b.WriteString(m.styles.Footer.Render("  Loading..."))
		b.WriteString("\n")
	case len(act.Entries) == 0:
		b.WriteString(m.styles.Footer.Render("  No activity"))
		b.WriteString("\n")
	}

	for _, e := range act.Entries {
		when := "-"
		if !e.CreatedAt.IsZero() {
			when = e.CreatedAt.Local().Format(timeLayout)
		}
		b.WriteString(m.styles.CardMeta.Render(when + "  "))
		b.WriteString(m.styles.Presence.Render(e.User.Email))
		b.WriteString(" " + e.Action)
		if e.Details != "" {
			b.WriteString(" " + m.styles.Footer.Render(e.Details))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.FooterKey.Render("esc") + m.styles.Footer.Render(" back"))
	return b.String()
}

// viewHelp renders the full key reference.
func (m *Model) viewHelp() string {
	h := m.help
	h.ShowAll = true

	var b strings.Builder
	b.WriteString(m.styles.DetailTitle.Render("Keybindings"))
	b.WriteString("\n")
	b.WriteString(h.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Footer.Render("Markers: "))
	b.WriteString(m.styles.Pending.Render("…") + m.styles.Footer.Render(" saving  "))
	b.WriteString(m.styles.Editing.Render("✎") + m.styles.Footer.Render(" being edited  "))
	b.WriteString(m.styles.Overdue.Render("overdue") + m.styles.Footer.Render(" past deadline"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.FooterKey.Render("esc") + m.styles.Footer.Render(" back"))
	return b.String()
}

func formatTime(c domain.Comment) string {
	if c.CreatedAt.IsZero() {
		return "-"
	}
	return c.CreatedAt.Local().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to at most n cells.
func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
