package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/usecase"
)

// dateLayout is the format of --deadline values and printed deadlines.
const dateLayout = "2006-01-02"

// requireSession fails unless a non-expired session is present.
func requireSession(c *app.Container) error {
	s := c.Session.Current()
	if !s.Authenticated() {
		return fmt.Errorf("%w: run 'boardsync login' first", domain.ErrUnauthenticated)
	}
	if s.Expired(c.Clock.Now()) {
		return fmt.Errorf("%w: session expired, run 'boardsync login' again", domain.ErrUnauthenticated)
	}
	return nil
}

// openBoard starts the board loop and loads the tasks matching filter.
func openBoard(cmd *cobra.Command, c *app.Container, filter domain.TaskFilter) (*engine.Snapshot, error) {
	if err := requireSession(c); err != nil {
		return nil, err
	}
	c.Start(cmd.Context())

	if _, err := c.LoadTasksUseCase().Execute(cmd.Context(), usecase.LoadTasksInput{Filter: filter}); err != nil {
		return nil, err
	}
	return c.Board.Snapshot(), nil
}

// findTask looks up id in the loaded tasks.
func findTask(snap *engine.Snapshot, id string) (domain.Task, error) {
	for _, t := range snap.Tasks.Tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, fmt.Errorf("%s: %w", id, domain.ErrTaskNotFound)
}

// locate returns the column and index of a task on the board.
func locate(b domain.Board, id string) (usecase.Location, bool) {
	for _, col := range b.Columns {
		for i, t := range col.Tasks {
			if t.ID == id {
				return usecase.Location{Status: col.Status, Index: i}, true
			}
		}
	}
	return usecase.Location{}, false
}

// parseDeadline parses a --deadline value. An empty value yields nil.
func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q: expected YYYY-MM-DD", s)
	}
	return &d, nil
}

// printBoard writes each column of b as a table.
func printBoard(w io.Writer, b domain.Board, now time.Time) {
	for i, col := range b.Columns {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s (%d)\n", col.Status, len(col.Tasks))
		if len(col.Tasks) == 0 {
			_, _ = fmt.Fprintln(w, "  (empty)")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(tw, "  ID\tTITLE\tPRIORITY\tASSIGNEE\tDEADLINE\tTAGS")
		for _, t := range col.Tasks {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID,
				t.Title,
				orDash(string(t.Priority)),
				orDash(t.AssigneeEmail),
				formatDeadline(t, now),
				orDash(strings.Join(t.Tags, ",")),
			)
		}
		_ = tw.Flush()
	}
}

// printTask writes the details of one task.
func printTask(w io.Writer, t domain.Task, now time.Time) {
	_, _ = fmt.Fprintf(w, "# %s: %s\n\n", t.ID, t.Title)
	if t.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", t.Description)
	}
	_, _ = fmt.Fprintf(w, "Status: %s\n", t.Status.Display())
	if t.Priority != "" {
		_, _ = fmt.Fprintf(w, "Priority: %s\n", t.Priority)
	}
	if t.AssigneeEmail != "" {
		_, _ = fmt.Fprintf(w, "Assignee: %s\n", t.AssigneeEmail)
	}
	if t.Deadline != nil {
		_, _ = fmt.Fprintf(w, "Deadline: %s\n", formatDeadline(t, now))
	}
	if len(t.Tags) > 0 {
		_, _ = fmt.Fprintf(w, "Tags: [%s]\n", strings.Join(t.Tags, ", "))
	}
}

// printComments writes a task's comment history oldest first.
func printComments(w io.Writer, comments []domain.Comment) {
	if len(comments) == 0 {
		_, _ = fmt.Fprintln(w, "No comments")
		return
	}
	for _, cm := range comments {
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", formatTime(cm.CreatedAt), commentAuthor(cm), cm.Text)
	}
}

// printActivity writes activity entries as a table.
func printActivity(w io.Writer, entries []domain.ActivityEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "No activity")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tUSER\tACTION\tDETAILS")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			formatTime(e.CreatedAt),
			orDash(e.User.Email),
			e.Action,
			orDash(e.Details),
		)
	}
	_ = tw.Flush()
}

func formatDeadline(t domain.Task, now time.Time) string {
	if t.Deadline == nil {
		return "-"
	}
	s := t.Deadline.Format(dateLayout)
	if t.Overdue(now) {
		s += " (overdue)"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func commentAuthor(cm domain.Comment) string {
	if cm.Author == nil || cm.Author.Email == "" {
		return "unknown"
	}
	return cm.Author.Email
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
