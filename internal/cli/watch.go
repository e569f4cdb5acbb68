package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/usecase"
)

// newWatchCommand creates the watch command.
func newWatchCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project>",
		Short: "Follow live changes to a project",
		Long: `Connect to the push channel and print changes to a project as
they arrive: task moves, new comments, who is online, who is editing and,
for admins, new activity entries.

Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, c, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, c *app.Container, projectID string) error {
	ctx := cmd.Context()
	filter := domain.TaskFilter{ProjectID: projectID}
	snap, err := openBoard(cmd, c, filter)
	if err != nil {
		return err
	}
	session := c.Session.Current()
	if domain.CanViewActivity(session) {
		if _, err := c.RefreshActivityUseCase().Execute(ctx, usecase.RefreshActivityInput{ProjectID: projectID}); err != nil {
			c.Logger.Warn("activity", fmt.Sprintf("initial fetch: %v", err))
		}
		snap = c.Board.Snapshot()
	}

	updates, unsubscribe := c.Board.Subscribe()
	defer unsubscribe()

	w := cmd.OutOrStdout()
	bw := newBoardWatcher(session)
	bw.observe(snap, io.Discard)
	_, _ = fmt.Fprintf(w, "Watching %s: %d tasks (Ctrl+C to stop)\n", projectID, snap.Board().Count())

	rc := c.RealtimeClient(filter)
	runErr := make(chan error, 1)
	go func() { runErr <- rc.Run(ctx) }()

	for {
		select {
		case <-updates:
			bw.observe(c.Board.Snapshot(), w)
		case err := <-runErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("push channel: %w", err)
			}
			return nil
		}
	}
}

// boardWatcher prints the differences between consecutive snapshots.
// Fields are ordered to minimize memory padding.
type boardWatcher struct {
	tasks    map[string]domain.Task
	comments map[string]int
	activity map[string]bool
	editing  map[string]string
	session  domain.Session
	online   string
	lastErr  string
	version  uint64
}

func newBoardWatcher(s domain.Session) *boardWatcher {
	return &boardWatcher{
		tasks:    make(map[string]domain.Task),
		comments: make(map[string]int),
		activity: make(map[string]bool),
		editing:  make(map[string]string),
		session:  s,
	}
}

// observe writes one line per change since the previous snapshot.
// Snapshots older than the last observed one are ignored.
func (bw *boardWatcher) observe(snap *engine.Snapshot, w io.Writer) {
	if snap.Version != 0 && snap.Version <= bw.version {
		return
	}
	bw.version = snap.Version

	bw.observePresence(snap.Presence, w)
	bw.observeTasks(snap.Tasks.Tasks, w)
	bw.observeEditing(snap.Editing, w)
	bw.observeActivity(snap.Activity.Entries, w)

	if snap.Tasks.Error != bw.lastErr {
		bw.lastErr = snap.Tasks.Error
		if bw.lastErr != "" {
			_, _ = fmt.Fprintf(w, "Error: %s\n", bw.lastErr)
		}
	}
}

func (bw *boardWatcher) observePresence(entries []domain.PresenceEntry, w io.Writer) {
	names := make([]string, 0, len(entries))
	for _, p := range entries {
		name := p.Email
		if domain.IsSelf(bw.session, p) {
			name += " (you)"
		}
		names = append(names, name)
	}
	slices.Sort(names)
	online := strings.Join(names, ", ")
	if online == bw.online {
		return
	}
	bw.online = online
	if online == "" {
		_, _ = fmt.Fprintln(w, "Online: nobody")
		return
	}
	_, _ = fmt.Fprintf(w, "Online: %s\n", online)
}

func (bw *boardWatcher) observeTasks(tasks []domain.Task, w io.Writer) {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		seen[t.ID] = true
		prev, ok := bw.tasks[t.ID]
		bw.tasks[t.ID] = t

		switch {
		case !ok:
			_, _ = fmt.Fprintf(w, "%s added to %s: %s\n", t.ID, t.Status, t.Title)
		case prev.Status != t.Status:
			_, _ = fmt.Fprintf(w, "%s moved from %s to %s\n", t.ID, prev.Status, t.Status)
		case prev.Title != t.Title:
			_, _ = fmt.Fprintf(w, "%s renamed: %s\n", t.ID, t.Title)
		}

		// Comments are append-only, so anything past the previous count is new.
		n := bw.comments[t.ID]
		if ok && len(t.Comments) > n {
			for _, cm := range t.Comments[n:] {
				_, _ = fmt.Fprintf(w, "%s comment by %s: %s\n", t.ID, commentAuthor(cm), cm.Text)
			}
		}
		bw.comments[t.ID] = len(t.Comments)
	}

	var removed []string
	for id := range bw.tasks {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	slices.Sort(removed)
	for _, id := range removed {
		delete(bw.tasks, id)
		delete(bw.comments, id)
		_, _ = fmt.Fprintf(w, "%s removed\n", id)
	}
}

func (bw *boardWatcher) observeEditing(editing map[string]string, w io.Writer) {
	ids := make([]string, 0, len(editing)+len(bw.editing))
	for id := range editing {
		ids = append(ids, id)
	}
	for id := range bw.editing {
		if _, ok := editing[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		user, now := editing[id]
		prev, before := bw.editing[id]
		switch {
		case now && (!before || prev != user):
			_, _ = fmt.Fprintf(w, "%s is being edited by %s\n", id, user)
		case !now && before:
			_, _ = fmt.Fprintf(w, "%s is no longer being edited\n", id)
		}
	}

	bw.editing = make(map[string]string, len(editing))
	for id, user := range editing {
		bw.editing[id] = user
	}
}

func (bw *boardWatcher) observeActivity(entries []domain.ActivityEntry, w io.Writer) {
	for _, e := range entries {
		if e.ID == "" || bw.activity[e.ID] {
			continue
		}
		bw.activity[e.ID] = true
		line := strings.TrimSpace(fmt.Sprintf("%s %s %s", orDash(e.User.Email), e.Action, e.Details))
		_, _ = fmt.Fprintf(w, "Activity: %s\n", line)
	}
}
