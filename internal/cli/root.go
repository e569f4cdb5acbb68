// Package cli provides the command-line interface for boardsync.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/tui"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupBoard   = "board"
	groupSession = "session"
)

// launchBoardFunc is a function variable for launching the board TUI, allowing it to be mocked in tests.
var launchBoardFunc = launchBoard

// NewRootCommand creates the root command for boardsync.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "boardsync",
		Short: "Collaborative Kanban board client",
		Long: `boardsync is a client for a shared Kanban board.

Tasks live in three columns (To Do, In Progress, Done). Changes made by
other collaborators arrive over the push channel and are merged into the
local board as they happen.

Run 'boardsync board <project>' for the interactive board.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	// Define command groups
	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupBoard, Title: "Board Commands:"},
		&cobra.Group{ID: groupSession, Title: "Session Commands:"},
	)

	// Setup commands
	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	// Session commands
	loginCmd := newLoginCommand(c)
	loginCmd.GroupID = groupSession

	logoutCmd := newLogoutCommand(c)
	logoutCmd.GroupID = groupSession

	whoamiCmd := newWhoamiCommand(c)
	whoamiCmd.GroupID = groupSession

	// Board commands
	tasksCmd := newTasksCommand(c)
	tasksCmd.GroupID = groupBoard

	commentsCmd := newCommentsCommand(c)
	commentsCmd.GroupID = groupBoard

	activityCmd := newActivityCommand(c)
	activityCmd.GroupID = groupBoard

	watchCmd := newWatchCommand(c)
	watchCmd.GroupID = groupBoard

	boardCmd := newBoardCommand(c)
	boardCmd.GroupID = groupBoard

	root.AddCommand(
		configCmd,
		loginCmd,
		logoutCmd,
		whoamiCmd,
		tasksCmd,
		commentsCmd,
		activityCmd,
		watchCmd,
		boardCmd,
	)

	return root
}

// newBoardCommand creates the board command for launching the interactive board.
func newBoardCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "board <project>",
		Short: "Open the interactive board",
		Long: `Open the interactive Kanban board of a project.

Cards can be moved between columns with the keyboard. Moves are shown
immediately and persisted in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(c); err != nil {
				return err
			}
			return launchBoardFunc(cmd.Context(), c, args[0])
		},
	}
}

// launchBoard runs the board TUI until the user quits or ctx is done.
func launchBoard(ctx context.Context, c *app.Container, projectID string) error {
	model := tui.New(c, projectID)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
