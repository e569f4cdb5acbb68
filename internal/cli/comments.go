package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/usecase"
)

var errActivityAdminOnly = errors.New("only admins can view the activity log")

// newCommentsCommand creates the comments command.
func newCommentsCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Read and add task comments",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newCommentsListCommand(c))
	cmd.AddCommand(newCommentsAddCommand(c))

	return cmd
}

// newCommentsListCommand creates the comments list subcommand.
func newCommentsListCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "list <project> <task>",
		Aliases: []string{"ls"},
		Short:   "Show the comment history of a task",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]})
			if err != nil {
				return err
			}
			if _, err := findTask(snap, args[1]); err != nil {
				return err
			}

			out, err := c.LoadCommentsUseCase().Execute(cmd.Context(), usecase.LoadCommentsInput{TaskID: args[1]})
			if err != nil {
				return err
			}
			printComments(cmd.OutOrStdout(), out.Comments)
			return nil
		},
	}
}

// newCommentsAddCommand creates the comments add subcommand.
func newCommentsAddCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <task> <text>",
		Short: "Comment on a task",
		Long: `Add a comment to a task.

Admins can comment on any task; other users only on tasks assigned to them.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, taskID, text := args[0], args[1], args[2]

			snap, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: projectID})
			if err != nil {
				return err
			}
			task, err := findTask(snap, taskID)
			if err != nil {
				return err
			}
			session := c.Session.Current()
			if !domain.CanComment(session, task) {
				return fmt.Errorf("cannot comment on %s: task is not assigned to you", taskID)
			}

			out, err := c.SubmitCommentUseCase().Execute(cmd.Context(), usecase.SubmitCommentInput{
				TaskID: taskID,
				Text:   text,
			})
			if err != nil {
				return err
			}
			if _, err := c.AppendCommentUseCase().Execute(cmd.Context(), usecase.AppendCommentInput{
				TaskID:  taskID,
				Comment: out.Comment,
			}); err != nil {
				return err
			}
			if domain.CanViewActivity(session) {
				if _, err := c.RefreshActivityUseCase().Execute(cmd.Context(), usecase.RefreshActivityInput{ProjectID: projectID}); err != nil {
					c.Logger.Warn("activity", fmt.Sprintf("refresh after comment: %v", err))
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s to %s\n", orDash(out.Comment.ID), taskID)
			return nil
		},
	}
}

// newActivityCommand creates the activity command.
func newActivityCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "activity <project>",
		Short: "Show the activity log of a project (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(c); err != nil {
				return err
			}
			if !domain.CanViewActivity(c.Session.Current()) {
				return errActivityAdminOnly
			}
			c.Start(cmd.Context())

			out, err := c.RefreshActivityUseCase().Execute(cmd.Context(), usecase.RefreshActivityInput{ProjectID: args[0]})
			if err != nil {
				return err
			}
			printActivity(cmd.OutOrStdout(), out.Entries)
			return nil
		},
	}
}
