package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/usecase"
)

var (
	errAdminOnly = errors.New("only admins can delete tasks")
	errNotEditor = errors.New("only admins and the task's creator can edit it")
)

// newTasksCommand creates the tasks command.
func newTasksCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and change tasks of a project",
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newTasksListCommand(c))
	cmd.AddCommand(newTasksShowCommand(c))
	cmd.AddCommand(newTasksCreateCommand(c))
	cmd.AddCommand(newTasksEditCommand(c))
	cmd.AddCommand(newTasksMoveCommand(c))
	cmd.AddCommand(newTasksDeleteCommand(c))

	return cmd
}

// newTasksListCommand creates the tasks list subcommand.
func newTasksListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		title    string
		tag      string
		assignee string
		priority string
	}

	cmd := &cobra.Command{
		Use:     "list <project>",
		Aliases: []string{"ls"},
		Short:   "Show the board of a project",
		Long: `Show the tasks of a project grouped into the To Do, In Progress
and Done columns.

Filters are applied by the server:
  --title     title substring
  --tag       tasks carrying the tag
  --assignee  tasks assigned to the user
  --priority  Low, Medium or High`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.TaskFilter{
				ProjectID: args[0],
				Title:     opts.title,
				Tag:       opts.tag,
				Assignee:  opts.assignee,
			}
			if opts.priority != "" {
				p, err := domain.ParsePriority(opts.priority)
				if err != nil {
					return err
				}
				filter.Priority = p
			}

			snap, err := openBoard(cmd, c, filter)
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), snap.Board(), c.Clock.Now())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Filter by title substring")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&opts.assignee, "assignee", "", "Filter by assignee")
	cmd.Flags().StringVar(&opts.priority, "priority", "", "Filter by priority (low, medium, high)")

	return cmd
}

// newTasksShowCommand creates the tasks show subcommand.
func newTasksShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project> <task>",
		Short: "Show task details and comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]}); err != nil {
				return err
			}
			if _, err := c.LoadCommentsUseCase().Execute(cmd.Context(), usecase.LoadCommentsInput{TaskID: args[1]}); err != nil {
				return err
			}
			task, err := findTask(c.Board.Snapshot(), args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printTask(w, task, c.Clock.Now())
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, "Comments:")
			printComments(w, task.Comments)
			return nil
		},
	}
}

// newTasksCreateCommand creates the tasks create subcommand.
func newTasksCreateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		title       string
		description string
		status      string
		deadline    string
		priority    string
		tags        string
		assignee    string
	}

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Create a task",
		Long: `Create a task in a project.

The task is added to the board once the server confirms it. --assignee is
only sent for admins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.CreateTaskInput{
				ProjectID:   args[0],
				Title:       opts.title,
				Description: opts.description,
				Assignee:    opts.assignee,
				Tags:        domain.ParseTags(opts.tags),
			}
			if opts.status != "" {
				s, err := domain.ParseStatus(opts.status)
				if err != nil {
					return err
				}
				in.Status = s
			}
			if opts.priority != "" {
				p, err := domain.ParsePriority(opts.priority)
				if err != nil {
					return err
				}
				in.Priority = p
			}
			deadline, err := parseDeadline(opts.deadline)
			if err != nil {
				return err
			}
			in.Deadline = deadline

			if _, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]}); err != nil {
				return err
			}
			out, err := c.CreateTaskUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s [%s]\n", out.Task.ID, out.Task.Title, out.Task.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Task title (required)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&opts.status, "status", "", "Initial column (todo, in-progress, done)")
	cmd.Flags().StringVar(&opts.deadline, "deadline", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.priority, "priority", "", "Priority (low, medium, high)")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "Comma separated tags")
	cmd.Flags().StringVar(&opts.assignee, "assignee", "", "Assignee user ID (admins only)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// newTasksEditCommand creates the tasks edit subcommand.
func newTasksEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		title       string
		description string
		status      string
		deadline    string
		priority    string
		tags        string
		assignee    string
	}

	cmd := &cobra.Command{
		Use:   "edit <project> <task>",
		Short: "Edit a task",
		Long: `Edit fields of a task. Only the given flags are changed.

The server's response replaces the local copy of the task.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update domain.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &opts.title
			}
			if flags.Changed("description") {
				update.Description = &opts.description
			}
			if flags.Changed("status") {
				s, err := domain.ParseStatus(opts.status)
				if err != nil {
					return err
				}
				update.Status = &s
			}
			if flags.Changed("priority") {
				p, err := domain.ParsePriority(opts.priority)
				if err != nil {
					return err
				}
				update.Priority = &p
			}
			if flags.Changed("deadline") {
				d, err := parseDeadline(opts.deadline)
				if err != nil {
					return err
				}
				update.Deadline = d
			}
			if flags.Changed("assignee") {
				update.Assignee = &opts.assignee
			}
			if flags.Changed("tags") {
				update.Tags = domain.ParseTags(opts.tags)
				if update.Tags == nil {
					update.Tags = []string{}
				}
			}
			if err := update.Validate(); err != nil {
				return err
			}

			snap, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]})
			if err != nil {
				return err
			}
			task, err := findTask(snap, args[1])
			if err != nil {
				return err
			}
			if !domain.CanEdit(c.Session.Current(), task) {
				return errNotEditor
			}

			out, err := c.EditTaskUseCase().Execute(cmd.Context(), usecase.EditTaskInput{
				TaskID: args[1],
				Update: update,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s [%s]\n", out.Task.ID, out.Task.Title, out.Task.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&opts.status, "status", "", "New column (todo, in-progress, done)")
	cmd.Flags().StringVar(&opts.deadline, "deadline", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.priority, "priority", "", "New priority (low, medium, high)")
	cmd.Flags().StringVar(&opts.tags, "tags", "", "Replace tags (comma separated, empty to clear)")
	cmd.Flags().StringVar(&opts.assignee, "assignee", "", "New assignee user ID")

	return cmd
}

// newTasksMoveCommand creates the tasks move subcommand.
func newTasksMoveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "move <project> <task> <status>",
		Short: "Move a task to another column",
		Long: `Move a task to another column, as if its card was dragged there.

Status accepts todo, in-progress or done. Moving a task to the column it is
already in does nothing.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseStatus(args[2])
			if err != nil {
				return err
			}

			snap, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]})
			if err != nil {
				return err
			}
			board := snap.Board()
			source, ok := locate(board, args[1])
			if !ok {
				return fmt.Errorf("%s: %w", args[1], domain.ErrTaskNotFound)
			}

			drag := c.DragController()
			if err := drag.Begin(args[1], source); err != nil {
				return err
			}
			dest := &usecase.Location{Status: status, Index: len(board.Column(status))}
			out, err := drag.End(cmd.Context(), dest)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !out.Moved {
				_, _ = fmt.Fprintf(w, "Task %s is already in %s\n", args[1], source.Status)
				return nil
			}
			if err := <-out.Done; err != nil {
				return err
			}
			_, _ = fmt.Fprintf(w, "Moved task %s to %s\n", args[1], status)
			return nil
		},
	}
}

// newTasksDeleteCommand creates the tasks delete subcommand.
func newTasksDeleteCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project> <task>",
		Aliases: []string{"rm"},
		Short:   "Delete a task (admins only)",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(c); err != nil {
				return err
			}
			if !domain.CanDelete(c.Session.Current()) {
				return errAdminOnly
			}
			if _, err := openBoard(cmd, c, domain.TaskFilter{ProjectID: args[0]}); err != nil {
				return err
			}

			if _, err := c.DeleteTaskUseCase().Execute(cmd.Context(), usecase.DeleteTaskInput{TaskID: args[1]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[1])
			return nil
		},
	}
}
