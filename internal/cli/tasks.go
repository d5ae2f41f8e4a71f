package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-client/internal/forms"
	"github.com/adanyl0v/go-todo-client/internal/models"
	"github.com/adanyl0v/go-todo-client/internal/tasks"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(newTasksListCmd(opts))
	cmd.AddCommand(newTasksShowCmd(opts))
	cmd.AddCommand(newTasksCreateCmd(opts))
	cmd.AddCommand(newTasksUpdateCmd(opts))
	cmd.AddCommand(newTasksToggleCmd(opts, "toggle", "Flip the completion state of a task", nil))
	cmd.AddCommand(newTasksToggleCmd(opts, "done", "Mark a task as completed", boolPtr(true)))
	cmd.AddCommand(newTasksToggleCmd(opts, "reopen", "Mark a task as pending", boolPtr(false)))
	cmd.AddCommand(newTasksDeleteCmd(opts))
	return cmd
}

func newTasksListCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&all, "all", false, "List the tasks of every user (administrators only)")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		if err := app.requireUser(); err != nil {
			return err
		}
		user := app.session.User()

		filter := tasks.FilterMine
		if all {
			if !user.IsAdmin() {
				fmt.Fprintln(app.errOut, "Only administrators can list all tasks; showing yours.")
			} else {
				filter = tasks.FilterAll
			}
		}

		collection, err := app.tasks.Tasks(cmd.Context())
		if err != nil {
			return app.reportTaskError("Failed to load tasks", err)
		}
		return app.renderTasks(filter.Apply(collection, user), filter, filter.ShowOwner(user))
	})
	return cmd
}

func newTasksShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
			if err := app.requireUser(); err != nil {
				return err
			}

			task, err := app.taskService.Get(cmd.Context(), args[0])
			if err != nil {
				return app.reportTaskError("Failed to load task", err)
			}
			return app.renderTask(task)
		}),
	}
}

func newTasksCreateCmd(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		if err := app.requireUser(); err != nil {
			return err
		}

		req := models.CreateTaskRequest{Title: args[0]}
		if cmd.Flags().Changed("description") {
			req.Description = &description
		}

		task, err := app.tasks.Create(cmd.Context(), req)
		if err != nil {
			return app.reportFieldErrors(err)
		}
		fmt.Fprintf(app.out, "ID: %s\n", task.ID)
		return nil
	})
	return cmd
}

func newTasksUpdateCmd(opts *rootOptions) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit the title or description of a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description, empty to clear it")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		if err := app.requireUser(); err != nil {
			return err
		}

		var req models.UpdateTaskRequest
		if cmd.Flags().Changed("title") {
			req.Title = &title
		}
		if cmd.Flags().Changed("description") {
			req.Description = &description
		}

		// Load the collection so that an update changing nothing is
		// recognized and skipped.
		if _, err := app.tasks.Tasks(cmd.Context()); err != nil {
			return app.reportTaskError("Failed to load tasks", err)
		}

		_, err := app.tasks.Update(cmd.Context(), args[0], req)
		if errors.Is(err, tasks.ErrNoChanges) {
			fmt.Fprintln(app.out, "Nothing to update.")
			return nil
		}
		if err != nil {
			return app.reportFieldErrors(err)
		}
		return nil
	})
	return cmd
}

// newTasksToggleCmd builds done, reopen and toggle. A nil desired state
// means the opposite of the current one.
func newTasksToggleCmd(opts *rootOptions, use, short string, desired *bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
			if err := app.requireUser(); err != nil {
				return err
			}

			isCompleted := false
			if desired != nil {
				isCompleted = *desired
			} else {
				task, err := app.findTask(cmd, args[0])
				if err != nil {
					return err
				}
				isCompleted = !task.IsCompleted
			}

			_, _, err := app.tasks.ToggleComplete(cmd.Context(), args[0], isCompleted)
			if err != nil {
				return reportedError{err: err}
			}
			return nil
		}),
	}
}

func newTasksDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		if err := app.requireUser(); err != nil {
			return err
		}

		confirm := tasks.ConfirmFunc(app.confirm)
		if yes {
			confirm = func(string, string) bool { return true }
		}

		err := app.tasks.Delete(cmd.Context(), args[0], confirm)
		if errors.Is(err, tasks.ErrNotConfirmed) {
			fmt.Fprintln(app.out, "Cancelled.")
			return nil
		}
		if err != nil {
			return reportedError{err: err}
		}
		return nil
	})
	return cmd
}

func (a *appContext) findTask(cmd *cobra.Command, id string) (*models.Task, error) {
	collection, err := a.tasks.Tasks(cmd.Context())
	if err != nil {
		return nil, a.reportTaskError("Failed to load tasks", err)
	}
	for i := range collection {
		if collection[i].ID == id {
			return &collection[i], nil
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (a *appContext) reportTaskError(title string, err error) error {
	return a.reportError(title, "Try again.", err)
}

// reportFieldErrors prints validation errors. Other errors were already
// notified by the task store.
func (a *appContext) reportFieldErrors(err error) error {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, field := range fieldErrs.Fields() {
			fmt.Fprintf(a.errOut, "  %s: %s\n", field, fieldErrs[field])
		}
	}
	return reportedError{err: err}
}

func boolPtr(b bool) *bool {
	return &b
}
