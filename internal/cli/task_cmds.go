package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/formspec"
	"github.com/taskwire/client/gateway"
	"github.com/taskwire/client/usecase/taskform"
	"github.com/taskwire/client/usecase/tasklist"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var statusFlag string
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, paginated and optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.session()
			if err != nil {
				return err
			}
			status, err := parseStatus(statusFlag)
			if err != nil {
				return err
			}

			controller := tasklist.New(cmd.Context(), app.tasks, session, tasklist.Config{
				Sort:   app.cfg.Pagination.Sort,
				Status: status,
				Page:   page,
			}, app.logger)
			defer controller.Close()

			if err := controller.Refresh(); err != nil {
				return err
			}
			return printTaskPage(cmd, controller.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "filter by status (NEW, IN_PROGRESS, DONE)")
	cmd.Flags().IntVarP(&page, "page", "n", 0, "page index, starting at 0")
	return cmd
}

func printTaskPage(cmd *cobra.Command, snap tasklist.Snapshot) error {
	page := snap.Page
	out := cmd.OutOrStdout()
	if page == nil || page.Empty() {
		fmt.Fprintln(out, "no tasks")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tOWNER\tCREATED")
	for _, task := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			task.ID, task.Title, task.Status.Label(), task.OwnerName(), task.CreatedDate)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d (%d tasks total)\n", page.PageIndex+1, page.TotalPages, page.TotalItems)
	return nil
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var title, description, statusFlag string
	var assignee int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.session()
			if err != nil {
				return err
			}
			status, err := parseStatus(statusFlag)
			if err != nil {
				return err
			}

			controller := taskform.New(cmd.Context(), app.tasks, app.users, session, app.logger)
			defer controller.Close()

			form, err := controller.Open(nil, formspec.ModeCreate)
			if err != nil {
				return err
			}
			form.Values.Title = title
			form.Values.Description = description
			if status != "" {
				form.Values.Status = status
			}
			if assignee > 0 {
				// dropped for non-admin sessions when the payload is built
				form.Values.TargetUserID = assignee
			}

			created, err := controller.Save(form)
			if err != nil {
				return describeFormError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %d: %s\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "initial status (defaults to NEW)")
	cmd.Flags().Int64Var(&assignee, "for", 0, "owner user id (admin only)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description, statusFlag string
	var assignee int64

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.session()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			task, err := findTask(cmd.Context(), app, id)
			if err != nil {
				return err
			}

			controller := taskform.New(cmd.Context(), app.tasks, app.users, session, app.logger)
			defer controller.Close()

			form, err := controller.Open(task, formspec.ModeEdit)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("title") {
				form.Values.Title = title
			}
			if cmd.Flags().Changed("description") {
				form.Values.Description = description
			}
			if cmd.Flags().Changed("status") {
				status, err := parseStatus(statusFlag)
				if err != nil {
					return err
				}
				form.Values.Status = status
			}
			if cmd.Flags().Changed("for") {
				form.Values.TargetUserID = assignee
			}

			updated, err := controller.Save(form)
			if err != nil {
				return describeFormError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task %d: %s [%s]\n", updated.ID, updated.Title, updated.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "new status")
	cmd.Flags().Int64Var(&assignee, "for", 0, "new owner user id (admin only)")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.session()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			task, err := findTask(cmd.Context(), app, id)
			if err != nil {
				return err
			}

			controller := tasklist.New(cmd.Context(), app.tasks, session, tasklist.Config{
				Sort: app.cfg.Pagination.Sort,
			}, app.logger)
			defer controller.Close()

			notice, err := controller.Delete(task)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), notice)
			return nil
		},
	}
}

// findTask walks the session-scoped listing until it finds the task. The
// service exposes no single-task read, so the listing is the lookup.
func findTask(ctx context.Context, app *App, id int64) (*domain.Task, error) {
	for page := 0; ; page++ {
		result, err := app.tasks.List(ctx, gateway.ListQuery{
			Page: page,
			Sort: app.cfg.Pagination.Sort,
		})
		if err != nil {
			return nil, err
		}
		for i := range result.Items {
			if result.Items[i].ID == id {
				return &result.Items[i], nil
			}
		}
		if result.Last || page >= result.TotalPages-1 {
			return nil, domain.ErrTaskNotFound
		}
	}
}

// describeFormError folds field-level validation messages into the
// returned error so they reach the terminal.
func describeFormError(err error) error {
	fields := domain.Fields(err)
	if len(fields) == 0 {
		return err
	}
	msg := err.Error()
	for field, detail := range fields {
		msg += fmt.Sprintf("\n  %s: %s", field, detail)
	}
	return fmt.Errorf("%s", msg)
}
