package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agileflow/internal/models"
	"agileflow/internal/tasks"
)

func newTaskCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, move and assign tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(c),
		newTaskListCmd(c),
		newTaskShowCmd(c),
		newTaskStatusCmd(c),
		newTaskAssignCmd(c),
		newTaskUnassignCmd(c),
		newTaskRemoveCmd(c),
	)
	return cmd
}

func newTaskCreateCmd(c *cli) *cobra.Command {
	var (
		title, description, status, due string
		projectID, assigneeID            int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := tasks.CreateInput{Title: title, Status: status, DueDate: due}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("project") {
				if err := tasks.ValidateID(projectID); err != nil {
					return err
				}
				in.ProjectID = &projectID
			}
			if cmd.Flags().Changed("assignee") {
				if err := tasks.ValidateID(assigneeID); err != nil {
					return err
				}
				in.AssigneeID = &assigneeID
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %d\n", task.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "task title (required)")
	flags.StringVar(&description, "description", "", "task description")
	flags.StringVar(&status, "status", "", "initial status (default todo)")
	flags.StringVar(&due, "due", "", "due date, YYYY-MM-DD or RFC 3339")
	flags.Int64Var(&projectID, "project", 0, "project id")
	flags.Int64Var(&assigneeID, "assignee", 0, "assignee user id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd(c *cli) *cobra.Command {
	var (
		project, assignee string
		unassigned, asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var list []models.Task
			switch {
			case unassigned:
				list, err = a.tasks.FindUnassigned(ctx)
			case cmd.Flags().Changed("project"):
				list, err = a.tasks.FindByProject(ctx, project)
			case cmd.Flags().Changed("assignee"):
				list, err = a.tasks.FindByAssignee(ctx, assignee)
			default:
				list, err = a.tasks.FindAll(ctx)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return nil
			}
			return renderTable(cmd.OutOrStdout(), taskHeaders, taskRows(list))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&project, "project", "", "only tasks of this project id")
	flags.StringVar(&assignee, "assignee", "", "only tasks assigned to this user id")
	flags.BoolVar(&unassigned, "unassigned", false, "only tasks without an assignee")
	flags.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.MarkFlagsMutuallyExclusive("project", "assignee", "unassigned")
	return cmd
}

// withTask opens the app and parses the task id in args[0] before calling fn.
func withTask(c *cli, fn func(cmd *cobra.Command, a *app, id int64, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := tasks.ParseID(args[0])
		if err != nil {
			return err
		}
		a, err := c.open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, id, args[1:])
	}
}

func newTaskShowCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one task with its project and assignee",
		Args:  cobra.ExactArgs(1),
		RunE: withTask(c, func(cmd *cobra.Command, a *app, id int64, _ []string) error {
			task, err := a.tasks.FindOne(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), task)
			}
			describeTask(cmd.OutOrStdout(), task)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTaskStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move a task to another column (todo, ready, ongoing, onhold, done)",
		Args:  cobra.ExactArgs(2),
		RunE: withTask(c, func(cmd *cobra.Command, a *app, id int64, rest []string) error {
			task, err := a.tasks.UpdateStatus(cmd.Context(), id, rest[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d is now %s\n", task.ID, task.Status)
			return nil
		}),
	}
}

func newTaskAssignCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID USER_ID",
		Short: "Assign a task to a user",
		Args:  cobra.ExactArgs(2),
		RunE: withTask(c, func(cmd *cobra.Command, a *app, id int64, rest []string) error {
			userID, err := tasks.ParseID(rest[0])
			if err != nil {
				return err
			}
			task, err := a.tasks.AssignTask(cmd.Context(), id, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d assigned to %s\n", task.ID, task.Assignee.Username)
			return nil
		}),
	}
}

func newTaskUnassignCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign ID",
		Short: "Remove the assignee of a task",
		Args:  cobra.ExactArgs(1),
		RunE: withTask(c, func(cmd *cobra.Command, a *app, id int64, _ []string) error {
			task, err := a.tasks.UnassignTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %d unassigned\n", task.ID)
			return nil
		}),
	}
}

func newTaskRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: withTask(c, func(cmd *cobra.Command, a *app, id int64, _ []string) error {
			if err := a.tasks.Remove(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed task %d\n", id)
			return nil
		}),
	}
}
