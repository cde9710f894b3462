package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"agileflow/internal/projects"
	"agileflow/internal/tasks"
)

func newProjectCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd(c), newProjectListCmd(c))
	return cmd
}

func newProjectCreateCmd(c *cli) *cobra.Command {
	var (
		in    projects.Input
		start string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range in.Team {
				if err := tasks.ValidateID(id); err != nil {
					return err
				}
			}
			if start != "" {
				parsed, err := tasks.ParseDueDate(start)
				if err != nil {
					return err
				}
				in.StartDate = &parsed
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			project, err := a.projects.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created project %d\n", project.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Name, "name", "", "project name (required)")
	flags.StringVar(&in.Description, "description", "", "project description")
	flags.StringVar(&in.Color, "color", "", "header colour, e.g. #2563eb (default: random)")
	flags.StringVar(&start, "start", "", "start date, YYYY-MM-DD")
	flags.IntVar(&in.WIPLimit, "wip", 0, "work in progress limit (default 5)")
	flags.Int64SliceVar(&in.Team, "team", nil, "team member user ids")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no projects")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, p := range list {
				team := make([]string, 0, len(p.Members))
				for _, m := range p.Members {
					team = append(team, m.Username)
				}
				rows = append(rows, []string{
					strconv.FormatInt(p.ID, 10),
					p.Name,
					strconv.Itoa(p.WIPLimit),
					strings.Join(team, ", "),
				})
			}
			return renderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "WIP", "TEAM"}, rows)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
