package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"agileflow/internal/board"
	"agileflow/internal/tasks"
)

func newBoardCmd(c *cli) *cobra.Command {
	var (
		project string
		width   int
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Render a project's kanban board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := tasks.ParseID(project)
			if err != nil {
				return err
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.projects.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			list, err := a.tasks.FindByProject(cmd.Context(), strconv.FormatInt(id, 10))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), board.Render(*p, list, width))
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id (required)")
	cmd.Flags().IntVar(&width, "width", 120, "terminal width")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
