package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"agileflow/internal/models"
	"agileflow/internal/users"
)

func newUserCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage team members",
	}
	cmd.AddCommand(newUserCreateCmd(c), newUserListCmd(c))
	return cmd
}

func newUserCreateCmd(c *cli) *cobra.Command {
	var in users.CreateInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Role)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&in.Username, "username", "", "display name (required)")
	flags.StringVar(&in.Email, "email", "", "login email (required)")
	flags.StringVar(&in.Password, "password", "", "password, at least 6 characters (required)")
	flags.StringVar(&in.Role, "role", "", "admin or member (default member)")
	for _, name := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newUserListCmd(c *cli) *cobra.Command {
	var (
		role   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var list []models.User
			if cmd.Flags().Changed("role") {
				list, err = a.users.FindByRole(cmd.Context(), role)
			} else {
				list, err = a.users.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			rows := make([][]string, 0, len(list))
			for _, u := range list {
				rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, string(u.Role)})
			}
			return renderTable(cmd.OutOrStdout(), []string{"ID", "USERNAME", "EMAIL", "ROLE"}, rows)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only users with this role")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
