package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/guarzo/bcards/modules/confirm"
	"github.com/guarzo/bcards/modules/users"
)

func adminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "User administration (admins only)",
	}
	cmd.AddCommand(
		adminUsersCmd(a),
		adminDeleteUserCmd(a),
		adminSetAdminCmd(a),
		adminToggleBusinessCmd(a),
	)
	return cmd
}

func adminUsersCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.users.ListUsers(cmd.Context())
			if err != nil {
				return describe(err)
			}
			printUsers(cmd.OutOrStdout(), users.Filter(list, search))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name or email")
	return cmd
}

func adminDeleteUserCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-user <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := confirm.New(func(ctx context.Context, id string, _ confirm.Kind) error {
				return a.users.DeleteUser(ctx, id)
			})
			return runDelete(cmd, flow, args[0], confirm.KindUser, fmt.Sprintf("Delete user %s?", args[0]), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func adminSetAdminCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-admin <id> <true|false>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid admin flag %q: %w", args[1], err)
			}
			user, err := a.users.SetAdmin(cmd.Context(), args[0], admin)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin: %t\n", user.Email, user.IsAdmin)
			return nil
		},
	}
}

func adminToggleBusinessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-business <id>",
		Short: "Switch a user between business and regular",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.users.ToggleBusiness(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s business: %t\n", user.Email, user.IsBusiness)
			return nil
		},
	}
}
