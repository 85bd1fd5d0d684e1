package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
)

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user with a global role.

The global owner can only be created while no owner exists, which is how a
fresh install is bootstrapped.

Example:
  accounts users create --email owner@example.com --role owner
  accounts users create --email ada@example.com --first-name Ada --role member --pending`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		email, _ := flags.GetString("email")
		first, _ := flags.GetString("first-name")
		last, _ := flags.GetString("last-name")
		role, _ := flags.GetString("role")
		pending, _ := flags.GetBool("pending")

		return withApp(func(a *app.Application) error {
			u, err := a.Users().CreateUser(a.Context(), service.NewUser{
				Email:     email,
				FirstName: first,
				LastName:  last,
				Role:      domain.RoleRef{Scope: domain.ScopeGlobal, Name: domain.RoleName(role)},
				Pending:   pending,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		})
	},
}

func init() {
	usersCmd.AddCommand(usersCreateCmd)
	usersCreateCmd.Flags().String("email", "", "Email address")
	usersCreateCmd.Flags().String("first-name", "", "First name")
	usersCreateCmd.Flags().String("last-name", "", "Last name")
	usersCreateCmd.Flags().String("role", string(domain.RoleMember), "Global role name (owner, admin, member)")
	usersCreateCmd.Flags().Bool("pending", false, "Create the user as an invitation that is not yet accepted")
	_ = usersCreateCmd.MarkFlagRequired("email")
}
