package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var usersSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id>",
	Short: "Change a user's role",
	Long: `Change a user's role on behalf of --actor.

Example:
  accounts users set-role 01J... --actor 01H... --name admin
  accounts users set-role 01J... --actor 01H... --scope global --name member`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		name, _ := cmd.Flags().GetString("name")

		return withApp(func(a *app.Application) error {
			actor, err := loadActor(cmd, a)
			if err != nil {
				return fmt.Errorf("actor: %w", err)
			}

			role := domain.RoleRef{Scope: domain.RoleScope(scope), Name: domain.RoleName(name)}
			if err := a.Roles().ChangeUserRole(a.Context(), actor, args[0], &role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role)
			return nil
		})
	},
}

func init() {
	usersCmd.AddCommand(usersSetRoleCmd)
	usersSetRoleCmd.Flags().String("actor", "", "ID of the user performing the change")
	usersSetRoleCmd.Flags().String("scope", string(domain.ScopeGlobal), "Role scope")
	usersSetRoleCmd.Flags().String("name", "", "Role name")
	_ = usersSetRoleCmd.MarkFlagRequired("actor")
	_ = usersSetRoleCmd.MarkFlagRequired("name")
}
