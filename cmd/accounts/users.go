package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

// loadActor resolves the --actor flag to the user the operation runs as.
func loadActor(cmd *cobra.Command, a *app.Application) (domain.User, error) {
	id, _ := cmd.Flags().GetString("actor")
	return a.Users().GetUserByID(a.Context(), id)
}
