package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
)

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user",
	Long: `Delete a user on behalf of --actor.

With --transfer-to every workflow and credential the user owns is handed to
that user. Without it, owned workflows are deactivated and deleted along with
owned credentials.

Example:
  accounts users delete 01J... --actor 01H... --transfer-to 01H...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transferTo, _ := cmd.Flags().GetString("transfer-to")

		return withApp(func(a *app.Application) error {
			actor, err := loadActor(cmd, a)
			if err != nil {
				return fmt.Errorf("actor: %w", err)
			}

			if err := a.Deletion().DeleteUser(a.Context(), actor, args[0], transferTo); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	usersCmd.AddCommand(usersDeleteCmd)
	usersDeleteCmd.Flags().String("actor", "", "ID of the user performing the deletion")
	usersDeleteCmd.Flags().String("transfer-to", "", "ID of the user that receives owned resources")
	_ = usersDeleteCmd.MarkFlagRequired("actor")
}
