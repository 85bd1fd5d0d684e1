package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Inspect the role catalog",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.Application) error {
			roles, err := a.Roles().ListAll(a.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCOPE\tNAME")
			for _, r := range roles {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Scope, r.Name)
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(rolesCmd)
	rolesCmd.AddCommand(rolesListCmd)
}
