package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/rolecache"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and/or upgrade the database schema",
	Long: `Apply pending migrations and seed the role catalog.

Example:
  ACCOUNTS_DATABASE_FILE=/var/lib/accounts.db accounts migrate
  accounts migrate --catalog roles.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("catalog"); path != "" {
			cfg.RoleCatalogFile = path
		}

		db, err := app.OpenDatabase(cfg.DatabaseFile)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		version, dirty, err := db.MigrationVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)

		catalog, err := app.LoadRoleCatalog(cfg.RoleCatalogFile)
		if err != nil {
			return err
		}

		roles := &service.RolesService{Store: db, Cache: rolecache.NewMemory(db.Roles().GetRole, cfg.RoleCacheTTL)}
		created, err := roles.SeedCatalog(cmd.Context(), catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d new role(s)\n", created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("catalog", "", "Role catalog YAML file (overrides ACCOUNTS_ROLE_CATALOG_FILE)")
}
