// Command accounts runs and administers the accounts service.
//
// Configuration is read from the environment, see internal/accounts/app.Config.
//
//	accounts migrate
//	accounts users create --email owner@example.com --role owner
//	accounts serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
)

var rootCmd = &cobra.Command{
	Use:           "accounts",
	Short:         "Accounts service and admin tooling",
	Version:       app.BuildVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// withApp builds the application from the environment, runs fn and releases
// every connection afterwards.
func withApp(fn func(a *app.Application) error) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
