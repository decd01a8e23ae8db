package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the portalserver CLI.
var rootCmd = &cobra.Command{
	Use:   "portalserver",
	Short: "regdesk user registration and admin portal",
	Long: `regdesk portalserver hosts the registration portal and the
admin dashboard. Subcommands start the HTTP server and manage the
database schema.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
