package main

import (
	"os"

	"github.com/spf13/cobra"

	"targetsync/internal/interfaces/cli/migrate"
	"targetsync/internal/interfaces/cli/sync"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "targetsync",
		Short: "Roster-to-store reconciliation daemon",
		Long:  `Targetsync keeps a notification store's users, teams, contacts and generated escalation plans converged onto the on-call roster service.`,
	}

	rootCmd.AddCommand(
		sync.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
