package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/config"
)

var (
	cfg *config.Config

	flagBackend string
	flagDSN     string
)

var rootCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Wearable webhook receiver and metric reconciler",
	Long: `Receives wearable data webhooks (Terra aggregator and WHOOP), normalizes
them into canonical metric and workout records, and answers reconciled reads.

CONFIGURATION:

  Settings come from the environment (TERRA_WEBHOOK_SECRET, STORE_BACKEND,
  DATABASE_DSN, WHOOP_CLIENT_SECRET, ...). --backend and --dsn override the
  store settings.

QUICK START:

  $ wellness serve --backend sqlite --dsn wellness.db
  $ wellness current user-42
  $ wellness history user-42 --metric Weight --metric HRV --days 30`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.FromEnv()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagBackend != "" {
			cfg.StoreBackend = flagBackend
		}
		if flagDSN != "" {
			cfg.DatabaseDSN = flagDSN
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "store backend: firestore, postgres, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "database DSN for postgres or sqlite")
}
