package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Persistent flags, applied on top of the environment.
var (
	engine string
	dbPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "konto",
		Short:         "Konto - account gateway",
		Long:          `Konto stores bank accounts (number, owner name, balance) in PostgreSQL or SQLite and serves them over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&engine, "engine", "e", "", "storage engine: postgres or sqlite (overrides KONTO_DATABASE__DRIVER)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite database path (overrides KONTO_DATABASE__PATH)")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newDemoCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "konto %s (commit: %s, built: %s)\n", version, commit, date)
			},
		},
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment after applying the --engine and --db flags.
func loadConfig() (*config.Config, error) {
	if err := applyFlagOverrides(); err != nil {
		return nil, err
	}
	return config.LoadConfig()
}

func applyFlagOverrides() error {
	if engine != "" {
		if engine != database.DriverPostgres && engine != database.DriverSQLite {
			return fmt.Errorf("unknown engine %q (want postgres or sqlite)", engine)
		}
		if err := os.Setenv(config.EnvPrefix+"DATABASE__DRIVER", engine); err != nil {
			return err
		}
	}
	if dbPath != "" {
		if err := os.Setenv(config.EnvPrefix+"DATABASE__PATH", dbPath); err != nil {
			return err
		}
	}
	return nil
}
