package main

import (
	"context"
	"fmt"
	"io"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/deppfellow/account-gateway/internal/lib/utils"
	"github.com/deppfellow/account-gateway/internal/logger"
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/repository"
	"github.com/spf13/cobra"
)

var demoJSON bool

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the sample account scenario against the configured database",
		Long: `Creates three accounts, lists them, renames the first one, reads it back,
counts the accounts and lists those owned by "Jon Olav Nilsen".

With --engine sqlite the demo needs no other configuration:

  konto demo --engine sqlite --db ./konto.db`,
		RunE: runDemo,
	}

	cmd.Flags().BoolVar(&demoJSON, "json", false, "print accounts as JSON")
	return cmd
}

// demoConfig builds a minimal configuration for a standalone SQLite demo.
func demoConfig() *config.Config {
	obs := config.DefaultObservabilityConfig()
	obs.Logging.Format = "console"
	obs.Logging.Level = "warn"

	path := dbPath
	if path == "" {
		path = "konto.db"
	}

	return &config.Config{
		Primary: config.Primary{Env: "development"},
		Database: config.DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   path,
		},
		Observability: obs,
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	if engine == database.DriverSQLite {
		cfg = demoConfig()
	} else {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return err
		}
	}

	log := logger.NewLogger(cfg.Observability)

	db, err := database.Open(cfg, &log, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	d := &demo{
		out:      cmd.OutOrStdout(),
		accounts: repository.NewAccountRepository(db, &log),
	}
	return d.run(ctx)
}

type demo struct {
	out      io.Writer
	accounts *repository.AccountRepository
}

func (d *demo) run(ctx context.Context) error {
	for _, a := range []*model.Account{
		model.NewAccount("12345012345", "Nils Olav Johnsen", 2049.36),
		model.NewAccount("09876543210", "Jon Olav Nilsen", 9000.99),
		model.NewAccount("019283746574", "Jon Olav Nilsen", 8000.00),
	} {
		if err := d.accounts.Create(ctx, a); err != nil {
			return err
		}
	}

	all, err := d.accounts.ListAll(ctx)
	if err != nil {
		return err
	}
	d.section("All accounts")
	if err := d.print(all); err != nil {
		return err
	}

	first := all[0]
	first.Name = "ChangedName"
	if err := d.accounts.Update(ctx, &first); err != nil {
		return err
	}

	changed, err := d.accounts.FindByNumber(ctx, first.Number)
	if err != nil {
		return err
	}
	d.section("After rename")
	if err := d.print([]model.Account{*changed}); err != nil {
		return err
	}

	n, err := d.accounts.Count(ctx)
	if err != nil {
		return err
	}
	d.section("Count")
	fmt.Fprintln(d.out, n)

	owned, err := d.accounts.ListByName(ctx, "Jon Olav Nilsen")
	if err != nil {
		return err
	}
	d.section("Owned by Jon Olav Nilsen")
	return d.print(owned)
}

func (d *demo) section(title string) {
	fmt.Fprintf(d.out, "\n== %s ==\n", title)
}

func (d *demo) print(accounts []model.Account) error {
	if demoJSON {
		return utils.PrintJSON(d.out, accounts)
	}
	for _, a := range accounts {
		fmt.Fprintf(d.out, "%s\n\n", a)
	}
	return nil
}
