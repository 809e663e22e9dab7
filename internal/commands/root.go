// Package commands implements the moneytrackctl operator CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"moneytrack/internal/buildinfo"
	"moneytrack/internal/config"
	"moneytrack/internal/storage"
)

type options struct {
	dbPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
// Defaults come from cfg, so SQLITE_DB_PATH and the stats limits apply.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "moneytrackctl",
		Short:   "Operate a moneytrack database",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", cfg.SQLiteDBPath, "path to the SQLite database")

	rootCmd.AddCommand(
		newStatsCommand(opts, cfg),
		newBalancesCommand(opts),
		newMigrateCommand(opts),
	)

	return rootCmd
}

// openRepository opens the database, applying pending migrations.
func (o *options) openRepository() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", o.dbPath, err)
	}
	return repo, nil
}
