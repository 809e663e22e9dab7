package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"moneytrack/internal/storage"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
			version, err := storage.RunMigrations(opts.dbPath)
			if err != nil {
				return fmt.Errorf("migrating %s: %w", opts.dbPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
