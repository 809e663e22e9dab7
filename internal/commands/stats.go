package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"moneytrack/internal/config"
	"moneytrack/internal/core"
	"moneytrack/internal/stats"
)

func newStatsCommand(opts *options, cfg *config.Config) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print one page of monthly statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("invalid page %d: must be at least 1", page)
			}
			if limit < 1 {
				return fmt.Errorf("invalid limit %d: must be at least 1", limit)
			}
			limit = min(limit, cfg.MaxPageLimit)

			repo, err := opts.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			engine := stats.NewEngine(repo, stats.Config{
				Timeout:     cfg.StatsTimeout,
				Concurrency: cfg.StatsConcurrency,
			})
			result, err := engine.ListMonthlyStats(cmd.Context(), core.Page{Number: page, Limit: limit})
			if err != nil {
				return fmt.Errorf("computing monthly stats: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 12, "months per page")

	return cmd
}
