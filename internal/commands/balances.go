package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBalancesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Print the current balance of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			balances, err := repo.AccountBalances(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading balances: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tTRANSACTIONS\t")
			for _, b := range balances {
				fmt.Fprintf(tw, "%s\t%s\t%d\t\n", b.Account, b.Balance, b.TransactionCount)
			}
			return tw.Flush()
		},
	}
}
