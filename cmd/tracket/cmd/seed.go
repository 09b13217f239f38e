package cmd

import (
	"fmt"

	"github.com/bobmcallan/tracket/internal/app"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixtures.yaml>",
	Short: "Load fixtures into the store",
	Long: `Load instruments, accounts, transactions, trades and prices from a YAML
fixture file. Every record goes through the same rules as live requests;
loading stops at the first rejected record.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	f, err := app.LoadFixtures(args[0])
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Seed(cmd.Context(), f)
	if res != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "instruments=%d accounts=%d transactions=%d trades=%d prices=%d\n",
			res.Instruments, res.Accounts, res.Transactions, res.Trades, res.Prices)
	}
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
