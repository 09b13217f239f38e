package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/bobmcallan/tracket/internal/money"
	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions <account-id>",
	Short: "Show valued positions for an account",
	Long: `Fold the account's trades into positions and value each against the
latest recorded price. Positions without a price are shown unpriced and
count as zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runPositions,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid account id %q", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.PositionService.Valuate(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("valuate account %d: %w", id, err)
	}

	names := make([]string, 0, len(v.Positions))
	for name := range v.Positions {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUNITS\tCOST\tFEES\tPRICE\tVALUE")
	for _, name := range names {
		p := v.Positions[name]
		price := "-"
		if p.LatestPrice != nil {
			price = money.Format(*p.LatestPrice, p.Currency)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			name, p.UnitsHeld,
			money.Format(p.CostBasis, p.Currency),
			money.Format(p.TotalFee, p.Currency),
			price,
			money.Format(p.MarketValue, p.Currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	currency := v.Account.Currency
	fmt.Fprintf(cmd.OutOrStdout(), "\nAsset value: %s\nCost basis:  %s\nProfit/loss: %s\n",
		money.Format(v.AssetValue, currency),
		money.Format(v.CostBasis, currency),
		money.Format(v.ProfitLoss, currency))
	if len(v.Unpriced) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Unpriced:    %v\n", v.Unpriced)
	}
	return nil
}
