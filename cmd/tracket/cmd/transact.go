package cmd

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/spf13/cobra"
)

var transactCmd = &cobra.Command{
	Use:   "transact",
	Short: "Deposit, withdraw or transfer money",
	Long: `Record one money movement. Balances and the ledger entry are written
together or not at all.

Examples:
  tracket transact --type DEPOSIT --from 1 --amount 100
  tracket transact --type TRANSFER --from 1 --to 2 --amount 2.54 --rate 7.4560`,
	Args: cobra.NoArgs,
	RunE: runTransact,
}

var (
	txType   string
	txFrom   int64
	txTo     int64
	txAmount string
	txRate   string
)

func init() {
	rootCmd.AddCommand(transactCmd)

	transactCmd.Flags().StringVarP(&txType, "type", "t", string(models.TxDeposit), "DEPOSIT, WITHDRAW or TRANSFER")
	transactCmd.Flags().Int64Var(&txFrom, "from", 0, "source account id")
	transactCmd.Flags().Int64Var(&txTo, "to", 0, "destination account id (TRANSFER only)")
	transactCmd.Flags().StringVarP(&txAmount, "amount", "a", "", "amount in the source account's currency")
	transactCmd.Flags().StringVar(&txRate, "rate", "", "exchange rate applied to the credited amount (default 1)")
}

func runTransact(cmd *cobra.Command, args []string) error {
	req := interfaces.TransactionRequest{
		AccountIDFrom: txFrom,
		Amount:        txAmount,
		Kind:          models.TransactionKind(strings.ToUpper(txType)),
		ExchangeRate:  txRate,
	}
	if txTo != 0 {
		to := txTo
		req.AccountIDTo = &to
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.LedgerService.Transact(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("transact: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %d: %s from account %d", entry.Kind, entry.ID, entry.Amount, entry.FromAccountID)
	if entry.ToAccountID != nil {
		fmt.Fprintf(cmd.OutOrStdout(), " to account %d at %s", *entry.ToAccountID, entry.ExchangeRate)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
