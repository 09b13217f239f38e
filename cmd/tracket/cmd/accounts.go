package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/models"
	"github.com/bobmcallan/tracket/internal/money"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List active accounts",
	Long: `List active accounts with their balances.

Subcommands:
  create  - Open a new account

Examples:
  tracket accounts
  tracket accounts create --name Broker --currency USD --type INVESTMENT --balance 1000`,
	Args: cobra.NoArgs,
	RunE: runAccounts,
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new account",
	Args:  cobra.NoArgs,
	RunE:  runAccountsCreate,
}

var (
	accountName        string
	accountCurrency    string
	accountType        string
	accountDescription string
	accountBalance     string
)

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsCreateCmd)

	accountsCreateCmd.Flags().StringVar(&accountName, "name", "", "account name")
	accountsCreateCmd.Flags().StringVar(&accountCurrency, "currency", "", "ISO currency code")
	accountsCreateCmd.Flags().StringVar(&accountType, "type", string(models.AccountTypeInvestment), "INVESTMENT or BUDGET")
	accountsCreateCmd.Flags().StringVar(&accountDescription, "description", "", "free-form description")
	accountsCreateCmd.Flags().StringVar(&accountBalance, "balance", "", "opening balance (default 0)")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	accounts, err := a.LedgerService.ListAccounts(cmd.Context())
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tCURRENCY\tBALANCE")
	for _, acc := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", acc.ID, acc.Name, acc.Type, acc.Currency, money.Format(acc.Balance, acc.Currency))
	}
	return w.Flush()
}

func runAccountsCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := a.LedgerService.CreateAccount(cmd.Context(), interfaces.CreateAccountRequest{
		Name:           accountName,
		Currency:       accountCurrency,
		Type:           models.AccountType(accountType),
		Description:    accountDescription,
		InitialBalance: accountBalance,
	})
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created account %d (%s) balance %s\n", acc.ID, acc.Name, money.Format(acc.Balance, acc.Currency))
	return nil
}
