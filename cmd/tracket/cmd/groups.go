package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List account groups and their members",
	Long: `List account groups with the ids of their active member accounts.

Subcommands:
  create  - Create a group
  add     - Add an account to a group
  remove  - Remove an account from a group

Examples:
  tracket groups create --name family --currency USD
  tracket groups add 1 2
  tracket groups remove 1 2`,
	Args: cobra.NoArgs,
	RunE: runGroups,
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account group",
	Args:  cobra.NoArgs,
	RunE:  runGroupsCreate,
}

var groupsAddCmd = &cobra.Command{
	Use:   "add GROUP_ID ACCOUNT_ID",
	Short: "Add an account to a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupsMembership(true),
}

var groupsRemoveCmd = &cobra.Command{
	Use:   "remove GROUP_ID ACCOUNT_ID",
	Short: "Remove an account from a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupsMembership(false),
}

var (
	groupName     string
	groupCurrency string
)

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsCmd.AddCommand(groupsCreateCmd, groupsAddCmd, groupsRemoveCmd)

	groupsCreateCmd.Flags().StringVar(&groupName, "name", "", "group name")
	groupsCreateCmd.Flags().StringVar(&groupCurrency, "currency", "", "ISO currency code")
}

func runGroups(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mappings, err := a.LedgerService.GroupMappings(cmd.Context())
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCURRENCY\tACCOUNTS")
	for _, g := range mappings {
		ids := make([]string, 0, len(g.AccountIDs))
		for _, id := range g.AccountIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", g.ID, g.Name, g.Currency, strings.Join(ids, ","))
	}
	return w.Flush()
}

func runGroupsCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.LedgerService.CreateGroup(cmd.Context(), interfaces.GroupRequest{Name: groupName, Currency: groupCurrency})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created group %d (%s, %s)\n", g.ID, g.Name, g.Currency)
	return nil
}

func runGroupsMembership(add bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		groupID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || groupID <= 0 {
			return fmt.Errorf("invalid group id %q", args[0])
		}
		accountID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || accountID <= 0 {
			return fmt.Errorf("invalid account id %q", args[1])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		req := interfaces.GroupMembershipRequest{GroupID: groupID, AccountID: accountID}
		if add {
			if err := a.LedgerService.GroupAccount(cmd.Context(), req); err != nil {
				return fmt.Errorf("group account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %d to group %d\n", accountID, groupID)
			return nil
		}
		if err := a.LedgerService.UngroupAccount(cmd.Context(), req); err != nil {
			return fmt.Errorf("ungroup account: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed account %d from group %d\n", accountID, groupID)
		return nil
	}
}
