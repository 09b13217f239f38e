package cmd

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against a fresh flag state and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, backend, sqlitePath, logLevel = "", "", "", "disabled"
	accountName, accountCurrency, accountType, accountDescription, accountBalance = "", "", "INVESTMENT", "", ""
	txType, txFrom, txTo, txAmount, txRate = "DEPOSIT", 0, 0, "", ""
	groupName, groupCurrency = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func dbFlags(t *testing.T) []string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracket.db")
	return []string{"--backend", "sqlite", "--sqlite-path", path, "--config", filepath.Join(t.TempDir(), "none.toml")}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tracket version")
}

func TestMigrate(t *testing.T) {
	db := dbFlags(t)
	out, err := run(t, append([]string{"migrate"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date (sqlite")
	assert.Contains(t, out, "Migration version: 2 (dirty=false)")

	// second run is a no-op
	_, err = run(t, append([]string{"migrate"}, db...)...)
	require.NoError(t, err)
}

func TestSeedAccountsPositions(t *testing.T) {
	db := dbFlags(t)
	fixtures := filepath.Join("..", "..", "..", "config", "fixtures.example.yaml")

	out, err := run(t, append([]string{"seed", fixtures}, db...)...)
	require.NoError(t, err)
	assert.Equal(t, "instruments=2 accounts=2 transactions=2 trades=3 prices=1\n", out)

	out, err = run(t, append([]string{"accounts"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Brokerage")
	assert.Contains(t, out, "$4,750.00")
	assert.Contains(t, out, "Savings")

	out, err = run(t, append([]string{"positions", "1"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "Asset value: $1,170.72")
	assert.Contains(t, out, "Unpriced:    [BTC]")
}

func TestAccountsCreateAndTransact(t *testing.T) {
	db := dbFlags(t)

	out, err := run(t, append([]string{"accounts", "create", "--name", "Broker", "--currency", "USD", "--balance", "10"}, db...)...)
	require.NoError(t, err)
	assert.Equal(t, "Created account 1 (Broker) balance $10.00\n", out)

	_, err = run(t, append([]string{"accounts", "create", "--name", "Euro", "--currency", "EUR", "--type", "BUDGET"}, db...)...)
	require.NoError(t, err)

	out, err = run(t, append([]string{"transact", "--type", "transfer", "--from", "1", "--to", "2", "--amount", "2.54", "--rate", "7.4560"}, db...)...)
	require.NoError(t, err)
	assert.Equal(t, "Recorded TRANSFER 1: 2.540000 from account 1 to account 2 at 7.456000\n", out)

	out, err = run(t, append([]string{"transact", "--from", "1", "--amount", "0.46"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded DEPOSIT 2")

	out, err = run(t, append([]string{"accounts"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "$7.92")
}

func TestGroups(t *testing.T) {
	db := dbFlags(t)

	_, err := run(t, append([]string{"accounts", "create", "--name", "Broker", "--currency", "USD"}, db...)...)
	require.NoError(t, err)
	_, err = run(t, append([]string{"accounts", "create", "--name", "Savings", "--currency", "USD"}, db...)...)
	require.NoError(t, err)

	out, err := run(t, append([]string{"groups", "create", "--name", "family", "--currency", "usd"}, db...)...)
	require.NoError(t, err)
	assert.Equal(t, "Created group 1 (family, USD)\n", out)

	for _, id := range []string{"2", "1"} {
		_, err = run(t, append([]string{"groups", "add", "1", id}, db...)...)
		require.NoError(t, err)
	}
	out, err = run(t, append([]string{"groups"}, db...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "family")
	assert.Contains(t, out, "1,2")

	out, err = run(t, append([]string{"groups", "remove", "1", "1"}, db...)...)
	require.NoError(t, err)
	assert.Equal(t, "Removed account 1 from group 1\n", out)

	_, err = run(t, append([]string{"groups", "add", "1", "9"}, db...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCOUNT_MUST_EXIST")

	_, err = run(t, "groups", "add", "x", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid group id")
}

func TestTransactRejected(t *testing.T) {
	db := dbFlags(t)
	_, err := run(t, append([]string{"transact", "--from", "9", "--amount", "1"}, db...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCOUNT_MUST_EXIST")
}

func TestPositionsInvalidID(t *testing.T) {
	_, err := run(t, "positions", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid account id")
}
