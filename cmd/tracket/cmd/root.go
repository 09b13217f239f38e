package cmd

import (
	"fmt"

	"github.com/bobmcallan/tracket/internal/app"
	"github.com/bobmcallan/tracket/internal/common"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracket",
	Short: "Operator tool for the tracket ledger",
	Long: `Tracket keeps a double-entry style ledger of accounts and trades and
values the resulting positions against recorded prices.

Commands operate directly on the configured store:
  migrate    - Create or upgrade the storage schema
  seed       - Load accounts, instruments, trades and prices from YAML
  accounts   - List or create accounts
  transact   - Deposit, withdraw or transfer money
  positions  - Show valued positions for an account
  groups     - Manage account groups

Examples:
  tracket migrate --backend sqlite --sqlite-path ./data/tracket.db
  tracket seed config/fixtures.example.yaml
  tracket positions 1`,
	SilenceUsage: true,
}

var (
	cfgFile    string
	backend    string
	sqlitePath string
	logLevel   string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default resolves tracket.toml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend override: memory, sqlite or surrealdb")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database path override")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for command output")
}

// openApp loads configuration, applies flag overrides and builds the app.
func openApp() (*app.App, error) {
	config, err := common.LoadConfig(app.ResolveConfigPath(cfgFile))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if backend != "" {
		config.Storage.Backend = backend
	}
	if sqlitePath != "" {
		config.Storage.SQLite.Path = sqlitePath
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logCfg := config.Logging
	logCfg.Level = logLevel
	a, err := app.NewAppWithConfig(config, common.NewLoggerFromConfig(logCfg))
	if err != nil {
		return nil, fmt.Errorf("open app: %w", err)
	}
	return a, nil
}
