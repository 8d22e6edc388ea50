// Package cmd provides CLI commands for ledger-sync.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/pathutil"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/sbanken"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/ynab"
)

const apiTimeout = 30 * time.Second

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger-sync",
	Short: "Sync Sbanken transactions into YNAB",
	Long: `ledger-sync imports recent Sbanken bank transactions into YNAB budgets
and keeps them tidy.

It supports:
- Importing each bank transaction exactly once
- Filling in payee and category from per-budget rules
- Flagging imported transactions that vanished from the bank
- Polling on an interval or running a single pass
- Dry-run mode for testing

Example:
  ledger-sync sync --once --dry-run
  ledger-sync sync --interval 300
  ledger-sync accounts
  ledger-sync stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(accountsCmd)
}

// loadConfig loads the environment configuration and checks the given paths.
func loadConfig(required ...[]string) *config.Config {
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if cfg.Debug && !debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	exitOnError(cfg.Validate(required...), "invalid configuration")
	return cfg
}

func newPathResolver(cfg *config.Config, budgetsFile string) *pathutil.PathResolver {
	if budgetsFile == "" {
		budgetsFile = cfg.Paths.BudgetsFile
	}
	return pathutil.New(pathutil.Config{
		DataDir:      cfg.Paths.DataDir,
		DatabasePath: cfg.Paths.DBPath,
		BudgetsPath:  budgetsFile,
	})
}

func newBankClient(cfg *config.Config) *sbanken.Client {
	return sbanken.NewClient(sbanken.ClientConfig{
		APIURL:       cfg.Sbanken.APIURL,
		TokenURL:     cfg.Sbanken.TokenURL,
		ClientID:     cfg.Sbanken.ClientID,
		ClientSecret: cfg.Sbanken.ClientSecret,
		CustomerID:   cfg.Sbanken.CustomerID,
		Timeout:      apiTimeout,
	})
}

func newLedgerClient(cfg *config.Config) *ynab.Client {
	return ynab.NewClient(ynab.ClientConfig{
		APIURL:      cfg.Ynab.APIURL,
		AccessToken: cfg.Ynab.AccessToken,
		Timeout:     apiTimeout,
	})
}

var (
	bankCredentials = [][]string{
		{"sbanken", "clientId"},
		{"sbanken", "clientSecret"},
		{"sbanken", "customerId"},
	}
	ledgerCredentials = [][]string{
		{"ynab", "accessToken"},
	}
)

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
