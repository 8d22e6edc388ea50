package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/syncer"
)

var (
	budgetsFile string
	budgetName  string
	runOnce     bool
	interval    int
	dryRun      bool
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Sbanken transactions into YNAB",
	Long: `Sync recent Sbanken transactions into the configured YNAB budgets.

Each pass, for every budget:
1. Fetches bank transactions for the mapped accounts within the lookback window
2. Fetches the budget's transactions for the same window
3. Inserts bank transactions the budget does not have yet
4. Fills in missing payees and categories from the budget's rules
5. Flags uncleared imports that no longer exist at the bank
6. Records the run in SQLite

With an interval, passes repeat until interrupted. An interrupt stops the
loop after the current pass.

Example:
  ledger-sync sync --once
  ledger-sync sync --once --dry-run --budget Household
  ledger-sync sync --budgets config/budgets.yaml --interval 600`,
	Run: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&budgetsFile, "budgets", "", "Budget configuration file (default is config/budgets.yaml)")
	syncCmd.Flags().StringVar(&budgetName, "budget", "", "Only sync the named budget")
	syncCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single pass and exit")
	syncCmd.Flags().IntVar(&interval, "interval", 0, "Seconds between passes (overrides interval_seconds)")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (no writes to YNAB)")
}

func runSync(cmd *cobra.Command, args []string) {
	cfg := loadConfig(append(bankCredentials, ledgerCredentials...)...)
	pathResolver := newPathResolver(cfg, budgetsFile)

	budgetsPath := pathResolver.GetBudgetsPath()
	slog.Debug("Loading budgets", "path", budgetsPath)
	settings, err := config.LoadBudgets(budgetsPath)
	exitOnError(err, "failed to load budget configuration")

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	s := syncer.New(newBankClient(cfg), newLedgerClient(cfg), db.NewSyncHistory(conn), settings, syncer.Options{
		DryRun: dryRun,
		Budget: budgetName,
		Output: os.Stdout,
	})

	every := settings.Interval
	if cmd.Flags().Changed("interval") {
		every = time.Duration(interval) * time.Second
	}
	if runOnce {
		every = 0
	}

	slog.Info("Starting sync",
		"budgets", len(settings.Budgets),
		"scheme", settings.Scheme,
		"interval", every,
		"dry_run", dryRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &syncer.Runner{
		Syncer:   s,
		Interval: every,
		OnPass: func(pass syncer.Pass, err error) {
			if err != nil {
				return
			}
			inserted, patched := 0, 0
			for _, r := range pass.Results {
				inserted += r.Inserted
				patched += r.Patched
			}
			slog.Info("Sync completed",
				"run_id", pass.RunID,
				"inserted", inserted,
				"patched", patched,
				"failed_budgets", pass.Failed(),
			)
		},
	}

	if err := runner.Run(ctx); err != nil {
		conn.Close()
		exitOnError(err, "sync failed")
	}
}
