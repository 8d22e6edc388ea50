package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/report"
)

var recentRuns int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display sync statistics",
	Long: `Display statistics about sync runs and imported transactions.

Shows:
- Total and failed runs
- Imported, patched and flagged transactions
- Last successful sync timestamp
- The most recent runs

Example:
  ledger-sync stats
  ledger-sync stats --runs 20`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&recentRuns, "runs", 10, "Number of recent runs to show")
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	pathResolver := newPathResolver(cfg, "")

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	syncHistory := db.NewSyncHistory(conn)

	stats, err := syncHistory.GetStats()
	exitOnError(err, "failed to get statistics")

	runs, err := syncHistory.GetRecentRuns(recentRuns)
	exitOnError(err, "failed to get recent runs")

	fmt.Println()
	fmt.Print(report.FormatStats(stats))
	fmt.Println()
	fmt.Print(report.FormatRuns(runs))
	fmt.Println()
}
