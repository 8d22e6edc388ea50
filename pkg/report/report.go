// Package report renders sync plans and history as plain text.
package report

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/reconcile"
)

// amountColumn is where amounts end when right-aligned.
const amountColumn = 64

// FormatPlan formats the inserts, patches and skips of a plan for a budget.
func FormatPlan(budget string, plan reconcile.Plan) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== %s ===\n", budget))
	if plan.InsertOnly {
		sb.WriteString("(no rules configured, insert only)\n")
	}

	sb.WriteString(fmt.Sprintf("Insert (%d):\n", len(plan.Insert)))
	for _, txn := range plan.Insert {
		writeInsert(&sb, txn)
	}

	orphans := make(map[string]bool, len(plan.Orphans))
	for _, id := range plan.Orphans {
		orphans[id] = true
	}

	sb.WriteString(fmt.Sprintf("Patch (%d):\n", len(plan.Patch)))
	for _, txn := range plan.Patch {
		writePatch(&sb, txn, orphans[txn.ID])
	}

	sb.WriteString(fmt.Sprintf("Unchanged: %d\n", len(plan.Unchanged)))

	if len(plan.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("Skipped (%d):\n", len(plan.Skipped)))
		for _, skip := range plan.Skipped {
			date := "????-??-??"
			if !skip.Transaction.OccurredOn.IsZero() {
				date = skip.Transaction.OccurredOn.Format(model.DateLayout)
			}
			sb.WriteString(fmt.Sprintf("  %s %q %s\n", date, skip.Transaction.Memo, skip.Reason))
		}
	}

	return sb.String()
}

func writeInsert(sb *strings.Builder, txn model.LedgerTransaction) {
	line := fmt.Sprintf("  %s", txn.Date)
	if txn.PayeeName != "" {
		line += fmt.Sprintf(" %q", txn.PayeeName)
	}
	line += fmt.Sprintf(" %q", txn.Memo)

	amount := FormatMilliunits(txn.Amount)
	spaces := amountColumn - len(line) - len(amount)
	if spaces < 1 {
		spaces = 1
	}
	sb.WriteString(line)
	sb.WriteString(strings.Repeat(" ", spaces))
	sb.WriteString(amount)

	if txn.Cleared == model.Uncleared {
		sb.WriteString(" ; uncleared")
	}
	sb.WriteString("\n")
}

func writePatch(sb *strings.Builder, txn model.LedgerTransaction, orphan bool) {
	sb.WriteString("  ")
	sb.WriteString(txn.ID)

	var fields []string
	if txn.PayeeName != "" {
		fields = append(fields, "payee="+txn.PayeeName)
	}
	if txn.CategoryID != "" {
		fields = append(fields, "category="+txn.CategoryID)
	}
	if txn.FlagColor != "" {
		fields = append(fields, "flag="+txn.FlagColor)
	}
	if len(fields) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(fields, " "))
	}
	if orphan {
		sb.WriteString(" ; orphan")
	}
	sb.WriteString("\n")
}

// FormatMilliunits formats milliunits with two decimals, e.g. -50000 as "-50.00".
func FormatMilliunits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/1000, (amount%1000)/10)
}

// FormatStats formats sync history statistics.
func FormatStats(stats *db.Stats) string {
	var sb strings.Builder

	sb.WriteString("=== Sync Statistics ===\n")
	sb.WriteString(fmt.Sprintf("Total runs:            %d\n", stats.TotalRuns))
	sb.WriteString(fmt.Sprintf("Failed runs:           %d\n", stats.FailedRuns))
	sb.WriteString(fmt.Sprintf("Imported transactions: %d\n", stats.TotalImported))
	sb.WriteString(fmt.Sprintf("Patched transactions:  %d\n", stats.TotalPatched))
	sb.WriteString(fmt.Sprintf("Flagged orphans:       %d\n", stats.TotalFlagged))

	if stats.LastSync.Valid {
		sb.WriteString(fmt.Sprintf("Last sync:             %s\n", stats.LastSync.String))
	} else {
		sb.WriteString("Last sync:             (never)\n")
	}

	return sb.String()
}

// FormatRuns formats recent runs, one per line.
func FormatRuns(runs []db.Run) string {
	if len(runs) == 0 {
		return "No runs recorded\n"
	}

	var sb strings.Builder
	sb.WriteString("=== Recent Runs ===\n")
	for _, run := range runs {
		sb.WriteString(fmt.Sprintf("%s  %-20s %-8s +%d ~%d !%d skip=%d",
			run.FinishedAt.Format("2006-01-02 15:04:05"),
			run.BudgetName,
			run.Status,
			run.Inserted,
			run.Patched,
			run.Flagged,
			run.Skipped,
		))
		if run.Error != "" {
			sb.WriteString("  error: ")
			sb.WriteString(run.Error)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
