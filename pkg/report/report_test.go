package report

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/reconcile"
)

func TestFormatMilliunits(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0.00"},
		{-50000, "-50.00"},
		{1234560, "1234.56"},
		{-5, "-0.00"},
		{10, "0.01"},
		{-999990, "-999.99"},
	}

	for _, tt := range tests {
		if got := FormatMilliunits(tt.amount); got != tt.want {
			t.Errorf("FormatMilliunits(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPlan(t *testing.T) {
	plan := reconcile.Plan{
		Insert: []model.LedgerTransaction{
			{Date: "2024-01-05", Amount: -50000, Memo: "CFE 42", PayeeName: "Cafe", Cleared: model.Cleared},
			{Date: "2024-01-06", Amount: 1000, Memo: "Refund", Cleared: model.Uncleared},
		},
		Patch: []model.LedgerTransaction{
			{ID: "t-1", PayeeName: "Cafe", CategoryID: "c-1"},
			{ID: "t-2", FlagColor: "red"},
		},
		Orphans:   []string{"t-2"},
		Unchanged: []string{"x", "y"},
		Skipped: []reconcile.Skip{
			{Transaction: model.BankTransaction{Memo: "broken"}, Reason: reconcile.SkipIdentity},
		},
	}

	got := FormatPlan("Household", plan)

	for _, want := range []string{
		"=== Household ===\n",
		"Insert (2):\n",
		`  2024-01-05 "Cafe" "CFE 42"`,
		"-50.00\n",
		"1.00 ; uncleared\n",
		"Patch (2):\n",
		"  t-1 payee=Cafe category=c-1\n",
		"  t-2 flag=red ; orphan\n",
		"Unchanged: 2\n",
		"Skipped (1):\n",
		`  ????-??-?? "broken" identity`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatPlan() missing %q in:\n%s", want, got)
		}
	}

	for _, line := range strings.Split(got, "\n") {
		if strings.HasSuffix(line, "-50.00") && len(line) != amountColumn {
			t.Errorf("amount not aligned: %q (len %d)", line, len(line))
		}
	}
}

func TestFormatPlanInsertOnly(t *testing.T) {
	got := FormatPlan("Solo", reconcile.Plan{InsertOnly: true})
	if !strings.Contains(got, "insert only") {
		t.Errorf("FormatPlan() = %q, want insert-only note", got)
	}
	if strings.Contains(got, "Skipped") {
		t.Errorf("FormatPlan() = %q, want no skipped section", got)
	}
}

func TestFormatStats(t *testing.T) {
	got := FormatStats(&db.Stats{TotalRuns: 4, FailedRuns: 1, TotalImported: 12})
	if !strings.Contains(got, "Total runs:            4\n") || !strings.Contains(got, "(never)") {
		t.Errorf("FormatStats() = %q", got)
	}

	got = FormatStats(&db.Stats{LastSync: sql.NullString{String: "2024-01-05T08:00:00Z", Valid: true}})
	if !strings.Contains(got, "Last sync:             2024-01-05T08:00:00Z\n") {
		t.Errorf("FormatStats() = %q", got)
	}
}

func TestFormatRuns(t *testing.T) {
	if got := FormatRuns(nil); got != "No runs recorded\n" {
		t.Errorf("FormatRuns(nil) = %q", got)
	}

	got := FormatRuns([]db.Run{{
		BudgetName: "Household",
		FinishedAt: time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC),
		Status:     db.RunStatusFailed,
		Inserted:   2,
		Error:      "boom",
	}})
	if !strings.Contains(got, "2024-01-05 08:00:00  Household") || !strings.Contains(got, "+2 ~0 !0") || !strings.Contains(got, "error: boom") {
		t.Errorf("FormatRuns() = %q", got)
	}
}
