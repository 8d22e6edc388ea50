package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/enrich"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/identity"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/rules"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testAccounts(t *testing.T) *AccountMap {
	t.Helper()
	m, warnings := NewAccountMap(
		[]AccountLink{{Note: "sbanken:checking", AccountNumber: "9710.12.34567"}},
		[]model.LedgerAccount{{ID: "ledger-checking", Name: "Checking", Note: "sbanken:checking"}},
		[]model.BankAccount{{ID: "100", Number: "97101234567", Name: "Brukskonto"}},
	)
	require.Empty(t, warnings)
	return m
}

func testRules(t *testing.T) *rules.Set {
	t.Helper()
	set, err := rules.NewSet(
		rules.PayeeRules{{Name: "Cafe", Patterns: []string{"CFE"}}},
		rules.CategoryRules{{Name: "Dining", Payees: []string{"Cafe"}}},
	)
	require.NoError(t, err)
	return set
}

func testCategories() enrich.CategoryIndex {
	return enrich.NewCategoryIndex([]model.CategoryGroup{
		{ID: "g", Name: "Everyday", Categories: []model.Category{{ID: "cat-dining", Name: "Dining"}}},
	})
}

func cafeTxn() model.BankTransaction {
	return model.BankTransaction{
		SourceAccountID: "100",
		OccurredOn:      day("2024-01-05"),
		Amount:          -5000,
		Memo:            "CFE 42",
		Cleared:         model.Cleared,
	}
}

func testInput(t *testing.T, bank []model.BankTransaction, ledger []model.LedgerTransaction) Input {
	return Input{
		Bank:       bank,
		Ledger:     ledger,
		Accounts:   testAccounts(t),
		Resolver:   identity.NewResolver(identity.SchemeContentHash),
		Rules:      testRules(t),
		Categories: testCategories(),
		Orphans:    OrphanPolicy{Enabled: true},
	}
}

func TestReconcileInsertsEnrichedTransaction(t *testing.T) {
	bankTxn := cafeTxn()
	plan := Reconcile(testInput(t, []model.BankTransaction{bankTxn}, nil))

	hash, err := identity.ContentHash(bankTxn)
	require.NoError(t, err)

	require.Len(t, plan.Insert, 1)
	require.Empty(t, plan.Patch)
	require.Equal(t, model.LedgerTransaction{
		ImportID:   hash,
		AccountID:  "ledger-checking",
		Date:       "2024-01-05",
		Amount:     -5000,
		Memo:       "CFE 42",
		PayeeName:  "Cafe",
		CategoryID: "cat-dining",
		Cleared:    model.Cleared,
	}, plan.Insert[0])
}

func TestReconcileIdempotentInsert(t *testing.T) {
	bank := []model.BankTransaction{cafeTxn()}
	first := Reconcile(testInput(t, bank, nil))
	require.Len(t, first.Insert, 1)

	ledger := make([]model.LedgerTransaction, 0, len(first.Insert))
	for i, txn := range first.Insert {
		txn.ID = "ledger-" + string(rune('a'+i))
		ledger = append(ledger, txn)
	}

	second := Reconcile(testInput(t, bank, ledger))
	require.Empty(t, second.Insert)
	require.Empty(t, second.Patch)
	require.Equal(t, []string{first.Insert[0].ImportID}, second.Unchanged)
}

func TestReconcileExistingEnrichedTransactionUntouched(t *testing.T) {
	bankTxn := cafeTxn()
	hash, _ := identity.ContentHash(bankTxn)
	ledger := []model.LedgerTransaction{{
		ID: "l1", ImportID: hash, AccountID: "ledger-checking", Date: "2024-01-05",
		Amount: -5000, Memo: "CFE 42", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared,
	}}

	plan := Reconcile(testInput(t, []model.BankTransaction{bankTxn}, ledger))
	require.Empty(t, plan.Insert)
	require.Empty(t, plan.Patch)
	require.Empty(t, plan.Orphans)
}

func TestReconcileNeverOverridesPayee(t *testing.T) {
	ledger := []model.LedgerTransaction{{
		ID: "l1", ImportID: "manual", AccountID: "ledger-checking", Memo: "CFE 99",
		PayeeName: "Landlord", CategoryID: "cat-rent", Cleared: model.Cleared,
	}}

	plan := Reconcile(testInput(t, nil, ledger))
	require.Empty(t, plan.Patch)
}

func TestReconcilePatchesMissingFields(t *testing.T) {
	original := model.LedgerTransaction{ID: "l1", AccountID: "ledger-checking", Memo: "CFE 99", Cleared: model.Cleared}
	ledger := []model.LedgerTransaction{
		original,
		{ID: "l2", Memo: "Salary", Cleared: model.Cleared},
		{ID: "l3", Memo: "whatever", PayeeID: "p-cafe", PayeeName: "Cafe", Cleared: model.Cleared},
	}

	plan := Reconcile(testInput(t, nil, ledger))
	require.Len(t, plan.Patch, 2)
	require.Equal(t, "l1", plan.Patch[0].ID)
	require.Equal(t, "Cafe", plan.Patch[0].PayeeName)
	require.Equal(t, "cat-dining", plan.Patch[0].CategoryID)
	require.Equal(t, "l3", plan.Patch[1].ID)
	require.Equal(t, "cat-dining", plan.Patch[1].CategoryID)
	require.Equal(t, "p-cafe", plan.Patch[1].PayeeID)

	// The snapshot passed in is never modified.
	require.Equal(t, original, ledger[0])
}

func TestReconcileFlagsOrphan(t *testing.T) {
	stale, _ := identity.ContentHash(model.BankTransaction{OccurredOn: day("2024-01-04"), Amount: -5000, Memo: "CFE 4"})
	ledger := []model.LedgerTransaction{
		{ID: "orphan", ImportID: stale, AccountID: "ledger-checking", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared},
		{ID: "cleared", ImportID: stale, AccountID: "ledger-checking", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Cleared},
		{ID: "foreign", ImportID: "YNAB:-5000:2024-01-04:1", AccountID: "ledger-checking", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared},
		{ID: "other-account", ImportID: stale, AccountID: "ledger-savings", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared},
		{ID: "already-flagged", ImportID: stale, AccountID: "ledger-checking", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared, FlagColor: "red"},
	}

	plan := Reconcile(testInput(t, []model.BankTransaction{cafeTxn()}, ledger))
	require.Equal(t, []string{"orphan"}, plan.Orphans)
	require.Len(t, plan.Patch, 1)
	require.Equal(t, "red", plan.Patch[0].FlagColor)
	require.Equal(t, "", ledger[0].FlagColor)
}

func TestReconcileOrphanMergedWithEnrichment(t *testing.T) {
	stale, _ := identity.ContentHash(model.BankTransaction{OccurredOn: day("2024-01-04"), Amount: -100, Memo: "CFE 1"})
	ledger := []model.LedgerTransaction{
		{ID: "o", ImportID: stale, AccountID: "ledger-checking", Memo: "CFE 1", Cleared: model.Uncleared},
	}

	in := testInput(t, nil, ledger)
	in.Orphans.FlagColor = "purple"
	plan := Reconcile(in)

	require.Len(t, plan.Patch, 1)
	require.Equal(t, "Cafe", plan.Patch[0].PayeeName)
	require.Equal(t, "purple", plan.Patch[0].FlagColor)
}

func TestReconcileOrphanPolicy(t *testing.T) {
	stale, _ := identity.ContentHash(model.BankTransaction{OccurredOn: day("2024-01-04"), Amount: -100, Memo: "CFE 1"})
	ledger := []model.LedgerTransaction{
		{ID: "o", ImportID: stale, AccountID: "ledger-checking", PayeeName: "Cafe", CategoryID: "cat-dining", Cleared: model.Uncleared},
	}

	disabled := testInput(t, nil, ledger)
	disabled.Orphans.Enabled = false
	require.Empty(t, Reconcile(disabled).Orphans)

	stable := testInput(t, nil, ledger)
	stable.Resolver = identity.NewResolver(identity.SchemeBankID)
	require.Empty(t, Reconcile(stable).Orphans)
}

func TestReconcileInsertOnlyWithoutRules(t *testing.T) {
	in := testInput(t, []model.BankTransaction{cafeTxn()}, []model.LedgerTransaction{
		{ID: "l1", Memo: "CFE 1", Cleared: model.Uncleared},
	})
	in.Rules = nil

	plan := Reconcile(in)
	require.True(t, plan.InsertOnly)
	require.Len(t, plan.Insert, 1)
	require.Empty(t, plan.Insert[0].PayeeName)
	require.Empty(t, plan.Patch)
}

func TestReconcileSkips(t *testing.T) {
	unmapped := cafeTxn()
	unmapped.SourceAccountID = "999"
	undated := cafeTxn()
	undated.OccurredOn = time.Time{}
	first := cafeTxn()
	duplicate := cafeTxn()

	plan := Reconcile(testInput(t, []model.BankTransaction{unmapped, undated, first, duplicate}, nil))

	require.Len(t, plan.Insert, 1)
	require.Len(t, plan.Skipped, 3)
	require.Equal(t, SkipUnmappedAccount, plan.Skipped[0].Reason)
	require.Equal(t, SkipIdentity, plan.Skipped[1].Reason)
	require.ErrorIs(t, plan.Skipped[1].Err, identity.ErrIdentity)
	require.Equal(t, SkipDuplicate, plan.Skipped[2].Reason)
}

func TestReconcileDistinctTransactionsSameDay(t *testing.T) {
	a := cafeTxn()
	a.Amount, a.Memo = -1000, "23 REMA 1000"
	b := cafeTxn()
	b.Amount, b.Memo = -10002, "3 REMA 1000"

	plan := Reconcile(testInput(t, []model.BankTransaction{a, b}, nil))

	require.Len(t, plan.Insert, 2)
	require.Empty(t, plan.Skipped)
	require.NotEqual(t, plan.Insert[0].ImportID, plan.Insert[1].ImportID)
}

func TestReconcileKeepsBankOrder(t *testing.T) {
	var bank []model.BankTransaction
	for _, memo := range []string{"c", "a", "b"} {
		txn := cafeTxn()
		txn.Memo = memo
		bank = append(bank, txn)
	}

	plan := Reconcile(testInput(t, bank, nil))
	require.Len(t, plan.Insert, 3)
	require.Equal(t, "c", plan.Insert[0].Memo)
	require.Equal(t, "a", plan.Insert[1].Memo)
	require.Equal(t, "b", plan.Insert[2].Memo)
}

func TestReconcileBankIDScheme(t *testing.T) {
	txn := cafeTxn()
	txn.ExternalID = "sb-123"

	in := testInput(t, []model.BankTransaction{txn}, nil)
	in.Resolver = identity.NewResolver(identity.SchemeBankID)
	plan := Reconcile(in)

	require.Len(t, plan.Insert, 1)
	require.Equal(t, "sb-123", plan.Insert[0].ImportID)
}
