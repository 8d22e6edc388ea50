// Package reconcile decides which bank transactions to insert into the
// ledger and which ledger transactions to patch.
//
// Decisions are made purely from the snapshots passed in. Nothing is written
// here; the caller issues the resulting batches after the plan is complete.
package reconcile

import (
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/enrich"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/identity"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/rules"
)

// DefaultFlagColor marks orphaned ledger transactions.
const DefaultFlagColor = "red"

// OrphanPolicy controls flagging of ledger transactions whose bank
// counterpart disappeared.
type OrphanPolicy struct {
	Enabled   bool
	FlagColor string
}

// SkipReason explains why a bank transaction produced no operation.
type SkipReason string

const (
	SkipIdentity        SkipReason = "identity"
	SkipUnmappedAccount SkipReason = "unmapped_account"
	SkipDuplicate       SkipReason = "duplicate_import_id"
)

// Skip describes a bank transaction that was left out.
type Skip struct {
	Transaction model.BankTransaction
	Reason      SkipReason
	Err         error
}

// Input holds the snapshots and configuration for one budget pass.
type Input struct {
	Bank       []model.BankTransaction
	Ledger     []model.LedgerTransaction
	Accounts   *AccountMap
	Resolver   identity.Resolver
	Rules      *rules.Set // nil runs insert-only
	Categories enrich.CategoryIndex
	Orphans    OrphanPolicy
}

// Plan is the outcome of a reconciliation.
type Plan struct {
	Insert     []model.LedgerTransaction
	Patch      []model.LedgerTransaction
	Unchanged  []string // import ids already present in the ledger
	Orphans    []string // ledger ids flagged in Patch
	Skipped    []Skip
	InsertOnly bool
}

// Empty reports whether the plan has nothing to write.
func (p Plan) Empty() bool {
	return len(p.Insert) == 0 && len(p.Patch) == 0
}

// Reconcile computes the insert and patch batches for one budget.
//
// Inserts follow the bank's order and patches the ledger's order. The
// existence check uses the ledger snapshot as read, so an import id is
// inserted at most once as long as the snapshot is fresh.
func Reconcile(in Input) Plan {
	var plan Plan

	existing := make(map[string]struct{}, len(in.Ledger))
	for _, txn := range in.Ledger {
		if txn.ImportID != "" {
			existing[txn.ImportID] = struct{}{}
		}
	}

	current := make(map[string]struct{}, len(in.Bank))
	for _, bankTxn := range in.Bank {
		accountID, ok := in.Accounts.LedgerAccount(bankTxn.SourceAccountID)
		if !ok {
			plan.Skipped = append(plan.Skipped, Skip{Transaction: bankTxn, Reason: SkipUnmappedAccount})
			continue
		}

		importID, err := in.Resolver.Resolve(bankTxn)
		if err != nil {
			plan.Skipped = append(plan.Skipped, Skip{Transaction: bankTxn, Reason: SkipIdentity, Err: err})
			continue
		}

		if _, dup := current[importID]; dup {
			plan.Skipped = append(plan.Skipped, Skip{Transaction: bankTxn, Reason: SkipDuplicate})
			continue
		}
		current[importID] = struct{}{}

		if _, ok := existing[importID]; ok {
			plan.Unchanged = append(plan.Unchanged, importID)
			continue
		}

		payload := model.LedgerTransaction{
			ImportID:  importID,
			AccountID: accountID,
			Date:      bankTxn.OccurredOn.Format(model.DateLayout),
			Amount:    bankTxn.Amount,
			Memo:      bankTxn.Memo,
			Cleared:   bankTxn.Cleared,
		}
		payload, _ = enrich.Enrich(payload, in.Rules, in.Categories)
		plan.Insert = append(plan.Insert, payload)
	}

	if in.Rules == nil {
		plan.InsertOnly = true
		return plan
	}

	flagColor := in.Orphans.FlagColor
	if flagColor == "" {
		flagColor = DefaultFlagColor
	}
	flagOrphans := in.Orphans.Enabled && !in.Resolver.Scheme().StableIdentity()

	for _, ledgerTxn := range in.Ledger {
		patched, changed := ledgerTxn, false
		if !ledgerTxn.HasPayee() || !ledgerTxn.HasCategory() {
			patched, changed = enrich.Enrich(ledgerTxn, in.Rules, in.Categories)
		}

		if flagOrphans && isOrphan(ledgerTxn, current, in.Accounts, flagColor) {
			patched.FlagColor = flagColor
			changed = true
			plan.Orphans = append(plan.Orphans, ledgerTxn.ID)
		}

		if changed {
			plan.Patch = append(plan.Patch, patched)
		}
	}

	return plan
}

// isOrphan reports whether an uncleared ledger transaction that this tool
// imported no longer matches any current bank transaction.
func isOrphan(txn model.LedgerTransaction, current map[string]struct{}, accounts *AccountMap, flagColor string) bool {
	if txn.Cleared != model.Uncleared || txn.FlagColor == flagColor {
		return false
	}
	if !identity.IsContentHash(txn.ImportID) || !accounts.IsLinked(txn.AccountID) {
		return false
	}
	_, found := current[txn.ImportID]
	return !found
}
