// Package enrich infers payee and category for transactions that lack them.
// All functions are pure: they take a transaction by value and return the
// updated copy.
package enrich

import (
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/rules"
)

// InferPayee sets the payee from the first matching rule.
// Transactions that already have a payee or have no memo are returned unchanged.
func InferPayee(txn model.LedgerTransaction, payees rules.PayeeRules) model.LedgerTransaction {
	if txn.HasPayee() || txn.Memo == "" {
		return txn
	}
	if name, ok := payees.Match(txn.Memo); ok {
		txn.PayeeName = name
	}
	return txn
}

// InferCategory sets the category of the first category rule listing the
// payee. It needs a payee and runs only while the category is unset.
func InferCategory(txn model.LedgerTransaction, categories rules.CategoryRules, index CategoryIndex) model.LedgerTransaction {
	if !txn.HasPayee() || txn.HasCategory() {
		return txn
	}
	name, ok := categories.CategoryFor(txn.PayeeName)
	if !ok {
		return txn
	}
	if id, ok := index.Lookup(name); ok {
		txn.CategoryID = id
	}
	return txn
}

// Enrich runs payee then category inference and reports whether anything changed.
func Enrich(txn model.LedgerTransaction, set *rules.Set, index CategoryIndex) (model.LedgerTransaction, bool) {
	if set == nil {
		return txn, false
	}
	out := InferPayee(txn, set.Payees)
	out = InferCategory(out, set.Categories, index)
	return out, out.PayeeName != txn.PayeeName || out.CategoryID != txn.CategoryID
}
