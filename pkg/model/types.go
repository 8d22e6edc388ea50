// Package model provides the data contracts shared by the reconciliation core
// and the bank/ledger gateways.
package model

import "time"

// DateLayout is the ledger's date representation.
const DateLayout = "2006-01-02"

// ClearedState represents the clearing status of a transaction.
type ClearedState string

const (
	Cleared    ClearedState = "cleared"
	Uncleared  ClearedState = "uncleared"
	Reconciled ClearedState = "reconciled"
)

// BankTransaction represents a transaction fetched from the bank.
// It is immutable once fetched and lives for one sync pass.
type BankTransaction struct {
	SourceAccountID string
	OccurredOn      time.Time
	Amount          int64  // milliunits
	Memo            string // empty when the bank sent no text
	Cleared         ClearedState
	ExternalID      string // bank-assigned id, empty when not supplied
}

// LedgerTransaction represents a transaction in the budgeting ledger.
// It is also used as the insert and patch payload. It holds no reference
// fields, so a copy never aliases the gateway's snapshot.
type LedgerTransaction struct {
	ID         string
	ImportID   string
	AccountID  string
	Date       string // YYYY-MM-DD
	Amount     int64  // milliunits
	Memo       string
	PayeeID    string // ledger-assigned id of an existing payee
	PayeeName  string // empty when unset
	CategoryID string // empty when unset
	Cleared    ClearedState
	Approved   bool
	FlagColor  string
}

// HasPayee reports whether a payee is set.
func (t LedgerTransaction) HasPayee() bool {
	return t.PayeeName != ""
}

// HasCategory reports whether a category is set.
func (t LedgerTransaction) HasCategory() bool {
	return t.CategoryID != ""
}

// BankAccount represents an account at the bank.
type BankAccount struct {
	ID     string
	Number string
	Name   string
}

// Budget represents a budget in the ledger.
type Budget struct {
	ID   string
	Name string
}

// LedgerAccount represents an account inside a ledger budget.
type LedgerAccount struct {
	ID      string
	Name    string
	Note    string
	Closed  bool
	Deleted bool
}

// CategoryGroup represents a group of ledger categories.
type CategoryGroup struct {
	ID         string
	Name       string
	Hidden     bool
	Deleted    bool
	Categories []Category
}

// Category represents a ledger category.
type Category struct {
	ID      string
	Name    string
	Hidden  bool
	Deleted bool
}
