package reconcile

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

// AccountLink ties a ledger account (identified by its note) to a bank
// account number.
type AccountLink struct {
	Note          string
	AccountNumber string
}

// AccountMap routes bank accounts to ledger accounts for one budget.
// It is rebuilt every pass and never updated in place.
type AccountMap struct {
	noteToLedger map[string]string
	ledgerToNote map[string]string
	bankToLedger map[string]string
	bankIDs      []string
}

// NewAccountMap builds the map from configured links and the current account
// lists. Links that cannot be resolved, or that reuse a note or account
// number already taken, are skipped and described in the returned warnings.
func NewAccountMap(links []AccountLink, ledger []model.LedgerAccount, bank []model.BankAccount) (*AccountMap, []string) {
	ledgerByNote := make(map[string]model.LedgerAccount)
	for _, account := range ledger {
		if account.Deleted {
			continue
		}
		note := strings.TrimSpace(account.Note)
		if note == "" {
			continue
		}
		if _, ok := ledgerByNote[note]; !ok {
			ledgerByNote[note] = account
		}
	}

	bankByNumber := make(map[string]model.BankAccount)
	for _, account := range bank {
		bankByNumber[NormalizeAccountNumber(account.Number)] = account
	}

	m := &AccountMap{
		noteToLedger: make(map[string]string),
		ledgerToNote: make(map[string]string),
		bankToLedger: make(map[string]string),
	}

	var warnings []string
	for _, link := range links {
		note := strings.TrimSpace(link.Note)
		number := NormalizeAccountNumber(link.AccountNumber)

		ledgerAccount, ok := ledgerByNote[note]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no ledger account with note %q", note))
			continue
		}
		if ledgerAccount.Closed {
			warnings = append(warnings, fmt.Sprintf("ledger account %q is closed", ledgerAccount.Name))
			continue
		}
		bankAccount, ok := bankByNumber[number]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no bank account with number %q", link.AccountNumber))
			continue
		}
		if _, taken := m.noteToLedger[note]; taken {
			warnings = append(warnings, fmt.Sprintf("note %q is linked more than once", note))
			continue
		}
		if _, taken := m.bankToLedger[bankAccount.ID]; taken {
			warnings = append(warnings, fmt.Sprintf("bank account %q is linked more than once", link.AccountNumber))
			continue
		}

		m.noteToLedger[note] = ledgerAccount.ID
		m.ledgerToNote[ledgerAccount.ID] = note
		m.bankToLedger[bankAccount.ID] = ledgerAccount.ID
		m.bankIDs = append(m.bankIDs, bankAccount.ID)
	}

	return m, warnings
}

// LedgerAccount returns the ledger account id for a bank account id.
func (m *AccountMap) LedgerAccount(bankAccountID string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.bankToLedger[bankAccountID]
	return id, ok
}

// LedgerAccountForNote returns the ledger account id linked to a note.
func (m *AccountMap) LedgerAccountForNote(note string) (string, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.noteToLedger[strings.TrimSpace(note)]
	return id, ok
}

// NoteFor returns the note of a linked ledger account.
func (m *AccountMap) NoteFor(ledgerAccountID string) (string, bool) {
	if m == nil {
		return "", false
	}
	note, ok := m.ledgerToNote[ledgerAccountID]
	return note, ok
}

// IsLinked reports whether a ledger account receives bank transactions.
func (m *AccountMap) IsLinked(ledgerAccountID string) bool {
	_, ok := m.NoteFor(ledgerAccountID)
	return ok
}

// BankAccountIDs returns the linked bank account ids in configuration order.
func (m *AccountMap) BankAccountIDs() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.bankIDs...)
}

// Len returns the number of links.
func (m *AccountMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bankIDs)
}

// NormalizeAccountNumber strips the separators banks print inside account
// numbers ("9710.12.34567" → "97101234567").
func NormalizeAccountNumber(number string) string {
	return strings.NewReplacer(".", "", " ", "", "-", "").Replace(strings.TrimSpace(number))
}
