// Package gateway defines the contracts the sync pass needs from the bank
// and the ledger service.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

// BankGateway supplies accounts and transactions from the bank.
type BankGateway interface {
	ListAccounts(ctx context.Context) ([]model.BankAccount, error)
	ListTransactions(ctx context.Context, accountID string, since time.Time) ([]model.BankTransaction, error)
}

// LedgerGateway reads and writes the budgeting ledger.
type LedgerGateway interface {
	ListBudgets(ctx context.Context) ([]model.Budget, error)
	ListAccounts(ctx context.Context, budgetID string) ([]model.LedgerAccount, error)
	ListCategories(ctx context.Context, budgetID string) ([]model.CategoryGroup, error)
	ListTransactions(ctx context.Context, budgetID string, since time.Time) ([]model.LedgerTransaction, error)
	InsertTransactions(ctx context.Context, budgetID string, txns []model.LedgerTransaction) (InsertResult, error)
	PatchTransactions(ctx context.Context, budgetID string, txns []model.LedgerTransaction) error
}

// InsertResult is the ledger's acknowledgement of an insert batch.
type InsertResult struct {
	TransactionIDs     []string
	DuplicateImportIDs []string
}

// Error is returned for any transport, authentication or API failure.
type Error struct {
	Service    string // "sbanken" or "ynab"
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s API error: %s (status %d): %s", e.Service, e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error: %s (status %d)", e.Service, e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s API error: %s: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}
