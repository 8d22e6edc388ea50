package store

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BankAccount is an emulated bank account.
type BankAccount struct {
	ID      string  `json:"id"`
	Number  string  `json:"number"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// BankTransaction is an emulated bank transaction.
type BankTransaction struct {
	ID              string  `json:"id"`
	AccountID       string  `json:"account_id"`
	AccountingDate  string  `json:"accounting_date"` // YYYY-MM-DD
	Amount          float64 `json:"amount"`
	Text            string  `json:"text"`
	TransactionType string  `json:"transaction_type"`
	IsReservation   bool    `json:"is_reservation"`
}

// CreateBankAccount creates a bank account.
func (s *Store) CreateBankAccount(account BankAccount) (*BankAccount, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketBankAccounts)
		if err != nil {
			return err
		}
		if account.ID == "" {
			if account.ID, err = nextID(b, "acc"); err != nil {
				return fmt.Errorf("failed to generate ID: %w", err)
			}
		}
		return put(b, account.ID, account)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save bank account: %w", err)
	}
	return &account, nil
}

// ListBankAccounts lists all bank accounts.
func (s *Store) ListBankAccounts() ([]BankAccount, error) {
	return list[BankAccount](s, BucketBankAccounts, nil)
}

// CreateBankTransaction creates a transaction on an existing bank account.
func (s *Store) CreateBankTransaction(txn BankTransaction) (*BankTransaction, error) {
	var account BankAccount
	if err := s.get(BucketBankAccounts, txn.AccountID, &account); err != nil {
		return nil, err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketBankTxns)
		if err != nil {
			return err
		}
		if txn.ID, err = nextID(b, "btx"); err != nil {
			return fmt.Errorf("failed to generate ID: %w", err)
		}
		return put(b, txn.ID, txn)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save bank transaction: %w", err)
	}
	return &txn, nil
}

// ListBankTransactions lists an account's transactions on or after since
// (YYYY-MM-DD). An empty since lists all of them.
func (s *Store) ListBankTransactions(accountID, since string) ([]BankTransaction, error) {
	return list(s, BucketBankTxns, func(t *BankTransaction) bool {
		return t.AccountID == accountID && t.AccountingDate >= since
	})
}

// DeleteBankTransaction removes a bank transaction, e.g. an expired reservation.
func (s *Store) DeleteBankTransaction(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketBankTxns)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}
