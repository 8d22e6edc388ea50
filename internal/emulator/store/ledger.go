package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// Budget is an emulated ledger budget.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LedgerAccount is an account within a budget.
type LedgerAccount struct {
	ID       string `json:"id"`
	BudgetID string `json:"budget_id"`
	Name     string `json:"name"`
	Note     string `json:"note"`
	Closed   bool   `json:"closed"`
}

// CategoryGroup is a category group within a budget.
type CategoryGroup struct {
	ID         string     `json:"id"`
	BudgetID   string     `json:"budget_id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Categories []Category `json:"categories"`
}

// Category is a category within a group.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

// LedgerTransaction is a transaction within a budget.
type LedgerTransaction struct {
	ID         string `json:"id"`
	BudgetID   string `json:"budget_id"`
	AccountID  string `json:"account_id"`
	Date       string `json:"date"`
	Amount     int64  `json:"amount"`
	Memo       string `json:"memo"`
	PayeeName  string `json:"payee_name"`
	CategoryID string `json:"category_id"`
	Cleared    string `json:"cleared"`
	Approved   bool   `json:"approved"`
	FlagColor  string `json:"flag_color"`
	ImportID   string `json:"import_id"`
}

// TransactionPatch lists the fields a patch may set. Nil fields are kept.
type TransactionPatch struct {
	ID         string
	PayeeName  *string
	CategoryID *string
	FlagColor  *string
}

// CreateBudget creates a budget.
func (s *Store) CreateBudget(name string) (*Budget, error) {
	budget := Budget{Name: name}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketBudgets)
		if err != nil {
			return err
		}
		if budget.ID, err = nextID(b, "bud"); err != nil {
			return fmt.Errorf("failed to generate ID: %w", err)
		}
		return put(b, budget.ID, budget)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}
	return &budget, nil
}

// GetBudget retrieves a budget by ID.
func (s *Store) GetBudget(id string) (*Budget, error) {
	var budget Budget
	if err := s.get(BucketBudgets, id, &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// ListBudgets lists all budgets.
func (s *Store) ListBudgets() ([]Budget, error) {
	return list[Budget](s, BucketBudgets, nil)
}

// CreateLedgerAccount creates an account in a budget.
func (s *Store) CreateLedgerAccount(account LedgerAccount) (*LedgerAccount, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketLedgerAccounts)
		if err != nil {
			return err
		}
		if account.ID, err = nextID(b, "lac"); err != nil {
			return fmt.Errorf("failed to generate ID: %w", err)
		}
		return put(b, account.ID, account)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save ledger account: %w", err)
	}
	return &account, nil
}

// ListLedgerAccounts lists a budget's accounts.
func (s *Store) ListLedgerAccounts(budgetID string) ([]LedgerAccount, error) {
	return list(s, BucketLedgerAccounts, func(a *LedgerAccount) bool {
		return a.BudgetID == budgetID
	})
}

// CreateCategoryGroup creates a category group and assigns category IDs.
func (s *Store) CreateCategoryGroup(group CategoryGroup) (*CategoryGroup, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketCategories)
		if err != nil {
			return err
		}
		if group.ID, err = nextID(b, "grp"); err != nil {
			return fmt.Errorf("failed to generate ID: %w", err)
		}
		for i := range group.Categories {
			if group.Categories[i].ID, err = nextID(b, "cat"); err != nil {
				return fmt.Errorf("failed to generate ID: %w", err)
			}
		}
		return put(b, group.ID, group)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save category group: %w", err)
	}
	return &group, nil
}

// ListCategoryGroups lists a budget's category groups.
func (s *Store) ListCategoryGroups(budgetID string) ([]CategoryGroup, error) {
	return list(s, BucketCategories, func(g *CategoryGroup) bool {
		return g.BudgetID == budgetID
	})
}

// ListLedgerTransactions lists a budget's transactions dated on or after since.
func (s *Store) ListLedgerTransactions(budgetID, since string) ([]LedgerTransaction, error) {
	return list(s, BucketLedgerTxns, func(t *LedgerTransaction) bool {
		return t.BudgetID == budgetID && t.Date >= since
	})
}

// InsertLedgerTransactions stores a batch in one transaction. Transactions
// whose import ID already exists in the budget are not stored and their
// import IDs are returned as duplicates.
func (s *Store) InsertLedgerTransactions(budgetID string, txns []LedgerTransaction) (ids, duplicates []string, err error) {
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketLedgerTxns)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		err = b.ForEach(func(k, v []byte) error {
			var t LedgerTransaction
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			if t.BudgetID == budgetID && t.ImportID != "" {
				seen[t.ImportID] = true
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, t := range txns {
			if t.ImportID != "" && seen[t.ImportID] {
				duplicates = append(duplicates, t.ImportID)
				continue
			}
			if t.ImportID != "" {
				seen[t.ImportID] = true
			}

			t.BudgetID = budgetID
			if t.ID, err = nextID(b, "ltx"); err != nil {
				return fmt.Errorf("failed to generate ID: %w", err)
			}
			if err := put(b, t.ID, t); err != nil {
				return err
			}
			ids = append(ids, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert transactions: %w", err)
	}
	return ids, duplicates, nil
}

// PatchLedgerTransactions applies patches in one transaction. Any unknown
// ID fails the whole batch.
func (s *Store) PatchLedgerTransactions(budgetID string, patches []TransactionPatch) ([]string, error) {
	var ids []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketLedgerTxns)
		if err != nil {
			return err
		}

		for _, p := range patches {
			data := b.Get([]byte(p.ID))
			if data == nil {
				return fmt.Errorf("transaction %s: %w", p.ID, ErrNotFound)
			}

			var t LedgerTransaction
			if err := json.Unmarshal(data, &t); err != nil {
				return err
			}
			if t.BudgetID != budgetID {
				return fmt.Errorf("transaction %s: %w", p.ID, ErrNotFound)
			}

			if p.PayeeName != nil {
				t.PayeeName = *p.PayeeName
			}
			if p.CategoryID != nil {
				t.CategoryID = *p.CategoryID
			}
			if p.FlagColor != nil {
				t.FlagColor = *p.FlagColor
			}
			if err := put(b, t.ID, t); err != nil {
				return err
			}
			ids = append(ids, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetLedgerTransaction retrieves a ledger transaction by ID.
func (s *Store) GetLedgerTransaction(id string) (*LedgerTransaction, error) {
	var t LedgerTransaction
	if err := s.get(BucketLedgerTxns, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
