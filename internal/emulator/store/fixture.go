package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture describes the initial emulator state.
type Fixture struct {
	Bank struct {
		Accounts []FixtureBankAccount `yaml:"accounts"`
	} `yaml:"bank"`
	Budgets []FixtureBudget `yaml:"budgets"`
}

// FixtureBankAccount is a bank account with its transactions.
type FixtureBankAccount struct {
	Number       string               `yaml:"number"`
	Name         string               `yaml:"name"`
	Balance      float64              `yaml:"balance"`
	Transactions []FixtureTransaction `yaml:"transactions"`
}

// FixtureTransaction is a bank transaction.
type FixtureTransaction struct {
	Date        string  `yaml:"date"`
	Amount      float64 `yaml:"amount"`
	Text        string  `yaml:"text"`
	Type        string  `yaml:"type"`
	Reservation bool    `yaml:"reservation"`
}

// FixtureBudget is a budget with its accounts and categories.
type FixtureBudget struct {
	Name           string                 `yaml:"name"`
	Accounts       []FixtureLedgerAccount `yaml:"accounts"`
	CategoryGroups []FixtureCategoryGroup `yaml:"category_groups"`
}

// FixtureLedgerAccount is an account within a budget.
type FixtureLedgerAccount struct {
	Name   string `yaml:"name"`
	Note   string `yaml:"note"`
	Closed bool   `yaml:"closed"`
}

// FixtureCategoryGroup is a category group with category names.
type FixtureCategoryGroup struct {
	Name       string   `yaml:"name"`
	Categories []string `yaml:"categories"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Seed creates every record in the fixture.
func (s *Store) Seed(f *Fixture) error {
	for _, a := range f.Bank.Accounts {
		account, err := s.CreateBankAccount(BankAccount{Number: a.Number, Name: a.Name, Balance: a.Balance})
		if err != nil {
			return err
		}
		for _, t := range a.Transactions {
			_, err := s.CreateBankTransaction(BankTransaction{
				AccountID:       account.ID,
				AccountingDate:  t.Date,
				Amount:          t.Amount,
				Text:            t.Text,
				TransactionType: t.Type,
				IsReservation:   t.Reservation,
			})
			if err != nil {
				return err
			}
		}
	}

	for _, fb := range f.Budgets {
		budget, err := s.CreateBudget(fb.Name)
		if err != nil {
			return err
		}
		for _, a := range fb.Accounts {
			if _, err := s.CreateLedgerAccount(LedgerAccount{BudgetID: budget.ID, Name: a.Name, Note: a.Note, Closed: a.Closed}); err != nil {
				return err
			}
		}
		for _, g := range fb.CategoryGroups {
			group := CategoryGroup{BudgetID: budget.ID, Name: g.Name}
			for _, name := range g.Categories {
				group.Categories = append(group.Categories, Category{Name: name})
			}
			if _, err := s.CreateCategoryGroup(group); err != nil {
				return err
			}
		}
	}
	return nil
}
