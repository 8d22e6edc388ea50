// Package ynab provides the YNAB API client and types.
package ynab

// Budget represents a budget summary.
type Budget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account represents an account in a budget.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	OnBudget bool    `json:"on_budget"`
	Closed   bool    `json:"closed"`
	Note     *string `json:"note,omitempty"`
	Balance  int64   `json:"balance"`
	Deleted  bool    `json:"deleted"`
}

// CategoryGroup represents a category group with its categories.
type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories"`
}

// Category represents a budget category.
type Category struct {
	ID              string `json:"id"`
	CategoryGroupID string `json:"category_group_id"`
	Name            string `json:"name"`
	Hidden          bool   `json:"hidden"`
	Deleted         bool   `json:"deleted"`
}

// Transaction represents a transaction as returned by the API.
type Transaction struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Amount     int64   `json:"amount"`
	Memo       *string `json:"memo"`
	Cleared    string  `json:"cleared"`
	Approved   bool    `json:"approved"`
	FlagColor  *string `json:"flag_color"`
	AccountID  string  `json:"account_id"`
	PayeeID    *string `json:"payee_id"`
	PayeeName  *string `json:"payee_name"`
	CategoryID *string `json:"category_id"`
	ImportID   *string `json:"import_id"`
	Deleted    bool    `json:"deleted"`
}

// SaveTransaction is the payload for creating a transaction.
type SaveTransaction struct {
	AccountID  string  `json:"account_id"`
	Date       string  `json:"date"`
	Amount     int64   `json:"amount"`
	PayeeName  *string `json:"payee_name,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	Cleared    string  `json:"cleared,omitempty"`
	Approved   bool    `json:"approved"`
	FlagColor  *string `json:"flag_color,omitempty"`
	ImportID   *string `json:"import_id,omitempty"`
}

// PatchTransaction is the payload for updating an existing transaction.
// Unset fields are omitted and left unchanged by the ledger. A payee that
// already exists is sent by id so the ledger never resolves it again by
// name.
type PatchTransaction struct {
	ID         string  `json:"id"`
	PayeeID    *string `json:"payee_id,omitempty"`
	PayeeName  *string `json:"payee_name,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	FlagColor  *string `json:"flag_color,omitempty"`
}

// SaveTransactionsRequest is the body of POST /budgets/{id}/transactions.
type SaveTransactionsRequest struct {
	Transactions []SaveTransaction `json:"transactions"`
}

// PatchTransactionsRequest is the body of PATCH /budgets/{id}/transactions.
type PatchTransactionsRequest struct {
	Transactions []PatchTransaction `json:"transactions"`
}

// BudgetsResponse represents the response from /budgets.
type BudgetsResponse struct {
	Data struct {
		Budgets []Budget `json:"budgets"`
	} `json:"data"`
}

// AccountsResponse represents the response from /budgets/{id}/accounts.
type AccountsResponse struct {
	Data struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

// CategoriesResponse represents the response from /budgets/{id}/categories.
type CategoriesResponse struct {
	Data struct {
		CategoryGroups []CategoryGroup `json:"category_groups"`
	} `json:"data"`
}

// TransactionsResponse represents the response from /budgets/{id}/transactions.
type TransactionsResponse struct {
	Data struct {
		Transactions []Transaction `json:"transactions"`
	} `json:"data"`
}

// SaveTransactionsResponse represents the response to an insert batch.
type SaveTransactionsResponse struct {
	Data struct {
		TransactionIDs     []string `json:"transaction_ids"`
		DuplicateImportIDs []string `json:"duplicate_import_ids"`
	} `json:"data"`
}

// ErrorResponse represents an error response from the YNAB API.
type ErrorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}
