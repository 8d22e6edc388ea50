package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/store"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/ynab"
)

// LedgerHandler handles ledger API endpoints.
type LedgerHandler struct {
	store *store.Store
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(s *store.Store) *LedgerHandler {
	return &LedgerHandler{store: s}
}

// BudgetCtx resolves {budgetID} and rejects unknown budgets.
func (h *LedgerHandler) BudgetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.store.GetBudget(chi.URLParam(r, "budgetID")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeLedgerError(w, http.StatusNotFound, "404.2", "resource_not_found", "Budget not found")
				return
			}
			writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListBudgets handles GET /budgets.
func (h *LedgerHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.store.ListBudgets()
	if err != nil {
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.BudgetsResponse
	resp.Data.Budgets = make([]ynab.Budget, 0, len(budgets))
	for _, b := range budgets {
		resp.Data.Budgets = append(resp.Data.Budgets, ynab.Budget{ID: b.ID, Name: b.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAccounts handles GET /budgets/{budgetID}/accounts.
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListLedgerAccounts(chi.URLParam(r, "budgetID"))
	if err != nil {
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.AccountsResponse
	resp.Data.Accounts = make([]ynab.Account, 0, len(accounts))
	for _, a := range accounts {
		account := ynab.Account{ID: a.ID, Name: a.Name, Type: "checking", OnBudget: true, Closed: a.Closed}
		if a.Note != "" {
			note := a.Note
			account.Note = &note
		}
		resp.Data.Accounts = append(resp.Data.Accounts, account)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCategories handles GET /budgets/{budgetID}/categories.
func (h *LedgerHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListCategoryGroups(chi.URLParam(r, "budgetID"))
	if err != nil {
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.CategoriesResponse
	resp.Data.CategoryGroups = make([]ynab.CategoryGroup, 0, len(groups))
	for _, g := range groups {
		group := ynab.CategoryGroup{ID: g.ID, Name: g.Name, Hidden: g.Hidden, Categories: make([]ynab.Category, 0, len(g.Categories))}
		for _, c := range g.Categories {
			group.Categories = append(group.Categories, ynab.Category{
				ID:              c.ID,
				CategoryGroupID: g.ID,
				Name:            c.Name,
				Hidden:          c.Hidden,
			})
		}
		resp.Data.CategoryGroups = append(resp.Data.CategoryGroups, group)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTransactions handles GET /budgets/{budgetID}/transactions.
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since_date")
	if since != "" {
		if _, err := time.Parse(model.DateLayout, since); err != nil {
			writeLedgerError(w, http.StatusBadRequest, "400", "bad_request", "since_date is invalid")
			return
		}
	}

	txns, err := h.store.ListLedgerTransactions(chi.URLParam(r, "budgetID"), since)
	if err != nil {
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.TransactionsResponse
	resp.Data.Transactions = make([]ynab.Transaction, 0, len(txns))
	for _, t := range txns {
		resp.Data.Transactions = append(resp.Data.Transactions, toAPITransaction(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTransactions handles POST /budgets/{budgetID}/transactions.
// Import ids already present in the budget are reported, not stored.
func (h *LedgerHandler) CreateTransactions(w http.ResponseWriter, r *http.Request) {
	var req ynab.SaveTransactionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "400", "bad_request", "Failed to parse request body")
		return
	}

	txns := make([]store.LedgerTransaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		if t.AccountID == "" {
			writeLedgerError(w, http.StatusBadRequest, "400", "bad_request", "account_id is required")
			return
		}
		if _, err := time.Parse(model.DateLayout, t.Date); err != nil {
			writeLedgerError(w, http.StatusBadRequest, "400", "bad_request", "date is invalid")
			return
		}
		txns = append(txns, store.LedgerTransaction{
			AccountID:  t.AccountID,
			Date:       t.Date,
			Amount:     t.Amount,
			Memo:       value(t.Memo),
			PayeeName:  value(t.PayeeName),
			CategoryID: value(t.CategoryID),
			Cleared:    t.Cleared,
			Approved:   t.Approved,
			FlagColor:  value(t.FlagColor),
			ImportID:   value(t.ImportID),
		})
	}

	ids, duplicates, err := h.store.InsertLedgerTransactions(chi.URLParam(r, "budgetID"), txns)
	if err != nil {
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.SaveTransactionsResponse
	resp.Data.TransactionIDs = ids
	resp.Data.DuplicateImportIDs = duplicates
	if resp.Data.TransactionIDs == nil {
		resp.Data.TransactionIDs = []string{}
	}
	if resp.Data.DuplicateImportIDs == nil {
		resp.Data.DuplicateImportIDs = []string{}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateTransactions handles PATCH /budgets/{budgetID}/transactions.
func (h *LedgerHandler) UpdateTransactions(w http.ResponseWriter, r *http.Request) {
	var req ynab.PatchTransactionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "400", "bad_request", "Failed to parse request body")
		return
	}

	patches := make([]store.TransactionPatch, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		patches = append(patches, store.TransactionPatch{
			ID:         t.ID,
			PayeeName:  t.PayeeName,
			CategoryID: t.CategoryID,
			FlagColor:  t.FlagColor,
		})
	}

	budgetID := chi.URLParam(r, "budgetID")
	ids, err := h.store.PatchLedgerTransactions(budgetID, patches)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeLedgerError(w, http.StatusNotFound, "404.2", "resource_not_found", "Transaction not found")
			return
		}
		writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
		return
	}

	var resp ynab.TransactionsResponse
	resp.Data.Transactions = make([]ynab.Transaction, 0, len(ids))
	for _, id := range ids {
		t, err := h.store.GetLedgerTransaction(id)
		if err != nil {
			writeLedgerError(w, http.StatusInternalServerError, "500", "internal_server_error", err.Error())
			return
		}
		resp.Data.Transactions = append(resp.Data.Transactions, toAPITransaction(*t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toAPITransaction(t store.LedgerTransaction) ynab.Transaction {
	return ynab.Transaction{
		ID:         t.ID,
		Date:       t.Date,
		Amount:     t.Amount,
		Memo:       pointer(t.Memo),
		Cleared:    t.Cleared,
		Approved:   t.Approved,
		FlagColor:  pointer(t.FlagColor),
		AccountID:  t.AccountID,
		PayeeName:  pointer(t.PayeeName),
		CategoryID: pointer(t.CategoryID),
		ImportID:   pointer(t.ImportID),
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func pointer(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
