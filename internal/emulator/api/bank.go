package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/store"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/sbanken"
)

// BankHandler handles bank API endpoints.
type BankHandler struct {
	store *store.Store
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(s *store.Store) *BankHandler {
	return &BankHandler{store: s}
}

// ListAccounts handles GET /api/v1/Accounts.
func (h *BankHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListBankAccounts()
	if err != nil {
		writeBankError(w, http.StatusInternalServerError, "ServerError", "Failed to list accounts")
		return
	}

	resp := sbanken.AccountsResponse{AvailableItems: len(accounts), Items: make([]sbanken.Account, 0, len(accounts))}
	for _, a := range accounts {
		resp.Items = append(resp.Items, sbanken.Account{
			AccountID:     a.ID,
			AccountNumber: a.Number,
			Name:          a.Name,
			AccountType:   "Standard account",
			Available:     a.Balance,
			Balance:       a.Balance,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTransactions handles GET /api/v1/Transactions/{accountID}.
// startDate filters by accounting date and length caps the item count.
func (h *BankHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	since := r.URL.Query().Get("startDate")
	if since != "" {
		if _, err := time.Parse(model.DateLayout, since); err != nil {
			writeBankError(w, http.StatusBadRequest, "InvalidParameter", "Invalid startDate")
			return
		}
	}

	length := 0
	if s := r.URL.Query().Get("length"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeBankError(w, http.StatusBadRequest, "InvalidParameter", "Invalid length")
			return
		}
		length = n
	}

	txns, err := h.store.ListBankTransactions(accountID, since)
	if err != nil {
		writeBankError(w, http.StatusInternalServerError, "ServerError", "Failed to list transactions")
		return
	}

	resp := sbanken.TransactionsResponse{AvailableItems: len(txns), Items: make([]sbanken.Transaction, 0, len(txns))}
	for i, t := range txns {
		if length > 0 && i >= length {
			break
		}
		resp.Items = append(resp.Items, sbanken.Transaction{
			TransactionID:   t.ID,
			AccountingDate:  t.AccountingDate + "T00:00:00",
			InterestDate:    t.AccountingDate + "T00:00:00",
			Amount:          t.Amount,
			Text:            t.Text,
			TransactionType: t.TransactionType,
			IsReservation:   t.IsReservation,
			Source:          "Archive",
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// AdminTransactionRequest is the body of POST /emulator/bank/accounts/{accountID}/transactions.
type AdminTransactionRequest struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Text        string  `json:"text"`
	Type        string  `json:"type"`
	Reservation bool    `json:"reservation"`
}

// CreateTransaction handles POST /emulator/bank/accounts/{accountID}/transactions.
func (h *BankHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req AdminTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBankError(w, http.StatusBadRequest, "InvalidRequest", "Failed to parse request body")
		return
	}
	if _, err := time.Parse(model.DateLayout, req.Date); err != nil {
		writeBankError(w, http.StatusBadRequest, "InvalidParameter", "Invalid date")
		return
	}

	txn, err := h.store.CreateBankTransaction(store.BankTransaction{
		AccountID:       chi.URLParam(r, "accountID"),
		AccountingDate:  req.Date,
		Amount:          req.Amount,
		Text:            req.Text,
		TransactionType: req.Type,
		IsReservation:   req.Reservation,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeBankError(w, http.StatusNotFound, "NotFound", "Account not found")
			return
		}
		writeBankError(w, http.StatusInternalServerError, "ServerError", "Failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// DeleteTransaction handles DELETE /emulator/bank/transactions/{id}.
func (h *BankHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBankTransaction(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeBankError(w, http.StatusNotFound, "NotFound", "Transaction not found")
			return
		}
		writeBankError(w, http.StatusInternalServerError, "ServerError", "Failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
