package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/oauth"
	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/store"
)

// Mount points. Point the bank client at {server}/bank, its token URL at
// {server}/identityserver/connect/token and the ledger client at
// {server}/ynab/v1.
const (
	TokenPath  = "/identityserver/connect/token"
	RevokePath = "/identityserver/connect/revocation"
	BankPath   = "/bank"
	LedgerPath = "/ynab/v1"
)

// Config holds the credentials the emulator accepts.
type Config struct {
	ClientID     string
	ClientSecret string
	CustomerID   string
	LedgerToken  string
	Logging      bool
}

// NewRouter builds the emulator's HTTP handler.
func NewRouter(st *store.Store, cfg Config) http.Handler {
	tokenManager := oauth.NewTokenManager(st)
	oauthHandler := oauth.NewHandler(tokenManager, cfg.ClientID, cfg.ClientSecret)
	bankHandler := NewBankHandler(st)
	ledgerHandler := NewLedgerHandler(st)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post(TokenPath, oauthHandler.HandleToken)
	r.Post(RevokePath, oauthHandler.HandleRevoke)

	r.Route(BankPath+"/api/v1", func(r chi.Router) {
		r.Use(BankAuthMiddleware(tokenManager, cfg.CustomerID))

		r.Get("/Accounts", bankHandler.ListAccounts)
		r.Get("/Transactions/{accountID}", bankHandler.ListTransactions)
	})

	r.Route(LedgerPath, func(r chi.Router) {
		r.Use(LedgerAuthMiddleware(cfg.LedgerToken))

		r.Get("/budgets", ledgerHandler.ListBudgets)
		r.Route("/budgets/{budgetID}", func(r chi.Router) {
			r.Use(ledgerHandler.BudgetCtx)

			r.Get("/accounts", ledgerHandler.ListAccounts)
			r.Get("/categories", ledgerHandler.ListCategories)
			r.Get("/transactions", ledgerHandler.ListTransactions)
			r.Post("/transactions", ledgerHandler.CreateTransactions)
			r.Patch("/transactions", ledgerHandler.UpdateTransactions)
		})
	})

	// Test controls, unauthenticated.
	r.Route("/emulator", func(r chi.Router) {
		r.Post("/bank/accounts/{accountID}/transactions", bankHandler.CreateTransaction)
		r.Delete("/bank/transactions/{id}", bankHandler.DeleteTransaction)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
