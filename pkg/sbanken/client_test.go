package sbanken

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/gateway"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

type fakeBank struct {
	mu            sync.Mutex
	tokenRequests int
	lastStartDate string
}

func (f *fakeBank) router() http.Handler {
	r := chi.NewRouter()

	r.Post("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenRequests++
		f.mu.Unlock()
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer token-1" || r.Header.Get("customerId") != "12345678901" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
			})
		})

		r.Get("/Accounts", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(AccountsResponse{
				AvailableItems: 1,
				Items:          []Account{{AccountID: "acc-1", AccountNumber: "97101234567", Name: "Brukskonto"}},
			})
		})

		r.Get("/Transactions/{accountID}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.lastStartDate = r.URL.Query().Get("startDate")
			f.mu.Unlock()
			switch chi.URLParam(r, "accountID") {
			case "acc-1":
				_ = json.NewEncoder(w).Encode(TransactionsResponse{
					AvailableItems: 2,
					Items: []Transaction{
						{TransactionID: "t-1", AccountingDate: "2024-01-05T00:00:00", Amount: -50.0, Text: "CFE 42"},
						{AccountingDate: "2024-01-06T00:00:00+01:00", Amount: 12.345, Text: "REFUND", IsReservation: true},
					},
				})
			case "broken":
				_ = json.NewEncoder(w).Encode(TransactionsResponse{
					ErrorResponse: ErrorResponse{IsError: true, ErrorType: "System", ErrorMessage: "maintenance"},
				})
			default:
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(ErrorResponse{ErrorType: "NotFound", ErrorMessage: "unknown account"})
			}
		})
	})

	return r
}

func newTestClient(t *testing.T, secret string) (*Client, *fakeBank) {
	t.Helper()
	bank := &fakeBank{}
	server := httptest.NewServer(bank.router())
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		APIURL:       server.URL,
		TokenURL:     server.URL + "/token",
		ClientID:     "client",
		ClientSecret: secret,
		CustomerID:   "12345678901",
		Timeout:      5 * time.Second,
	})
	return client, bank
}

func TestListAccounts(t *testing.T) {
	client, _ := newTestClient(t, "secret")

	accounts, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.BankAccount{{ID: "acc-1", Number: "97101234567", Name: "Brukskonto"}}, accounts)
}

func TestListTransactions(t *testing.T) {
	client, bank := newTestClient(t, "secret")
	since := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

	txns, err := client.ListTransactions(context.Background(), "acc-1", since)
	require.NoError(t, err)
	bank.mu.Lock()
	require.Equal(t, "2024-01-01", bank.lastStartDate)
	bank.mu.Unlock()
	require.Len(t, txns, 2)

	require.Equal(t, model.BankTransaction{
		SourceAccountID: "acc-1",
		OccurredOn:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Amount:          -50000,
		Memo:            "CFE 42",
		Cleared:         model.Cleared,
		ExternalID:      "t-1",
	}, txns[0])

	require.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), txns[1].OccurredOn)
	require.Equal(t, int64(12345), txns[1].Amount)
	require.Equal(t, model.Uncleared, txns[1].Cleared)
	require.Empty(t, txns[1].ExternalID)

	// The token is reused across requests.
	_, err = client.ListAccounts(context.Background())
	require.NoError(t, err)
	bank.mu.Lock()
	defer bank.mu.Unlock()
	require.Equal(t, 1, bank.tokenRequests)
}

func TestListTransactionsErrors(t *testing.T) {
	client, _ := newTestClient(t, "secret")

	_, err := client.ListTransactions(context.Background(), "missing", time.Now())
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, http.StatusNotFound, gwErr.StatusCode)
	require.Equal(t, "NotFound - unknown account", gwErr.Message)

	_, err = client.ListTransactions(context.Background(), "broken", time.Now())
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, "System - maintenance", gwErr.Message)
}

func TestAuthenticationFailure(t *testing.T) {
	client, _ := newTestClient(t, "wrong")

	_, err := client.ListAccounts(context.Background())
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, "list accounts", gwErr.Op)
}

func TestToMilliunits(t *testing.T) {
	tests := []struct {
		input    float64
		expected int64
	}{
		{-50, -50000},
		{12.345, 12345},
		{0.1, 100},
		{-1234.56, -1234560},
		{0, 0},
	}

	for _, tt := range tests {
		if got := ToMilliunits(tt.input); got != tt.expected {
			t.Errorf("ToMilliunits(%v) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestToBankTransactionBadDate(t *testing.T) {
	txn := ToBankTransaction("acc-1", Transaction{AccountingDate: "05.01.2024", Amount: 1})
	require.True(t, txn.OccurredOn.IsZero())
}
