// Package api serves emulated bank and ledger endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-sync/internal/emulator/oauth"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/sbanken"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/ynab"
)

// BankAuthMiddleware validates OAuth2 access tokens and the customerId header.
func BankAuthMiddleware(tokenManager *oauth.TokenManager, customerID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeBankError(w, http.StatusUnauthorized, "Unauthorized", "Missing or invalid Authorization header")
				return
			}

			valid, err := tokenManager.ValidateToken(token)
			if err != nil {
				writeBankError(w, http.StatusInternalServerError, "ServerError", "Failed to validate token")
				return
			}
			if !valid {
				writeBankError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			if r.Header.Get("customerId") != customerID {
				writeBankError(w, http.StatusForbidden, "Forbidden", "Unknown customerId")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LedgerAuthMiddleware validates the ledger's personal access token.
func LedgerAuthMiddleware(accessToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || token != accessToken {
				writeLedgerError(w, http.StatusUnauthorized, "401", "unauthorized", "Unauthorized")
				return
			}
			w.Header().Set("X-Rate-Limit", "1/200")
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBankError writes an error in the bank's envelope.
func writeBankError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, sbanken.ErrorResponse{
		IsError:      true,
		ErrorType:    errorType,
		ErrorMessage: message,
	})
}

// writeLedgerError writes an error in the ledger's envelope.
func writeLedgerError(w http.ResponseWriter, status int, id, name, detail string) {
	var resp ynab.ErrorResponse
	resp.Error.ID = id
	resp.Error.Name = name
	resp.Error.Detail = detail
	writeJSON(w, status, resp)
}
