package oauth

import (
	"encoding/json"
	"net/http"
)

// TokenResponse represents the OAuth2 token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorResponse represents an OAuth2 error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Handler handles OAuth2 endpoints.
type Handler struct {
	tokenManager *TokenManager
	clientID     string
	clientSecret string
}

// NewHandler creates a new OAuth2 handler accepting one client.
func NewHandler(tm *TokenManager, clientID, clientSecret string) *Handler {
	return &Handler{tokenManager: tm, clientID: clientID, clientSecret: clientSecret}
}

// HandleToken handles the token endpoint. Only the client_credentials grant
// with credentials in the Authorization header is accepted.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}

	if grantType := r.FormValue("grant_type"); grantType != "client_credentials" {
		h.writeError(w, http.StatusBadRequest, "unsupported_grant_type", "Only client_credentials is supported")
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != h.clientID || secret != h.clientSecret {
		h.writeError(w, http.StatusUnauthorized, "invalid_client", "Invalid client credentials")
		return
	}

	accessToken, err := h.tokenManager.GenerateToken()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "server_error", "Failed to generate access token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   tokenTTL,
	})
}

// HandleRevoke handles the token revocation endpoint. Unknown tokens are
// accepted, as in RFC 7009.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok || id != h.clientID || secret != h.clientSecret {
		h.writeError(w, http.StatusUnauthorized, "invalid_client", "Invalid client credentials")
		return
	}

	token := r.FormValue("token")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing token")
		return
	}

	if err := h.tokenManager.RevokeToken(token); err != nil {
		h.writeError(w, http.StatusInternalServerError, "server_error", "Failed to revoke token")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, error, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}
