package sbanken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/gateway"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

const (
	DefaultAPIURL   = "https://api.sbanken.no/exec.bank"
	DefaultTokenURL = "https://auth.sbanken.no/identityserver/connect/token"

	serviceName      = "sbanken"
	transactionLimit = 1000
)

// accountingDateLayouts lists the date formats seen in accountingDate.
var accountingDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	model.DateLayout,
}

// ClientConfig represents the configuration for the Sbanken API client.
type ClientConfig struct {
	APIURL       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	CustomerID   string
	Timeout      time.Duration // Default: 30 seconds
}

// Client is a Sbanken API client. It obtains tokens with the OAuth2
// client-credentials grant and refreshes them as they expire.
type Client struct {
	httpClient *http.Client
	baseURL    string
	customerID string
}

// NewClient creates a new Sbanken API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	credentials := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// The token source keeps this context for refreshes.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := credentials.Client(tokenCtx)
	httpClient.Timeout = timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(apiURL, "/"),
		customerID: config.CustomerID,
	}
}

// ListAccounts lists the customer's accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]model.BankAccount, error) {
	var resp AccountsResponse
	if err := c.get(ctx, "list accounts", "/api/v1/Accounts", nil, &resp); err != nil {
		return nil, err
	}

	accounts := make([]model.BankAccount, 0, len(resp.Items))
	for _, a := range resp.Items {
		accounts = append(accounts, model.BankAccount{
			ID:     a.AccountID,
			Number: a.AccountNumber,
			Name:   a.Name,
		})
	}
	return accounts, nil
}

// ListTransactions lists an account's transactions since the given date.
func (c *Client) ListTransactions(ctx context.Context, accountID string, since time.Time) ([]model.BankTransaction, error) {
	params := url.Values{}
	params.Set("startDate", since.Format(model.DateLayout))
	params.Set("length", fmt.Sprintf("%d", transactionLimit))

	var resp TransactionsResponse
	path := "/api/v1/Transactions/" + url.PathEscape(accountID)
	if err := c.get(ctx, "list transactions", path, params, &resp); err != nil {
		return nil, err
	}

	if resp.AvailableItems > len(resp.Items) {
		slog.Warn("Bank returned a truncated transaction list",
			"account_id", accountID,
			"available", resp.AvailableItems,
			"returned", len(resp.Items),
		)
	}

	txns := make([]model.BankTransaction, 0, len(resp.Items))
	for _, t := range resp.Items {
		txns = append(txns, ToBankTransaction(accountID, t))
	}
	return txns, nil
}

// ToBankTransaction converts an API transaction. An unparseable date leaves
// OccurredOn zero, which makes the transaction unresolvable downstream.
func ToBankTransaction(accountID string, t Transaction) model.BankTransaction {
	cleared := model.Cleared
	if t.IsReservation {
		cleared = model.Uncleared
	}

	occurredOn, err := parseAccountingDate(t.AccountingDate)
	if err != nil {
		slog.Debug("Unparseable accounting date", "account_id", accountID, "date", t.AccountingDate)
	}

	return model.BankTransaction{
		SourceAccountID: accountID,
		OccurredOn:      occurredOn,
		Amount:          ToMilliunits(t.Amount),
		Memo:            t.Text,
		Cleared:         cleared,
		ExternalID:      t.TransactionID,
	}
}

// ToMilliunits converts a decimal amount to integer milliunits.
func ToMilliunits(amount float64) int64 {
	return int64(math.Round(amount * 1000))
}

func parseAccountingDate(s string) (time.Time, error) {
	for _, layout := range accountingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid accounting date: %q", s)
}

// get performs a GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("customerId", c.customerID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(op, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	// Sbanken may report errors inside a 200 response.
	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.IsError {
		return &gateway.Error{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Message: apiErr.describe()}
	}

	return nil
}

// parseError parses an error response from the Sbanken API.
func (c *Client) parseError(op string, resp *http.Response) error {
	gwErr := &gateway.Error{Service: serviceName, Op: op, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gwErr.Message = "failed to read error response"
		return gwErr
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.describe() == "" {
		gwErr.Message = strings.TrimSpace(string(body))
		return gwErr
	}

	gwErr.Message = errResp.describe()
	return gwErr
}

func (e ErrorResponse) describe() string {
	switch {
	case e.ErrorType != "" && e.ErrorMessage != "":
		return e.ErrorType + " - " + e.ErrorMessage
	case e.ErrorMessage != "":
		return e.ErrorMessage
	}
	return e.ErrorType
}
