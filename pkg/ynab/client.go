package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/gateway"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/model"
)

const (
	DefaultAPIURL = "https://api.youneedabudget.com/v1"

	serviceName = "ynab"
	maxMemoLen  = 200
)

// ClientConfig represents the configuration for the YNAB API client.
type ClientConfig struct {
	APIURL      string
	AccessToken string
	Timeout     time.Duration // Default: 30 seconds
}

// Client is a YNAB API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

// NewClient creates a new YNAB API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(apiURL, "/"),
		accessToken: config.AccessToken,
	}
}

// ListBudgets lists the budgets available to the token.
func (c *Client) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	var resp BudgetsResponse
	if err := c.do(ctx, http.MethodGet, "list budgets", "/budgets", nil, nil, &resp); err != nil {
		return nil, err
	}

	budgets := make([]model.Budget, 0, len(resp.Data.Budgets))
	for _, b := range resp.Data.Budgets {
		budgets = append(budgets, model.Budget{ID: b.ID, Name: b.Name})
	}
	return budgets, nil
}

// ListAccounts lists a budget's accounts. Deleted accounts are left out.
func (c *Client) ListAccounts(ctx context.Context, budgetID string) ([]model.LedgerAccount, error) {
	var resp AccountsResponse
	if err := c.do(ctx, http.MethodGet, "list accounts", budgetPath(budgetID, "accounts"), nil, nil, &resp); err != nil {
		return nil, err
	}

	accounts := make([]model.LedgerAccount, 0, len(resp.Data.Accounts))
	for _, a := range resp.Data.Accounts {
		if a.Deleted {
			continue
		}
		accounts = append(accounts, model.LedgerAccount{
			ID:     a.ID,
			Name:   a.Name,
			Note:   deref(a.Note),
			Closed: a.Closed,
		})
	}
	return accounts, nil
}

// ListCategories lists a budget's category groups and categories.
func (c *Client) ListCategories(ctx context.Context, budgetID string) ([]model.CategoryGroup, error) {
	var resp CategoriesResponse
	if err := c.do(ctx, http.MethodGet, "list categories", budgetPath(budgetID, "categories"), nil, nil, &resp); err != nil {
		return nil, err
	}

	groups := make([]model.CategoryGroup, 0, len(resp.Data.CategoryGroups))
	for _, g := range resp.Data.CategoryGroups {
		group := model.CategoryGroup{ID: g.ID, Name: g.Name, Hidden: g.Hidden, Deleted: g.Deleted}
		for _, cat := range g.Categories {
			group.Categories = append(group.Categories, model.Category{
				ID:      cat.ID,
				Name:    cat.Name,
				Hidden:  cat.Hidden,
				Deleted: cat.Deleted,
			})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// ListTransactions lists a budget's transactions on or after since.
// Deleted transactions are left out.
func (c *Client) ListTransactions(ctx context.Context, budgetID string, since time.Time) ([]model.LedgerTransaction, error) {
	params := url.Values{}
	params.Set("since_date", since.Format(model.DateLayout))

	var resp TransactionsResponse
	if err := c.do(ctx, http.MethodGet, "list transactions", budgetPath(budgetID, "transactions"), params, nil, &resp); err != nil {
		return nil, err
	}

	txns := make([]model.LedgerTransaction, 0, len(resp.Data.Transactions))
	for _, t := range resp.Data.Transactions {
		if t.Deleted {
			continue
		}
		txns = append(txns, ToLedgerTransaction(t))
	}
	return txns, nil
}

// InsertTransactions creates transactions in one request. An empty batch is
// not sent.
func (c *Client) InsertTransactions(ctx context.Context, budgetID string, txns []model.LedgerTransaction) (gateway.InsertResult, error) {
	if len(txns) == 0 {
		return gateway.InsertResult{}, nil
	}

	body := SaveTransactionsRequest{Transactions: make([]SaveTransaction, 0, len(txns))}
	for _, t := range txns {
		body.Transactions = append(body.Transactions, ToSaveTransaction(t))
	}

	var resp SaveTransactionsResponse
	if err := c.do(ctx, http.MethodPost, "insert transactions", budgetPath(budgetID, "transactions"), nil, body, &resp); err != nil {
		return gateway.InsertResult{}, err
	}

	return gateway.InsertResult{
		TransactionIDs:     resp.Data.TransactionIDs,
		DuplicateImportIDs: resp.Data.DuplicateImportIDs,
	}, nil
}

// PatchTransactions updates payee, category and flag of existing
// transactions in one request. An empty batch is not sent.
func (c *Client) PatchTransactions(ctx context.Context, budgetID string, txns []model.LedgerTransaction) error {
	if len(txns) == 0 {
		return nil
	}

	body := PatchTransactionsRequest{Transactions: make([]PatchTransaction, 0, len(txns))}
	for _, t := range txns {
		body.Transactions = append(body.Transactions, ToPatchTransaction(t))
	}

	return c.do(ctx, http.MethodPatch, "patch transactions", budgetPath(budgetID, "transactions"), nil, body, nil)
}

// ToLedgerTransaction converts an API transaction.
func ToLedgerTransaction(t Transaction) model.LedgerTransaction {
	return model.LedgerTransaction{
		ID:         t.ID,
		ImportID:   deref(t.ImportID),
		AccountID:  t.AccountID,
		Date:       t.Date,
		Amount:     t.Amount,
		Memo:       deref(t.Memo),
		PayeeID:    deref(t.PayeeID),
		PayeeName:  deref(t.PayeeName),
		CategoryID: deref(t.CategoryID),
		Cleared:    model.ClearedState(t.Cleared),
		Approved:   t.Approved,
		FlagColor:  deref(t.FlagColor),
	}
}

// ToSaveTransaction converts an insert payload.
func ToSaveTransaction(t model.LedgerTransaction) SaveTransaction {
	return SaveTransaction{
		AccountID:  t.AccountID,
		Date:       t.Date,
		Amount:     t.Amount,
		PayeeName:  ptr(t.PayeeName),
		CategoryID: ptr(t.CategoryID),
		Memo:       ptr(truncate(t.Memo, maxMemoLen)),
		Cleared:    string(t.Cleared),
		Approved:   t.Approved,
		FlagColor:  ptr(t.FlagColor),
		ImportID:   ptr(t.ImportID),
	}
}

// ToPatchTransaction converts a patch payload. A payee the ledger already
// knows is sent by id only.
func ToPatchTransaction(t model.LedgerTransaction) PatchTransaction {
	patch := PatchTransaction{
		ID:         t.ID,
		CategoryID: ptr(t.CategoryID),
		FlagColor:  ptr(t.FlagColor),
	}
	if t.PayeeID != "" {
		patch.PayeeID = ptr(t.PayeeID)
	} else {
		patch.PayeeName = ptr(t.PayeeName)
	}
	return patch
}

// do performs a request with an optional JSON body and decodes the JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, op, path string, params url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &gateway.Error{Service: serviceName, Op: op, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close()

	if limit := resp.Header.Get("X-Rate-Limit"); limit != "" {
		slog.Debug("YNAB rate limit", "op", op, "usage", limit)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gateway.Error{Service: serviceName, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// parseError parses an error response from the YNAB API.
func (c *Client) parseError(op string, resp *http.Response) error {
	gwErr := &gateway.Error{Service: serviceName, Op: op, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		gwErr.Message = "failed to read error response"
		return gwErr
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Name == "" {
		gwErr.Message = strings.TrimSpace(string(body))
		return gwErr
	}

	if errResp.Error.Detail != "" {
		gwErr.Message = fmt.Sprintf("%s - %s", errResp.Error.Name, errResp.Error.Detail)
	} else {
		gwErr.Message = errResp.Error.Name
	}
	return gwErr
}

func budgetPath(budgetID, resource string) string {
	return fmt.Sprintf("/budgets/%s/%s", url.PathEscape(budgetID), resource)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
