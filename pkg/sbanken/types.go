// Package sbanken provides the Sbanken open banking API client and types.
package sbanken

// Account represents an account in the Sbanken API.
type Account struct {
	AccountID     string  `json:"accountId"`
	AccountNumber string  `json:"accountNumber"`
	OwnerCustomer string  `json:"ownerCustomerId,omitempty"`
	Name          string  `json:"name"`
	AccountType   string  `json:"accountType"`
	Available     float64 `json:"available"`
	Balance       float64 `json:"balance"`
	CreditLimit   float64 `json:"creditLimit"`
}

// Transaction represents a transaction in the Sbanken API.
type Transaction struct {
	TransactionID       string  `json:"transactionId,omitempty"`
	AccountingDate      string  `json:"accountingDate"` // e.g. 2024-01-05T00:00:00
	InterestDate        string  `json:"interestDate,omitempty"`
	Amount              float64 `json:"amount"` // NOK, negative for outflow
	Text                string  `json:"text"`
	TransactionType     string  `json:"transactionType"`
	TransactionTypeCode int     `json:"transactionTypeCode"`
	IsReservation       bool    `json:"isReservation"`
	Source              string  `json:"source,omitempty"`
}

// AccountsResponse represents the response from the Accounts endpoint.
type AccountsResponse struct {
	AvailableItems int       `json:"availableItems"`
	Items          []Account `json:"items"`
	ErrorResponse
}

// TransactionsResponse represents the response from the Transactions endpoint.
type TransactionsResponse struct {
	AvailableItems int           `json:"availableItems"`
	Items          []Transaction `json:"items"`
	ErrorResponse
}

// ErrorResponse holds the error fields Sbanken embeds in every response.
type ErrorResponse struct {
	IsError      bool   `json:"isError,omitempty"`
	ErrorType    string `json:"errorType,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	TraceID      string `json:"traceId,omitempty"`
}
