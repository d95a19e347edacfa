// Package pluggy implements the client for the Pluggy open-finance API.
package pluggy

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type apiKeyResponse struct {
	APIKey    string `json:"apiKey"`
	ExpiresIn *int64 `json:"expiresIn"`
}

// Item is a bank connection as reported by the aggregator.
type Item struct {
	ID              string          `json:"id"`
	Connector       json.RawMessage `json:"connector,omitempty"`
	Status          string          `json:"status"`
	ExecutionStatus string          `json:"executionStatus,omitempty"`
	Error           json.RawMessage `json:"error,omitempty"`
	ClientUserID    string          `json:"clientUserId,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Account is an account as reported by the aggregator. Balance may be
// absent for some connector types.
type Account struct {
	ID         string           `json:"id"`
	ItemID     string           `json:"itemId"`
	Name       string           `json:"name,omitempty"`
	Number     string           `json:"number,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Currency   string           `json:"currencyCode,omitempty"`
	Type       string           `json:"type,omitempty"`
	Subtype    string           `json:"subtype,omitempty"`
	BankData   json.RawMessage  `json:"bankData,omitempty"`
	CreditData json.RawMessage  `json:"creditData,omitempty"`
	CreatedAt  string           `json:"createdAt,omitempty"`
	UpdatedAt  string           `json:"updatedAt,omitempty"`
}

// Transaction is a transaction as reported by the aggregator. Date is the
// raw aggregator timestamp string; only its calendar-date prefix is stored
// locally.
type Transaction struct {
	ID          string           `json:"id"`
	AccountID   string           `json:"accountId"`
	ItemID      string           `json:"itemId"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        string           `json:"date"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Currency    string           `json:"currencyCode,omitempty"`
	Status      string           `json:"status,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Merchant    json.RawMessage  `json:"merchant,omitempty"`
}

// Balance is a balance record as reported by the aggregator.
type Balance struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	ItemID    string          `json:"itemId"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
}

type accountsResponse struct {
	Results []Account `json:"results"`
}

type transactionsPage struct {
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
	Page       int           `json:"page"`
	Results    []Transaction `json:"results"`
}

type balancesResponse struct {
	Results []Balance `json:"results"`
}
