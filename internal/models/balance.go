package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the local projection of an aggregator balance record,
// updated in place on re-sight.
type Balance struct {
	ID              uuid.UUID       `json:"id"`
	PluggyBalanceID string          `json:"pluggyBalanceId"`
	AccountID       uuid.UUID       `json:"accountId"`
	ItemID          uuid.UUID       `json:"itemId"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// UpsertBalanceParams is keyed on PluggyBalanceID.
type UpsertBalanceParams struct {
	ID              uuid.UUID
	PluggyBalanceID string
	AccountID       uuid.UUID
	ItemID          uuid.UUID
	Balance         decimal.Decimal
	Currency        string
}
