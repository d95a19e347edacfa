package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the local projection of an aggregator account. The balance
// field is a snapshot overwritten on each sync, never accumulated.
type Account struct {
	ID              uuid.UUID       `json:"id"`
	PluggyAccountID string          `json:"pluggyAccountId"`
	ItemID          uuid.UUID       `json:"itemId"`
	Name            string          `json:"name"`
	Number          string          `json:"number,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency,omitempty"`
	Type            string          `json:"type,omitempty"`
	Subtype         string          `json:"subtype,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// UpsertAccountParams is keyed on PluggyAccountID. ID is only used on first
// insertion; on conflict the existing surrogate id is kept and returned.
type UpsertAccountParams struct {
	ID              uuid.UUID
	PluggyAccountID string
	ItemID          uuid.UUID
	Name            string
	Number          string
	Balance         decimal.Decimal
	Currency        string
	Type            string
	Subtype         string
}
