package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatusPending is assumed when the aggregator omits a status.
const TransactionStatusPending = "PENDING"

// Transaction is the local projection of an aggregator transaction.
// PluggyTransactionID is nil for manually entered rows, which this engine
// never touches. Amount and Balance are fixed-point decimals; Date is a
// calendar date with no time-of-day.
type Transaction struct {
	ID                  uuid.UUID        `json:"id"`
	PluggyTransactionID *string          `json:"pluggyTransactionId,omitempty"`
	AccountID           uuid.UUID        `json:"accountId"`
	ItemID              uuid.UUID        `json:"itemId"`
	UserID              uuid.UUID        `json:"userId"`
	Amount              decimal.Decimal  `json:"amount"`
	Date                time.Time        `json:"date"`
	Description         string           `json:"description,omitempty"`
	Category            string           `json:"category,omitempty"`
	Currency            string           `json:"currency"`
	Status              string           `json:"status"`
	Balance             *decimal.Decimal `json:"balance,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// UpsertTransactionParams is keyed on PluggyTransactionID; every mutable
// field is overwritten on conflict.
type UpsertTransactionParams struct {
	ID                  uuid.UUID
	PluggyTransactionID string
	AccountID           uuid.UUID
	ItemID              uuid.UUID
	UserID              uuid.UUID
	Amount              decimal.Decimal
	Date                time.Time
	Description         string
	Category            string
	Currency            string
	Status              string
	Balance             *decimal.Decimal
}
