package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ItemStatusUpdated is the aggregator status meaning the connection finished
// collecting data. Account and transaction fetches are only meaningful once
// an item reaches this status.
const ItemStatusUpdated = "UPDATED"

// Item represents a linked bank connection at the aggregator.
// One Item can have multiple Accounts (e.g., checking + credit card from
// the same bank). The aggregator's itemId is the idempotency key; the local
// id is a generated surrogate.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	PluggyItemID    string          `json:"pluggyItemId"`
	UserID          uuid.UUID       `json:"userId"`
	Status          string          `json:"status"`
	ExecutionStatus string          `json:"executionStatus,omitempty"`
	Connector       json.RawMessage `json:"connector,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// UpdateItemConnectionParams carries the connection metadata refreshed on
// every sync. Connector is stored verbatim as JSON.
type UpdateItemConnectionParams struct {
	Status          string
	ExecutionStatus string
	Connector       json.RawMessage
}
