// Package webhook receives the aggregator's push notifications, classifies
// them, and hands the resulting sync work to the background worker pool so
// the delivery is acknowledged well inside the sender's timeout.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event names after normalization. The aggregator has delivered both
// "item/updated" and "item.updated" spellings over time; both map here.
const (
	EventItemCreated          = "item.created"
	EventItemUpdated          = "item.updated"
	EventItemError            = "item.error"
	EventItemDeleted          = "item.deleted"
	EventItemWaitingUserInput = "item.waiting_user_input"
	EventItemLoginSucceeded   = "item.login_succeeded"
	EventTransactionsCreated  = "transactions.created"
	EventTransactionsUpdated  = "transactions.updated"
	EventTransactionsDeleted  = "transactions.deleted"
)

// MalformedEventError marks an event missing a required correlating field.
// It is terminal for that single event only.
type MalformedEventError struct {
	Field string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("webhook event missing required field %q", e.Field)
}

// Event is the parsed, normalized form of an inbound delivery.
type Event struct {
	Name           string
	EventID        string
	ItemID         string
	ItemStatus     string
	AccountID      string
	TransactionIDs []string
}

type eventPayload struct {
	Event   string `json:"event"`
	EventID string `json:"eventId"`
	ItemID  string `json:"itemId"`
	Item    *struct {
		ID              string `json:"id"`
		Status          string `json:"status"`
		ExecutionStatus string `json:"executionStatus"`
	} `json:"item"`
	AccountID      string   `json:"accountId"`
	TransactionIDs []string `json:"transactionIds"`
}

// ParseEvent decodes a delivery body and validates the correlating fields
// the event class requires. The top-level itemId wins over the nested
// item.id when both are present.
func ParseEvent(body []byte) (*Event, error) {
	var p eventPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	if p.Event == "" {
		return nil, &MalformedEventError{Field: "event"}
	}

	ev := &Event{
		Name:           strings.ReplaceAll(p.Event, "/", "."),
		EventID:        p.EventID,
		ItemID:         p.ItemID,
		AccountID:      p.AccountID,
		TransactionIDs: p.TransactionIDs,
	}
	if p.Item != nil {
		if ev.ItemID == "" {
			ev.ItemID = p.Item.ID
		}
		ev.ItemStatus = p.Item.Status
	}

	if ev.ItemID == "" {
		return nil, &MalformedEventError{Field: "itemId"}
	}

	switch ev.Name {
	case EventTransactionsCreated, EventTransactionsUpdated:
		if ev.AccountID == "" {
			return nil, &MalformedEventError{Field: "accountId"}
		}
	case EventTransactionsDeleted:
		if len(ev.TransactionIDs) == 0 {
			return nil, &MalformedEventError{Field: "transactionIds"}
		}
	}

	return ev, nil
}
