// Package sync drives the fetch-then-upsert pipeline that keeps the local
// store converging toward the aggregator's latest known state. Correctness
// under concurrent triggers (webhook + reconciliation) rests on the
// persistence layer's idempotent upserts, not on locking here.
package sync

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"cofre/internal/models"
	"cofre/internal/pluggy"
)

var (
	syncTracer      = otel.Tracer("cofre/sync")
	syncMeter       = otel.Meter("cofre/sync")
	rowsUpserted, _ = syncMeter.Int64Counter("sync.rows.upserted", metric.WithDescription("Rows written by entity type"))
	rowsSkipped, _  = syncMeter.Int64Counter("sync.rows.skipped", metric.WithDescription("Rows skipped because the referenced account is unknown locally"))
)

// AggregatorClient is the slice of the Pluggy client the syncer needs.
type AggregatorClient interface {
	GetItem(ctx context.Context, itemID string) (*pluggy.Item, error)
	GetAccounts(ctx context.Context, itemID string) ([]pluggy.Account, error)
	GetTransactions(ctx context.Context, itemID, accountID string) ([]pluggy.Transaction, error)
	GetBalances(ctx context.Context, itemID, accountID string) ([]pluggy.Balance, error)
}

type ItemStore interface {
	UpdateConnection(ctx context.Context, id uuid.UUID, params models.UpdateItemConnectionParams) error
}

type AccountStore interface {
	Upsert(ctx context.Context, params models.UpsertAccountParams) (uuid.UUID, error)
	GetIDByPluggyID(ctx context.Context, pluggyAccountID string) (uuid.UUID, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

type TransactionStore interface {
	Upsert(ctx context.Context, params models.UpsertTransactionParams) error
}

type BalanceStore interface {
	Upsert(ctx context.Context, params models.UpsertBalanceParams) error
}

// Syncer orchestrates one item's sync sequentially: item detail, accounts,
// per-account transactions, balances. Different items sync independently
// and concurrently; the same item may be synced by two triggers at once.
type Syncer struct {
	client       AggregatorClient
	itemStore    ItemStore
	accountStore AccountStore
	txStore      TransactionStore
	balanceStore BalanceStore

	// now is swapped out in tests.
	now func() time.Time
}

func NewSyncer(
	client AggregatorClient,
	itemStore ItemStore,
	accountStore AccountStore,
	txStore TransactionStore,
	balanceStore BalanceStore,
) *Syncer {
	return &Syncer{
		client:       client,
		itemStore:    itemStore,
		accountStore: accountStore,
		txStore:      txStore,
		balanceStore: balanceStore,
		now:          time.Now,
	}
}

// SyncItem refreshes the item's connection metadata (best effort), then
// upserts its accounts and each account's transactions. A failure fetching
// accounts, or persisting any row, aborts this item's sync; isolation
// between items is the caller's job.
func (s *Syncer) SyncItem(ctx context.Context, pluggyItemID string, itemID, userID uuid.UUID) error {
	ctx, span := syncTracer.Start(ctx, "sync.item",
		trace.WithAttributes(attribute.String("item.pluggy_id", pluggyItemID)))
	defer span.End()

	// Step 1: metadata refresh. A failure here is logged, not fatal; the
	// account and transaction data is still worth fetching.
	if detail, err := s.client.GetItem(ctx, pluggyItemID); err != nil {
		log.Printf("Item %s: failed to fetch detail, continuing: %v", pluggyItemID, err)
	} else {
		err := s.itemStore.UpdateConnection(ctx, itemID, models.UpdateItemConnectionParams{
			Status:          detail.Status,
			ExecutionStatus: detail.ExecutionStatus,
			Connector:       detail.Connector,
		})
		if err != nil {
			log.Printf("Item %s: failed to persist connection metadata, continuing: %v", pluggyItemID, err)
		}
	}

	// Step 2: accounts. Without them, transactions and balances are
	// meaningless, so a failure propagates.
	accounts, err := s.client.GetAccounts(ctx, pluggyItemID)
	if err != nil {
		return err
	}

	log.Printf("Item %s: syncing %d accounts", pluggyItemID, len(accounts))

	for _, acc := range accounts {
		balance := decimal.Zero
		if acc.Balance != nil {
			balance = *acc.Balance
		}

		accountID, err := s.accountStore.Upsert(ctx, models.UpsertAccountParams{
			ID:              uuid.New(),
			PluggyAccountID: acc.ID,
			ItemID:          itemID,
			Name:            acc.Name,
			Number:          acc.Number,
			Balance:         balance,
			Currency:        acc.Currency,
			Type:            acc.Type,
			Subtype:         acc.Subtype,
		})
		if err != nil {
			return err
		}
		rowsUpserted.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "account")))

		// Step 3: this account's transactions.
		txs, err := s.client.GetTransactions(ctx, pluggyItemID, acc.ID)
		if err != nil {
			return err
		}

		for i := range txs {
			if err := s.upsertTransaction(ctx, accountID, itemID, userID, &txs[i]); err != nil {
				return err
			}
		}

		log.Printf("Item %s: account %s synced with %d transactions", pluggyItemID, acc.ID, len(txs))
	}

	return nil
}

// SyncAccountTransactions syncs the transactions of a single account,
// the narrowed slice used by transaction webhooks. An account unknown
// locally is skipped with a log line rather than treated as an error.
func (s *Syncer) SyncAccountTransactions(ctx context.Context, pluggyItemID string, itemID, userID uuid.UUID, pluggyAccountID string) error {
	accountID, err := s.accountStore.GetIDByPluggyID(ctx, pluggyAccountID)
	if err != nil {
		return err
	}
	if accountID == uuid.Nil {
		log.Printf("Item %s: skipping transaction sync, account %s not found locally", pluggyItemID, pluggyAccountID)
		rowsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "transaction")))
		return nil
	}

	txs, err := s.client.GetTransactions(ctx, pluggyItemID, pluggyAccountID)
	if err != nil {
		return err
	}

	for i := range txs {
		if err := s.upsertTransaction(ctx, accountID, itemID, userID, &txs[i]); err != nil {
			return err
		}
	}

	log.Printf("Item %s: account %s synced with %d transactions", pluggyItemID, pluggyAccountID, len(txs))
	return nil
}

// SyncBalances upserts the balance records in scope and overwrites each
// parent account's cached balance snapshot. Balances referencing accounts
// unknown locally are skipped with a log line.
func (s *Syncer) SyncBalances(ctx context.Context, pluggyItemID string, itemID uuid.UUID, pluggyAccountID string) error {
	ctx, span := syncTracer.Start(ctx, "sync.balances",
		trace.WithAttributes(attribute.String("item.pluggy_id", pluggyItemID)))
	defer span.End()

	balances, err := s.client.GetBalances(ctx, pluggyItemID, pluggyAccountID)
	if err != nil {
		return err
	}

	for _, bal := range balances {
		accountID, err := s.accountStore.GetIDByPluggyID(ctx, bal.AccountID)
		if err != nil {
			return err
		}
		if accountID == uuid.Nil {
			log.Printf("Item %s: skipping balance %s, account %s not found locally", pluggyItemID, bal.ID, bal.AccountID)
			rowsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "balance")))
			continue
		}

		err = s.balanceStore.Upsert(ctx, models.UpsertBalanceParams{
			ID:              uuid.New(),
			PluggyBalanceID: bal.ID,
			AccountID:       accountID,
			ItemID:          itemID,
			Balance:         bal.Balance,
			Currency:        bal.Currency,
		})
		if err != nil {
			return err
		}
		rowsUpserted.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "balance")))

		if err := s.accountStore.UpdateBalance(ctx, accountID, bal.Balance); err != nil {
			return err
		}
	}

	return nil
}

func (s *Syncer) upsertTransaction(ctx context.Context, accountID, itemID, userID uuid.UUID, tx *pluggy.Transaction) error {
	status := tx.Status
	if status == "" {
		status = models.TransactionStatusPending
	}

	err := s.txStore.Upsert(ctx, models.UpsertTransactionParams{
		ID:                  uuid.New(),
		PluggyTransactionID: tx.ID,
		AccountID:           accountID,
		ItemID:              itemID,
		UserID:              userID,
		Amount:              tx.Amount,
		Date:                s.calendarDate(tx.Date),
		Description:         tx.Description,
		Category:            tx.Category,
		Currency:            tx.Currency,
		Status:              status,
		Balance:             tx.Balance,
	})
	if err != nil {
		return err
	}

	rowsUpserted.Add(ctx, 1, metric.WithAttributes(attribute.String("entity", "transaction")))
	return nil
}

// calendarDate normalizes an aggregator date string to a calendar date by
// parsing its first 10 characters. An unparsable date falls back to today
// instead of failing the sync.
func (s *Syncer) calendarDate(raw string) time.Time {
	if len(raw) >= 10 {
		if d, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return d
		}
	}

	n := s.now().UTC()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
