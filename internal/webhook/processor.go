package webhook

import (
	"context"
	"log"

	"github.com/google/uuid"

	"cofre/internal/models"
	"cofre/internal/pluggy"
)

// ItemFinder resolves an aggregator item id to the locally registered item.
type ItemFinder interface {
	GetByPluggyID(ctx context.Context, pluggyItemID string) (*models.Item, error)
}

type ItemUpdater interface {
	UpdateConnection(ctx context.Context, id uuid.UUID, params models.UpdateItemConnectionParams) error
}

type DetailFetcher interface {
	GetItem(ctx context.Context, itemID string) (*pluggy.Item, error)
}

// ItemSyncer is the slice of the sync orchestrator the processor drives.
type ItemSyncer interface {
	SyncItem(ctx context.Context, pluggyItemID string, itemID, userID uuid.UUID) error
	SyncAccountTransactions(ctx context.Context, pluggyItemID string, itemID, userID uuid.UUID, pluggyAccountID string) error
	SyncBalances(ctx context.Context, pluggyItemID string, itemID uuid.UUID, pluggyAccountID string) error
}

type TransactionDeleter interface {
	DeleteByPluggyIDs(ctx context.Context, pluggyTransactionIDs []string) (int64, error)
}

// Processor maps a classified event to the sync action it requires. Each
// event is terminal: failures are logged, never retried here, and never
// reported back to the sender (the acknowledgment already went out).
type Processor struct {
	items   ItemFinder
	updater ItemUpdater
	client  DetailFetcher
	syncer  ItemSyncer
	deleter TransactionDeleter
}

func NewProcessor(items ItemFinder, updater ItemUpdater, client DetailFetcher, syncer ItemSyncer, deleter TransactionDeleter) *Processor {
	return &Processor{
		items:   items,
		updater: updater,
		client:  client,
		syncer:  syncer,
		deleter: deleter,
	}
}

// Process executes the action for one event. Events referencing items never
// registered locally are logged and dropped.
func (p *Processor) Process(ctx context.Context, ev *Event) error {
	item, err := p.items.GetByPluggyID(ctx, ev.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		log.Printf("Webhook %s: item %s not registered locally, ignoring", ev.Name, ev.ItemID)
		return nil
	}

	switch ev.Name {
	case EventItemCreated, EventItemUpdated:
		return p.processItemUpdate(ctx, item)

	case EventItemError, EventItemWaitingUserInput, EventItemLoginSucceeded:
		log.Printf("Webhook %s: item %s reported status %q, no data action", ev.Name, ev.ItemID, ev.ItemStatus)
		return nil

	case EventItemDeleted:
		// Local rows are retained; deletion at the aggregator only means
		// the connection stops producing updates.
		log.Printf("Webhook %s: item %s deleted at aggregator, local data retained", ev.Name, ev.ItemID)
		return nil

	case EventTransactionsCreated, EventTransactionsUpdated:
		if err := p.syncer.SyncAccountTransactions(ctx, item.PluggyItemID, item.ID, item.UserID, ev.AccountID); err != nil {
			return err
		}
		return p.syncer.SyncBalances(ctx, item.PluggyItemID, item.ID, ev.AccountID)

	case EventTransactionsDeleted:
		deleted, err := p.deleter.DeleteByPluggyIDs(ctx, ev.TransactionIDs)
		if err != nil {
			return err
		}
		log.Printf("Webhook %s: deleted %d of %d transactions for item %s", ev.Name, deleted, len(ev.TransactionIDs), ev.ItemID)
		return nil

	default:
		log.Printf("Webhook: unrecognized event %q for item %s, ignoring", ev.Name, ev.ItemID)
		return nil
	}
}

// processItemUpdate refreshes connection metadata, then runs a full sync
// only once the aggregator reports the item fully updated. Earlier statuses
// mean the connection is still collecting data and a fetch would be partial.
func (p *Processor) processItemUpdate(ctx context.Context, item *models.Item) error {
	detail, err := p.client.GetItem(ctx, item.PluggyItemID)
	if err != nil {
		return err
	}

	err = p.updater.UpdateConnection(ctx, item.ID, models.UpdateItemConnectionParams{
		Status:          detail.Status,
		ExecutionStatus: detail.ExecutionStatus,
		Connector:       detail.Connector,
	})
	if err != nil {
		log.Printf("Webhook: failed to persist connection metadata for item %s: %v", item.PluggyItemID, err)
	}

	if detail.Status != models.ItemStatusUpdated {
		log.Printf("Webhook: item %s status is %q, postponing sync until fully updated", item.PluggyItemID, detail.Status)
		return nil
	}

	if err := p.syncer.SyncItem(ctx, item.PluggyItemID, item.ID, item.UserID); err != nil {
		return err
	}
	return p.syncer.SyncBalances(ctx, item.PluggyItemID, item.ID, "")
}
