package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cofre/internal/models"
)

// ItemSyncer is the slice of the sync orchestrator a reconciliation run
// drives per item.
type ItemSyncer interface {
	SyncItem(ctx context.Context, pluggyItemID string, itemID, userID uuid.UUID) error
	SyncBalances(ctx context.Context, pluggyItemID string, itemID uuid.UUID, pluggyAccountID string) error
}

// ItemSyncJob reconciles one item: full data sync followed by a balance
// refresh across all of the item's accounts.
type ItemSyncJob struct {
	syncer ItemSyncer
	item   *models.Item
}

func NewItemSyncJob(syncer ItemSyncer, item *models.Item) *ItemSyncJob {
	return &ItemSyncJob{syncer: syncer, item: item}
}

func (j *ItemSyncJob) Execute(ctx context.Context) error {
	if err := j.syncer.SyncItem(ctx, j.item.PluggyItemID, j.item.ID, j.item.UserID); err != nil {
		return fmt.Errorf("failed to sync item %s: %w", j.item.PluggyItemID, err)
	}
	if err := j.syncer.SyncBalances(ctx, j.item.PluggyItemID, j.item.ID, ""); err != nil {
		return fmt.Errorf("failed to refresh balances for item %s: %w", j.item.PluggyItemID, err)
	}
	return nil
}

func (j *ItemSyncJob) Key() string { return j.item.PluggyItemID }

func (j *ItemSyncJob) Description() string { return "scheduled reconciliation" }
