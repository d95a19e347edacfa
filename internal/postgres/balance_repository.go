package postgres

import (
	"context"
	"fmt"

	"cofre/internal/models"
)

type BalanceRepository struct {
	db *DB
}

func NewBalanceRepository(db *DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// Upsert inserts or updates a balance record in place, keyed on the
// aggregator's balance id.
func (r *BalanceRepository) Upsert(ctx context.Context, params models.UpsertBalanceParams) error {
	query := `
		INSERT INTO balances (id, pluggy_balance_id, account_id, item_id, balance, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (pluggy_balance_id) DO UPDATE SET
		    balance = EXCLUDED.balance,
		    currency = EXCLUDED.currency,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(
		ctx, query,
		params.ID, params.PluggyBalanceID, params.AccountID, params.ItemID,
		params.Balance, params.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}

	return nil
}
