package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"cofre/internal/models"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert inserts or updates a transaction, keyed on the aggregator's
// transaction id. Every mutable field is overwritten on conflict so two
// racing syncs converge on last-write-wins per row. Manually entered rows
// have a NULL pluggy_transaction_id and are never touched by this path.
func (r *TransactionRepository) Upsert(ctx context.Context, params models.UpsertTransactionParams) error {
	query := `
		INSERT INTO transactions (id, pluggy_transaction_id, account_id, item_id, user_id,
		                          amount, date, description, category, currency, status, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (pluggy_transaction_id) DO UPDATE SET
		    amount = EXCLUDED.amount,
		    date = EXCLUDED.date,
		    description = EXCLUDED.description,
		    category = EXCLUDED.category,
		    currency = EXCLUDED.currency,
		    status = EXCLUDED.status,
		    balance = EXCLUDED.balance,
		    updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(
		ctx, query,
		params.ID, params.PluggyTransactionID, params.AccountID, params.ItemID, params.UserID,
		params.Amount, params.Date, nullString(params.Description), nullString(params.Category),
		params.Currency, params.Status, params.Balance,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}

	return nil
}

// DeleteByPluggyIDs removes the rows matching the given aggregator ids and
// returns how many were deleted. Ids with no local row are ignored.
func (r *TransactionRepository) DeleteByPluggyIDs(ctx context.Context, pluggyTransactionIDs []string) (int64, error) {
	if len(pluggyTransactionIDs) == 0 {
		return 0, nil
	}

	query := `DELETE FROM transactions WHERE pluggy_transaction_id = ANY($1)`

	result, err := r.db.ExecContext(ctx, query, pq.Array(pluggyTransactionIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}
