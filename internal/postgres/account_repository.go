package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cofre/internal/models"
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert inserts or updates an account, keyed on the aggregator's account
// id. The single statement keeps concurrent syncs of the same account from
// racing a check against a write; the losing writer simply overwrites with
// its own snapshot. Returns the local surrogate id.
func (r *AccountRepository) Upsert(ctx context.Context, params models.UpsertAccountParams) (uuid.UUID, error) {
	query := `
		INSERT INTO accounts (id, pluggy_account_id, item_id, name, number, balance, currency, type, subtype)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pluggy_account_id) DO UPDATE SET
		    name = EXCLUDED.name,
		    number = EXCLUDED.number,
		    balance = EXCLUDED.balance,
		    currency = EXCLUDED.currency,
		    type = EXCLUDED.type,
		    subtype = EXCLUDED.subtype,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRowContext(
		ctx, query,
		params.ID, params.PluggyAccountID, params.ItemID, params.Name,
		nullString(params.Number), params.Balance, nullString(params.Currency),
		nullString(params.Type), nullString(params.Subtype),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return id, nil
}

// GetIDByPluggyID resolves an aggregator account id to the local surrogate
// id. Returns uuid.Nil (no error) when the account is unknown locally.
func (r *AccountRepository) GetIDByPluggyID(ctx context.Context, pluggyAccountID string) (uuid.UUID, error) {
	query := `SELECT id FROM accounts WHERE pluggy_account_id = $1`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, pluggyAccountID).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	return id, nil
}

// UpdateBalance overwrites the cached balance snapshot on the account row
// so aggregate queries stay current without touching the balances table.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}
