package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cofre/internal/models"
)

type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetByPluggyID looks up an item by the aggregator's id. Returns nil (no
// error) when the item is unknown locally, e.g. a webhook for a connection
// that was never registered here.
func (r *ItemRepository) GetByPluggyID(ctx context.Context, pluggyItemID string) (*models.Item, error) {
	query := `
		SELECT id, pluggy_item_id, user_id, status, execution_status, connector, created_at, updated_at
		FROM items
		WHERE pluggy_item_id = $1
	`

	var item models.Item
	var executionStatus sql.NullString
	var connector []byte

	err := r.db.QueryRowContext(ctx, query, pluggyItemID).Scan(
		&item.ID, &item.PluggyItemID, &item.UserID, &item.Status,
		&executionStatus, &connector,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if executionStatus.Valid {
		item.ExecutionStatus = executionStatus.String
	}
	item.Connector = connector

	return &item, nil
}

// ListAll enumerates every known item for reconciliation.
func (r *ItemRepository) ListAll(ctx context.Context) ([]*models.Item, error) {
	query := `
		SELECT id, pluggy_item_id, user_id, status, created_at, updated_at
		FROM items
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(
			&item.ID, &item.PluggyItemID, &item.UserID, &item.Status,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// UpdateConnection refreshes the connection metadata reported by the
// aggregator. The engine never hard-deletes items; deletion events are only
// logged upstream.
func (r *ItemRepository) UpdateConnection(ctx context.Context, id uuid.UUID, params models.UpdateItemConnectionParams) error {
	query := `
		UPDATE items
		SET status = $1,
		    execution_status = $2,
		    connector = COALESCE($3, connector),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`

	var connector any
	if len(params.Connector) > 0 {
		connector = []byte(params.Connector)
	}

	result, err := r.db.ExecContext(ctx, query, params.Status, nullString(params.ExecutionStatus), connector, id)
	if err != nil {
		return fmt.Errorf("failed to update item connection: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item %s not found", id)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
