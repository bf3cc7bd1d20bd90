package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/taskmark/internal/dbx"
	"github.com/dmitrijs2005/taskmark/internal/models"
)

// SQLiteRepository stores snapshots of one collection.
type SQLiteRepository[E models.Entity[E]] struct {
	db         *sql.DB
	collection string
}

func NewSQLiteRepository[E models.Entity[E]](db *sql.DB, collection string) *SQLiteRepository[E] {
	return &SQLiteRepository[E]{db: db, collection: collection}
}

// Load returns the snapshot saved for userID in saved order. found is false
// when there is none or it belongs to another user.
func (r *SQLiteRepository[E]) Load(ctx context.Context, userID string) (items []E, found bool, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, data FROM snapshot_rows WHERE collection = ? ORDER BY position`, r.collection)
	if err != nil {
		return nil, false, fmt.Errorf("failed to select snapshot[%s]: %w", r.collection, err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var data []byte
		if err := rows.Scan(&owner, &data); err != nil {
			return nil, false, err
		}
		if owner != userID {
			return nil, false, nil
		}
		var item E
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, false, fmt.Errorf("failed to decode snapshot[%s]: %w", r.collection, err)
		}
		items = append(items, item)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return items, found, nil
}

// Save replaces the collection's snapshot with items.
func (r *SQLiteRepository[E]) Save(ctx context.Context, userID string, items []E) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteCollection(ctx, tx, r.collection); err != nil {
			return err
		}
		for i, item := range items {
			data, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to encode snapshot row %s: %w", item.GetID(), err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO snapshot_rows (collection, id, user_id, position, data)
				VALUES (?, ?, ?, ?, ?)
			`, r.collection, item.GetID(), userID, i, data)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot row %s: %w", item.GetID(), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository[E]) Clear(ctx context.Context) error {
	return deleteCollection(ctx, r.db, r.collection)
}

func deleteCollection(ctx context.Context, db dbx.DBTX, collection string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM snapshot_rows WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to clear snapshot[%s]: %w", collection, err)
	}
	return nil
}
