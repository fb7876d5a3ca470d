package repository

import (
	"context"
	"database/sql"
	"time"
)

// insertDedupKey records a dedup key unless it already exists. The unique
// constraint on dedup_key makes this a single atomic insert-if-absent, so a
// race between two concurrent ingests of the same key admits exactly one.
func insertDedupKey(ctx context.Context, tx *sql.Tx, dedupKey string, processedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO finance.processed_notifications (dedup_key, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (dedup_key) DO NOTHING`, dedupKey, processedAt)
	if err != nil {
		return false, wrapStorage("record dedup key", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage("record dedup key", err)
	}
	return n > 0, nil
}

// NotificationProcessed reports whether a dedup key has already been
// recorded. A read-only fast path for redeliveries; the insert-if-absent
// inside the ingest transaction remains the arbiter under races.
func (r *Repository) NotificationProcessed(ctx context.Context, dedupKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM finance.processed_notifications WHERE dedup_key = $1
		)`, dedupKey).Scan(&exists)
	if err != nil {
		return false, wrapStorage("check dedup key", err)
	}
	return exists, nil
}

// PruneProcessedNotifications deletes dedup records processed before the
// cutoff and returns how many were removed.
func (r *Repository) PruneProcessedNotifications(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM finance.processed_notifications
		WHERE processed_at < $1`, before)
	if err != nil {
		return 0, wrapStorage("prune notifications", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage("prune notifications", err)
	}
	return int(n), nil
}
