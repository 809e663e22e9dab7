package storage

import (
	"context"
	"fmt"
	"log/slog"

	"moneytrack/internal/ports"
)

// PendingSync returns transactions whose mirror copy is out of date, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]ports.PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, sync_attempts FROM transactions
		 WHERE sync_status = 'pending'
		 ORDER BY id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []ports.PendingSync
	for rows.Next() {
		var p ports.PendingSync
		if err := rows.Scan(&p.ID, &p.Version, &p.Attempts); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as mirrored. A row updated after version was
// read stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced' WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.DebugContext(ctx, "Transaction changed or removed before sync completed", "id", id, "version", version)
		return nil
	}
	slog.DebugContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError records a failed attempt and gives up after maxAttempts.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET sync_attempts = sync_attempts + 1,
		     sync_status = CASE WHEN sync_attempts + 1 >= ? THEN 'error' ELSE 'pending' END
		 WHERE id = ?`, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction sync attempt failed", "id", id)
	return nil
}

// PendingDeletions returns deleted transactions still present in the mirror.
func (r *SQLiteRepository) PendingDeletions(ctx context.Context, limit int) ([]ports.PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, attempts FROM sync_deletions
		 WHERE status = 'pending'
		 ORDER BY transaction_id
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending mirror deletions: %w", err)
	}
	defer rows.Close()

	var out []ports.PendingSync
	for rows.Next() {
		var p ports.PendingSync
		if err := rows.Scan(&p.ID, &p.Attempts); err != nil {
			return nil, fmt.Errorf("scan pending deletion: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkDeletionSynced forgets a deletion once the mirror row is gone.
func (r *SQLiteRepository) MarkDeletionSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sync_deletions WHERE transaction_id = ?`, id); err != nil {
		return fmt.Errorf("mark deletion synced: %w", err)
	}
	slog.DebugContext(ctx, "Mirror deletion completed", "id", id)
	return nil
}

// MarkDeletionError records a failed mirror delete and gives up after maxAttempts.
func (r *SQLiteRepository) MarkDeletionError(ctx context.Context, id int64, maxAttempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_deletions
		 SET attempts = attempts + 1,
		     status = CASE WHEN attempts + 1 >= ? THEN 'error' ELSE 'pending' END
		 WHERE transaction_id = ?`, maxAttempts, id)
	if err != nil {
		return fmt.Errorf("mark deletion error: %w", err)
	}
	slog.WarnContext(ctx, "Mirror deletion attempt failed", "id", id)
	return nil
}
