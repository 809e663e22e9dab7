package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneytrack/internal/amqp"
	"moneytrack/internal/ports"
)

// SyncWorker mirrors transaction changes announced over AMQP.
type SyncWorker struct {
	store      ports.Store
	mirror     ports.TransactionMirror
	maxRetries int
}

func NewSyncWorker(store ports.Store, mirror ports.TransactionMirror, maxRetries int) *SyncWorker {
	return &SyncWorker{
		store:      store,
		mirror:     mirror,
		maxRetries: maxRetries,
	}
}

// HandleMessage processes a single transaction sync message. A returned error
// makes the consumer requeue the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"transaction_id", msg.ID,
		"version", msg.Version,
		"operation", msg.Operation)

	switch msg.Operation {
	case amqp.OpUpsert:
		return w.handleUpsert(ctx, msg)
	case amqp.OpDelete:
		return w.handleDelete(ctx, msg)
	default:
		return fmt.Errorf("unknown operation %q", msg.Operation)
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, ports.ErrNotFound) {
		// Deleted after the message was published; the delete message cleans up.
		slog.InfoContext(ctx, "Transaction no longer exists, skipping sync",
			"transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if t.Version > msg.Version {
		slog.DebugContext(ctx, "Newer version in store, mirroring latest",
			"transaction_id", t.ID,
			"message_version", msg.Version,
			"store_version", t.Version)
	}

	ref, err := w.mirror.UpsertTransaction(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID, w.maxRetries); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", t.ID, "error", markErr)
		}
		return fmt.Errorf("upsert transaction to mirror: %w", err)
	}

	if err := w.store.MarkSynced(ctx, t.ID, t.Version); err != nil {
		// The mirror write worked; the sweep will simply rewrite the same row.
		slog.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced transaction",
		"transaction_id", t.ID,
		"version", t.Version,
		"sheets_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	if err := w.mirror.DeleteTransaction(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to delete transaction from mirror",
			"transaction_id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		if markErr := w.store.MarkDeletionError(ctx, msg.ID, w.maxRetries); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark deletion error", "transaction_id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("delete transaction from mirror: %w", err)
	}

	if err := w.store.MarkDeletionSynced(ctx, msg.ID); err != nil {
		// The sweep will repeat the delete, which is a no-op on a missing row.
		slog.ErrorContext(ctx, "Failed to mark deletion as synced", "transaction_id", msg.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully deleted transaction from mirror",
		"transaction_id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}
