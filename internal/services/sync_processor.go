package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"moneytrack/internal/ports"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// Schedule is a cron spec for the sweep (default: @every 30s)
	Schedule string

	// BatchSize is the max number of rows mirrored per sweep (default: 10)
	BatchSize int

	// MaxRetries is the number of failed attempts before a row is marked as error (default: 3)
	MaxRetries int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		Schedule:   "@every 30s",
		BatchSize:  10,
		MaxRetries: 3,
	}
}

// SyncResult counts the outcome of one sweep.
type SyncResult struct {
	Synced  int
	Deleted int
	Failed  int
	Skipped int
}

// SyncProcessor periodically mirrors transactions still pending in the store
// and removes the mirror rows of deleted ones. It catches changes whose
// message was never published or was lost.
type SyncProcessor struct {
	store  ports.Store
	mirror ports.TransactionMirror
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(store ports.Store, mirror ports.TransactionMirror, config SyncProcessorConfig) *SyncProcessor {
	return &SyncProcessor{
		store:  store,
		mirror: mirror,
		config: config,
	}
}

// Start schedules the sweep and runs one immediately. Returns an error if
// already running or the schedule does not parse.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("sync processor is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(p.config.Schedule, func() { p.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sync schedule %q: %w", p.config.Schedule, err)
	}

	p.cron = c
	p.cancel = cancel
	p.running = true
	c.Start()

	// Process immediately on startup
	go p.RunOnce(runCtx)

	slog.InfoContext(ctx, "Sync processor started",
		"schedule", p.config.Schedule,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	c, cancel := p.cron, p.cancel
	p.running = false
	p.mu.Unlock()

	done := c.Stop()
	cancel()

	select {
	case <-done.Done():
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RunOnce mirrors one batch of pending transactions and one batch of
// pending deletions.
func (p *SyncProcessor) RunOnce(ctx context.Context) SyncResult {
	var result SyncResult
	p.syncUpserts(ctx, &result)
	p.syncDeletions(ctx, &result)

	if result != (SyncResult{}) {
		slog.InfoContext(ctx, "Sync batch processed",
			"synced", result.Synced,
			"deleted", result.Deleted,
			"failed", result.Failed,
			"skipped", result.Skipped)
	}
	return result
}

func (p *SyncProcessor) syncUpserts(ctx context.Context, result *SyncResult) {
	items, err := p.store.PendingSync(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending sync batch", "error", err)
		return
	}
	if len(items) > 0 {
		slog.DebugContext(ctx, "Processing sync batch", "count", len(items))
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		err := p.syncItem(ctx, item)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			result.Skipped++
		case err != nil:
			result.Failed++
			p.handleFailure(ctx, item, err)
		default:
			result.Synced++
		}
	}
}

func (p *SyncProcessor) syncDeletions(ctx context.Context, result *SyncResult) {
	items, err := p.store.PendingDeletions(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending deletions", "error", err)
		return
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		if err := p.mirror.DeleteTransaction(ctx, item.ID); err != nil {
			result.Failed++
			slog.WarnContext(ctx, "Mirror deletion failed",
				"transaction_id", item.ID,
				"attempt", item.Attempts+1,
				"error", err)
			if err := p.store.MarkDeletionError(ctx, item.ID, p.config.MaxRetries); err != nil {
				slog.ErrorContext(ctx, "Failed to record deletion attempt",
					"transaction_id", item.ID, "error", err)
			}
			continue
		}

		if err := p.store.MarkDeletionSynced(ctx, item.ID); err != nil {
			slog.WarnContext(ctx, "Failed to mark deletion as synced",
				"transaction_id", item.ID, "error", err)
		}
		result.Deleted++
	}
}

func (p *SyncProcessor) syncItem(ctx context.Context, item ports.PendingSync) error {
	t, err := p.store.GetTransaction(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", item.ID, err)
	}

	ref, err := p.mirror.UpsertTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("mirror transaction %d: %w", item.ID, err)
	}

	// The row may have been updated while mirroring; only the version read is marked.
	if err := p.store.MarkSynced(ctx, t.ID, t.Version); err != nil {
		slog.WarnContext(ctx, "Failed to mark transaction as synced",
			"transaction_id", t.ID, "error", err)
	}

	slog.DebugContext(ctx, "Synced transaction to mirror",
		"transaction_id", t.ID,
		"version", t.Version,
		"sheets_ref", ref)
	return nil
}

// handleFailure records a failed attempt; the store flips the row to error
// once MaxRetries is reached.
func (p *SyncProcessor) handleFailure(ctx context.Context, item ports.PendingSync, processErr error) {
	attempt := item.Attempts + 1
	slog.WarnContext(ctx, "Sync processing failed",
		"transaction_id", item.ID,
		"attempt", attempt,
		"error", processErr)

	if err := p.store.MarkSyncError(ctx, item.ID, p.config.MaxRetries); err != nil {
		slog.ErrorContext(ctx, "Failed to record sync attempt",
			"transaction_id", item.ID, "error", err)
		return
	}
	if attempt >= int64(p.config.MaxRetries) {
		slog.ErrorContext(ctx, "Transaction sync failed permanently after max retries",
			"transaction_id", item.ID,
			"attempts", attempt)
	}
}
