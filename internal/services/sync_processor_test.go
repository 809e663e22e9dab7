package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/memory"
	"moneytrack/internal/ports"
)

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()

	if config.Schedule != "@every 30s" {
		t.Errorf("expected Schedule @every 30s, got %q", config.Schedule)
	}
	if config.BatchSize != 10 {
		t.Errorf("expected BatchSize 10, got %d", config.BatchSize)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
}

func seedStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	store := memory.New(nil)
	for i := 0; i < n; i++ {
		tx := sampleTransaction()
		tx.Amount = core.Money{Cents: int64(100 * (i + 1))}
		if _, err := store.CreateTransaction(context.Background(), tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	return store
}

func TestSyncProcessor_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 3)
	mirror := newFakeMirror()
	processor := NewSyncProcessor(store, mirror, DefaultSyncProcessorConfig())

	result := processor.RunOnce(ctx)
	if result.Synced != 3 || result.Failed != 0 {
		t.Fatalf("expected 3 synced, got %+v", result)
	}
	if len(mirror.rows) != 3 {
		t.Errorf("expected 3 mirrored rows, got %d", len(mirror.rows))
	}
	for id := int64(1); id <= 3; id++ {
		if status, _ := store.SyncStatus(id); status != ports.SyncSynced {
			t.Errorf("transaction %d: expected synced, got %q", id, status)
		}
	}

	// nothing left to do
	if again := processor.RunOnce(ctx); again != (SyncResult{}) {
		t.Errorf("expected empty second sweep, got %+v", again)
	}
}

func TestSyncProcessor_BatchSize(t *testing.T) {
	store := seedStore(t, 5)
	config := DefaultSyncProcessorConfig()
	config.BatchSize = 2
	processor := NewSyncProcessor(store, newFakeMirror(), config)

	if result := processor.RunOnce(context.Background()); result.Synced != 2 {
		t.Errorf("expected 2 synced, got %+v", result)
	}
}

func TestSyncProcessor_MaxRetries(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 2)
	mirror := newFakeMirror()
	mirror.failFor[1] = true
	config := DefaultSyncProcessorConfig()
	config.MaxRetries = 2
	processor := NewSyncProcessor(store, mirror, config)

	first := processor.RunOnce(ctx)
	if first.Synced != 1 || first.Failed != 1 {
		t.Fatalf("unexpected first sweep %+v", first)
	}
	if status, _ := store.SyncStatus(1); status != ports.SyncPending {
		t.Errorf("expected pending after one failure, got %q", status)
	}

	processor.RunOnce(ctx)
	if status, _ := store.SyncStatus(1); status != ports.SyncError {
		t.Errorf("expected error after max retries, got %q", status)
	}

	// rows in error are no longer swept
	if result := processor.RunOnce(ctx); result != (SyncResult{}) {
		t.Errorf("expected empty sweep, got %+v", result)
	}
}

func TestSyncProcessor_StartStop(t *testing.T) {
	store := seedStore(t, 1)
	mirror := newFakeMirror()
	config := DefaultSyncProcessorConfig()
	config.Schedule = "@every 1h"
	processor := NewSyncProcessor(store, mirror, config)

	if processor.IsRunning() {
		t.Error("processor should not be running initially")
	}
	if err := processor.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !processor.IsRunning() {
		t.Error("processor should be running after Start")
	}
	if err := processor.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running processor")
	}

	// the initial sweep runs right away
	deadline := time.Now().Add(2 * time.Second)
	for {
		if status, _ := store.SyncStatus(1); status == ports.SyncSynced {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial sweep did not sync the pending row")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := processor.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if processor.IsRunning() {
		t.Error("processor should not be running after Stop")
	}
}

func TestSyncProcessor_InvalidSchedule(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	config.Schedule = "not a schedule"
	processor := NewSyncProcessor(memory.New(nil), newFakeMirror(), config)

	if err := processor.Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if processor.IsRunning() {
		t.Error("processor should not run with an invalid schedule")
	}
}

func TestSyncProcessor_StopNotRunning(t *testing.T) {
	processor := NewSyncProcessor(nil, nil, DefaultSyncProcessorConfig())

	if err := processor.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestSyncProcessor_RemovesDeletedRowsWithoutMessages(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 2)
	mirror := newFakeMirror()
	processor := NewSyncProcessor(store, mirror, DefaultSyncProcessorConfig())

	if result := processor.RunOnce(ctx); result.Synced != 2 {
		t.Fatalf("expected 2 synced, got %+v", result)
	}

	// no publisher: the delete message is never sent
	if err := NewTransactionService(store, nil).DeleteTransaction(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if result := processor.RunOnce(ctx); result.Deleted != 1 || result.Failed != 0 {
		t.Fatalf("expected 1 deleted, got %+v", result)
	}
	if _, ok := mirror.rows[1]; ok {
		t.Error("deleted transaction 1 is still mirrored")
	}
	if _, ok := mirror.rows[2]; !ok {
		t.Error("transaction 2 should still be mirrored")
	}

	if again := processor.RunOnce(ctx); again != (SyncResult{}) {
		t.Errorf("expected nothing left to do, got %+v", again)
	}
}

func TestSyncProcessor_DeletionMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t, 1)
	mirror := newFakeMirror()
	processor := NewSyncProcessor(store, mirror, SyncProcessorConfig{
		Schedule:   "@every 1m",
		BatchSize:  10,
		MaxRetries: 2,
	})
	processor.RunOnce(ctx)

	if err := store.DeleteTransaction(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	mirror.deleteErr = errors.New("sheets unavailable")

	for i := 0; i < 2; i++ {
		if result := processor.RunOnce(ctx); result.Failed != 1 {
			t.Fatalf("sweep %d: expected 1 failure, got %+v", i+1, result)
		}
	}
	if result := processor.RunOnce(ctx); result != (SyncResult{}) {
		t.Errorf("deletion should be abandoned after max retries, got %+v", result)
	}
	if _, ok := mirror.rows[1]; !ok {
		t.Error("failed deletes should leave the mirror row in place")
	}
}
