package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytrack/internal/amqp"
	"moneytrack/internal/core"
	"moneytrack/internal/memory"
	"moneytrack/internal/ports"
)

type fakeMirror struct {
	rows    map[int64]core.Transaction
	err     error
	deletes []int64
}

func (f *fakeMirror) UpsertTransaction(_ context.Context, t core.Transaction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows[t.ID] = t
	return "Transactions!A2", nil
}

func (f *fakeMirror) DeleteTransaction(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	delete(f.rows, id)
	return nil
}

func setup(t *testing.T) (*memory.Store, *fakeMirror, core.Transaction) {
	t.Helper()
	store := memory.New(nil)
	created, err := store.CreateTransaction(context.Background(), core.Transaction{
		Amount:   core.Money{Cents: 250000},
		Account:  "Checking",
		Category: "Salary",
		Date:     core.NewDate(2024, 1, 31),
	})
	require.NoError(t, err)
	return store, &fakeMirror{rows: map[int64]core.Transaction{}}, created
}

func TestSyncWorker_Upsert(t *testing.T) {
	store, mirror, created := setup(t)
	w := NewSyncWorker(store, mirror, 3)

	msg := amqp.NewTransactionSyncMessage(created.ID, created.Version, amqp.OpUpsert)
	require.NoError(t, w.HandleMessage(context.Background(), msg))

	assert.Equal(t, created.Amount, mirror.rows[created.ID].Amount)
	status, _ := store.SyncStatus(created.ID)
	assert.Equal(t, ports.SyncSynced, status)
}

func TestSyncWorker_UpsertMirrorsLatestVersion(t *testing.T) {
	store, mirror, created := setup(t)
	w := NewSyncWorker(store, mirror, 3)
	ctx := context.Background()

	changed := created
	changed.Amount = core.Money{Cents: 260000}
	_, err := store.UpdateTransaction(ctx, created.ID, changed)
	require.NoError(t, err)

	// stale message still mirrors the current row
	msg := amqp.NewTransactionSyncMessage(created.ID, 1, amqp.OpUpsert)
	require.NoError(t, w.HandleMessage(ctx, msg))

	assert.Equal(t, int64(260000), mirror.rows[created.ID].Amount.Cents)
	status, _ := store.SyncStatus(created.ID)
	assert.Equal(t, ports.SyncSynced, status)
}

func TestSyncWorker_UpsertMissingRow(t *testing.T) {
	store, mirror, _ := setup(t)
	w := NewSyncWorker(store, mirror, 3)

	msg := amqp.NewTransactionSyncMessage(42, 1, amqp.OpUpsert)
	assert.NoError(t, w.HandleMessage(context.Background(), msg))
	assert.Empty(t, mirror.rows)
}

func TestSyncWorker_UpsertFailure(t *testing.T) {
	store, mirror, created := setup(t)
	mirror.err = errors.New("quota exceeded")
	w := NewSyncWorker(store, mirror, 1)

	msg := amqp.NewTransactionSyncMessage(created.ID, created.Version, amqp.OpUpsert)
	assert.Error(t, w.HandleMessage(context.Background(), msg))

	status, _ := store.SyncStatus(created.ID)
	assert.Equal(t, ports.SyncError, status)
}

func TestSyncWorker_Delete(t *testing.T) {
	store, mirror, created := setup(t)
	w := NewSyncWorker(store, mirror, 3)
	ctx := context.Background()

	require.NoError(t, w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(created.ID, 1, amqp.OpUpsert)))
	require.NoError(t, store.DeleteTransaction(ctx, created.ID))
	require.NoError(t, w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(created.ID, 0, amqp.OpDelete)))

	assert.Equal(t, []int64{created.ID}, mirror.deletes)
	assert.Empty(t, mirror.rows)

	pending, err := store.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncWorker_DeleteFailureStaysQueued(t *testing.T) {
	store, mirror, created := setup(t)
	w := NewSyncWorker(store, mirror, 3)
	ctx := context.Background()

	require.NoError(t, store.DeleteTransaction(ctx, created.ID))
	mirror.err = errors.New("quota exceeded")
	assert.Error(t, w.HandleMessage(ctx, amqp.NewTransactionSyncMessage(created.ID, 0, amqp.OpDelete)))

	pending, err := store.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].Attempts)
}

func TestSyncWorker_UnknownOperation(t *testing.T) {
	store, mirror, created := setup(t)
	w := NewSyncWorker(store, mirror, 3)

	msg := &amqp.TransactionSyncMessage{ID: created.ID, Operation: "rename"}
	assert.Error(t, w.HandleMessage(context.Background(), msg))
}
