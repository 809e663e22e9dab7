package services

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

func sampleTransaction() core.Transaction {
	return core.Transaction{
		Amount:   core.Money{Cents: -4250},
		Account:  "Checking",
		Category: "Food",
		Date:     core.NewDate(2024, 3, 14),
	}
}

func TestTransactionService_PublishesAfterWrites(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(nil), pub)

	created, err := svc.CreateTransaction(ctx, sampleTransaction())
	require.NoError(t, err)

	changed := sampleTransaction()
	changed.Amount = core.Money{Cents: -5000}
	updated, err := svc.UpdateTransaction(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	require.NoError(t, svc.DeleteTransaction(ctx, created.ID))

	assert.Equal(t, []published{
		{id: created.ID, version: 1, op: amqp.OpUpsert},
		{id: created.ID, version: 2, op: amqp.OpUpsert},
		{id: created.ID, version: 0, op: amqp.OpDelete},
	}, pub.messages)
}

func TestTransactionService_FailedWritesDoNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(nil), pub)

	invalid := sampleTransaction()
	invalid.Amount = core.Money{}
	_, err := svc.CreateTransaction(ctx, invalid)
	assert.True(t, core.IsValidation(err))

	_, err = svc.UpdateTransaction(ctx, 99, sampleTransaction())
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, 99), ports.ErrNotFound)
	assert.Empty(t, pub.messages)
}

func TestTransactionService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	svc := NewTransactionService(store, &fakePublisher{err: errors.New("broker down")})

	created, err := svc.CreateTransaction(ctx, sampleTransaction())
	require.NoError(t, err)

	status, ok := store.SyncStatus(created.ID)
	require.True(t, ok)
	assert.Equal(t, ports.SyncPending, status)
}

func TestTransactionService_NilPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(nil), nil)

	_, err := svc.CreateTransaction(context.Background(), sampleTransaction())
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestTransactionService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewTransactionService(memory.New(nil), pub)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
