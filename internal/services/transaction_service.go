package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moneytrack/internal/amqp"
	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

// Publisher announces transaction changes to the mirror worker.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id, version int64, op amqp.Operation) error
	Close() error
}

// TransactionService orchestrates transaction writes across the store and AMQP.
// Reads go straight to the embedded store.
type TransactionService struct {
	ports.Store
	publisher Publisher
}

var _ ports.Store = (*TransactionService)(nil)

// NewTransactionService wraps store. A nil publisher disables change messages;
// rows then stay pending until the sync sweep picks them up.
func NewTransactionService(store ports.Store, publisher Publisher) *TransactionService {
	return &TransactionService{
		Store:     store,
		publisher: publisher,
	}
}

// CreateTransaction saves a transaction locally and publishes a sync message.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.Store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, created.ID, created.Version, amqp.OpUpsert)
	return created, nil
}

// UpdateTransaction replaces a transaction and publishes its new version.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	updated, err := s.Store.UpdateTransaction(ctx, id, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, updated.ID, updated.Version, amqp.OpUpsert)
	return updated, nil
}

// DeleteTransaction removes a transaction and publishes a delete message.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.Store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, id, 0, amqp.OpDelete)
	return nil
}

// publish never fails the caller: the write already succeeded locally.
func (s *TransactionService) publish(ctx context.Context, id, version int64, op amqp.Operation) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message",
			"transaction_id", id, "operation", op)
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, version, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"transaction_id", id,
			"version", version,
			"operation", op,
			"error", err)
	}
}

// Close closes both the store and the AMQP connection.
func (s *TransactionService) Close() error {
	var errs []error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
