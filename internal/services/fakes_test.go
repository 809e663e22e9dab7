package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"moneytrack/internal/amqp"
	"moneytrack/internal/core"
)

type published struct {
	id      int64
	version int64
	op      amqp.Operation
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
	closed   bool
}

func (f *fakePublisher) PublishTransactionSync(_ context.Context, id, version int64, op amqp.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{id: id, version: version, op: op})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeMirror struct {
	mu      sync.Mutex
	rows    map[int64]core.Transaction
	failFor map[int64]bool
	calls   int
	// deleteErr fails every DeleteTransaction call when set.
	deleteErr error
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{rows: map[int64]core.Transaction{}, failFor: map[int64]bool{}}
}

func (f *fakeMirror) UpsertTransaction(_ context.Context, t core.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFor[t.ID] {
		return "", errors.New("sheets unavailable")
	}
	f.rows[t.ID] = t
	return fmt.Sprintf("Transactions!A%d", t.ID+1), nil
}

func (f *fakeMirror) DeleteTransaction(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, id)
	return nil
}
