// Package memory is an in-process implementation of the transaction store,
// used for DATA_BACKEND=memory and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

// DefaultCategories mirrors the categories seeded by the SQLite migration.
var DefaultCategories = []core.Category{
	{Name: "Salary", Color: "#4CAF50"},
	{Name: "Freelance", Color: "#8BC34A"},
	{Name: "Food", Color: "#FF9800"},
	{Name: "Transportation", Color: "#2196F3"},
	{Name: "Entertainment", Color: "#9C27B0"},
	{Name: "Utilities", Color: "#607D8B"},
	{Name: "Shopping", Color: "#E91E63"},
	{Name: "Healthcare", Color: "#F44336"},
}

type record struct {
	tx       core.Transaction
	attempts int64
	status   ports.SyncStatus
}

type Store struct {
	mu        sync.Mutex
	nextID    int64
	nextCat   int64
	items     map[int64]*record
	// deletions holds ids whose mirror row still has to be removed.
	deletions map[int64]*deletion
	cats      []core.Category
	now       func() time.Time
}

type deletion struct {
	attempts int64
	status   ports.SyncStatus
}

var _ ports.Store = (*Store)(nil)

// New returns a store seeded with cats. A nil slice seeds DefaultCategories.
func New(cats []core.Category) *Store {
	if cats == nil {
		cats = DefaultCategories
	}
	s := &Store{
		items:     map[int64]*record{},
		deletions: map[int64]*deletion{},
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, c := range cats {
		_, _ = s.CreateCategory(context.Background(), c)
	}
	return s
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = s.now()
	t.Version = 1
	s.items[t.ID] = &record{tx: t, status: ports.SyncPending}
	return t, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	return r.tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	t.ID = id
	t.CreatedAt = r.tx.CreatedAt
	t.Version = r.tx.Version + 1
	r.tx = t
	r.attempts = 0
	r.status = ports.SyncPending
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	delete(s.items, id)
	s.deletions[id] = &deletion{status: ports.SyncPending}
	return nil
}

func matches(f ports.TransactionFilter, t core.Transaction) bool {
	if f.Account != "" && t.Account != f.Account {
		return false
	}
	if f.Category != "" && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(f.Category)) {
		return false
	}
	return f.Dates.Contains(t.Date)
}

// filtered returns matching transactions ordered newest first. Callers hold mu.
func (s *Store) filtered(f ports.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, r := range s.items {
		if matches(f, r.tx) {
			out = append(out, r.tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

func (s *Store) ListTransactions(_ context.Context, f ports.TransactionFilter, p core.Page) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filtered(f)
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return append([]core.Transaction{}, all[start:end]...), nil
}

func (s *Store) CountTransactions(_ context.Context, f ports.TransactionFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(f)), nil
}

func (s *Store) SumAmount(_ context.Context, f ports.TransactionFilter) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.Money
	for _, t := range s.filtered(f) {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Category{}, s.cats...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if existing.Name == c.Name {
			return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ports.ErrCategoryExists)
		}
	}
	s.nextCat++
	c.ID = s.nextCat
	s.cats = append(s.cats, c)
	return c, nil
}
