// Package ports declares the storage and mirror boundaries the rest of the
// application depends on.
package ports

import (
	"context"
	"errors"

	"moneytrack/internal/core"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrCategoryExists = errors.New("category already exists")
)

// TransactionFilter is a conjunction of optional predicates over transactions.
type TransactionFilter struct {
	// Account matches exactly when non-empty.
	Account string
	// Category matches as a case-insensitive substring when non-empty.
	Category string
	// Dates restricts the transaction date, bounds included.
	Dates core.DateRange
}

// SyncStatus tracks whether a transaction has been copied to the mirror.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// PendingSync is the minimal data needed to schedule a mirror write.
type PendingSync struct {
	ID       int64
	Version  int64
	Attempts int64
}

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// UpdateTransaction replaces every mutable field. Returns ErrNotFound
		// when no row has the given id.
		UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
		// ListTransactions returns one page ordered by date, then creation time,
		// most recent first.
		ListTransactions(ctx context.Context, f TransactionFilter, p core.Page) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, f TransactionFilter) (int, error)
		SumAmount(ctx context.Context, f TransactionFilter) (core.Money, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	ReportReader interface {
		AccountBalances(ctx context.Context) ([]core.AccountBalance, error)
		Summary(ctx context.Context, dates core.DateRange) (core.Summary, error)
	}

	// MonthStatsReader is the read surface used by the monthly aggregation engine.
	MonthStatsReader interface {
		CountDistinctMonths(ctx context.Context) (int, error)
		// ListDistinctMonths returns distinct months, most recent first.
		ListDistinctMonths(ctx context.Context, offset, limit int) ([]core.MonthKey, error)
		// AccountMonthBalances returns, for every account with at least one
		// transaction inside dates, its balance before dates.From, its balance
		// through dates.To and its movement inside dates. Ordered by account.
		AccountMonthBalances(ctx context.Context, dates core.DateRange) ([]core.AccountMonth, error)
		// CategoryTotals groups matching transactions by category, ordered by
		// absolute total descending then category name.
		CategoryTotals(ctx context.Context, f TransactionFilter) ([]core.CategoryTotal, error)
	}

	SyncStore interface {
		PendingSync(ctx context.Context, limit int) ([]PendingSync, error)
		MarkSynced(ctx context.Context, id, version int64) error
		MarkSyncError(ctx context.Context, id int64, maxAttempts int) error
		// PendingDeletions returns deleted transactions whose mirror row has
		// not been removed yet, oldest first. Version is always zero.
		PendingDeletions(ctx context.Context, limit int) ([]PendingSync, error)
		MarkDeletionSynced(ctx context.Context, id int64) error
		MarkDeletionError(ctx context.Context, id int64, maxAttempts int) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		CategoryStore
		ReportReader
		MonthStatsReader
		SyncStore
		Ping(ctx context.Context) error
		Close() error
	}

	// TransactionMirror keeps an external copy of the transactions table.
	TransactionMirror interface {
		UpsertTransaction(ctx context.Context, t core.Transaction) (ref string, err error)
		DeleteTransaction(ctx context.Context, id int64) error
	}
)
