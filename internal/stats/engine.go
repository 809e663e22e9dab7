// Package stats computes monthly account and category rollups over the
// transaction store.
//
// A request enumerates one page of distinct months, most recent first, and
// computes a snapshot per month. Per-month reads run concurrently on a bounded
// errgroup; snapshots are written into a slice by month index so the response
// keeps the page order regardless of completion order. Any failure aborts the
// whole page.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

var (
	// ErrTimeout is returned when a request does not finish within Config.Timeout.
	ErrTimeout = errors.New("monthly stats timed out")
	// ErrInvalidPage is returned for a page number or limit below 1.
	ErrInvalidPage = errors.New("invalid page")
)

// Config holds the engine limits.
type Config struct {
	// Timeout bounds a whole request (default: 10s)
	Timeout time.Duration

	// Concurrency is the max number of months computed at once (default: 4)
	Concurrency int
}

// DefaultConfig returns the default engine limits
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		Concurrency: 4,
	}
}

type Engine struct {
	reader ports.MonthStatsReader
	config Config
}

func NewEngine(reader ports.MonthStatsReader, config Config) *Engine {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	return &Engine{reader: reader, config: config}
}

// ListMonthlyStats returns the snapshots for one page of months.
//
// A page past the last month yields an empty list with valid pagination.
func (e *Engine) ListMonthlyStats(ctx context.Context, page core.Page) (core.MonthlyStatsPage, error) {
	if page.Number < 1 || page.Limit < 1 {
		return core.MonthlyStatsPage{}, fmt.Errorf("%w: page %d, limit %d", ErrInvalidPage, page.Number, page.Limit)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	total, err := e.reader.CountDistinctMonths(ctx)
	if err != nil {
		return core.MonthlyStatsPage{}, e.fail(ctx, "count months", err)
	}

	result := core.MonthlyStatsPage{
		MonthlyStats: []core.MonthlySnapshot{},
		Pagination: core.MonthPagination{
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			TotalMonths: total,
			Limit:       page.Limit,
		},
	}

	months, err := e.reader.ListDistinctMonths(ctx, page.Offset(), page.Limit)
	if err != nil {
		return core.MonthlyStatsPage{}, e.fail(ctx, "list months", err)
	}
	if len(months) == 0 {
		return result, nil
	}

	snapshots := make([]core.MonthlySnapshot, len(months))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, month := range months {
		i, month := i, month
		g.Go(func() error {
			snap, err := e.snapshot(gctx, month)
			if err != nil {
				return fmt.Errorf("month %s: %w", month, err)
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.MonthlyStatsPage{}, e.fail(ctx, "compute snapshots", err)
	}

	result.MonthlyStats = snapshots
	return result, nil
}

func (e *Engine) snapshot(ctx context.Context, month core.MonthKey) (core.MonthlySnapshot, error) {
	dates := month.Range()

	accounts, err := e.reader.AccountMonthBalances(ctx, dates)
	if err != nil {
		return core.MonthlySnapshot{}, fmt.Errorf("account balances: %w", err)
	}
	categories, err := e.reader.CategoryTotals(ctx, ports.TransactionFilter{Dates: dates})
	if err != nil {
		return core.MonthlySnapshot{}, fmt.Errorf("category totals: %w", err)
	}

	if accounts == nil {
		accounts = []core.AccountMonth{}
	}
	if categories == nil {
		categories = []core.CategoryTotal{}
	}
	return core.MonthlySnapshot{Month: month, Accounts: accounts, Categories: categories}, nil
}

// fail maps an expired request deadline to ErrTimeout.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.WarnContext(ctx, "Monthly stats deadline exceeded", "op", op, "timeout", e.config.Timeout)
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
