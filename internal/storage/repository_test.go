package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *SQLiteRepository, date string, cents int64, account, category string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Amount:   core.Money{Cents: cents},
		Account:  account,
		Category: category,
		Date:     d,
	})
	require.NoError(t, err)
	return tx
}

func TestMigrationsSeedCategories(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 8)
	assert.Equal(t, "Entertainment", cats[0].Name)
	assert.Equal(t, "Utilities", cats[7].Name)

	version, err := RunMigrations(filepath.Join(t.TempDir(), "other.db"))
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created := seed(t, repo, "2024-03-05", -1250, " Checking ", "Food")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Checking", created.Account)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1250), got.Amount.Cents)
	assert.Equal(t, "2024-03-05", got.Date.String())

	got.Amount = core.Money{Cents: -1500}
	got.Description = "groceries"
	updated, err := repo.UpdateTransaction(ctx, created.ID, got)
	require.NoError(t, err)
	assert.Equal(t, int64(-1500), updated.Amount.Cents)
	assert.Equal(t, "groceries", updated.Description)

	require.NoError(t, repo.DeleteTransaction(ctx, created.ID))
	_, err = repo.GetTransaction(ctx, created.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, created.ID), ports.ErrNotFound)
	_, err = repo.UpdateTransaction(ctx, created.ID, got)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Account:  "Checking",
		Category: "Food",
		Date:     core.NewDate(2024, time.March, 1),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.True(t, core.IsValidation(err))
}

func TestListTransactionsFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := seed(t, repo, "2024-01-10", 1000, "Checking", "Salary")
	b := seed(t, repo, "2024-01-15", -200, "Checking", "Food")
	c := seed(t, repo, "2024-01-15", -300, "Savings", "Fast Food")
	seed(t, repo, "2024-02-01", -50, "Checking", "100%_off")

	all, err := repo.ListTransactions(ctx, ports.TransactionFilter{}, core.Page{Number: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-02-01", all[0].Date.String())
	// same date: later insert first
	assert.Equal(t, c.ID, all[1].ID)
	assert.Equal(t, b.ID, all[2].ID)
	assert.Equal(t, a.ID, all[3].ID)

	food, err := repo.ListTransactions(ctx, ports.TransactionFilter{Category: "food"}, core.Page{Number: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	literal, err := repo.CountTransactions(ctx, ports.TransactionFilter{Category: "%_"})
	require.NoError(t, err)
	assert.Equal(t, 1, literal)

	jan := ports.TransactionFilter{
		Account: "Checking",
		Dates:   core.DateRange{From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31)},
	}
	n, err := repo.CountTransactions(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sum, err := repo.SumAmount(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, int64(800), sum.Cents)

	page2, err := repo.ListTransactions(ctx, ports.TransactionFilter{}, core.Page{Number: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, a.ID, page2[0].ID)
}

func TestCreateCategoryDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	c, err := repo.CreateCategory(ctx, core.Category{Name: "Travel"})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCategoryColor, c.Color)
	assert.NotZero(t, c.ID)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "Travel", Color: "#000000"})
	assert.ErrorIs(t, err, ports.ErrCategoryExists)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "Food"})
	assert.ErrorIs(t, err, ports.ErrCategoryExists)
}

func TestMonthAggregates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed(t, repo, "2024-01-10", 100000, "Checking", "Salary")
	seed(t, repo, "2024-01-20", -20000, "Checking", "Food")
	seed(t, repo, "2024-02-05", -5000, "Checking", "Food")
	seed(t, repo, "2024-02-29", -3000, "Savings", "Utilities")

	n, err := repo.CountDistinctMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	months, err := repo.ListDistinctMonths(ctx, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, []core.MonthKey{{Year: 2024, Month: 2}, {Year: 2024, Month: 1}}, months)

	feb := core.NewMonthKey(2024, time.February).Range()
	accounts, err := repo.AccountMonthBalances(ctx, feb)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, core.AccountMonth{
		Account:      "Checking",
		BalanceStart: core.Money{Cents: 80000},
		BalanceEnd:   core.Money{Cents: 75000},
		Difference:   core.Money{Cents: -5000},
	}, accounts[0])
	assert.Equal(t, "Savings", accounts[1].Account)
	assert.Equal(t, int64(-3000), accounts[1].Difference.Cents)

	cats, err := repo.CategoryTotals(ctx, ports.TransactionFilter{Dates: core.NewMonthKey(2024, time.January).Range()})
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Salary", cats[0].Category)
	assert.Equal(t, int64(1), cats[1].Count)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed(t, repo, "2024-01-10", 100000, "Checking", "Salary")
	seed(t, repo, "2024-01-20", -20000, "Checking", "Food")
	seed(t, repo, "2024-02-05", -5000, "Savings", "Food")

	balances, err := repo.AccountBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.AccountBalance{
		{Account: "Checking", Balance: core.Money{Cents: 80000}, TransactionCount: 2},
		{Account: "Savings", Balance: core.Money{Cents: -5000}, TransactionCount: 1},
	}, balances)

	s, err := repo.Summary(ctx, core.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(100000), s.Summary.Income.Cents)
	assert.Equal(t, int64(25000), s.Summary.Expenses.Cents)
	assert.Equal(t, int64(75000), s.Summary.Balance.Cents)
	assert.Equal(t, int64(3), s.Summary.TransactionCount)
	require.Len(t, s.CategoryBreakdown, 2)

	empty, err := repo.Summary(ctx, core.DateRange{From: core.NewDate(2030, 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, empty.Summary.TransactionCount)
	assert.Empty(t, empty.CategoryBreakdown)
}

func TestSyncBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := seed(t, repo, "2024-01-10", 100, "Checking", "Food")
	b := seed(t, repo, "2024-01-11", 200, "Checking", "Food")

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].Version)

	require.NoError(t, repo.MarkSynced(ctx, a.ID, 1))

	// stale version leaves the row pending
	_, err = repo.UpdateTransaction(ctx, b.ID, b)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSynced(ctx, b.ID, 1))

	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
	assert.Equal(t, int64(2), pending[0].Version)

	require.NoError(t, repo.MarkSyncError(ctx, b.ID, 2))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].Attempts)

	require.NoError(t, repo.MarkSyncError(ctx, b.ID, 2))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeletionBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	a := seed(t, repo, "2024-01-10", 100, "Checking", "Food")
	b := seed(t, repo, "2024-01-11", 200, "Checking", "Food")

	pending, err := repo.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, repo.DeleteTransaction(ctx, b.ID))
	require.NoError(t, repo.DeleteTransaction(ctx, a.ID))

	// a failed delete queues nothing
	require.ErrorIs(t, repo.DeleteTransaction(ctx, 999), ports.ErrNotFound)

	pending, err = repo.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.ID, pending[0].ID)
	assert.Equal(t, b.ID, pending[1].ID)

	// deleted rows leave the upsert queue
	upserts, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, upserts)

	require.NoError(t, repo.MarkDeletionSynced(ctx, a.ID))
	require.NoError(t, repo.MarkDeletionError(ctx, b.ID, 2))
	pending, err = repo.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].Attempts)

	require.NoError(t, repo.MarkDeletionError(ctx, b.ID, 2))
	pending, err = repo.PendingDeletions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
