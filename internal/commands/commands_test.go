package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytrack/internal/config"
	"moneytrack/internal/core"
	"moneytrack/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "data", "ctl.db"))
	return config.Load()
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, dbPath string, rows ...core.Transaction) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	for _, tx := range rows {
		_, err := repo.CreateTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
}

func tx(date string, cents int64, account, category string) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{Amount: core.Money{Cents: cents}, Account: account, Category: category, Date: d}
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema at version 2\n", out)

	// second run is a no-op
	out, err = run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema at version 2\n", out)
}

func TestStats(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.SQLiteDBPath,
		tx("2024-01-31", 100000, "Checking", "Salary"),
		tx("2024-02-01", -20000, "Checking", "Rent"),
		tx("2024-03-05", -1500, "Checking", "Food"),
	)

	out, err := run(t, cfg, "stats", "--limit", "2")
	require.NoError(t, err)

	var page core.MonthlyStatsPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.MonthlyStats, 2)
	assert.Equal(t, "2024-03", page.MonthlyStats[0].Month.String())
	assert.Equal(t, "2024-02", page.MonthlyStats[1].Month.String())
	assert.Equal(t, core.MonthPagination{CurrentPage: 1, TotalPages: 2, TotalMonths: 3, Limit: 2}, page.Pagination)

	out, err = run(t, cfg, "stats", "--page", "2", "--limit", "2")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.MonthlyStats, 1)
	assert.Equal(t, "2024-01", page.MonthlyStats[0].Month.String())
}

func TestStatsRejectsInvalidPage(t *testing.T) {
	cfg := testConfig(t)

	for _, args := range [][]string{
		{"stats", "--page", "0"},
		{"stats", "--limit", "-3"},
		{"stats", "--page", "abc"},
	} {
		_, err := run(t, cfg, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestBalances(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.SQLiteDBPath,
		tx("2024-01-31", 100000, "Checking", "Salary"),
		tx("2024-02-01", -20000, "Checking", "Rent"),
		tx("2024-02-15", 5000, "Savings", "Interest"),
	)

	out, err := run(t, cfg, "balances")
	require.NoError(t, err)
	assert.Contains(t, out, "ACCOUNT")
	assert.Regexp(t, `Checking\s+800\.00\s+2`, out)
	assert.Regexp(t, `Savings\s+50\.00\s+1`, out)
}

func TestDBFlagOverridesConfig(t *testing.T) {
	cfg := testConfig(t)
	other := filepath.Join(t.TempDir(), "other.db")

	_, err := run(t, cfg, "--db", other, "migrate")
	require.NoError(t, err)
	assert.FileExists(t, other)
	assert.NoFileExists(t, cfg.SQLiteDBPath)
}
