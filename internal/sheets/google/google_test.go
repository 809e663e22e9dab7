package google

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytrack/internal/core"
)

// fakeValues keeps a single sheet as a slice of rows, row 1 first.
type fakeValues struct {
	rows  [][]any
	gets  int
	calls []string
}

func (f *fakeValues) Get(_ context.Context, rng string) ([][]any, error) {
	f.gets++
	f.calls = append(f.calls, "get "+rng)
	if strings.HasSuffix(rng, "!A:A") {
		out := make([][]any, len(f.rows))
		for i, r := range f.rows {
			if len(r) > 0 {
				out[i] = []any{r[0]}
			}
		}
		return out, nil
	}
	if strings.HasSuffix(rng, "!A1:G1") {
		if len(f.rows) == 0 {
			return nil, nil
		}
		return f.rows[:1], nil
	}
	return nil, fmt.Errorf("unexpected range %s", rng)
}

func (f *fakeValues) Update(_ context.Context, rng string, rows [][]any) error {
	f.calls = append(f.calls, "update "+rng)
	n, ok := parseRowNumber(rng)
	if !ok {
		return fmt.Errorf("bad range %s", rng)
	}
	for len(f.rows) < n {
		f.rows = append(f.rows, nil)
	}
	f.rows[n-1] = rows[0]
	return nil
}

func (f *fakeValues) Append(_ context.Context, rng string, rows [][]any) (string, error) {
	f.calls = append(f.calls, "append "+rng)
	f.rows = append(f.rows, rows[0])
	n := len(f.rows)
	return fmt.Sprintf("Transactions!A%d:G%d", n, n), nil
}

func (f *fakeValues) Clear(_ context.Context, rng string) error {
	f.calls = append(f.calls, "clear "+rng)
	n, ok := parseRowNumber(rng)
	if !ok || n > len(f.rows) {
		return fmt.Errorf("bad range %s", rng)
	}
	f.rows[n-1] = nil
	return nil
}

func tx(id int64, cents int64) core.Transaction {
	return core.Transaction{
		ID:       id,
		Amount:   core.Money{Cents: cents},
		Account:  "Savings",
		Category: "Salary",
		Date:     core.NewDate(2024, 5, 1),
	}
}

func TestClient_EnsureHeader(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{}
	c := newClient(fake, "Transactions")

	require.NoError(t, c.EnsureHeader(ctx))
	require.Len(t, fake.rows, 1)
	assert.Equal(t, "ID", fake.rows[0][0])

	// existing header is left alone
	require.NoError(t, c.EnsureHeader(ctx))
	assert.Len(t, fake.rows, 1)
}

func TestClient_UpsertAppendsThenUpdates(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{rows: [][]any{headerRow()}}
	c := newClient(fake, "Transactions")

	ref, err := c.UpsertTransaction(ctx, tx(1, 1000))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A2:G2", ref)

	ref, err = c.UpsertTransaction(ctx, tx(1, 2000))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A2:G2", ref)
	require.Len(t, fake.rows, 2)
	assert.Equal(t, "20.00", fake.rows[1][5])

	// second upsert hit the row cache, no extra column scan
	assert.Equal(t, 1, fake.gets)
}

func TestClient_UpsertFindsExistingRowByScan(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{rows: [][]any{
		headerRow(),
		formatRow(tx(4, 100)),
		nil,
		{"9", "2024-05-01"},
	}}
	c := newClient(fake, "Transactions")

	ref, err := c.UpsertTransaction(ctx, tx(9, 900))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A4:G4", ref)
	assert.Len(t, fake.rows, 4)

	// the scan cached the other id too
	ref, err = c.UpsertTransaction(ctx, tx(4, 400))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A2:G2", ref)
	assert.Equal(t, 1, fake.gets)
}

func TestClient_DeleteClearsRow(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{rows: [][]any{headerRow()}}
	c := newClient(fake, "Transactions")

	_, err := c.UpsertTransaction(ctx, tx(1, 100))
	require.NoError(t, err)
	_, err = c.UpsertTransaction(ctx, tx(2, 200))
	require.NoError(t, err)

	require.NoError(t, c.DeleteTransaction(ctx, 1))
	assert.Nil(t, fake.rows[1])
	assert.Equal(t, int64(2), fake.rows[2][0])

	// deleting again scans, finds nothing and succeeds
	require.NoError(t, c.DeleteTransaction(ctx, 1))
}

func TestClient_UpsertRejectsMissingID(t *testing.T) {
	c := newClient(&fakeValues{}, "Transactions")

	_, err := c.UpsertTransaction(context.Background(), tx(0, 100))
	assert.Error(t, err)
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SheetName: "Transactions"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SPREADSHEET_ID")
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	_, err := newSheetsService(context.Background(), "", "/nonexistent/credentials.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}
