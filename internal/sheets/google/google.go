package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"moneytrack/internal/cache"
	"moneytrack/internal/core"
	"moneytrack/internal/ports"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	rowCacheSize = 10000
	rowCacheTTL  = 10 * time.Minute
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// values is the subset of the Sheets values API the mirror needs.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Append(ctx context.Context, rng string, rows [][]any) (updatedRange string, err error)
	Clear(ctx context.Context, rng string) error
}

// Client mirrors transactions into a single sheet, one row per transaction,
// keyed by the transaction id in column A.
type Client struct {
	values values
	sheet  string
	// rows maps a transaction id to its 1-based row number. Deletes clear a
	// row instead of removing it, so row numbers stay stable.
	rows *cache.LRUCache[int64, int]
}

var _ ports.TransactionMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Transactions"
	}

	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(&serviceValues{svc: svc, spreadsheetID: spreadsheetID}, sheet), nil
}

func newClient(v values, sheet string) *Client {
	return &Client{
		values: v,
		sheet:  sheet,
		rows:   cache.NewLRUCache[int64, int](rowCacheSize, rowCacheTTL),
	}
}

// RowCache exposes the id to row cache so its expired entries can be swept.
func (c *Client) RowCache() cache.Cleaner {
	return c.rows
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over the file; GOOGLE_APPLICATION_CREDENTIALS is the last fallback.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// EnsureHeader writes the column titles when the first row is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	rng := fmt.Sprintf("%s!A1:%s1", c.sheet, lastColumn)
	got, err := c.values.Get(ctx, rng)
	if err != nil {
		return fmt.Errorf("read header %s: %w", rng, err)
	}
	if len(got) > 0 && len(got[0]) > 0 {
		return nil
	}
	if err := c.values.Update(ctx, rng, [][]any{headerRow()}); err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote mirror sheet header", "sheet", c.sheet)
	return nil
}

// UpsertTransaction overwrites the transaction's row, appending one when the
// id is not in the sheet yet. Returns the A1 range written.
func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID <= 0 {
		return "", fmt.Errorf("invalid transaction id %d", t.ID)
	}

	row, found, err := c.findRow(ctx, t.ID)
	if err != nil {
		return "", err
	}

	if found {
		rng := c.rowRange(row)
		if err := c.values.Update(ctx, rng, [][]any{formatRow(t)}); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	updated, err := c.values.Append(ctx, rng, [][]any{formatRow(t)})
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	if n, ok := parseRowNumber(updated); ok {
		c.rows.Set(t.ID, n)
	}
	return updated, nil
}

// DeleteTransaction clears the transaction's row. Missing rows are not an error.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	row, found, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		slog.DebugContext(ctx, "Transaction not present in mirror, nothing to delete", "transaction_id", id)
		return nil
	}

	rng := c.rowRange(row)
	if err := c.values.Clear(ctx, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.rows.Delete(id)
	return nil
}

// findRow looks the id up in the cache, then scans column A. The scan warms
// the cache with every id it sees.
func (c *Client) findRow(ctx context.Context, id int64) (int, bool, error) {
	if row, ok := c.rows.Get(id); ok {
		return row, true, nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheet)
	col, err := c.values.Get(ctx, rng)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", rng, err)
	}

	found := 0
	for i, cells := range col {
		if len(cells) == 0 {
			continue
		}
		rowID, ok := parseID(cells[0])
		if !ok {
			continue
		}
		c.rows.Set(rowID, i+1)
		if rowID == id {
			found = i + 1
		}
	}
	return found, found > 0, nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn, row)
}

// serviceValues adapts the generated Sheets client to values.
type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

func (s *serviceValues) Append(ctx context.Context, rng string, rows [][]any) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates == nil {
		return "", errors.New("append response without updates")
	}
	return resp.Updates.UpdatedRange, nil
}

func (s *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}
