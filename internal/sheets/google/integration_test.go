//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"moneytrack/internal/core"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_MirrorRoundTrip(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}

	id := time.Now().Unix()
	row := core.Transaction{
		ID:          id,
		Amount:      core.Money{Cents: -123},
		Account:     "Integration",
		Category:    "Test",
		Description: "integration test row",
		Date:        core.NewDate(2024, time.January, 1),
		CreatedAt:   time.Now().UTC(),
	}

	ref, err := client.UpsertTransaction(ctx, row)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	t.Logf("Wrote %s", ref)

	row.Amount = core.Money{Cents: -456}
	again, err := client.UpsertTransaction(ctx, row)
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if again != ref {
		t.Errorf("expected update in place at %s, got %s", ref, again)
	}

	if err := client.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
