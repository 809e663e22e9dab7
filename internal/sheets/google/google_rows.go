package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"moneytrack/internal/core"
)

// Columns: A id, B date, C account, D category, E description, F amount, G created at.
const lastColumn = "G"

func headerRow() []any {
	return []any{"ID", "Date", "Account", "Category", "Description", "Amount", "Created At"}
}

func formatRow(t core.Transaction) []any {
	createdAt := ""
	if !t.CreatedAt.IsZero() {
		createdAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		t.ID,
		t.Date.String(),
		t.Account,
		t.Category,
		t.Description,
		t.Amount.String(),
		createdAt,
	}
}

// parseID reads a transaction id from a column A cell. Header and blank cells
// are not ids.
func parseID(cell any) (int64, bool) {
	switch v := cell.(type) {
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, v > 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(cell)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseRowNumber extracts the first row of an A1 range such as
// "Transactions!A42:G42" or "'My Sheet'!A7:G7".
func parseRowNumber(a1 string) (int, bool) {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	digits := strings.TrimLeft(a1, "ABCDEFGHIJKLMNOPQRSTUVWXYZ$")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
