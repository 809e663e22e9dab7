package storage

import (
	"context"
	"fmt"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

func (r *SQLiteRepository) AccountBalances(ctx context.Context) ([]core.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account, SUM(amount_cents), COUNT(*)
		 FROM transactions
		 GROUP BY account
		 ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("account balances: %w", err)
	}
	defer rows.Close()

	out := []core.AccountBalance{}
	for rows.Next() {
		var b core.AccountBalance
		if err := rows.Scan(&b.Account, &b.Balance.Cents, &b.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan account balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Summary(ctx context.Context, dates core.DateRange) (core.Summary, error) {
	where, args := whereClause(ports.TransactionFilter{Dates: dates})

	var s core.Summary
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(amount_cents), 0),
		   COUNT(*)
		 FROM transactions`+where, args...).
		Scan(&s.Summary.Income.Cents, &s.Summary.Expenses.Cents, &s.Summary.Balance.Cents, &s.Summary.TransactionCount)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary totals: %w", err)
	}

	s.CategoryBreakdown, err = r.CategoryTotals(ctx, ports.TransactionFilter{Dates: dates})
	if err != nil {
		return core.Summary{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) CountDistinctMonths(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT strftime('%Y-%m', date)) FROM transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count months: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListDistinctMonths(ctx context.Context, offset, limit int) ([]core.MonthKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT strftime('%Y-%m', date) AS month
		 FROM transactions
		 ORDER BY month DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var months []core.MonthKey
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		m, err := core.ParseMonthKey(s)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

func (r *SQLiteRepository) AccountMonthBalances(ctx context.Context, dates core.DateRange) ([]core.AccountMonth, error) {
	start, end := dates.From.String(), dates.To.String()
	rows, err := r.db.QueryContext(ctx,
		`SELECT
		   account,
		   SUM(CASE WHEN date < ? THEN amount_cents ELSE 0 END),
		   SUM(CASE WHEN date <= ? THEN amount_cents ELSE 0 END),
		   SUM(CASE WHEN date >= ? AND date <= ? THEN amount_cents ELSE 0 END)
		 FROM transactions
		 WHERE account IN (
		   SELECT DISTINCT account FROM transactions WHERE date >= ? AND date <= ?
		 )
		 GROUP BY account
		 ORDER BY account`,
		start, end, start, end, start, end)
	if err != nil {
		return nil, fmt.Errorf("account month balances: %w", err)
	}
	defer rows.Close()

	out := []core.AccountMonth{}
	for rows.Next() {
		var a core.AccountMonth
		if err := rows.Scan(&a.Account, &a.BalanceStart.Cents, &a.BalanceEnd.Cents, &a.Difference.Cents); err != nil {
			return nil, fmt.Errorf("scan account month: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CategoryTotals(ctx context.Context, f ports.TransactionFilter) ([]core.CategoryTotal, error) {
	where, args := whereClause(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total, COUNT(*)
		 FROM transactions`+where+`
		 GROUP BY category
		 ORDER BY ABS(total) DESC, category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var c core.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total.Cents, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
