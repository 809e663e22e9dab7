package memory

import (
	"context"
	"sort"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"
)

func (s *Store) AccountBalances(ctx context.Context) ([]core.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byAccount := map[string]*core.AccountBalance{}
	for _, r := range s.items {
		b, ok := byAccount[r.tx.Account]
		if !ok {
			b = &core.AccountBalance{Account: r.tx.Account}
			byAccount[r.tx.Account] = b
		}
		b.Balance = b.Balance.Add(r.tx.Amount)
		b.TransactionCount++
	}
	out := make([]core.AccountBalance, 0, len(byAccount))
	for _, b := range byAccount {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (s *Store) Summary(ctx context.Context, dates core.DateRange) (core.Summary, error) {
	if err := ctx.Err(); err != nil {
		return core.Summary{}, err
	}
	f := ports.TransactionFilter{Dates: dates}

	s.mu.Lock()
	var totals core.Totals
	for _, t := range s.filtered(f) {
		if t.Amount.Cents > 0 {
			totals.Income = totals.Income.Add(t.Amount)
		} else {
			totals.Expenses = totals.Expenses.Add(t.Amount.Abs())
		}
		totals.Balance = totals.Balance.Add(t.Amount)
		totals.TransactionCount++
	}
	s.mu.Unlock()

	breakdown, err := s.CategoryTotals(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summary{Summary: totals, CategoryBreakdown: breakdown}, nil
}

// months returns distinct months, most recent first. Callers hold mu.
func (s *Store) months() []core.MonthKey {
	seen := map[core.MonthKey]struct{}{}
	var out []core.MonthKey
	for _, r := range s.items {
		m := r.tx.Date.MonthKey()
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}

func (s *Store) CountDistinctMonths(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.months()), nil
}

func (s *Store) ListDistinctMonths(ctx context.Context, offset, limit int) ([]core.MonthKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.months()
	start := min(offset, len(all))
	end := min(start+limit, len(all))
	return append([]core.MonthKey(nil), all[start:end]...), nil
}

func (s *Store) AccountMonthBalances(ctx context.Context, dates core.DateRange) ([]core.AccountMonth, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	active := map[string]bool{}
	for _, r := range s.items {
		if dates.Contains(r.tx.Date) {
			active[r.tx.Account] = true
		}
	}

	byAccount := map[string]*core.AccountMonth{}
	for _, r := range s.items {
		t := r.tx
		if !active[t.Account] {
			continue
		}
		a, ok := byAccount[t.Account]
		if !ok {
			a = &core.AccountMonth{Account: t.Account}
			byAccount[t.Account] = a
		}
		if t.Date.Before(dates.From.Time) {
			a.BalanceStart = a.BalanceStart.Add(t.Amount)
		}
		if !t.Date.After(dates.To.Time) {
			a.BalanceEnd = a.BalanceEnd.Add(t.Amount)
		}
		if dates.Contains(t.Date) {
			a.Difference = a.Difference.Add(t.Amount)
		}
	}

	out := make([]core.AccountMonth, 0, len(byAccount))
	for _, a := range byAccount {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out, nil
}

func (s *Store) CategoryTotals(ctx context.Context, f ports.TransactionFilter) ([]core.CategoryTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byCategory := map[string]*core.CategoryTotal{}
	for _, t := range s.filtered(f) {
		c, ok := byCategory[t.Category]
		if !ok {
			c = &core.CategoryTotal{Category: t.Category}
			byCategory[t.Category] = c
		}
		c.Total = c.Total.Add(t.Amount)
		c.Count++
	}
	out := make([]core.CategoryTotal, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, *c)
	}
	sortCategoryTotals(out)
	return out, nil
}

// sortCategoryTotals orders by absolute total descending, then by name.
func sortCategoryTotals(cs []core.CategoryTotal) {
	sort.Slice(cs, func(i, j int) bool {
		ai, aj := cs[i].Total.Abs().Cents, cs[j].Total.Abs().Cents
		if ai != aj {
			return ai > aj
		}
		return cs[i].Category < cs[j].Category
	})
}
