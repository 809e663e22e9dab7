// Package storage is the SQLite implementation of the transaction store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/ports"

	_ "modernc.org/sqlite"
)

// createdAtLayout is fixed width so created_at sorts lexicographically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = `id, amount_cents, account, category, description, date, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		date      string
		createdAt string
	)
	if err := row.Scan(&t.ID, &t.Amount.Cents, &t.Account, &t.Category, &t.Description, &date, &createdAt, &t.Version); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.Date = d
	if ts, err := time.Parse(createdAtLayout, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

// whereClause renders the filter as a parameterised WHERE clause. Only fixed
// fragments are concatenated; every user value is bound.
func whereClause(f ports.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Account != "" {
		conds = append(conds, "account = ?")
		args = append(args, f.Account)
	}
	if f.Category != "" {
		conds = append(conds, `category LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Category)+"%")
	}
	if !f.Dates.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.Dates.From.String())
	}
	if !f.Dates.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.Dates.To.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	createdAt := r.now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, account, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Amount.Cents, t.Account, t.Category, t.Description, t.Date.String(), createdAt.Format(createdAtLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read transaction id: %w", err)
	}
	t.ID = id
	t.CreatedAt = createdAt
	t.Version = 1

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"account", t.Account,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, account = ?, category = ?, description = ?, date = ?,
		     version = version + 1, sync_status = 'pending', sync_attempts = 0
		 WHERE id = ?`,
		t.Amount.Cents, t.Account, t.Category, t.Description, t.Date.String(), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes the row and queues the removal of its mirror copy
// in the same database transaction.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, ports.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sync_deletions (transaction_id, deleted_at) VALUES (?, ?)
		 ON CONFLICT (transaction_id) DO UPDATE
		 SET status = 'pending', attempts = 0, deleted_at = excluded.deleted_at`,
		id, r.now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("queue mirror deletion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ports.TransactionFilter, p core.Page) ([]core.Transaction, error) {
	where, args := whereClause(f)
	args = append(args, p.Limit, p.Offset())

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+
			` ORDER BY date DESC, created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, f ports.TransactionFilter) (int, error) {
	where, args := whereClause(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) SumAmount(ctx context.Context, f ports.TransactionFilter) (core.Money, error) {
	where, args := whereClause(f)
	var sum int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions`+where, args...).Scan(&sum); err != nil {
		return core.Money{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Money{Cents: sum}, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, color) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, c.Name, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if n == 0 {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ports.ErrCategoryExists)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("read category id: %w", err)
	}
	c.ID = id
	return c, nil
}
