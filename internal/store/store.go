// Package store persists extracted records in Postgres, keyed by a
// content-derived row hash so that re-ingesting the same statement never
// duplicates rows.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// Store wraps a Postgres connection pool.
type Store struct {
	db *pgxpool.Pool
}

// Connect opens a pooled connection, retrying with exponential backoff so
// the service survives a database that is still starting up.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	var pool *pgxpool.Pool
	op := func() error {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// CreateTables creates the transactions and payments tables if absent.
func (s *Store) CreateTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			bank VARCHAR(50),
			trans_date DATE,
			post_date DATE,
			description TEXT,
			category VARCHAR(100),
			amount NUMERIC,
			row_hash TEXT UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id SERIAL PRIMARY KEY,
			bank VARCHAR(50),
			trans_date DATE,
			post_date DATE,
			description TEXT,
			amount NUMERIC,
			row_hash TEXT UNIQUE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// CreateIndexesAndViews creates the query indexes and reporting views.
func (s *Store) CreateIndexesAndViews(ctx context.Context) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS ix_transactions_trans_date ON transactions (trans_date)`,
		`CREATE INDEX IF NOT EXISTS ix_transactions_category   ON transactions (category)`,
		`CREATE INDEX IF NOT EXISTS ix_transactions_row_hash   ON transactions (row_hash)`,
		`CREATE INDEX IF NOT EXISTS ix_payments_trans_date     ON payments (trans_date)`,
		`CREATE INDEX IF NOT EXISTS ix_payments_row_hash       ON payments (row_hash)`,
		`CREATE OR REPLACE VIEW v_monthly_spend AS
			SELECT date_trunc('month', trans_date)::date AS month,
			       SUM(COALESCE(amount,0)) AS total_spend
			FROM transactions GROUP BY 1 ORDER BY 1`,
		`CREATE OR REPLACE VIEW v_category_spend AS
			SELECT COALESCE(NULLIF(TRIM(category),''),'Uncategorized') AS category,
			       SUM(COALESCE(amount,0)) AS total_spend
			FROM transactions GROUP BY 1 ORDER BY total_spend DESC`,
		`CREATE OR REPLACE VIEW v_top_merchants AS
			SELECT LEFT(COALESCE(description,''), 80) AS merchant_hint,
			       SUM(COALESCE(amount,0)) AS total_spend, COUNT(*) AS txn_count
			FROM transactions GROUP BY 1
			ORDER BY total_spend DESC, txn_count DESC LIMIT 200`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create indexes and views: %w", err)
		}
	}
	return nil
}

// UpsertTransactions inserts records whose row hash is not yet present
// and returns the number actually inserted.
func (s *Store) UpsertTransactions(ctx context.Context, records []models.TransactionRecord) (int, error) {
	inserted := 0
	for _, r := range records {
		tag, err := s.db.Exec(ctx,
			`INSERT INTO transactions (bank, trans_date, post_date, description, category, amount, row_hash)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (row_hash) DO NOTHING`,
			string(r.Bank), nullDate(r.TransDate), nullDate(r.PostDate),
			r.Description, r.Category, amountString(r.Amount), r.RowHash(),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert transaction: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// UpsertPayments inserts payments whose row hash is not yet present and
// returns the number actually inserted.
func (s *Store) UpsertPayments(ctx context.Context, records []models.PaymentRecord) (int, error) {
	inserted := 0
	for _, r := range records {
		tag, err := s.db.Exec(ctx,
			`INSERT INTO payments (bank, trans_date, post_date, description, amount, row_hash)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (row_hash) DO NOTHING`,
			string(r.Bank), nullDate(r.TransDate), nullDate(r.PostDate),
			r.Description, amountString(r.Amount), r.RowHash(),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert payment: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListTransactions reads transactions newest first. limit <= 0 means all.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]models.TransactionRecord, error) {
	q := `SELECT bank, trans_date, post_date, description, category, amount
	      FROM transactions ORDER BY trans_date DESC, id DESC`
	rows, err := s.query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var r models.TransactionRecord
		var bank string
		var transDate, postDate *time.Time
		var category *string
		var amt decimal.Decimal
		if err := rows.Scan(&bank, &transDate, &postDate, &r.Description, &category, &amt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		r.Bank = models.BankCode(bank)
		r.TransDate = deref(transDate)
		r.PostDate = deref(postDate)
		if category != nil {
			r.Category = *category
		}
		r.Amount = amt.InexactFloat64()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListPayments reads payments newest first. limit <= 0 means all.
func (s *Store) ListPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	q := `SELECT bank, trans_date, post_date, description, amount
	      FROM payments ORDER BY trans_date DESC, id DESC`
	rows, err := s.query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PaymentRecord
	for rows.Next() {
		var r models.PaymentRecord
		var bank string
		var transDate, postDate *time.Time
		var amt decimal.Decimal
		if err := rows.Scan(&bank, &transDate, &postDate, &r.Description, &amt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		r.Bank = models.BankCode(bank)
		r.TransDate = deref(transDate)
		r.PostDate = deref(postDate)
		r.Amount = amt.InexactFloat64()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) query(ctx context.Context, q string, limit int) (pgx.Rows, error) {
	if limit > 0 {
		return s.db.Query(ctx, q+` LIMIT $1`, limit)
	}
	return s.db.Query(ctx, q)
}

// amountString renders amounts with two decimals so NUMERIC storage and
// the row hash agree on formatting.
func amountString(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// nullDate maps the zero time to SQL NULL.
func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
