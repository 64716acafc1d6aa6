package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySpendRow is one month's spending total from v_monthly_spend.
type MonthlySpendRow struct {
	Month      time.Time `json:"month"`
	TotalSpend float64   `json:"totalSpend"`
}

// CategorySpendRow is one category's spending total from v_category_spend.
type CategorySpendRow struct {
	Category   string  `json:"category"`
	TotalSpend float64 `json:"totalSpend"`
}

// TopMerchantRow is one merchant aggregate from v_top_merchants.
type TopMerchantRow struct {
	MerchantHint string  `json:"merchantHint"`
	TotalSpend   float64 `json:"totalSpend"`
	TxnCount     int     `json:"txnCount"`
}

// MonthlySpend reads the monthly spending view.
func (s *Store) MonthlySpend(ctx context.Context) ([]MonthlySpendRow, error) {
	rows, err := s.db.Query(ctx, `SELECT month, total_spend FROM v_monthly_spend`)
	if err != nil {
		return nil, fmt.Errorf("read monthly spend: %w", err)
	}
	defer rows.Close()

	var out []MonthlySpendRow
	for rows.Next() {
		var r MonthlySpendRow
		var total decimal.Decimal
		if err := rows.Scan(&r.Month, &total); err != nil {
			return nil, fmt.Errorf("scan monthly spend: %w", err)
		}
		r.TotalSpend = total.InexactFloat64()
		out = append(out, r)
	}
	return out, rows.Err()
}

// CategorySpend reads the per-category spending view.
func (s *Store) CategorySpend(ctx context.Context) ([]CategorySpendRow, error) {
	rows, err := s.db.Query(ctx, `SELECT category, total_spend FROM v_category_spend`)
	if err != nil {
		return nil, fmt.Errorf("read category spend: %w", err)
	}
	defer rows.Close()

	var out []CategorySpendRow
	for rows.Next() {
		var r CategorySpendRow
		var total decimal.Decimal
		if err := rows.Scan(&r.Category, &total); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		r.TotalSpend = total.InexactFloat64()
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopMerchants reads the top-merchants view.
func (s *Store) TopMerchants(ctx context.Context) ([]TopMerchantRow, error) {
	rows, err := s.db.Query(ctx, `SELECT merchant_hint, total_spend, txn_count FROM v_top_merchants`)
	if err != nil {
		return nil, fmt.Errorf("read top merchants: %w", err)
	}
	defer rows.Close()

	var out []TopMerchantRow
	for rows.Next() {
		var r TopMerchantRow
		var total decimal.Decimal
		if err := rows.Scan(&r.MerchantHint, &total, &r.TxnCount); err != nil {
			return nil, fmt.Errorf("scan top merchants: %w", err)
		}
		r.TotalSpend = total.InexactFloat64()
		out = append(out, r)
	}
	return out, rows.Err()
}
