package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// regularSpending builds n ordinary grocery-sized transactions.
func regularSpending(n int) []models.TransactionRecord {
	tx := make([]models.TransactionRecord, 0, n)
	for i := 0; i < n; i++ {
		tx = append(tx, models.TransactionRecord{
			Bank:        models.BankCIBC,
			TransDate:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%28),
			Description: fmt.Sprintf("GROCER %d TORONTO", i%5),
			Category:    "Grocery",
			Amount:      40 + float64(i%7),
		})
	}
	return tx
}

func TestDetectAnomaliesTooFewRows(t *testing.T) {
	assert.Nil(t, DetectAnomalies(regularSpending(29), 0.03))
	assert.Nil(t, DetectAnomalies(nil, 0.03))
}

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	tx := regularSpending(60)
	tx = append(tx, models.TransactionRecord{
		Bank:        models.BankCIBC,
		TransDate:   time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Description: "LUXURY WATCH BOUTIQUE",
		Category:    "Grocery",
		Amount:      9500,
	})

	rows := DetectAnomalies(tx, 0.03)
	require.Len(t, rows, 61)

	// Most suspicious first; the giant outlier must lead.
	assert.Equal(t, "LUXURY WATCH BOUTIQUE", rows[0].Description)
	assert.True(t, rows[0].IsAnomaly)

	flagged := 0
	for _, r := range rows {
		if r.IsAnomaly {
			flagged++
		}
	}
	assert.GreaterOrEqual(t, flagged, 1)
	assert.LessOrEqual(t, flagged, 4)

	// Scores are sorted ascending (lower = more suspicious).
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Score, rows[i].Score)
	}
}

func TestDetectAnomaliesDeterministic(t *testing.T) {
	tx := regularSpending(50)

	a := DetectAnomalies(tx, 0.05)
	b := DetectAnomalies(tx, 0.05)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Description, b[i].Description)
		assert.Equal(t, a[i].Score, b[i].Score)
		assert.Equal(t, a[i].IsAnomaly, b[i].IsAnomaly)
	}
}

func TestDetectAnomaliesSkipsZeroDates(t *testing.T) {
	tx := regularSpending(29)
	tx = append(tx, models.TransactionRecord{Description: "NO DATE", Amount: 50})

	// 29 usable rows + 1 unusable stays under the minimum.
	assert.Nil(t, DetectAnomalies(tx, 0.03))
}

func TestKPIs(t *testing.T) {
	all := regularSpending(40)
	rows := []AnomalyRow{
		{Amount: 100, IsAnomaly: true},
		{Amount: 50, IsAnomaly: false},
		{Amount: 200, IsAnomaly: true},
	}

	kpis := KPIs(rows, all)
	assert.Equal(t, 2, kpis.Flagged)
	assert.InDelta(t, 5.0, kpis.PctRows, 1e-9)
	assert.InDelta(t, 300.0, kpis.FlaggedAmount, 1e-9)
	assert.Greater(t, kpis.PctAmount, 0.0)

	assert.Equal(t, AnomalyKPIs{}, KPIs(nil, all))
	assert.Equal(t, AnomalyKPIs{}, KPIs(rows, nil))
}
