package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// minAnomalyRows is the smallest sample an isolation forest fit is
// trusted on; below it DetectAnomalies returns an empty result rather
// than an unreliable model.
const minAnomalyRows = 30

// AnomalyRow is a transaction scored by the anomaly model. Higher scores
// mean more normal; flagged rows sort first.
type AnomalyRow struct {
	TransDate   time.Time `json:"transDate"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Score       float64   `json:"anomalyScore"`
	IsAnomaly   bool      `json:"isAnomaly"`
}

// AnomalyKPIs summarizes a detection run for display.
type AnomalyKPIs struct {
	Flagged       int     `json:"flagged"`
	PctRows       float64 `json:"pctRows"`
	FlaggedAmount float64 `json:"flaggedAmount"`
	PctAmount     float64 `json:"pctAmount"`
}

// DetectAnomalies scores transactions with an isolation forest over
// amount, calendar and median-deviation features, flagging the top
// contamination fraction as anomalous. Rows with a zero date are unusable
// and skipped; fewer than minAnomalyRows usable rows yields an empty
// result. Output is sorted most suspicious first.
func DetectAnomalies(tx []models.TransactionRecord, contamination float64) []AnomalyRow {
	usable := make([]models.TransactionRecord, 0, len(tx))
	for _, t := range tx {
		if !t.TransDate.IsZero() {
			usable = append(usable, t)
		}
	}
	if len(usable) < minAnomalyRows {
		return nil
	}
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.03
	}

	features := buildFeatures(usable)
	forest := newIsolationForest(200, 42)
	forest.fit(features)

	rows := make([]AnomalyRow, len(usable))
	for i, t := range usable {
		rows[i] = AnomalyRow{
			TransDate:   t.TransDate,
			Description: t.Description,
			Category:    t.Category,
			Amount:      t.Amount,
			// Negated so higher = more normal, matching the convention
			// downstream consumers sort on.
			Score: -forest.anomalyScore(features[i]),
		}
	}

	// Flag the lowest-scoring contamination fraction.
	flagCount := int(math.Round(contamination * float64(len(rows))))
	if flagCount < 1 {
		flagCount = 1
	}
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return rows[order[a]].Score < rows[order[b]].Score })
	for i := 0; i < flagCount && i < len(order); i++ {
		rows[order[i]].IsAnomaly = true
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Score < rows[j].Score })
	return rows
}

// KPIs computes summary figures for a detection run against the full
// transaction set it was computed from.
func KPIs(anomalies []AnomalyRow, all []models.TransactionRecord) AnomalyKPIs {
	if len(anomalies) == 0 || len(all) == 0 {
		return AnomalyKPIs{}
	}

	var flagged int
	var flaggedAmount float64
	for _, a := range anomalies {
		if a.IsAnomaly {
			flagged++
			flaggedAmount += a.Amount
		}
	}
	var totalAmount float64
	for _, t := range all {
		totalAmount += t.Amount
	}

	kpis := AnomalyKPIs{
		Flagged:       flagged,
		PctRows:       float64(flagged) / float64(len(all)) * 100,
		FlaggedAmount: flaggedAmount,
	}
	if totalAmount != 0 {
		kpis.PctAmount = flaggedAmount / totalAmount * 100
	}
	return kpis
}

// buildFeatures derives the model features: raw and log amount, calendar
// position, and the deviation of the amount from its category and
// merchant-prefix medians.
func buildFeatures(tx []models.TransactionRecord) [][]float64 {
	catAmounts := map[string][]float64{}
	merchAmounts := map[string][]float64{}
	allAmounts := make([]float64, len(tx))
	for i, t := range tx {
		allAmounts[i] = t.Amount
		catAmounts[t.Category] = append(catAmounts[t.Category], t.Amount)
		merchAmounts[merchantKey(t.Description)] = append(merchAmounts[merchantKey(t.Description)], t.Amount)
	}

	globalMedian := median(allAmounts)
	catMedian := map[string]float64{}
	for k, v := range catAmounts {
		catMedian[k] = median(v)
	}
	merchMedian := map[string]float64{}
	for k, v := range merchAmounts {
		merchMedian[k] = median(v)
	}

	features := make([][]float64, len(tx))
	for i, t := range tx {
		cm, ok := catMedian[t.Category]
		if !ok {
			cm = globalMedian
		}
		mm, ok := merchMedian[merchantKey(t.Description)]
		if !ok {
			mm = globalMedian
		}
		features[i] = []float64{
			t.Amount,
			math.Log1p(math.Max(t.Amount, 0)),
			float64(t.TransDate.Day()),
			float64(t.TransDate.Weekday()),
			float64(t.TransDate.Month()),
			t.Amount - cm,
			t.Amount - mm,
		}
	}
	return features
}

// merchantKey is a coarse merchant identity: the upper-cased description
// truncated to 30 characters.
func merchantKey(description string) string {
	d := strings.ToUpper(description)
	if len(d) > 30 {
		d = d[:30]
	}
	return d
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
