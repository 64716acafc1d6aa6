// Package analytics derives monthly trend, short-horizon forecast and
// anomaly flags from extracted transactions.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/insightdelivered/finance-intelligence/internal/models"
)

// ForecastPoint is one month of history or forecast.
type ForecastPoint struct {
	Month      time.Time `json:"month"`
	Yhat       float64   `json:"yhat"`
	Lower      float64   `json:"yhatLower"`
	Upper      float64   `json:"yhatUpper"`
	Historical bool      `json:"historical"`
}

// MonthlySpend aggregates transaction amounts by calendar month of the
// transaction date. Rows with a zero date are skipped.
func MonthlySpend(tx []models.TransactionRecord) []ForecastPoint {
	totals := map[time.Time]float64{}
	for _, t := range tx {
		if t.TransDate.IsZero() {
			continue
		}
		m := time.Date(t.TransDate.Year(), t.TransDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[m] += t.Amount
	}

	out := make([]ForecastPoint, 0, len(totals))
	for m, total := range totals {
		out = append(out, ForecastPoint{Month: m, Yhat: total, Historical: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// Forecast projects monthly spending monthsAhead months past the last
// observed month. The monthly series is smoothed with a 3-month rolling
// mean, then modelled as a flat level with multiplicative month-of-year
// seasonality; predictions are clipped at zero. The returned slice holds
// the smoothed history followed by the forecast points.
func Forecast(tx []models.TransactionRecord, monthsAhead int) []ForecastPoint {
	history := MonthlySpend(tx)
	if len(history) == 0 {
		return nil
	}

	smoothed := rollingMean(history, 3)

	// Flat level over the smoothed series.
	level := 0.0
	for _, p := range smoothed {
		level += p.Yhat
	}
	level /= float64(len(smoothed))

	// Month-of-year seasonal factors, 1.0 where a month was never seen
	// or the level is degenerate.
	factors := seasonalFactors(smoothed, level)

	// Residual spread of the fitted history drives the bounds.
	var ss float64
	for _, p := range smoothed {
		fit := level * factors[p.Month.Month()]
		ss += (p.Yhat - fit) * (p.Yhat - fit)
	}
	spread := 1.96 * math.Sqrt(ss/float64(len(smoothed)))

	out := make([]ForecastPoint, 0, len(smoothed)+monthsAhead)
	out = append(out, smoothed...)

	last := smoothed[len(smoothed)-1].Month
	for i := 1; i <= monthsAhead; i++ {
		m := last.AddDate(0, i, 0)
		yhat := clipZero(level * factors[m.Month()])
		out = append(out, ForecastPoint{
			Month: m,
			Yhat:  yhat,
			Lower: clipZero(yhat - spread),
			Upper: clipZero(yhat + spread),
		})
	}
	return out
}

// rollingMean smooths the series with a trailing window; partial windows
// at the start use whatever points exist.
func rollingMean(series []ForecastPoint, window int) []ForecastPoint {
	out := make([]ForecastPoint, len(series))
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for j := start; j <= i; j++ {
			sum += series[j].Yhat
		}
		out[i] = series[i]
		out[i].Yhat = sum / float64(i-start+1)
	}
	return out
}

func seasonalFactors(series []ForecastPoint, level float64) map[time.Month]float64 {
	factors := map[time.Month]float64{}
	for m := time.January; m <= time.December; m++ {
		factors[m] = 1.0
	}
	if level == 0 {
		return factors
	}

	sums := map[time.Month]float64{}
	counts := map[time.Month]int{}
	for _, p := range series {
		sums[p.Month.Month()] += p.Yhat
		counts[p.Month.Month()]++
	}
	for m, n := range counts {
		factors[m] = (sums[m] / float64(n)) / level
	}
	return factors
}

func clipZero(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
