// Package forecast fits a tree-ensemble regression over historical
// monthly claim cost and projects a fixed future horizon. The model is
// stateless per call: refit from scratch on every invocation.
package forecast

import (
	"fmt"
	"time"

	"claimsight/internal/claims"
	"claimsight/internal/metrics"
)

// Point is one step of the cost series: a monotonically increasing month
// index and that month's total claim cost.
type Point struct {
	Index int
	Cost  float64
}

// MonthPoint is a series point with its human month label ("2024-05").
type MonthPoint struct {
	Month string
	Point
}

// InsufficientHistoryError reports a series too short to fit.
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient forecast history: have %d monthly points, need at least %d", e.Have, e.Need)
}

// MinHistoryFloor is the hard lower bound: below two points no
// regression is meaningful at all.
const MinHistoryFloor = 2

// Forecaster configures the projection. Zero values take defaults:
// 200 trees, depth 6, min history 6.
type Forecaster struct {
	Trees      int
	MaxDepth   int
	MinHistory int
	Seed       int64
}

// Project fits the ensemble on the historical series and evaluates it at
// horizon future indices continuing the existing sequence. The returned
// indices are strictly increasing from the last historical index.
func (fc Forecaster) Project(series []Point, horizon int) ([]Point, error) {
	need := fc.MinHistory
	if need < MinHistoryFloor {
		need = 6
	}
	if len(series) < MinHistoryFloor {
		return nil, &InsufficientHistoryError{Have: len(series), Need: MinHistoryFloor}
	}
	if len(series) < need {
		return nil, &InsufficientHistoryError{Have: len(series), Need: need}
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	x := make([][]float64, len(series))
	y := make([]float64, len(series))
	for i, p := range series {
		x[i] = []float64{float64(p.Index)}
		y[i] = p.Cost
	}
	forest := FitForest(x, y, ForestConfig{
		Trees:    fc.Trees,
		MaxDepth: fc.MaxDepth,
		Seed:     fc.Seed,
	})

	last := series[len(series)-1].Index
	out := make([]Point, horizon)
	for i := 0; i < horizon; i++ {
		idx := last + 1 + i
		out[i] = Point{Index: idx, Cost: forest.Predict([]float64{float64(idx)})}
	}
	return out, nil
}

// MonthlySeries aggregates the claims table into the indexed monthly
// cost series the forecaster consumes, sorted by month with indices
// 0..n-1. Rows without a parseable encounter date are excluded.
func MonthlySeries(rows []claims.Row) []MonthPoint {
	aggs := metrics.Aggregate(rows, metrics.Month)
	out := make([]MonthPoint, len(aggs))
	for i, a := range aggs {
		out[i] = MonthPoint{
			Month: a.Period,
			Point: Point{Index: i, Cost: a.TotalCost},
		}
	}
	return out
}

// FutureMonths returns horizon month labels continuing from lastMonth
// ("2024-05" → "2024-06", ...). An unparseable label yields empty
// strings rather than an error; the projection itself is index-based.
func FutureMonths(lastMonth string, horizon int) []string {
	out := make([]string, horizon)
	t, err := time.Parse("2006-01", lastMonth)
	if err != nil {
		return out
	}
	for i := 0; i < horizon; i++ {
		t = t.AddDate(0, 1, 0)
		out[i] = t.Format("2006-01")
	}
	return out
}

// Points strips month labels for the fit.
func Points(series []MonthPoint) []Point {
	out := make([]Point, len(series))
	for i, p := range series {
		out[i] = p.Point
	}
	return out
}
