package metrics

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"claimsight/internal/claims"
)

// DefaultZThreshold flags claims more than three standard deviations
// from the mean cost.
const DefaultZThreshold = 3.0

// ZScores returns the z-score of each row's cost. Degenerate inputs
// (fewer than two rows, or zero variance) yield all-zero scores: no
// outliers, never NaN.
func ZScores(rows []claims.Row) []float64 {
	out := make([]float64, len(rows))
	if len(rows) < 2 {
		return out
	}

	costs := make([]float64, len(rows))
	for i := range rows {
		costs[i] = rows[i].TotalClaimCost
	}
	mean := stat.Mean(costs, nil)
	sd := stat.StdDev(costs, nil)
	if sd == 0 || math.IsNaN(sd) {
		return out
	}

	for i, c := range costs {
		out[i] = (c - mean) / sd
	}
	return out
}

// Outlier is one claim whose cost z-score exceeds the threshold.
type Outlier struct {
	Row claims.Row
	Z   float64
}

// Outliers returns rows with |z| > threshold, in input order.
func Outliers(rows []claims.Row, threshold float64) []Outlier {
	zs := ZScores(rows)
	var out []Outlier
	for i, z := range zs {
		if math.Abs(z) > threshold {
			out = append(out, Outlier{Row: rows[i], Z: z})
		}
	}
	return out
}

// DuplicateClaims returns every row that shares its
// (patient, encounter date, cost) tuple with at least one other row —
// all copies, since any duplicate set is suspect. Input order preserved.
func DuplicateClaims(rows []claims.Row) []claims.Row {
	counts := make(map[string]int, len(rows))
	for i := range rows {
		counts[duplicateKey(&rows[i])]++
	}

	var out []claims.Row
	for i := range rows {
		if counts[duplicateKey(&rows[i])] > 1 {
			out = append(out, rows[i])
		}
	}
	return out
}

func duplicateKey(r *claims.Row) string {
	return r.Patient + "\t" + r.EncounterDate.Format("2006-01-02T15:04:05") + "\t" +
		strconv.FormatFloat(r.TotalClaimCost, 'f', 6, 64)
}
