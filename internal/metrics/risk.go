package metrics

import (
	"sort"

	"claimsight/internal/claims"
)

// RiskWeights are the comorbidity weights in the risk-score composite.
// Carried as configuration so every view scores with the same constants.
type RiskWeights struct {
	Diabetes float64
	Dialysis float64
}

// DefaultRiskWeights are the weights the high-risk view ships with.
var DefaultRiskWeights = RiskWeights{Diabetes: 0.5, Dialysis: 0.8}

// RiskScore is one claim row's composite risk:
// percentile rank of cost + weighted comorbidity flags + age / max age.
// Not a clinical instrument; a ranking for surfacing expensive,
// comorbid, older patients.
type RiskScore struct {
	Patient  string
	Age      int32
	CostRank float64 // percentile rank of cost within the full table
	Score    float64
}

// RiskScores computes a score per row, aligned with the input slice.
// Percentile rank uses the standard definition: fraction of rows with
// cost ≤ this row's cost, with tied costs assigned their average rank.
// A table with no positive ages drops the age term rather than dividing
// by zero.
func RiskScores(rows []claims.Row, w RiskWeights) []RiskScore {
	if len(rows) == 0 {
		return nil
	}

	costs := make([]float64, len(rows))
	var maxAge int32
	for i := range rows {
		costs[i] = rows[i].TotalClaimCost
		if rows[i].Age > maxAge {
			maxAge = rows[i].Age
		}
	}
	ranks := percentileRanks(costs)

	out := make([]RiskScore, len(rows))
	for i := range rows {
		r := &rows[i]
		score := ranks[i]
		if r.IsDiabetes {
			score += w.Diabetes
		}
		if r.IsDialysis {
			score += w.Dialysis
		}
		if maxAge > 0 {
			score += float64(r.Age) / float64(maxAge)
		}
		out[i] = RiskScore{Patient: r.Patient, Age: r.Age, CostRank: ranks[i], Score: score}
	}
	return out
}

// TopRisk returns the n highest-scoring rows, descending. Ties keep
// input order.
func TopRisk(rows []claims.Row, w RiskWeights, n int) []RiskScore {
	scores := RiskScores(rows, w)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	if n < len(scores) {
		scores = scores[:n]
	}
	return scores
}

// percentileRanks returns each value's average rank divided by n: ties
// get the mean of the 1-based ranks they span.
func percentileRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] < values[order[j]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		// mean of 1-based ranks i+1 .. j+1
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			out[order[k]] = avg / float64(n)
		}
		i = j + 1
	}
	return out
}
