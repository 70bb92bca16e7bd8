package metrics

import (
	"sort"
	"strings"

	"claimsight/internal/claims"
)

// ClaimStatus classifies a claim by whether a real payer covered it.
type ClaimStatus string

const (
	Accepted ClaimStatus = "Accepted"
	Rejected ClaimStatus = "Rejected"
)

// noInsurance is the payer-name sentinel meaning no coverage existed.
const noInsurance = "NO_INSURANCE"

// Classify maps a payer name to a claim status. The NO_INSURANCE
// sentinel compares case- and whitespace-insensitively; any other
// payer name counts as accepted.
func Classify(payerName string) ClaimStatus {
	if strings.ToUpper(strings.TrimSpace(payerName)) == noInsurance {
		return Rejected
	}
	return Accepted
}

// AcceptanceRate is the fraction of rows classified Accepted. An empty
// group has rate 0.
func AcceptanceRate(rows []claims.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	accepted := 0
	for i := range rows {
		if Classify(rows[i].PayerName) == Accepted {
			accepted++
		}
	}
	return float64(accepted) / float64(len(rows))
}

// PayerStats is one payer's totals across the table.
type PayerStats struct {
	Payer          string
	PayerName      string
	Claims         int
	TotalCost      float64
	AvgCost        float64
	AcceptanceRate float64
	Rank           int // 1 = highest total cost
}

// PayerSummary groups claims by payer id and ranks payers by total cost,
// descending.
func PayerSummary(rows []claims.Row) []PayerStats {
	type acc struct {
		stats    PayerStats
		accepted int
	}
	byPayer := make(map[string]*acc)
	for i := range rows {
		r := &rows[i]
		a, ok := byPayer[r.Payer]
		if !ok {
			a = &acc{stats: PayerStats{Payer: r.Payer, PayerName: r.PayerName}}
			byPayer[r.Payer] = a
		}
		a.stats.Claims++
		a.stats.TotalCost += r.TotalClaimCost
		if Classify(r.PayerName) == Accepted {
			a.accepted++
		}
	}

	out := make([]PayerStats, 0, len(byPayer))
	for _, a := range byPayer {
		a.stats.AvgCost = a.stats.TotalCost / float64(a.stats.Claims)
		a.stats.AcceptanceRate = float64(a.accepted) / float64(a.stats.Claims)
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].Payer < out[j].Payer
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// PayerAcceptanceTrend is one payer's acceptance rate in one month.
type PayerAcceptanceTrend struct {
	Payer  string
	Period string
	Rate   float64
}

// MonthlyAcceptance computes the acceptance rate per (payer, month),
// sorted by payer then period. Rows without a parseable date are
// excluded, as in period aggregation.
func MonthlyAcceptance(rows []claims.Row) []PayerAcceptanceTrend {
	type acc struct {
		total    int
		accepted int
	}
	groups := make(map[[2]string]*acc)
	for i := range rows {
		r := &rows[i]
		period := PeriodKey(r.EncounterDate, Month)
		if period == "" {
			continue
		}
		key := [2]string{r.Payer, period}
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
		}
		a.total++
		if Classify(r.PayerName) == Accepted {
			a.accepted++
		}
	}

	out := make([]PayerAcceptanceTrend, 0, len(groups))
	for key, a := range groups {
		out = append(out, PayerAcceptanceTrend{
			Payer:  key[0],
			Period: key[1],
			Rate:   float64(a.accepted) / float64(a.total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Payer != out[j].Payer {
			return out[i].Payer < out[j].Payer
		}
		return out[i].Period < out[j].Period
	})
	return out
}
