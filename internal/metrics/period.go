// Package metrics computes derived analytics over the canonical claims
// table. Every function is a pure projection of its input rows: no caches,
// no shared state, so every view recomputes from the same definitions.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"claimsight/internal/claims"
)

// Granularity selects the time bucket for period aggregates.
type Granularity int

const (
	Day Granularity = iota
	Week
	Month
	Year
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "unknown"
}

// PeriodKey formats t into a sortable bucket key: "2024-03-05",
// "2024-W10", "2024-03", "2024". Zero times return "" and are excluded
// from aggregates, matching how unparseable dates fall out of grouping.
func PeriodKey(t time.Time, g Granularity) string {
	if t.IsZero() {
		return ""
	}
	switch g {
	case Day:
		return t.Format("2006-01-02")
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01")
	}
}

// PeriodAggregate is one time bucket of claim activity.
type PeriodAggregate struct {
	Period         string
	TotalCost      float64
	Claims         int
	UniquePatients int
	DiabetesClaims int
	DialysisClaims int
}

// Aggregate buckets rows by period and sums cost, claim count, distinct
// patients, and comorbidity claim counts. Result is sorted by period.
func Aggregate(rows []claims.Row, g Granularity) []PeriodAggregate {
	type bucket struct {
		agg      PeriodAggregate
		patients map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for i := range rows {
		r := &rows[i]
		key := PeriodKey(r.EncounterDate, g)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{agg: PeriodAggregate{Period: key}, patients: make(map[string]struct{})}
			buckets[key] = b
		}
		b.agg.TotalCost += r.TotalClaimCost
		b.agg.Claims++
		b.patients[r.Patient] = struct{}{}
		if r.IsDiabetes {
			b.agg.DiabetesClaims++
		}
		if r.IsDialysis {
			b.agg.DialysisClaims++
		}
	}

	out := make([]PeriodAggregate, 0, len(buckets))
	for _, b := range buckets {
		b.agg.UniquePatients = len(b.patients)
		out = append(out, b.agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// PMPMPoint is the per-member-per-month cost for one period. PMPM is nil
// when the period has no unique members (undefined, not a crash).
type PMPMPoint struct {
	Period    string
	TotalCost float64
	Members   int
	PMPM      *float64
}

// PMPM divides each period's total cost by its distinct member count.
func PMPM(aggs []PeriodAggregate) []PMPMPoint {
	out := make([]PMPMPoint, len(aggs))
	for i, a := range aggs {
		p := PMPMPoint{Period: a.Period, TotalCost: a.TotalCost, Members: a.UniquePatients}
		if a.UniquePatients > 0 {
			v := a.TotalCost / float64(a.UniquePatients)
			p.PMPM = &v
		}
		out[i] = p
	}
	return out
}
