package metrics

import (
	"sort"

	"claimsight/internal/claims"
)

// CohortSummary compares the diabetes and dialysis cohorts: distinct
// patient counts (including the overlap) and total claim cost per cohort.
type CohortSummary struct {
	DiabetesPatients int
	DialysisPatients int
	BothPatients     int
	DiabetesCost     float64
	DialysisCost     float64
}

// Cohorts summarizes the chronic-condition cohorts across the table.
func Cohorts(rows []claims.Row) CohortSummary {
	diabetes := make(map[string]struct{})
	dialysis := make(map[string]struct{})
	var s CohortSummary
	for i := range rows {
		r := &rows[i]
		if r.IsDiabetes {
			diabetes[r.Patient] = struct{}{}
			s.DiabetesCost += r.TotalClaimCost
		}
		if r.IsDialysis {
			dialysis[r.Patient] = struct{}{}
			s.DialysisCost += r.TotalClaimCost
		}
	}
	s.DiabetesPatients = len(diabetes)
	s.DialysisPatients = len(dialysis)
	for p := range diabetes {
		if _, ok := dialysis[p]; ok {
			s.BothPatients++
		}
	}
	return s
}

// CohortTrendPoint is one month's claim cost split by cohort.
type CohortTrendPoint struct {
	Period       string
	DiabetesCost float64
	DialysisCost float64
}

// MonthlyCohortCosts tracks cohort cost month over month, sorted by
// period.
func MonthlyCohortCosts(rows []claims.Row) []CohortTrendPoint {
	buckets := make(map[string]*CohortTrendPoint)
	for i := range rows {
		r := &rows[i]
		period := PeriodKey(r.EncounterDate, Month)
		if period == "" {
			continue
		}
		b, ok := buckets[period]
		if !ok {
			b = &CohortTrendPoint{Period: period}
			buckets[period] = b
		}
		if r.IsDiabetes {
			b.DiabetesCost += r.TotalClaimCost
		}
		if r.IsDialysis {
			b.DialysisCost += r.TotalClaimCost
		}
	}

	out := make([]CohortTrendPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// CityConditionCount is the number of flagged claims per city.
type CityConditionCount struct {
	City     string
	Diabetes int
	Dialysis int
}

// CityBreakdown counts comorbidity-flagged claims per city, sorted by
// city name. Rows without demographics land under the empty city.
func CityBreakdown(rows []claims.Row) []CityConditionCount {
	buckets := make(map[string]*CityConditionCount)
	for i := range rows {
		r := &rows[i]
		b, ok := buckets[r.City]
		if !ok {
			b = &CityConditionCount{City: r.City}
			buckets[r.City] = b
		}
		if r.IsDiabetes {
			b.Diabetes++
		}
		if r.IsDialysis {
			b.Dialysis++
		}
	}

	out := make([]CityConditionCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// OrganizationCost is one organization's total claim cost.
type OrganizationCost struct {
	Organization string
	TotalCost    float64
	Claims       int
}

// TopOrganizations ranks organizations by total claim cost, descending,
// returning at most n.
func TopOrganizations(rows []claims.Row, n int) []OrganizationCost {
	buckets := make(map[string]*OrganizationCost)
	for i := range rows {
		r := &rows[i]
		b, ok := buckets[r.Organization]
		if !ok {
			b = &OrganizationCost{Organization: r.Organization}
			buckets[r.Organization] = b
		}
		b.TotalCost += r.TotalClaimCost
		b.Claims++
	}

	out := make([]OrganizationCost, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].Organization < out[j].Organization
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
