package claims

import (
	"strings"

	"claimsight/internal/source"
)

// ConditionFlags are the per-patient comorbidity booleans, OR-aggregated
// across all of a patient's condition rows.
type ConditionFlags struct {
	Diabetes bool
	Dialysis bool
}

// TagConditions derives comorbidity flags per patient from free-text
// condition descriptions. Matching is case-insensitive substring:
// "diabetes" for the diabetes flag, "dialysis" or "renal" for the
// dialysis flag. OR is order-independent, so re-tagging the same input
// always yields the same mapping.
func TagConditions(recs []source.ConditionRecord) map[string]ConditionFlags {
	out := make(map[string]ConditionFlags)
	for _, r := range recs {
		desc := strings.ToLower(r.Description)
		f := out[r.Patient]
		if strings.Contains(desc, "diabetes") {
			f.Diabetes = true
		}
		if strings.Contains(desc, "dialysis") || strings.Contains(desc, "renal") {
			f.Dialysis = true
		}
		out[r.Patient] = f
	}
	return out
}

// TagProcedures derives the dialysis-procedure flag per patient, same
// OR-aggregation over procedure descriptions, keyword "dialysis" only.
func TagProcedures(recs []source.ProcedureRecord) map[string]bool {
	out := make(map[string]bool)
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Description), "dialysis") {
			out[r.Patient] = true
		} else if _, ok := out[r.Patient]; !ok {
			out[r.Patient] = false
		}
	}
	return out
}
