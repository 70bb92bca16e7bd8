package claims

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"claimsight/internal/source"
)

// ErrNoEncounters means there is no fact table to merge.
var ErrNoEncounters = errors.New("no encounter rows, nothing to merge")

// Input carries the normalized tables into the merger. Payers and
// Transitions are optional: nil degrades the payer joins to no-ops with
// every payer name defaulting to "Unknown". Patients, Conditions and
// Procedures may also be nil; the affected columns keep their null-fill
// defaults and the capability descriptor records the gap.
type Input struct {
	Encounters  []source.Encounter
	Patients    []source.Patient
	Conditions  map[string]ConditionFlags
	Procedures  map[string]bool
	Payers      []source.Payer
	Transitions []source.PayerTransition
}

// Stats summarizes one merge pass.
type Stats struct {
	Encounters           int
	Merged               int
	DuplicatesRemoved    int
	DuplicatePatientIDs  int
	AmbiguousTransitions int // patients with >1 transition rows
	UnknownPayers        int // rows whose payer name resolved to "Unknown"
}

// Merge joins encounters against the dimension tables into the canonical
// claims table. Every join is anchored on the encounter side and keyed on
// a unique dimension key, so claim count is preserved: output rows equal
// input encounters minus exact duplicates. Payer identity resolves
// through a fallback chain: the encounter's own payer id, else the
// patient's most recent payer transition (by start date), else unknown.
func Merge(in Input, logger zerolog.Logger) (*Table, Stats, error) {
	stats := Stats{Encounters: len(in.Encounters)}
	if len(in.Encounters) == 0 {
		return nil, stats, ErrNoEncounters
	}

	// Patient dimension: first occurrence wins. Duplicate ids would fan
	// out the join; they are counted and skipped instead.
	patients := make(map[string]source.Patient, len(in.Patients))
	for _, p := range in.Patients {
		if _, ok := patients[p.ID]; ok {
			stats.DuplicatePatientIDs++
			continue
		}
		patients[p.ID] = p
	}
	if stats.DuplicatePatientIDs > 0 {
		logger.Warn().
			Int("count", stats.DuplicatePatientIDs).
			Msg("duplicate patient ids, keeping first occurrence")
	}

	// Transition backfill: one payer per patient, most recent start date
	// wins. Patients with several transition rows are the fan-out hazard;
	// count them and surface a warning.
	type transition struct {
		payer string
		start int64
	}
	fallback := make(map[string]transition)
	multi := make(map[string]struct{})
	for _, tr := range in.Transitions {
		cur, ok := fallback[tr.Patient]
		if ok {
			multi[tr.Patient] = struct{}{}
			if tr.Start.Unix() <= cur.start {
				continue
			}
		}
		fallback[tr.Patient] = transition{payer: tr.Payer, start: tr.Start.Unix()}
	}
	stats.AmbiguousTransitions = len(multi)
	if stats.AmbiguousTransitions > 0 {
		logger.Warn().
			Int("patients", stats.AmbiguousTransitions).
			Msg("duplicate payer transitions, using most recent start date")
	}

	payerNames := make(map[string]string, len(in.Payers))
	for _, p := range in.Payers {
		if p.Name != "" {
			payerNames[p.ID] = p.Name
		}
	}

	caps := Capabilities{
		Demographics:   len(in.Patients) > 0,
		ConditionFlags: in.Conditions != nil,
		ProcedureFlags: in.Procedures != nil,
		PayerNames:     len(payerNames) > 0,
		PatientID:      len(in.Patients) > 0,
	}

	rows := make([]Row, 0, len(in.Encounters))
	seen := make(map[string]struct{}, len(in.Encounters))
	for _, enc := range in.Encounters {
		row := Row{
			Patient:        enc.Patient,
			EncounterDate:  enc.Date,
			TotalClaimCost: enc.TotalClaimCost,
			PayerCoverage:  enc.PayerCoverage,
			Description:    enc.Description,
			Organization:   enc.Organization,
			Payer:          enc.Payer,
			PayerName:      UnknownPayer,
		}

		if p, ok := patients[enc.Patient]; ok {
			row.PatientID = p.ID
			row.BirthDate = p.BirthDate
			row.Gender = p.Gender
			row.City = p.City
			row.State = p.State
			row.Age = int32(p.Age)
		}
		if f, ok := in.Conditions[enc.Patient]; ok {
			row.IsDiabetes = f.Diabetes
			row.IsDialysis = f.Dialysis
		}
		if f, ok := in.Procedures[enc.Patient]; ok {
			row.IsDialysisProc = f
		}

		// Payer fallback chain
		if row.Payer == "" {
			if tr, ok := fallback[enc.Patient]; ok {
				row.Payer = tr.payer
			}
		}
		if name, ok := payerNames[row.Payer]; ok {
			row.PayerName = name
		} else {
			stats.UnknownPayers++
		}

		key := rowKey(&row)
		if _, ok := seen[key]; ok {
			stats.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}

	stats.Merged = len(rows)
	logger.Info().
		Int("encounters", stats.Encounters).
		Int("merged", stats.Merged).
		Int("dupes_removed", stats.DuplicatesRemoved).
		Int("unknown_payers", stats.UnknownPayers).
		Msg("claims merged")

	return &Table{Rows: rows, Caps: caps}, stats, nil
}

// rowKey identifies a fully-merged row for exact-duplicate removal.
func rowKey(r *Row) string {
	var b strings.Builder
	b.WriteString(r.Patient)
	b.WriteByte('\t')
	b.WriteString(r.EncounterDate.Format("2006-01-02T15:04:05"))
	b.WriteByte('\t')
	fmt.Fprintf(&b, "%.6f\t%.6f", r.TotalClaimCost, r.PayerCoverage)
	b.WriteByte('\t')
	b.WriteString(r.Description)
	b.WriteByte('\t')
	b.WriteString(r.Organization)
	b.WriteByte('\t')
	b.WriteString(r.Payer)
	b.WriteByte('\t')
	b.WriteString(r.PayerName)
	return b.String()
}
