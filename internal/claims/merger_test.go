package claims

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"claimsight/internal/source"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMergePreservesClaimCount(t *testing.T) {
	in := Input{
		Encounters: []source.Encounter{
			{Patient: "p1", Date: day("2024-01-01"), TotalClaimCost: 100, Payer: "pay1"},
			{Patient: "p2", Date: day("2024-01-02"), TotalClaimCost: 200},
			{Patient: "p3", Date: day("2024-01-03"), TotalClaimCost: 300},
		},
		Patients: []source.Patient{
			{ID: "p1", Gender: "F", City: "Boston", State: "MA", Age: 60},
		},
	}

	table, stats, err := Merge(in, zerolog.Nop())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Merged != 3 || len(table.Rows) != 3 {
		t.Fatalf("expected all 3 encounters preserved, got %d", len(table.Rows))
	}

	// p2 has no patient record: demographics stay at null-fill defaults.
	r := table.Rows[1]
	if r.PatientID != "" || r.Gender != "" || r.Age != 0 {
		t.Errorf("expected null-fill defaults for unmatched patient, got %+v", r)
	}
	if r.PayerName != UnknownPayer {
		t.Errorf("expected payer name %q, got %q", UnknownPayer, r.PayerName)
	}
}

func TestMergePayerFallbackChain(t *testing.T) {
	in := Input{
		Encounters: []source.Encounter{
			{Patient: "p1", Date: day("2024-01-01"), Payer: "direct"},
			{Patient: "p2", Date: day("2024-01-02")}, // payer via transition
			{Patient: "p3", Date: day("2024-01-03")}, // no payer anywhere
		},
		Payers: []source.Payer{
			{ID: "direct", Name: "Aetna"},
			{ID: "trans", Name: "Cigna"},
		},
		Transitions: []source.PayerTransition{
			{Patient: "p2", Payer: "old", Start: day("2018-01-01"), End: day("2019-01-01")},
			{Patient: "p2", Payer: "trans", Start: day("2022-01-01"), End: day("2023-01-01")},
		},
	}

	table, stats, err := Merge(in, zerolog.Nop())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if table.Rows[0].PayerName != "Aetna" {
		t.Errorf("expected encounter payer to win, got %q", table.Rows[0].PayerName)
	}
	if table.Rows[1].Payer != "trans" || table.Rows[1].PayerName != "Cigna" {
		t.Errorf("expected most recent transition payer, got %q/%q", table.Rows[1].Payer, table.Rows[1].PayerName)
	}
	if table.Rows[2].PayerName != UnknownPayer {
		t.Errorf("expected unknown fallback, got %q", table.Rows[2].PayerName)
	}
	if stats.AmbiguousTransitions != 1 {
		t.Errorf("expected 1 patient with ambiguous transitions, got %d", stats.AmbiguousTransitions)
	}
	if stats.UnknownPayers != 1 {
		t.Errorf("expected 1 unknown-payer row, got %d", stats.UnknownPayers)
	}
}

func TestMergeRemovesExactDuplicates(t *testing.T) {
	enc := source.Encounter{Patient: "p1", Date: day("2024-01-01"), TotalClaimCost: 150.5, Description: "Visit"}
	in := Input{Encounters: []source.Encounter{enc, enc, enc}}

	table, stats, err := Merge(in, zerolog.Nop())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected exact duplicates collapsed to 1 row, got %d", len(table.Rows))
	}
	if stats.DuplicatesRemoved != 2 {
		t.Errorf("expected 2 duplicates removed, got %d", stats.DuplicatesRemoved)
	}
}

func TestMergeDuplicatePatientIDsFirstWins(t *testing.T) {
	in := Input{
		Encounters: []source.Encounter{{Patient: "p1", Date: day("2024-01-01")}},
		Patients: []source.Patient{
			{ID: "p1", City: "Boston"},
			{ID: "p1", City: "Salem"},
		},
	}

	table, stats, err := Merge(in, zerolog.Nop())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.DuplicatePatientIDs != 1 {
		t.Errorf("expected 1 duplicate patient id, got %d", stats.DuplicatePatientIDs)
	}
	if table.Rows[0].City != "Boston" {
		t.Errorf("expected first patient record to win, got city %q", table.Rows[0].City)
	}
}

func TestMergeNoEncounters(t *testing.T) {
	_, _, err := Merge(Input{}, zerolog.Nop())
	if err != ErrNoEncounters {
		t.Fatalf("expected ErrNoEncounters, got %v", err)
	}
}

func TestMergeCapabilities(t *testing.T) {
	in := Input{
		Encounters: []source.Encounter{{Patient: "p1", Date: day("2024-01-01")}},
		Conditions: map[string]ConditionFlags{"p1": {Diabetes: true}},
	}

	table, _, err := Merge(in, zerolog.Nop())
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	caps := table.Caps
	if !caps.ConditionFlags {
		t.Error("expected condition-flag capability")
	}
	if caps.Demographics || caps.ProcedureFlags || caps.PayerNames || caps.PatientID {
		t.Errorf("expected absent tables to clear capabilities, got %+v", caps)
	}
	if !table.Rows[0].IsDiabetes {
		t.Error("expected diabetes flag joined onto the claim row")
	}
}
