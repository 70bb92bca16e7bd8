package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadEncounters(t *testing.T) {
	path := writeCSV(t, "encounters.csv", `PATIENT,START,TOTAL_CLAIM_COST,PAYER_COVERAGE,DESCRIPTION,ORGANIZATION,PAYER
p1,2024-03-01T10:00:00Z,"1,250.50",400,Checkup,org1,pay1
,2024-03-02T10:00:00Z,99,0,Orphan,org1,pay1
p2,not-a-date,$80,0,Visit,org2,
`)

	encounters, rep, err := ReadEncounters(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadEncounters: %v", err)
	}
	if len(encounters) != 2 {
		t.Fatalf("expected 2 encounters, got %d", len(encounters))
	}
	if rep.DroppedNoKey != 1 {
		t.Errorf("expected 1 row dropped for missing patient, got %d", rep.DroppedNoKey)
	}
	if rep.BadDates != 1 {
		t.Errorf("expected 1 bad date, got %d", rep.BadDates)
	}

	if encounters[0].TotalClaimCost != 1250.50 {
		t.Errorf("expected cost 1250.50 with separators stripped, got %v", encounters[0].TotalClaimCost)
	}
	if encounters[1].TotalClaimCost != 80 {
		t.Errorf("expected dollar sign stripped, got %v", encounters[1].TotalClaimCost)
	}
	if !encounters[1].Date.IsZero() {
		t.Errorf("expected zero date for unparseable value, got %v", encounters[1].Date)
	}
}

func TestReadEncountersNoPatientColumn(t *testing.T) {
	path := writeCSV(t, "encounters.csv", "START,TOTAL_CLAIM_COST\n2024-01-01,5\n")

	_, _, err := ReadEncounters(path, zerolog.Nop())
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "PATIENT" {
		t.Errorf("expected missing PATIENT, got %v", schemaErr.Missing)
	}
}

func TestReadEncountersMissingFile(t *testing.T) {
	_, _, err := ReadEncounters(filepath.Join(t.TempDir(), "nope.csv"), zerolog.Nop())
	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingInputError, got %v", err)
	}
}

func TestReadEncountersBOMAndCaseInsensitiveHeader(t *testing.T) {
	path := writeCSV(t, "encounters.csv", "\xEF\xBB\xBFpatient,start,total_claim_cost\np1,2024-01-05,10\n")

	encounters, _, err := ReadEncounters(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadEncounters: %v", err)
	}
	if len(encounters) != 1 || encounters[0].Patient != "p1" {
		t.Fatalf("expected BOM-prefixed lowercase header to resolve, got %+v", encounters)
	}
}

func TestReadPatients(t *testing.T) {
	path := writeCSV(t, "patients.csv", `Id,BIRTHDATE,GENDER,CITY,STATE
p1,1960-05-01,F,Boston,MA
p1,1960-05-01,F,Boston,MA
p2,,M,Salem,MA
`)

	patients, rep, err := ReadPatients(path, 2025, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPatients: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients after dedup, got %d", len(patients))
	}
	if rep.DroppedDupes != 1 {
		t.Errorf("expected 1 duplicate dropped, got %d", rep.DroppedDupes)
	}
	if patients[0].Age != 65 {
		t.Errorf("expected age 65 for 1960 birth in 2025, got %d", patients[0].Age)
	}
	if patients[1].Age != 0 {
		t.Errorf("expected age 0 for missing birthdate, got %d", patients[1].Age)
	}
}

func TestReadConditionsDedup(t *testing.T) {
	path := writeCSV(t, "conditions.csv", `PATIENT,DESCRIPTION
p1,Diabetes mellitus
p1,Diabetes mellitus
p1,Hypertension
,Orphan row
`)

	conds, rep, err := ReadConditions(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadConditions: %v", err)
	}
	if len(conds) != 2 {
		t.Fatalf("expected 2 unique condition rows, got %d", len(conds))
	}
	if rep.DroppedDupes != 1 || rep.DroppedNoKey != 1 {
		t.Errorf("expected 1 dupe and 1 keyless drop, got %d and %d", rep.DroppedDupes, rep.DroppedNoKey)
	}
}

func TestReadPayerTransitionsDropsIncomplete(t *testing.T) {
	path := writeCSV(t, "payer_transitions.csv", `PATIENT,PAYER,START_DATE,END_DATE
p1,pay1,2020-01-01,2021-01-01
p1,pay2,,2022-01-01
p2,,2020-01-01,2021-01-01
`)

	trs, rep, err := ReadPayerTransitions(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPayerTransitions: %v", err)
	}
	if len(trs) != 1 {
		t.Fatalf("expected 1 complete transition, got %d", len(trs))
	}
	if rep.DroppedNoKey != 2 {
		t.Errorf("expected 2 incomplete rows dropped, got %d", rep.DroppedNoKey)
	}
}

func TestReadPayers(t *testing.T) {
	path := writeCSV(t, "payers.csv", `Id,NAME
pay1,Aetna
,Headless
pay2,NO_INSURANCE
`)

	payers, rep, err := ReadPayers(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("ReadPayers: %v", err)
	}
	if len(payers) != 2 {
		t.Fatalf("expected 2 payers, got %d", len(payers))
	}
	if rep.DroppedNoKey != 1 {
		t.Errorf("expected 1 id-less payer dropped, got %d", rep.DroppedNoKey)
	}
	if payers[0].Name != "Aetna" || payers[1].Name != "NO_INSURANCE" {
		t.Errorf("unexpected payer names: %+v", payers)
	}
}
