package claims

import "time"

// Row is one line of the canonical claims table: one encounter joined
// against patient demographics, comorbidity flags, and resolved payer
// identity. This is the denormalized unit of truth every analytics view
// reads. Parquet tags let the same struct serve both output formats.
//
// Null-filled defaults are baked into the zero values: costs 0, flags
// false, PayerName "Unknown" (set by the merger, never left empty).
type Row struct {
	// Fact columns
	Patient        string    `parquet:"patient"`
	EncounterDate  time.Time `parquet:"encounter_date,timestamp"`
	TotalClaimCost float64   `parquet:"total_claim_cost"`
	PayerCoverage  float64   `parquet:"payer_coverage"`
	Description    string    `parquet:"description"`
	Organization   string    `parquet:"organization"`
	Payer          string    `parquet:"payer"`

	// Patient dimension
	PatientID string    `parquet:"patient_id"`
	BirthDate time.Time `parquet:"birth_date,timestamp"`
	Gender    string    `parquet:"gender"`
	City      string    `parquet:"city"`
	State     string    `parquet:"state"`
	Age       int32     `parquet:"age"`

	// Comorbidity flags
	IsDiabetes     bool `parquet:"is_diabetes"`
	IsDialysis     bool `parquet:"is_dialysis"`
	IsDialysisProc bool `parquet:"is_dialysis_proc"`

	// Resolved payer
	PayerName string `parquet:"payer_name"`
}

// Capabilities records which optional dimensions the table actually has,
// so consumers branch explicitly instead of probing columns per view.
type Capabilities struct {
	Demographics   bool // patient join succeeded (AGE, GENDER, CITY, STATE populated)
	ConditionFlags bool
	ProcedureFlags bool
	PayerNames     bool // payer dimension was available; otherwise all "Unknown"
	PatientID      bool // PATIENT_ID column present (final_merged contract)
}

// Table is the canonical claims table plus its capability descriptor.
type Table struct {
	Rows []Row
	Caps Capabilities
}

// UnknownPayer is the sentinel payer name for unresolved payer ids.
const UnknownPayer = "Unknown"
