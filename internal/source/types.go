package source

import "time"

// Raw-table record types. One struct per source extract, holding only the
// columns the pipeline keeps. A zero time.Time means the source value was
// missing or unparseable.

// Patient is one row of patients.csv after normalization.
type Patient struct {
	ID        string
	BirthDate time.Time
	Gender    string
	City      string
	State     string
	Age       int
}

// Encounter is one row of encounters.csv after normalization. The source
// START column becomes Date. One encounter row is one claim.
type Encounter struct {
	Patient        string
	Date           time.Time
	TotalClaimCost float64
	PayerCoverage  float64
	Description    string
	Organization   string
	Payer          string
}

// ConditionRecord is one row of conditions.csv (patient, free-text
// description), deduplicated.
type ConditionRecord struct {
	Patient     string
	Description string
}

// ProcedureRecord is one row of procedures.csv, deduplicated.
type ProcedureRecord struct {
	Patient     string
	Description string
}

// Payer is one row of payers.csv.
type Payer struct {
	ID   string
	Name string
}

// PayerTransition is one row of payer_transitions.csv. Rows with any of
// the four fields missing are dropped, matching the source pipeline's
// dropna over the selected columns.
type PayerTransition struct {
	Patient string
	Payer   string
	Start   time.Time
	End     time.Time
}

// Report summarizes what a single table read did. It is how schema
// degradation surfaces: missing optional columns and dropped rows become
// warnings, never errors.
type Report struct {
	Table          string
	RowsRead       int
	RowsKept       int
	DroppedNoKey   int // rows dropped for a missing join key
	DroppedDupes   int // exact-duplicate rows removed
	BadDates       int // values coerced to the zero-time sentinel
	MissingColumns []string
}
