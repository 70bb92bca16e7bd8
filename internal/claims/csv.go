package claims

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"claimsight/internal/source"
)

// Columns is the canonical header of cleaned_claims_full.csv, in the
// order rows are written.
var Columns = []string{
	"PATIENT", "ENCOUNTER_DATE", "TOTAL_CLAIM_COST", "PAYER_COVERAGE",
	"DESCRIPTION", "ORGANIZATION", "PAYER", "PATIENT_ID", "BIRTHDATE",
	"GENDER", "CITY", "STATE", "AGE",
	"IsDiabetes", "IsDialysis", "IsDialysisProc", "PAYER_NAME",
}

const dateFormat = "2006-01-02T15:04:05Z"

// Write writes the table as CSV with a header row. Output is fully
// determined by the row slice, so identical tables produce byte-identical
// output.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(Columns))
	for i := range t.Rows {
		r := &t.Rows[i]
		rec[0] = r.Patient
		rec[1] = formatDate(r.EncounterDate)
		rec[2] = formatFloat(r.TotalClaimCost)
		rec[3] = formatFloat(r.PayerCoverage)
		rec[4] = r.Description
		rec[5] = r.Organization
		rec[6] = r.Payer
		rec[7] = r.PatientID
		rec[8] = formatDate(r.BirthDate)
		rec[9] = r.Gender
		rec[10] = r.City
		rec[11] = r.State
		rec[12] = strconv.Itoa(int(r.Age))
		rec[13] = formatFlag(r.IsDiabetes)
		rec[14] = formatFlag(r.IsDialysis)
		rec[15] = formatFlag(r.IsDialysisProc)
		rec[16] = r.PayerName
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the canonical table to path, overwriting wholesale.
func WriteFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriterSize(f, 256*1024)
	if err := Write(w, t); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads a canonical claims table back from CSV. The fact columns
// (PATIENT, ENCOUNTER_DATE, TOTAL_CLAIM_COST) are required; optional
// dimensions degrade to zero values and a cleared capability flag.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &source.MissingInputError{Path: path, Err: err}
	}
	defer f.Close()
	return Read(bufio.NewReaderSize(f, 256*1024))
}

// Read parses a canonical claims table from r.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, c := range []string{"PATIENT", "ENCOUNTER_DATE", "TOTAL_CLAIM_COST"} {
		if _, ok := idx[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &source.SchemaError{Table: "claims", Missing: missing}
	}

	has := func(col string) bool {
		_, ok := idx[strings.ToLower(col)]
		return ok
	}
	caps := Capabilities{
		Demographics:   has("AGE") && has("GENDER"),
		ConditionFlags: has("IsDiabetes") && has("IsDialysis"),
		ProcedureFlags: has("IsDialysisProc"),
		PayerNames:     has("PAYER_NAME"),
		PatientID:      has("PATIENT_ID"),
	}

	field := func(row []string, col string) string {
		if i, ok := idx[strings.ToLower(col)]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	t := &Table{Caps: caps}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}

		t.Rows = append(t.Rows, Row{
			Patient:        field(row, "PATIENT"),
			EncounterDate:  parseDate(field(row, "ENCOUNTER_DATE")),
			TotalClaimCost: parseFloat(field(row, "TOTAL_CLAIM_COST")),
			PayerCoverage:  parseFloat(field(row, "PAYER_COVERAGE")),
			Description:    field(row, "DESCRIPTION"),
			Organization:   field(row, "ORGANIZATION"),
			Payer:          field(row, "PAYER"),
			PatientID:      field(row, "PATIENT_ID"),
			BirthDate:      parseDate(field(row, "BIRTHDATE")),
			Gender:         field(row, "GENDER"),
			City:           field(row, "CITY"),
			State:          field(row, "STATE"),
			Age:            int32(parseFloat(field(row, "AGE"))),
			IsDiabetes:     parseFlag(field(row, "IsDiabetes")),
			IsDialysis:     parseFlag(field(row, "IsDialysis")),
			IsDialysisProc: parseFlag(field(row, "IsDialysisProc")),
			PayerName:      defaultPayer(field(row, "PAYER_NAME")),
		})
	}
	return t, nil
}

// ReadFinalMerged reads the extended canonical table consumed by the
// predict path. Same column contract as the cleaned table plus a
// mandatory PATIENT_ID key.
func ReadFinalMerged(path string) (*Table, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !t.Caps.PatientID {
		return nil, &source.SchemaError{Table: "final_merged", Missing: []string{"PATIENT_ID"}}
	}
	return t, nil
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(dateFormat)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

var readLayouts = []string{dateFormat, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range readLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d
		}
	}
	return time.Time{}
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "t", "1.0":
		return true
	}
	return false
}

func defaultPayer(name string) string {
	if name == "" {
		return UnknownPayer
	}
	return name
}
