package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Per-table readers. Each applies a fixed column allow-list, drops exact
// duplicates, coerces types, and reports (never raises) schema warnings.
// Only the encounter join key is a hard requirement: with no PATIENT
// column there is no fact table to merge.

// ReadPatients reads patients.csv. AGE is derived as year − birth year; a
// zero birth date leaves Age at 0. No validation is applied beyond that —
// malformed birthdates surface in Report.BadDates.
func ReadPatients(path string, year int, logger zerolog.Logger) ([]Patient, Report, error) {
	rep := Report{Table: "patients"}

	t, err := openTable(path)
	if err != nil {
		return nil, rep, err
	}
	defer t.Close()

	rep.MissingColumns = t.missing("Id", "BIRTHDATE", "GENDER", "CITY", "STATE")
	warnMissing(logger, &rep)

	var out []Patient
	seen := make(map[string]struct{})
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("read patients row %d: %w", t.rowNum, err)
		}
		rep.RowsRead++

		p := Patient{
			ID:        t.strAt(row, "Id"),
			BirthDate: t.dateAt(row, "BIRTHDATE", &rep.BadDates),
			Gender:    t.strAt(row, "GENDER"),
			City:      t.strAt(row, "CITY"),
			State:     t.strAt(row, "STATE"),
		}
		if !p.BirthDate.IsZero() {
			p.Age = year - p.BirthDate.Year()
		}

		key := p.ID + "\x00" + p.BirthDate.Format("2006-01-02") + "\x00" + p.Gender + "\x00" + p.City + "\x00" + p.State
		if _, ok := seen[key]; ok {
			rep.DroppedDupes++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}

	rep.RowsKept = len(out)
	logRead(logger, rep)
	return out, rep, nil
}

// ReadEncounters reads encounters.csv, the fact table. Rows without a
// PATIENT value are dropped with a count; a header without the PATIENT
// column at all is a SchemaError since nothing downstream can join.
func ReadEncounters(path string, logger zerolog.Logger) ([]Encounter, Report, error) {
	rep := Report{Table: "encounters"}

	t, err := openTable(path)
	if err != nil {
		return nil, rep, err
	}
	defer t.Close()

	if !t.has("PATIENT") {
		return nil, rep, &SchemaError{Table: "encounters", Missing: []string{"PATIENT"}}
	}
	rep.MissingColumns = t.missing("START", "TOTAL_CLAIM_COST", "PAYER_COVERAGE", "DESCRIPTION", "ORGANIZATION", "PAYER")
	warnMissing(logger, &rep)

	var out []Encounter
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("read encounters row %d: %w", t.rowNum, err)
		}
		rep.RowsRead++

		patient := t.strAt(row, "PATIENT")
		if patient == "" {
			rep.DroppedNoKey++
			continue
		}

		out = append(out, Encounter{
			Patient:        patient,
			Date:           t.dateAt(row, "START", &rep.BadDates),
			TotalClaimCost: t.floatAt(row, "TOTAL_CLAIM_COST"),
			PayerCoverage:  t.floatAt(row, "PAYER_COVERAGE"),
			Description:    t.strAt(row, "DESCRIPTION"),
			Organization:   t.strAt(row, "ORGANIZATION"),
			Payer:          t.strAt(row, "PAYER"),
		})
	}

	rep.RowsKept = len(out)
	logRead(logger, rep)
	return out, rep, nil
}

// ReadConditions reads conditions.csv down to (PATIENT, DESCRIPTION),
// deduplicated.
func ReadConditions(path string, logger zerolog.Logger) ([]ConditionRecord, Report, error) {
	recs, rep, err := readDescriptionTable(path, "conditions", logger)
	if err != nil {
		return nil, rep, err
	}
	out := make([]ConditionRecord, len(recs))
	for i, r := range recs {
		out[i] = ConditionRecord(r)
	}
	return out, rep, nil
}

// ReadProcedures reads procedures.csv down to (PATIENT, DESCRIPTION),
// deduplicated.
func ReadProcedures(path string, logger zerolog.Logger) ([]ProcedureRecord, Report, error) {
	recs, rep, err := readDescriptionTable(path, "procedures", logger)
	if err != nil {
		return nil, rep, err
	}
	out := make([]ProcedureRecord, len(recs))
	for i, r := range recs {
		out[i] = ProcedureRecord(r)
	}
	return out, rep, nil
}

type descriptionRecord struct {
	Patient     string
	Description string
}

func readDescriptionTable(path, name string, logger zerolog.Logger) ([]descriptionRecord, Report, error) {
	rep := Report{Table: name}

	t, err := openTable(path)
	if err != nil {
		return nil, rep, err
	}
	defer t.Close()

	rep.MissingColumns = t.missing("PATIENT", "DESCRIPTION")
	warnMissing(logger, &rep)

	var out []descriptionRecord
	seen := make(map[string]struct{})
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("read %s row %d: %w", name, t.rowNum, err)
		}
		rep.RowsRead++

		rec := descriptionRecord{
			Patient:     t.strAt(row, "PATIENT"),
			Description: t.strAt(row, "DESCRIPTION"),
		}
		if rec.Patient == "" {
			rep.DroppedNoKey++
			continue
		}

		key := rec.Patient + "\x00" + rec.Description
		if _, ok := seen[key]; ok {
			rep.DroppedDupes++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	rep.RowsKept = len(out)
	logRead(logger, rep)
	return out, rep, nil
}

// ReadPayers reads payers.csv. Only Id and NAME matter to the pipeline;
// either column missing degrades the payer-name join to "Unknown"
// downstream rather than failing here.
func ReadPayers(path string, logger zerolog.Logger) ([]Payer, Report, error) {
	rep := Report{Table: "payers"}

	t, err := openTable(path)
	if err != nil {
		return nil, rep, err
	}
	defer t.Close()

	rep.MissingColumns = t.missing("Id", "NAME")
	warnMissing(logger, &rep)

	var out []Payer
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("read payers row %d: %w", t.rowNum, err)
		}
		rep.RowsRead++

		p := Payer{
			ID:   t.strAt(row, "Id"),
			Name: t.strAt(row, "NAME"),
		}
		if p.ID == "" {
			rep.DroppedNoKey++
			continue
		}
		out = append(out, p)
	}

	rep.RowsKept = len(out)
	logRead(logger, rep)
	return out, rep, nil
}

// ReadPayerTransitions reads payer_transitions.csv. Rows missing any of
// the four selected fields are dropped, matching the source pipeline.
func ReadPayerTransitions(path string, logger zerolog.Logger) ([]PayerTransition, Report, error) {
	rep := Report{Table: "payer_transitions"}

	t, err := openTable(path)
	if err != nil {
		return nil, rep, err
	}
	defer t.Close()

	rep.MissingColumns = t.missing("PATIENT", "PAYER", "START_DATE", "END_DATE")
	warnMissing(logger, &rep)

	var out []PayerTransition
	for {
		row, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("read payer_transitions row %d: %w", t.rowNum, err)
		}
		rep.RowsRead++

		pt := PayerTransition{
			Patient: t.strAt(row, "PATIENT"),
			Payer:   t.strAt(row, "PAYER"),
			Start:   t.dateAt(row, "START_DATE", &rep.BadDates),
			End:     t.dateAt(row, "END_DATE", &rep.BadDates),
		}
		if pt.Patient == "" || pt.Payer == "" || pt.Start.IsZero() || pt.End.IsZero() {
			rep.DroppedNoKey++
			continue
		}
		out = append(out, pt)
	}

	rep.RowsKept = len(out)
	logRead(logger, rep)
	return out, rep, nil
}

func warnMissing(logger zerolog.Logger, rep *Report) {
	if len(rep.MissingColumns) > 0 {
		logger.Warn().
			Str("table", rep.Table).
			Str("columns", strings.Join(rep.MissingColumns, ",")).
			Msg("missing columns, reading best-effort subset")
	}
}

func logRead(logger zerolog.Logger, rep Report) {
	ev := logger.Info().
		Str("table", rep.Table).
		Int("read", rep.RowsRead).
		Int("kept", rep.RowsKept)
	if rep.DroppedNoKey > 0 {
		ev = ev.Int("dropped_no_key", rep.DroppedNoKey)
	}
	if rep.DroppedDupes > 0 {
		ev = ev.Int("dropped_dupes", rep.DroppedDupes)
	}
	if rep.BadDates > 0 {
		ev = ev.Int("bad_dates", rep.BadDates)
	}
	ev.Msg("table loaded")
}
