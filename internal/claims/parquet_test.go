package claims

import (
	"path/filepath"
	"testing"
)

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")
	orig := sampleTable()

	if err := WriteParquetFile(path, orig); err != nil {
		t.Fatalf("WriteParquetFile: %v", err)
	}

	got, err := ReadParquetFile(path)
	if err != nil {
		t.Fatalf("ReadParquetFile: %v", err)
	}
	if len(got.Rows) != len(orig.Rows) {
		t.Fatalf("expected %d rows, got %d", len(orig.Rows), len(got.Rows))
	}
	for i := range orig.Rows {
		w, r := orig.Rows[i], got.Rows[i]
		if w.Patient != r.Patient || w.TotalClaimCost != r.TotalClaimCost ||
			w.IsDiabetes != r.IsDiabetes || w.PayerName != r.PayerName ||
			w.Age != r.Age {
			t.Errorf("row %d changed through round trip:\n  wrote %+v\n  read  %+v", i, w, r)
		}
		if !w.EncounterDate.Equal(r.EncounterDate) {
			t.Errorf("row %d: encounter date %v round-tripped to %v", i, w.EncounterDate, r.EncounterDate)
		}
	}
}

func TestParquetWriterCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.parquet")

	w, err := NewParquetWriter(path)
	if err != nil {
		t.Fatalf("NewParquetWriter: %v", err)
	}
	rows := sampleTable().Rows
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.Count() != 2*len(rows) {
		t.Errorf("expected count %d, got %d", 2*len(rows), w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
