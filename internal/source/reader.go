package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// table wraps a CSV file with a case-insensitive column index so readers
// access fields by name rather than position. Header row is required.
type table struct {
	file   *os.File
	csv    *csv.Reader
	colIdx map[string]int // lowercase header → column index
	rowNum int64
}

func openTable(filepath string) (*table, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, &MissingInputError{Path: filepath, Err: err}
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	t := &table{
		file:   file,
		csv:    reader,
		colIdx: make(map[string]int),
	}

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	t.rowNum++
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		t.colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	return t, nil
}

// next returns the next non-empty data row, or io.EOF.
func (t *table) next() ([]string, error) {
	for {
		row, err := t.csv.Read()
		if err != nil {
			return nil, err
		}
		t.rowNum++
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		return row, nil
	}
}

// has reports whether a column exists, case-insensitively.
func (t *table) has(col string) bool {
	_, ok := t.colIdx[strings.ToLower(col)]
	return ok
}

// missing returns the subset of cols absent from the header.
func (t *table) missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !t.has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (t *table) Close() error {
	if t.file != nil {
		return t.file.Close()
	}
	return nil
}

// Column access helpers. Missing columns and blank values never error:
// strings degrade to "", numbers to 0, dates to the zero-time sentinel.
// Strings are sanitized to valid UTF-8 (some exports are Windows-1252).

func (t *table) strAt(row []string, col string) string {
	if i, ok := t.colIdx[strings.ToLower(col)]; ok && i < len(row) {
		return strings.ToValidUTF8(strings.TrimSpace(row[i]), "�")
	}
	return ""
}

func (t *table) floatAt(row []string, col string) float64 {
	if i, ok := t.colIdx[strings.ToLower(col)]; ok && i < len(row) {
		s := strings.TrimSpace(row[i])
		if s == "" {
			return 0
		}
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// dateLayouts covers the formats seen in Synthea-style extracts.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// dateAt parses a date column. Unparseable values coerce to the zero-time
// sentinel and bump *bad rather than failing the run.
func (t *table) dateAt(row []string, col string, bad *int) time.Time {
	s := t.strAt(row, col)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d
		}
	}
	*bad++
	return time.Time{}
}
