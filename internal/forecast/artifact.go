package forecast

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"claimsight/internal/source"
)

// Model is a pre-trained cost regressor artifact: an ordered feature
// list plus fitted forest, serialized as JSON. It backs the
// predict-from-upload path; the pipeline never trains it, only loads it.
type Model struct {
	Features []string `json:"feature_names"`
	Forest   *Forest  `json:"forest"`
}

// MissingColumnsError reports an upload that lacks columns the model
// requires. The exact missing names are enumerated for the caller.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("uploaded data missing required feature columns: %s", strings.Join(e.Missing, ", "))
}

// LoadModel reads a model artifact. A missing file is a reported error
// for the predict path only, never a crash.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &source.MissingInputError{Path: path, Err: err}
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if len(m.Features) == 0 || m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model artifact %s has no features or trees", path)
	}
	return &m, nil
}

// SaveModel writes a model artifact as JSON.
func SaveModel(path string, m *Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}

// Predict evaluates the model on one sample ordered per Features.
func (m *Model) Predict(features []float64) float64 {
	return m.Forest.Predict(features)
}

// Prediction pairs an uploaded row (1-based, excluding header) with its
// predicted cost.
type Prediction struct {
	Row  int
	Cost float64
}

// PredictFile scores an uploaded CSV whose columns must be a superset of
// the model's feature list. Missing columns abort with the exact names;
// blank or unparseable feature values score as 0.
func (m *Model) PredictFile(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &source.MissingInputError{Path: path, Err: err}
	}
	defer f.Close()
	return m.PredictCSV(bufio.NewReader(f))
}

// PredictCSV scores CSV content from r. See PredictFile.
func (m *Model) PredictCSV(r io.Reader) ([]Prediction, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read upload header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make([]int, len(m.Features))
	var missing []string
	for i, feat := range m.Features {
		c, ok := idx[strings.ToLower(feat)]
		if !ok {
			missing = append(missing, feat)
			continue
		}
		cols[i] = c
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	var out []Prediction
	features := make([]float64, len(cols))
	for rowNum := 1; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read upload row %d: %w", rowNum, err)
		}
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		for i, c := range cols {
			features[i] = 0
			if c < len(row) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64); err == nil {
					features[i] = v
				}
			}
		}
		out = append(out, Prediction{Row: rowNum, Cost: m.Predict(features)})
	}
	return out, nil
}
