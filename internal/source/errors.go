package source

import (
	"fmt"
	"strings"
)

// MissingInputError reports an absent input file. Fatal only for the
// computation that depends on the file; independent computations proceed.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input file %s: %v", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// SchemaError reports required columns absent from an input table. Only
// raised for columns a table cannot be read without (the encounter join
// key); everything else degrades to a Report warning.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s missing required columns: %s",
		e.Table, strings.Join(e.Missing, ", "))
}
