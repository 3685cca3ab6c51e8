package csvread

import (
	"fmt"
	"strings"
)

// DecodeError reports input whose bytes could not be recovered as text:
// either no supported encoding decoded cleanly, or the buffer was empty.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode csv: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EmptyInputError reports a file that decoded fine but carries a header row
// and nothing else. Distinct from DecodeError so callers can word the
// response differently; never silently accepted.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "csv contains a header row but no data rows"
}

// ValidationError reports input that decoded but cannot be imported:
// required columns missing from the header, or a cell that fails strict
// coercion. Exactly one of the two shapes is populated.
type ValidationError struct {
	// MissingColumns holds human-readable labels of absent required columns.
	MissingColumns []string

	// Row (1-based data row), Field, and Value identify a bad cell.
	Row   int
	Field string
	Value string
	Cause error
}

func (e *ValidationError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("required columns missing: %s", strings.Join(e.MissingColumns, ", "))
	}
	return fmt.Sprintf("row %d: invalid %s value %q: %s", e.Row, e.Field, e.Value, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
