package csvread

import (
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/normalize"
)

// MapHeaders canonicalizes every header cell and renames known source
// headers to their internal field names using headerMap (normalized label →
// field name). Unknown columns keep their normalized label and are carried
// through untouched.
func (t *Table) MapHeaders(headerMap map[string]string) {
	for i, h := range t.Header {
		norm := normalize.Header(h)
		if field, ok := headerMap[norm]; ok {
			t.Header[i] = field
		} else {
			t.Header[i] = norm
		}
	}
}

// ValidateRequired checks that every required field name is present in the
// mapped header. A single missing column aborts the whole batch before any
// row is processed; the error names columns by their source label so the
// operator can fix the export.
func (t *Table) ValidateRequired() error {
	present := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		present[h] = true
	}

	var missing []string
	for _, name := range model.RequiredFieldNames() {
		if !present[name] {
			missing = append(missing, model.LabelFor(name))
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingColumns: missing}
	}
	return nil
}
