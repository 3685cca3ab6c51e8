package model

// Field describes one canonical column of the surgical-case CSV export.
type Field struct {
	Name   string   // internal field name, e.g. "ext_case_id"
	Labels []string // normalized source header spellings that map to it
}

// AllFields lists the canonical export columns in source order.
// Labels are given in their normalized form (half-width parentheses,
// single spaces); several spellings may map to the same field.
var AllFields = []Field{
	{Name: "ext_case_id", Labels: []string{"症例ID"}},
	{Name: "patient_id", Labels: []string{"患者番号"}},
	{Name: "patient_name", Labels: []string{"患者氏名(漢字)"}},
	{Name: "surg_date", Labels: []string{"手術実施日"}},
	{Name: "age", Labels: []string{"年齢"}},
	{Name: "dept", Labels: []string{"実施診療科"}},
	{Name: "surg_procedure", Labels: []string{"確定術式フリー検索"}},
	{Name: "disease", Labels: []string{"術後病名"}},
	{Name: "remarks", Labels: []string{"リマークス(看護)"}},
}

// RequiredFieldNames returns the field names every import must supply.
// All canonical columns are required; a missing one aborts the batch.
func RequiredFieldNames() []string {
	names := make([]string, len(AllFields))
	for i, f := range AllFields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the Field for the given internal name, or ok=false.
func FieldByName(name string) (Field, bool) {
	for _, f := range AllFields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// LabelFor reverse-looks-up the human-readable source header for a field
// name. Falls back to the field name itself when no label is known.
func LabelFor(name string) string {
	if f, ok := FieldByName(name); ok && len(f.Labels) > 0 {
		return f.Labels[0]
	}
	return name
}

// DefaultHeaderMap returns the normalized-header → field-name mapping for
// the canonical export columns.
func DefaultHeaderMap() map[string]string {
	m := make(map[string]string)
	for _, f := range AllFields {
		for _, label := range f.Labels {
			m[label] = f.Name
		}
	}
	return m
}
