package ingest

import (
	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/normalize"
)

// BuildResult holds the candidate cases and metrics from the build phase.
type BuildResult struct {
	Cases             []model.CaseRecord
	RowsRead          int64
	DuplicatesDropped int64
	SkippedNoID       int64
}

// BuildCases assembles one candidate CaseRecord per validated row, applying
// the per-field coercers and keeping the raw remarks untouched.
//
// Rows without an external case id are dropped. When the same external id
// appears more than once in a batch, the first occurrence in source order
// wins and later ones are silently discarded: the export format guarantees
// one authoritative row per case, but accidental repeats do happen.
//
// Ages coerce leniently (absent on garbage); surgery dates coerce strictly,
// and a bad date aborts the whole batch with a ValidationError naming the
// value and its 1-based data row.
func BuildCases(t *csvread.Table) (*BuildResult, error) {
	res := &BuildResult{}
	seen := make(map[string]bool)

	for i, row := range t.Rows() {
		res.RowsRead++

		extID := normalize.Trim(row["ext_case_id"])
		if extID == "" {
			res.SkippedNoID++
			continue
		}
		if seen[extID] {
			res.DuplicatesDropped++
			continue
		}
		seen[extID] = true

		surgDate, err := normalize.ParseDate(row["surg_date"])
		if err != nil {
			return nil, &csvread.ValidationError{
				Row:   i + 1,
				Field: model.LabelFor("surg_date"),
				Value: normalize.Trim(row["surg_date"]),
				Cause: err,
			}
		}

		res.Cases = append(res.Cases, model.CaseRecord{
			ExtCaseID:     extID,
			PatientID:     normalize.Trim(row["patient_id"]),
			PatientName:   normalize.Trim(row["patient_name"]),
			SurgDate:      surgDate,
			Age:           normalize.LenientInt(row["age"]),
			Dept:          normalize.Trim(row["dept"]),
			SurgProcedure: normalize.Trim(row["surg_procedure"]),
			Disease:       normalize.Trim(row["disease"]),
			Remarks:       row["remarks"],
		})
	}

	return res, nil
}
