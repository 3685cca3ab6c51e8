package model

import "time"

// CaseRecord is one surgical case as reconciled into the store.
//
// CaseID is the internal surrogate key assigned by the database on first
// insert; it never changes afterwards. ExtCaseID is the case identity as it
// appears in the source file and is unique across the store. Remarks keeps
// the nursing-remarks field verbatim so usage rows can be re-derived.
type CaseRecord struct {
	CaseID        int64
	ExtCaseID     string
	PatientID     string
	PatientName   string
	SurgDate      *time.Time
	Age           *int32
	Dept          string
	SurgProcedure string
	Disease       string
	Remarks       string
}
