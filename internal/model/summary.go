package model

import "time"

// ImportSummary captures metrics from a single CSV import run.
type ImportSummary struct {
	BatchID           string
	FileName          string
	FileSHA256        string
	RowsRead          int64
	CasesBuilt        int64
	DuplicatesDropped int64
	SkippedNoID       int64
	CasesInserted     int64
	CasesUpdated      int64
	UsageRows         int64
	DurationDecode    time.Duration
	DurationReconcile time.Duration
	DurationTotal     time.Duration
}
