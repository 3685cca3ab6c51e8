package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/ymatsuda/caseload/internal/model"
)

// UsageSource implements pgx.CopyFromSource over the usage rows derived
// from one import batch, so the whole set goes to the store in a single
// COPY inside the batch transaction.
type UsageSource struct {
	rows []model.UsageRecord
	i    int
}

// NewUsageSource creates a CopyFromSource over rows.
func NewUsageSource(rows []model.UsageRecord) *UsageSource {
	return &UsageSource{rows: rows, i: -1}
}

// UsageColumns returns the case_usage column names in COPY order.
func UsageColumns() []string {
	return []string{"case_id", "free_item_name", "quantity", "unit", "memo"}
}

// Next advances to the next row.
func (s *UsageSource) Next() bool {
	s.i++
	return s.i < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *UsageSource) Values() ([]any, error) {
	r := s.rows[s.i]
	return []any{r.CaseID, r.FreeItemName, r.Quantity, r.Unit, r.Memo}, nil
}

// Err returns any error encountered during iteration.
func (s *UsageSource) Err() error {
	return nil
}

// Compile-time check that UsageSource satisfies the interface.
var _ pgx.CopyFromSource = (*UsageSource)(nil)
