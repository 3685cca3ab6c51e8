// Package ingest runs the CSV-to-record reconciliation pipeline: decode →
// validate → build → reconcile. One import request owns one pipeline run
// and one store transaction; the batch either commits whole or not at all.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/normalize"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the full import pipeline over one uploaded file.
// headerMap is the normalized-label → field-name table (defaults plus any
// configured aliases). Processing is synchronous and row order is
// preserved; dedup depends on it.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, headerMap map[string]string, fileName string, data []byte) (*model.ImportSummary, error) {
	totalStart := time.Now()
	batchID := uuid.New()
	log = log.With().Str("batch_id", batchID.String()).Str("file", fileName).Logger()

	// Phase 1: decode
	decodeStart := time.Now()
	table, err := csvread.Read(data)
	if err != nil {
		return nil, &PipelineError{Phase: "decode", Err: err}
	}
	decodeDur := time.Since(decodeStart)

	// Phase 2: validate headers
	table.MapHeaders(headerMap)
	if err := table.ValidateRequired(); err != nil {
		return nil, &PipelineError{Phase: "validate", Err: err}
	}

	// Phase 3: build candidate cases
	build, err := BuildCases(table)
	if err != nil {
		return nil, &PipelineError{Phase: "build", Err: err}
	}
	log.Info().
		Int64("rows_read", build.RowsRead).
		Int("cases", len(build.Cases)).
		Int64("duplicates_dropped", build.DuplicatesDropped).
		Int64("skipped_no_id", build.SkippedNoID).
		Msg("build complete")

	// Phase 4: reconcile against the store
	sha := normalize.DataHash(data)
	rec, err := Reconcile(ctx, pool, log, batchID, fileName, sha, build.Cases, totalStart)
	if err != nil {
		return nil, &PipelineError{Phase: "reconcile", Err: err}
	}

	summary := &model.ImportSummary{
		BatchID:           batchID.String(),
		FileName:          fileName,
		FileSHA256:        sha,
		RowsRead:          build.RowsRead,
		CasesBuilt:        int64(len(build.Cases)),
		DuplicatesDropped: build.DuplicatesDropped,
		SkippedNoID:       build.SkippedNoID,
		CasesInserted:     rec.CasesInserted,
		CasesUpdated:      rec.CasesUpdated,
		UsageRows:         rec.UsageRows,
		DurationDecode:    decodeDur,
		DurationReconcile: rec.Duration,
		DurationTotal:     time.Since(totalStart),
	}

	log.Info().
		Int64("cases_inserted", summary.CasesInserted).
		Int64("cases_updated", summary.CasesUpdated).
		Int64("usage_rows", summary.UsageRows).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("import pipeline complete")

	return summary, nil
}
