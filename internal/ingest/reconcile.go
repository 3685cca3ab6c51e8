package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ymatsuda/caseload/internal/db"
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/remarks"
	"github.com/ymatsuda/caseload/internal/store"
)

// ReconcileResult holds metrics from the reconcile phase.
type ReconcileResult struct {
	CasesInserted int64
	CasesUpdated  int64
	UsageRows     int64
	Duration      time.Duration
}

// Reconcile matches the candidate cases against the store inside one
// transaction spanning the whole batch. Each case is inserted or updated
// by external id (the internal surrogate key is assigned once and never
// changes), its previous usage rows are deleted, and the set freshly
// tokenized from its remarks is bulk-inserted via COPY. Full replace,
// never a merge: the batch is the sole authority for a case's usage set,
// and manual edits made since the last import are superseded.
//
// Any failure rolls the transaction back; nothing from the batch persists.
func Reconcile(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, fileName, fileSHA string, cases []model.CaseRecord, startedAt time.Time) (*ReconcileResult, error) {
	start := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	s := store.New(tx)
	res := &ReconcileResult{}
	var usageRows []model.UsageRecord

	for i := range cases {
		c := &cases[i]

		caseID, found, err := s.LookupCaseID(ctx, c.ExtCaseID)
		if err != nil {
			return nil, err
		}
		if found {
			if err := s.UpdateCase(ctx, caseID, c); err != nil {
				return nil, err
			}
			res.CasesUpdated++
		} else {
			caseID, err = s.InsertCase(ctx, c)
			if err != nil {
				return nil, err
			}
			res.CasesInserted++
		}
		c.CaseID = caseID

		if _, err := s.DeleteUsageForCase(ctx, caseID); err != nil {
			return nil, err
		}
		for _, item := range remarks.Tokenize(c.Remarks) {
			usageRows = append(usageRows, model.UsageRecord{CaseID: caseID, UsageItem: item})
		}
	}

	// Deletes are done per case above; one COPY covers the whole batch.
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"case_usage"},
		db.UsageColumns(),
		db.NewUsageSource(usageRows),
	)
	if err != nil {
		return nil, fmt.Errorf("copy usage rows: %w", err)
	}
	res.UsageRows = copied

	if err := s.RecordImportBatch(ctx, batchID, fileName, fileSHA,
		int64(len(cases)), res.UsageRows, startedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	res.Duration = time.Since(start)
	log.Info().
		Int64("cases_inserted", res.CasesInserted).
		Int64("cases_updated", res.CasesUpdated).
		Int64("usage_rows", res.UsageRows).
		Dur("duration", res.Duration).
		Msg("reconcile complete")

	return res, nil
}
