// Package store wraps the hand-written SQL from internal/sql behind typed
// methods. A Store runs against either a pool or an open transaction, so
// the reconciliation engine and the HTTP handlers share one query surface.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ymatsuda/caseload/internal/model"
	embedsql "github.com/ymatsuda/caseload/internal/sql"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	q Querier
}

func New(q Querier) *Store {
	return &Store{q: q}
}

// LookupCaseID resolves an external case id to the internal surrogate key.
// found is false when the case has never been imported.
func (s *Store) LookupCaseID(ctx context.Context, extCaseID string) (id int64, found bool, err error) {
	err = s.q.QueryRow(ctx, embedsql.LookupCaseByExtID, extCaseID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup case %q: %w", extCaseID, err)
	}
	return id, true, nil
}

// InsertCase inserts a new case and returns the store-assigned internal id.
func (s *Store) InsertCase(ctx context.Context, c *model.CaseRecord) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, embedsql.InsertCase,
		c.ExtCaseID, c.PatientID, c.PatientName, c.SurgDate, c.Age,
		c.Dept, c.SurgProcedure, c.Disease, c.Remarks,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert case %q: %w", c.ExtCaseID, err)
	}
	return id, nil
}

// UpdateCase overwrites all mutable fields of an existing case. The
// internal id and the external id never change.
func (s *Store) UpdateCase(ctx context.Context, caseID int64, c *model.CaseRecord) error {
	_, err := s.q.Exec(ctx, embedsql.UpdateCase,
		caseID, c.PatientID, c.PatientName, c.SurgDate, c.Age,
		c.Dept, c.SurgProcedure, c.Disease, c.Remarks,
	)
	if err != nil {
		return fmt.Errorf("update case %q: %w", c.ExtCaseID, err)
	}
	return nil
}

// CaseExists reports whether an internal case id is present.
func (s *Store) CaseExists(ctx context.Context, caseID int64) (bool, error) {
	var exists bool
	if err := s.q.QueryRow(ctx, embedsql.CaseExists, caseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("case exists %d: %w", caseID, err)
	}
	return exists, nil
}

// ListCases returns all cases ordered by surgery date then external id.
func (s *Store) ListCases(ctx context.Context) ([]model.CaseRecord, error) {
	rows, err := s.q.Query(ctx, embedsql.ListCases)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []model.CaseRecord
	for rows.Next() {
		var c model.CaseRecord
		var extID, patientID, patientName, dept, proc, disease *string
		if err := rows.Scan(&c.CaseID, &extID, &patientID, &patientName,
			&c.SurgDate, &c.Age, &dept, &proc, &disease); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.ExtCaseID = deref(extID)
		c.PatientID = deref(patientID)
		c.PatientName = deref(patientName)
		c.Dept = deref(dept)
		c.SurgProcedure = deref(proc)
		c.Disease = deref(disease)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// DeleteUsageForCase removes every usage row owned by the case.
func (s *Store) DeleteUsageForCase(ctx context.Context, caseID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, embedsql.DeleteCaseUsage, caseID)
	if err != nil {
		return 0, fmt.Errorf("delete usage for case %d: %w", caseID, err)
	}
	return tag.RowsAffected(), nil
}

// InsertUsage inserts one usage row for a case.
func (s *Store) InsertUsage(ctx context.Context, caseID int64, item model.UsageItem) error {
	_, err := s.q.Exec(ctx, embedsql.InsertUsage,
		caseID, item.FreeItemName, item.Quantity, item.Unit, item.Memo)
	if err != nil {
		return fmt.Errorf("insert usage for case %d: %w", caseID, err)
	}
	return nil
}

// GetUsage returns the usage rows for one case ordered by usage id.
func (s *Store) GetUsage(ctx context.Context, caseID int64) ([]model.UsageRecord, error) {
	rows, err := s.q.Query(ctx, embedsql.GetCaseUsage, caseID)
	if err != nil {
		return nil, fmt.Errorf("get usage for case %d: %w", caseID, err)
	}
	defer rows.Close()

	var usage []model.UsageRecord
	for rows.Next() {
		var u model.UsageRecord
		var memo *string
		if err := rows.Scan(&u.UsageID, &u.CaseID, &u.FreeItemName,
			&u.Quantity, &u.Unit, &memo); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.Memo = deref(memo)
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get usage for case %d: %w", caseID, err)
	}
	return usage, nil
}

// RecordImportBatch writes the audit row for one import run. Called inside
// the batch transaction so a rolled-back import leaves no trace.
func (s *Store) RecordImportBatch(ctx context.Context, batchID uuid.UUID, fileName, sha string, caseCount, usageCount int64, startedAt time.Time) error {
	_, err := s.q.Exec(ctx, embedsql.InsertImportBatch,
		batchID, fileName, sha, caseCount, usageCount, startedAt)
	if err != nil {
		return fmt.Errorf("record import batch: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
