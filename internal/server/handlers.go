package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/ingest"
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/store"
)

// maxUploadBytes caps one CSV upload. Monthly exports run well under this.
const maxUploadBytes = 32 << 20

type importResponse struct {
	OK            bool   `json:"ok"`
	Message       string `json:"message"`
	ImportedCases int64  `json:"imported_cases"`
	ImportedUsage int64  `json:"imported_usage_rows"`
	ImportBatchID string `json:"import_batch_id"`
}

// handleImportCSV accepts a multipart upload (field "file") and runs the
// full pipeline. The batch commits whole or not at all; an error response
// always means nothing was persisted.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided (multipart field \"file\")")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "a .csv file is required")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	summary, err := ingest.Run(r.Context(), s.pool, s.log, s.headerMap, header.Filename, data)
	if err != nil {
		status := http.StatusInternalServerError
		var decodeErr *csvread.DecodeError
		var emptyErr *csvread.EmptyInputError
		var validErr *csvread.ValidationError
		if errors.As(err, &decodeErr) || errors.As(err, &emptyErr) || errors.As(err, &validErr) {
			status = http.StatusBadRequest
		}
		s.log.Error().Err(err).Str("file", header.Filename).Msg("import failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		OK:            true,
		Message:       "import complete",
		ImportedCases: summary.CasesInserted + summary.CasesUpdated,
		ImportedUsage: summary.UsageRows,
		ImportBatchID: summary.BatchID,
	})
}

type caseJSON struct {
	CaseID        int64   `json:"case_id"`
	ExtCaseID     string  `json:"ext_case_id"`
	PatientID     string  `json:"patient_id"`
	PatientName   string  `json:"patient_name"`
	SurgDate      *string `json:"surg_date"`
	Age           *int32  `json:"age"`
	Dept          string  `json:"dept"`
	SurgProcedure string  `json:"surg_procedure"`
	Disease       string  `json:"disease"`
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.store.ListCases(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list cases failed")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]caseJSON, len(cases))
	for i, c := range cases {
		out[i] = caseJSON{
			CaseID:        c.CaseID,
			ExtCaseID:     c.ExtCaseID,
			PatientID:     c.PatientID,
			PatientName:   c.PatientName,
			SurgDate:      formatDate(c.SurgDate),
			Age:           c.Age,
			Dept:          c.Dept,
			SurgProcedure: c.SurgProcedure,
			Disease:       c.Disease,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "cases": out})
}

func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	caseID, ok := s.caseIDParam(w, r)
	if !ok {
		return
	}

	usage, err := s.store.GetUsage(r.Context(), caseID)
	if err != nil {
		s.log.Error().Err(err).Int64("case_id", caseID).Msg("get usage failed")
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if usage == nil {
		usage = []model.UsageRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "usage": usage})
}

// handleReplaceUsage is the manual full-replace editor endpoint. Edits made
// here last only until the next import touches the case, which regenerates
// the usage set from the remarks field.
func (s *Server) handleReplaceUsage(w http.ResponseWriter, r *http.Request) {
	caseID, ok := s.caseIDParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Usage []model.UsageItem `json:"usage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "usage must be a JSON array")
		return
	}

	ctx := r.Context()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	defer tx.Rollback(ctx)

	txStore := store.New(tx)
	exists, err := txStore.CaseExists(ctx, caseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	if _, err := txStore.DeleteUsageForCase(ctx, caseID); err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	inserted := 0
	for _, item := range body.Usage {
		item.FreeItemName = strings.TrimSpace(item.FreeItemName)
		if item.FreeItemName == "" {
			continue
		}
		if err := txStore.InsertUsage(ctx, caseID, item); err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "saved", "inserted": inserted})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) caseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "caseID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid case id")
		return 0, false
	}
	return id, true
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
