package ingest_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/encoding/japanese"

	"github.com/ymatsuda/caseload/internal/csvread"
	"github.com/ymatsuda/caseload/internal/db"
	"github.com/ymatsuda/caseload/internal/ingest"
	"github.com/ymatsuda/caseload/internal/logging"
	"github.com/ymatsuda/caseload/internal/model"
	"github.com/ymatsuda/caseload/internal/store"
)

const (
	testPort     = 15544
	testDB       = "casetest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a connection pool and applies migrations on a clean slate.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, table := range []string{"case_usage", "surg_cases", "import_batches"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			t.Fatalf("drop table %s: %v", table, err)
		}
	}

	log := logging.Setup("json")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

var header = []string{
	"症例ID", "患者番号", "患者氏名(漢字)", "手術実施日", "年齢",
	"実施診療科", "確定術式フリー検索", "術後病名", "リマークス（看護）",
}

// encodeCP932 renders rows as a CP932 CSV file, the chart system's native
// export encoding.
func encodeCP932(t *testing.T, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out, err := japanese.ShiftJIS.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		t.Fatalf("encode cp932: %v", err)
	}
	return out
}

func importRows(t *testing.T, pool *pgxpool.Pool, rows [][]string) (*model.ImportSummary, error) {
	t.Helper()
	log := logging.Setup("json")
	data := encodeCP932(t, append([][]string{header}, rows...))
	return ingest.Run(context.Background(), pool, log, model.DefaultHeaderMap(), "test.csv", data)
}

func mustImport(t *testing.T, pool *pgxpool.Pool, rows [][]string) *model.ImportSummary {
	t.Helper()
	summary, err := importRows(t, pool, rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	return summary
}

func listCases(t *testing.T, pool *pgxpool.Pool) []model.CaseRecord {
	t.Helper()
	cases, err := store.New(pool).ListCases(context.Background())
	if err != nil {
		t.Fatalf("list cases: %v", err)
	}
	return cases
}

func getUsage(t *testing.T, pool *pgxpool.Pool, caseID int64) []model.UsageRecord {
	t.Helper()
	usage, err := store.New(pool).GetUsage(context.Background(), caseID)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	return usage
}

func countBatches(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		"SELECT count(*) FROM import_batches").Scan(&n); err != nil {
		t.Fatalf("count batches: %v", err)
	}
	return n
}

func TestImport_InsertsCasesAndUsage(t *testing.T) {
	pool := setupDB(t)

	summary := mustImport(t, pool, [][]string{
		{"C-0001", "100234", "山田太郎", "2025/04/01", "72歳", "外科", "胆嚢摘出術", "胆石症", "★サージセル[2]枚,★クリップ[3]個"},
		{"C-0002", "100518", "佐藤花子", "2025/04/02", "65", "整形外科", "人工膝関節置換術", "変形性膝関節症", "特記事項なし"},
	})

	if summary.CasesInserted != 2 || summary.CasesUpdated != 0 {
		t.Errorf("inserted/updated = %d/%d, want 2/0", summary.CasesInserted, summary.CasesUpdated)
	}
	if summary.UsageRows != 2 {
		t.Errorf("usage rows = %d, want 2", summary.UsageRows)
	}

	cases := listCases(t, pool)
	if len(cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(cases))
	}
	c := cases[0]
	if c.ExtCaseID != "C-0001" || c.PatientName != "山田太郎" {
		t.Errorf("unexpected first case: %+v", c)
	}
	if c.Age == nil || *c.Age != 72 {
		t.Errorf("age = %v, want 72 coerced from 72歳", c.Age)
	}
	if c.SurgDate == nil || c.SurgDate.Format("2006-01-02") != "2025-04-01" {
		t.Errorf("surg date = %v", c.SurgDate)
	}

	usage := getUsage(t, pool, c.CaseID)
	if len(usage) != 2 {
		t.Fatalf("usage = %d, want 2", len(usage))
	}
	if usage[0].FreeItemName != "サージセル" || usage[0].Quantity == nil || *usage[0].Quantity != 2 {
		t.Errorf("unexpected usage row: %+v", usage[0])
	}
	if usage[1].FreeItemName != "クリップ" {
		t.Errorf("unexpected usage row: %+v", usage[1])
	}

	// The remarks-free case owns no usage rows.
	if u := getUsage(t, pool, cases[1].CaseID); len(u) != 0 {
		t.Errorf("case without markers has %d usage rows", len(u))
	}
}

func TestImport_Idempotent(t *testing.T) {
	pool := setupDB(t)
	rows := [][]string{
		{"C-0001", "100234", "山田太郎", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", "★ガーゼ[10]枚"},
		{"C-0002", "100518", "佐藤花子", "2025/04/02", "65", "整形外科", "人工膝関節置換術", "変形性膝関節症", "★消毒"},
	}

	mustImport(t, pool, rows)
	first := listCases(t, pool)

	second := mustImport(t, pool, rows)
	if second.CasesInserted != 0 || second.CasesUpdated != 2 {
		t.Errorf("second import inserted/updated = %d/%d, want 0/2",
			second.CasesInserted, second.CasesUpdated)
	}

	after := listCases(t, pool)
	if len(after) != len(first) {
		t.Fatalf("case count changed: %d → %d", len(first), len(after))
	}
	for i := range first {
		if after[i].CaseID != first[i].CaseID {
			t.Errorf("internal id changed for %s: %d → %d",
				first[i].ExtCaseID, first[i].CaseID, after[i].CaseID)
		}
	}

	usage := getUsage(t, pool, after[0].CaseID)
	if len(usage) != 1 || usage[0].FreeItemName != "ガーゼ" {
		t.Errorf("usage after re-import: %+v", usage)
	}
}

func TestImport_ReplaceNotMerge(t *testing.T) {
	pool := setupDB(t)
	rows := [][]string{
		{"C-0001", "100234", "山田太郎", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", "★ガーゼ[10]枚"},
	}

	mustImport(t, pool, rows)
	caseID := listCases(t, pool)[0].CaseID

	// Manual edit through the usage editor between imports.
	if err := store.New(pool).InsertUsage(context.Background(), caseID, model.UsageItem{
		FreeItemName: "手入力アイテム",
		Memo:         "手入力",
	}); err != nil {
		t.Fatalf("manual insert: %v", err)
	}

	mustImport(t, pool, rows)

	usage := getUsage(t, pool, caseID)
	if len(usage) != 1 || usage[0].FreeItemName != "ガーゼ" {
		t.Errorf("usage after re-import = %+v, manual edit must be superseded", usage)
	}
}

func TestImport_DedupFirstRowWins(t *testing.T) {
	pool := setupDB(t)

	summary := mustImport(t, pool, [][]string{
		{"C-0001", "100234", "最初の行", "2025/04/01", "60", "外科", "術式A", "病名A", "★ガーゼ[1]枚"},
		{"C-0001", "999999", "あとの行", "2025/04/02", "99", "内科", "術式B", "病名B", "★クリップ[9]個"},
	})

	if summary.DuplicatesDropped != 1 {
		t.Errorf("duplicates dropped = %d, want 1", summary.DuplicatesDropped)
	}
	cases := listCases(t, pool)
	if len(cases) != 1 {
		t.Fatalf("cases = %d, want 1", len(cases))
	}
	if cases[0].PatientName != "最初の行" {
		t.Errorf("persisted %q, want the first row's values", cases[0].PatientName)
	}
	usage := getUsage(t, pool, cases[0].CaseID)
	if len(usage) != 1 || usage[0].FreeItemName != "ガーゼ" {
		t.Errorf("usage = %+v, want the first row's tokenization", usage)
	}
}

func TestImport_UpdatePreservesInternalID(t *testing.T) {
	pool := setupDB(t)

	mustImport(t, pool, [][]string{
		{"C-0001", "100234", "旧氏名", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", ""},
	})
	before := listCases(t, pool)[0]

	summary := mustImport(t, pool, [][]string{
		{"C-0001", "100234", "新氏名", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", ""},
	})
	if summary.CasesUpdated != 1 || summary.CasesInserted != 0 {
		t.Errorf("inserted/updated = %d/%d, want 0/1", summary.CasesInserted, summary.CasesUpdated)
	}

	after := listCases(t, pool)[0]
	if after.CaseID != before.CaseID {
		t.Errorf("internal id changed: %d → %d", before.CaseID, after.CaseID)
	}
	if after.PatientName != "新氏名" {
		t.Errorf("patient name = %q, want updated value", after.PatientName)
	}
}

func TestImport_BadDateAbortsWholeBatch(t *testing.T) {
	pool := setupDB(t)

	mustImport(t, pool, [][]string{
		{"C-0001", "100234", "既存症例", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", "★ガーゼ[1]枚"},
	})
	batchesBefore := countBatches(t, pool)

	_, err := importRows(t, pool, [][]string{
		{"C-0001", "100234", "更新されてはいけない", "2025/04/02", "72", "外科", "胆嚢摘出術", "胆石症", ""},
		{"C-0002", "100518", "新規症例", "令和なんとか年", "65", "整形外科", "術式", "病名", ""},
	})

	var validErr *csvread.ValidationError
	if !errors.As(err, &validErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validErr.Value != "令和なんとか年" {
		t.Errorf("error value = %q, want the offending raw value", validErr.Value)
	}

	cases := listCases(t, pool)
	if len(cases) != 1 {
		t.Fatalf("cases = %d, want 1 (batch must not partially apply)", len(cases))
	}
	if cases[0].PatientName != "既存症例" {
		t.Errorf("existing case modified to %q by failed batch", cases[0].PatientName)
	}
	if got := countBatches(t, pool); got != batchesBefore {
		t.Errorf("import_batches count changed %d → %d on failed import", batchesBefore, got)
	}
}

func TestImport_MissingColumnAborts(t *testing.T) {
	pool := setupDB(t)

	shortHeader := header[:8] // remarks column dropped
	data := encodeCP932(t, [][]string{
		shortHeader,
		{"C-0001", "100234", "山田太郎", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症"},
	})

	_, err := ingest.Run(context.Background(), pool, logging.Setup("json"),
		model.DefaultHeaderMap(), "test.csv", data)

	var validErr *csvread.ValidationError
	if !errors.As(err, &validErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validErr.MissingColumns) != 1 || validErr.MissingColumns[0] != "リマークス(看護)" {
		t.Errorf("missing = %v", validErr.MissingColumns)
	}
	if len(listCases(t, pool)) != 0 {
		t.Error("rows persisted despite missing required column")
	}
}

func TestImport_BatchRecorded(t *testing.T) {
	pool := setupDB(t)

	summary := mustImport(t, pool, [][]string{
		{"C-0001", "100234", "山田太郎", "2025/04/01", "72", "外科", "胆嚢摘出術", "胆石症", "★ガーゼ[2]枚"},
	})

	var fileName, sha string
	var caseCount, usageCount int64
	err := pool.QueryRow(context.Background(),
		"SELECT file_name, file_sha256, case_count, usage_count FROM import_batches WHERE batch_id = $1",
		summary.BatchID).Scan(&fileName, &sha, &caseCount, &usageCount)
	if err != nil {
		t.Fatalf("batch row: %v", err)
	}
	if fileName != "test.csv" || sha != summary.FileSHA256 {
		t.Errorf("batch row = %q/%q", fileName, sha)
	}
	if caseCount != 1 || usageCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", caseCount, usageCount)
	}
}

func TestListCases_OrderedByDateThenID(t *testing.T) {
	pool := setupDB(t)

	mustImport(t, pool, [][]string{
		{"C-0300", "1", "三番", "2025/04/03", "60", "外科", "術式", "病名", ""},
		{"C-0102", "2", "二番", "2025/04/01", "60", "外科", "術式", "病名", ""},
		{"C-0101", "3", "一番", "2025/04/01", "60", "外科", "術式", "病名", ""},
		{"C-0999", "4", "日付なし", "", "60", "外科", "術式", "病名", ""},
	})

	cases := listCases(t, pool)
	want := []string{"C-0101", "C-0102", "C-0300", "C-0999"}
	if len(cases) != len(want) {
		t.Fatalf("cases = %d, want %d", len(cases), len(want))
	}
	for i, ext := range want {
		if cases[i].ExtCaseID != ext {
			t.Errorf("position %d = %s, want %s", i, cases[i].ExtCaseID, ext)
		}
	}
}
