// Package sql embeds the schema migrations and the hand-written queries
// used by the store.
package sql

import (
	"embed"
)

// Migrations holds the schema migration files, applied in filename order.
//
//go:embed migrations
var Migrations embed.FS

//go:embed queries/lookup_case_by_ext_id.sql
var LookupCaseByExtID string

//go:embed queries/insert_case.sql
var InsertCase string

//go:embed queries/update_case.sql
var UpdateCase string

//go:embed queries/case_exists.sql
var CaseExists string

//go:embed queries/list_cases.sql
var ListCases string

//go:embed queries/delete_case_usage.sql
var DeleteCaseUsage string

//go:embed queries/insert_usage.sql
var InsertUsage string

//go:embed queries/get_case_usage.sql
var GetCaseUsage string

//go:embed queries/insert_import_batch.sql
var InsertImportBatch string
