package model

// UsageItem is one consumable-item line extracted from a case's remarks,
// or entered by hand through the usage editor. Memo retains the original
// source token for audit.
type UsageItem struct {
	FreeItemName string   `json:"free_item_name"`
	Quantity     *float64 `json:"quantity"`
	Unit         *string  `json:"unit"`
	Memo         string   `json:"memo"`
}

// UsageRecord is a persisted usage line owned by one case. The owning
// case's usage set is fully replaced on every import; rows never survive
// a re-import of their case.
type UsageRecord struct {
	UsageID int64 `json:"usage_id"`
	CaseID  int64 `json:"case_id"`
	UsageItem
}
