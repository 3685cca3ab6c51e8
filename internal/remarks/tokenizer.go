// Package remarks extracts structured consumable-usage line items from the
// free-text nursing-remarks field of a surgical-case export.
//
// Remarks are authored by hand under a lightweight ward convention, not a
// formal grammar: entries are comma-separated and each usage entry starts
// with a ★ marker, e.g.
//
//	★サージセル[2]枚,★洗浄[生理食塩水250ml][1]本,★消毒
//
// The tokenizer degrades gracefully on malformed entries instead of
// rejecting the whole field; one case's remarks must never fail another
// case's import.
package remarks

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ymatsuda/caseload/internal/model"
)

const marker = "★"

var (
	// Half-width comma, full-width comma, ideographic comma.
	splitter = regexp.MustCompile(`[,，、]`)

	// Structured entry: item text, then one or more bracket groups of which
	// the final one holds a numeric quantity, then a unit. The unit may not
	// contain "]", which is what pins the quantity to the last bracket group.
	structured = regexp.MustCompile(`^★\s*(.*?)\[(\d+(?:\.\d+)?)\]\s*([^\]]*)\s*$`)
)

// Tokenize parses one remarks string into ordered usage items. It is total:
// any input, including the empty string, yields a (possibly empty) list and
// never an error. The caller owns deduplication, if any.
func Tokenize(remarks string) []model.UsageItem {
	if strings.TrimSpace(remarks) == "" {
		return nil
	}

	var items []model.UsageItem
	for _, part := range splitter.Split(remarks, -1) {
		token := strings.TrimSpace(part)
		if !strings.HasPrefix(token, marker) {
			continue
		}

		if m := structured.FindStringSubmatch(token); m != nil {
			// Item name is the text before the first bracket; bracket groups
			// between the first and the quantity stay in the memo verbatim.
			name, _, _ := strings.Cut(m[1], "[")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			qty, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue // unreachable given the pattern, but stay total
			}
			items = append(items, model.UsageItem{
				FreeItemName: name,
				Quantity:     &qty,
				Unit:         nilIfEmpty(m[3]),
				Memo:         token,
			})
			continue
		}

		// Fallback: no trailing bracketed quantity; keep the bare item name.
		name := strings.TrimSpace(strings.TrimPrefix(token, marker))
		if name == "" {
			continue
		}
		items = append(items, model.UsageItem{
			FreeItemName: name,
			Memo:         token,
		})
	}
	return items
}

func nilIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
