package normalize

import "strings"

// Trim trims surrounding whitespace. strings.TrimSpace already covers the
// ideographic space (U+3000) via unicode.IsSpace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NilIfEmpty returns nil for an empty (post-trim) string.
func NilIfEmpty(s string) *string {
	s = Trim(s)
	if s == "" {
		return nil
	}
	return &s
}
