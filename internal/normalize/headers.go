package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

var headerGlyphs = strings.NewReplacer(
	"　", " ", // ideographic space
	"（", "(",
	"）", ")",
)

// Header canonicalizes one CSV header cell: trim, full-width space and
// parentheses to their half-width forms, whitespace runs collapsed to one
// space. Hospital exports are hand-touched in Excel often enough that the
// same column arrives with either bracket width.
func Header(s string) string {
	s = headerGlyphs.Replace(strings.TrimSpace(s))
	return multiSpace.ReplaceAllString(s, " ")
}
