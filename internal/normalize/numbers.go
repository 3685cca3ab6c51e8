package normalize

import (
	"regexp"
	"strconv"
)

var digitRun = regexp.MustCompile(`\d+`)

// LenientInt extracts the first run of decimal digits anywhere in the
// string and parses it, so "約20歳" and "30 才" both yield the number.
// Empty input or input without digits yields nil. Never fails.
func LenientInt(s string) *int32 {
	m := digitRun.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.ParseInt(m, 10, 32)
	if err != nil {
		// Digit run too long for int32; treat as absent.
		return nil
	}
	v := int32(n)
	return &v
}
