package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Date formats seen in surgical-case exports. The electronic chart system
// writes yyyy/mm/dd; ISO and time-suffixed spellings show up in files that
// passed through Excel.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"20060102",
	"2006年1月2日",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// ParseDate parses a surgery-date cell. Empty input yields (nil, nil).
// A non-empty value that matches no known format is an error: a malformed
// date almost always means a corrupted export, so it must not silently
// become absent the way a malformed age does.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}
