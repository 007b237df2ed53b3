// Package dates parses free-text dates found on disclosure pages.
package dates

import (
	"strings"
	"time"
)

// DefaultLayouts in priority order: numeric slash, ISO, long month.
var DefaultLayouts = []string{
	"1/2/2006",
	"2006-1-2",
	"January 2, 2006",
}

// Parse returns the first layout match for value. A miss is reported as
// ok == false and is not an error.
func Parse(value string, layouts []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePtr is Parse for optional record fields: nil when unparsed.
func ParsePtr(value string, layouts []string) *time.Time {
	t, ok := Parse(value, layouts)
	if !ok {
		return nil
	}
	return &t
}
