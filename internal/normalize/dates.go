package normalize

import (
	"fmt"
	"regexp"
	"time"
)

// dateLayouts are tried in order. ISO forms first, then the US formats the
// hauler PDFs actually use.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"02-Jan-2006",
}

// periodLayouts parse explicit billing-period values down to a month.
var periodLayouts = []string{
	"2006-01",
	"01-2006",
	"01/2006",
	"1/2006",
	"January 2006",
	"Jan 2006",
	"Jan-2006",
}

// filenamePeriod matches the _MM-YYYY token embedded in invoice filenames,
// e.g. "greenway_waste_07-2024.pdf".
var filenamePeriod = regexp.MustCompile(`_(\d{2})-(\d{4})`)

// ParseDate normalizes a date string to YYYY-MM-DD. The second return is
// false when no known layout matches.
func ParseDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// ParsePeriod normalizes a billing-period string to YYYY-MM. Full dates are
// accepted and truncated to their month.
func ParsePeriod(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01"), true
		}
	}
	if d, ok := ParseDate(s); ok {
		return d[:7], true
	}
	return "", false
}

// PeriodFromFilename extracts a YYYY-MM billing period from a filename's
// _MM-YYYY token, if present and a plausible month.
func PeriodFromFilename(name string) (string, bool) {
	m := filenamePeriod.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	month, year := m[1], m[2]
	if month < "01" || month > "12" {
		return "", false
	}
	return fmt.Sprintf("%s-%s", year, month), true
}
