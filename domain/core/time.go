package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing dates from a source.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
}

// ParseDate parses a calendar date and truncates it to midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// FormatDate renders a date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayOrdinal returns the number of whole days since the Unix epoch.
func DayOrdinal(t time.Time) float64 {
	return float64(t.Unix() / 86400)
}
