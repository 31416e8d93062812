package opensea

import (
	"fmt"
	"time"
)

const naiveLayout = "2006-01-02T15:04:05"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp such as
// "2021-08-28T09:44:43.664713" or "2021-08-28T09:44:43+00:00".
// Timestamps without a zone are taken as UTC.
func ParseTimestamp(date string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid iso timestamp %q", date)
}

// ParseNaiveTimestamp accepts exactly "2021-08-28T09:44:43": no fraction, no zone.
func ParseNaiveTimestamp(date string) (time.Time, error) {
	if len(date) != len(naiveLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q does not match %s", date, naiveLayout)
	}
	return time.Parse(naiveLayout, date)
}
