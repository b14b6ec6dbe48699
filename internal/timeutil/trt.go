package timeutil

import (
	"time"
)

// TRT is the Turkey time location (UTC+3), the warehouse's local time.
var TRT *time.Location

func init() {
	var err error
	TRT, err = time.LoadLocation("Europe/Istanbul")
	if err != nil {
		// Fallback: create fixed zone if tzdata is not available
		TRT = time.FixedZone("TRT", 3*60*60)
	}
}

// Now returns the current time in TRT
func Now() time.Time {
	return time.Now().In(TRT)
}

// FormatTRT formats a time in TRT using the given layout
func FormatTRT(t time.Time, layout string) string {
	return t.In(TRT).Format(layout)
}

// StartOfDay returns 00:00:00 TRT of the given time's day
func StartOfDay(t time.Time) time.Time {
	local := t.In(TRT)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, TRT)
}

const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02.01.2006 15:04"
)

// ParseSince accepts an RFC3339 timestamp or a DateLayout day, which means
// that day's TRT midnight.
func ParseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(DateLayout, s, TRT)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(day), nil
}
