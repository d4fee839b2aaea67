package shared

import (
	"fmt"
	"time"
)

// vnLocation is Asia/Ho_Chi_Minh (UTC+7, no DST). Loaded once; the fixed
// fallback keeps date math working on hosts without tzdata.
var vnLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}()

// VietnamDayBounds returns the UTC start (inclusive) and end (exclusive) of
// the Vietnam-local calendar day containing t.
func VietnamDayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(vnLocation)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, vnLocation)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// VietnamMonthBounds returns the UTC start (inclusive) and end (exclusive)
// of the Vietnam-local calendar month containing t.
func VietnamMonthBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(vnLocation)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, vnLocation)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

// ParseVietnamDate parses a YYYY-MM-DD string as a Vietnam-local date and
// returns the UTC bounds of that day.
func ParseVietnamDate(value string) (time.Time, time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02", value, vnLocation)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, value)
	}
	start, end := VietnamDayBounds(parsed)
	return start, end, nil
}
