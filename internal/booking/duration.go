package booking

import (
	"strings"
	"time"

	"github.com/hongminglow/summitgear/internal/apperr"
)

const (
	dateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns midnight UTC of the
// calendar date as written, in the value's own offset.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, apperr.Validationf("invalid date %q: use YYYY-MM-DD", raw)
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// DurationDays is the billable length of a rental: whole days between the
// dates rounded up, with a same-day rental counting as one day. It is the only
// duration rule used for both quotes and bookings.
func DurationDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, apperr.InvalidDuration("end date must not be before start date")
	}
	days := int((end.Sub(start) + day - 1) / day)
	if days < 1 {
		days = 1
	}
	return days, nil
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, int, error) {
	start, err := ParseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	end, err := ParseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	days, err := DurationDays(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}
	return start, end, days, nil
}
