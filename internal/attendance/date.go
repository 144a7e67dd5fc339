package attendance

import (
	"strings"
	"time"

	"cuadrilla/internal/services"
)

// DateLayout is the calendar-day format stored in the attendance table.
const DateLayout = "2006-01-02"

// Today returns now's calendar day in the server's local time zone.
func Today(now time.Time) string {
	return now.Local().Format(DateLayout)
}

// ResolveDate returns value when it is a valid YYYY-MM-DD day, or the local
// day of now when value is blank.
func ResolveDate(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Today(now), nil
	}
	parsed, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "attendance", "resolve date", "date must be YYYY-MM-DD", err)
	}
	return parsed.Format(DateLayout), nil
}
