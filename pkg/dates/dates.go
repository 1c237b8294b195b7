package dates

import (
	"fmt"
	"time"
)

// DayLayout is the DD-MM-YYYY calendar format used across the API surface.
const DayLayout = "02-01-2006"

// ClockLayout renders serving-window boundaries for display.
const ClockLayout = "15:04"

// ParseDay strictly parses a DD-MM-YYYY string in the given location and
// returns the start of that day. Out-of-range components are rejected.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(DayLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected DD-MM-YYYY): %w", value, err)
	}
	return parsed, nil
}

// DayStart truncates the timestamp to midnight in its location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayStartUnix parses a DD-MM-YYYY string and returns the day-start epoch.
func DayStartUnix(value string, loc *time.Location) (int64, error) {
	day, err := ParseDay(value, loc)
	if err != nil {
		return 0, err
	}
	return day.Unix(), nil
}

// FormatDay renders a timestamp as DD-MM-YYYY in its location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// FormatClock renders an epoch's time-of-day as HH:mm in the given location.
func FormatClock(unix int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(unix, 0).In(loc).Format(ClockLayout)
}

// OnDay maps the time-of-day component of the window epoch onto the given
// calendar day. Menu configurations store their serving windows as full
// timestamps whose date part is irrelevant.
func OnDay(windowUnix int64, day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	w := time.Unix(windowUnix, 0).In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), w.Hour(), w.Minute(), w.Second(), 0, loc)
}

// SameDay reports whether both timestamps fall on one calendar day in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
