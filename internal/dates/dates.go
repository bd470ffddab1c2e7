package dates

import (
	"fmt"
	"regexp"
	"time"
)

// ISO is the calendar-date layout used throughout the planner.
// Dates are pure calendar dates: no time of day, no time zone.
const ISO = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Day is one day of a displayed week with its presentation labels.
type Day struct {
	DateISO       string
	WeekdayShort  string
	MonthDayLabel string
	FullLabel     string
}

// IsISODate reports whether s has the YYYY-MM-DD shape.
func IsISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// ToISO formats a date as YYYY-MM-DD.
func ToISO(t time.Time) string {
	return t.Format(ISO)
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISO, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t, nil
}

// WeekStart returns the Monday on or before t. A Sunday maps six days back.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return t.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday ending the week that starts at start.
func WeekEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 6)
}

// ShiftWeek moves a week start by n whole weeks. Negative n moves backwards.
func ShiftWeek(start time.Time, n int) time.Time {
	return start.AddDate(0, 0, 7*n)
}

// WeekDays enumerates the seven days of the week starting at start, in order,
// with display labels attached.
func WeekDays(start time.Time) []Day {
	days := make([]Day, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = Day{
			DateISO:       ToISO(d),
			WeekdayShort:  d.Format("Mon"),
			MonthDayLabel: d.Format("Jan 2"),
			FullLabel:     d.Format("Monday, January 2"),
		}
	}
	return days
}

// FormatWeekRange renders a week as "Jan 2, 2006 - Jan 8, 2006".
func FormatWeekRange(start time.Time) string {
	const layout = "Jan 2, 2006"
	return start.Format(layout) + " - " + WeekEnd(start).Format(layout)
}
