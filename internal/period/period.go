// Package period holds the calendar helpers shared by the reminder evaluator
// and the revenue aggregator.
//
// Date-only values are carried as time.Time at midnight UTC so that two
// civil dates can be compared and subtracted without daylight saving shifts.
package period

import (
	"fmt"
	"time"
)

var italianMonths = [...]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"}

// Civil returns the given calendar date at midnight UTC
func Civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day returns the calendar date of t as seen in loc, at midnight UTC
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Civil(y, m, d)
}

// AsDate drops the clock part of t, keeping its own calendar date
func AsDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Civil(y, m, d)
}

// DaysBetween returns the number of whole calendar days from "from" to "to".
// The result is negative when "to" is before "from".
func DaysBetween(from, to time.Time) int {
	return int((AsDate(to).Unix() - AsDate(from).Unix()) / 86400)
}

// AddDays shifts a calendar date by n days
func AddDays(date time.Time, n int) time.Time {
	return AsDate(date).AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD string into a civil date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DayKey formats the calendar date of t as YYYY-MM-DD
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthKey formats the calendar month of t as YYYY-MM
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Quarter returns 1 to 4
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// QuarterKey formats the quarter of t as "Q{n} {year}"
func QuarterKey(t time.Time) string {
	return fmt.Sprintf("Q%d %d", Quarter(t), t.Year())
}

// MonthLabel formats the month of t with the Italian short name, e.g. "gen 2025"
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", italianMonths[t.Month()-1], t.Year())
}

// SameMonth reports whether a and b fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthStart returns the first day of the month of t, at midnight in t's location
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the most recent Sunday at midnight in t's location
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// TrailingMonths returns the first day of each of the last n months,
// oldest first, ending with the month of now.
func TrailingMonths(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := MonthStart(now)
	months := make([]time.Time, n)
	for i := 0; i < n; i++ {
		months[i] = start.AddDate(0, i-(n-1), 0)
	}
	return months
}
