// Package calendar provides the pure date arithmetic behind recurrence
// expansion: weekday rollover and day-of-month clamping across months of
// varying length. Weekdays are numbered Monday=0 through Sunday=6.
// All functions are total; dates are expected at midnight UTC.
package calendar

import "time"

// Weekday returns the Monday=0 weekday index of a date.
func Weekday(date time.Time) int {
	// time.Weekday has Sunday=0
	return (int(date.Weekday()) + 6) % 7
}

// NextOnOrAfter returns date itself if its weekday already equals
// targetWeekday, otherwise the next date with that weekday, at most
// six days later.
func NextOnOrAfter(date time.Time, targetWeekday int) time.Time {
	diff := (targetWeekday - Weekday(date) + 7) % 7
	return date.AddDate(0, 0, diff)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampedDayOfMonth returns the date with the given day-of-month if it
// exists in that month, otherwise the last valid day of the month
// (day 31 in February yields Feb 28 or 29).
func ClampedDayOfMonth(year int, month time.Month, day int) time.Time {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FirstMonthlyOccurrence returns the first date with the requested
// day-of-month on or after start: the start month when start.Day() does not
// exceed dayOfMonth, otherwise the following month. The day is clamped
// either way.
func FirstMonthlyOccurrence(start time.Time, dayOfMonth int) time.Time {
	year, month := start.Year(), start.Month()
	if start.Day() > dayOfMonth {
		year, month = NextMonth(start)
	}
	return ClampedDayOfMonth(year, month, dayOfMonth)
}

// NextMonth returns the year and month following the month of date,
// rolling December into January of the next year.
func NextMonth(date time.Time) (int, time.Month) {
	if date.Month() == time.December {
		return date.Year() + 1, time.January
	}
	return date.Year(), date.Month() + 1
}
