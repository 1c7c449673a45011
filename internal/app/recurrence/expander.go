// Package recurrence expands a course's recurrence configuration into the
// ordered, fully materialized sequence of dated session elements.
package recurrence

import (
	"time"

	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/calendar"
)

// Element is one produced session: a date plus the course's session shape,
// carried over unchanged.
type Element struct {
	Date            time.Time
	StartTime       string
	DurationMinutes int
}

// Expand produces the ordered occurrence sequence for a course. It is
// deterministic, never mutates the course, and recomputes from scratch on
// every call. A weekly course without a weekday, or a monthly course without
// a day of month, fails with a ConfigurationError; defaulting those fields
// is the model layer's job, not the expander's.
func Expand(course *models.Course) ([]Element, error) {
	end := course.EffectiveEndDate()

	switch course.RepeatPattern {
	case models.RepeatOnce:
		return []Element{element(course, course.StartDate)}, nil

	case models.RepeatDaily:
		var out []Element
		for d := course.StartDate; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, element(course, d))
		}
		return out, nil

	case models.RepeatWeekly:
		if course.Weekday == nil {
			return nil, apperrors.NewConfigurationError("weekday")
		}
		var out []Element
		for d := calendar.NextOnOrAfter(course.StartDate, *course.Weekday); !d.After(end); d = d.AddDate(0, 0, 7) {
			out = append(out, element(course, d))
		}
		return out, nil

	case models.RepeatMonthly:
		if course.DayOfMonth == nil {
			return nil, apperrors.NewConfigurationError("day_of_month")
		}
		var out []Element
		d := calendar.FirstMonthlyOccurrence(course.StartDate, *course.DayOfMonth)
		for !d.After(end) {
			out = append(out, element(course, d))
			year, month := calendar.NextMonth(d)
			d = calendar.ClampedDayOfMonth(year, month, *course.DayOfMonth)
		}
		return out, nil
	}

	return nil, &apperrors.ConfigurationError{
		Field:   "repeat_pattern",
		Message: "unknown pattern " + string(course.RepeatPattern),
	}
}

func element(course *models.Course, date time.Time) Element {
	return Element{
		Date:            date,
		StartTime:       course.StartTime,
		DurationMinutes: course.DurationMinutes,
	}
}
