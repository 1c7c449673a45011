package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/calendar"
)

// Course represents a recurring or single-session offering. Exactly one of
// Weekday/DayOfMonth is populated, determined solely by RepeatPattern;
// Normalize enforces this before the course is persisted or expanded.
type Course struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"` // Nullable

	// Recurrence configuration
	RepeatPattern RepeatPattern `json:"repeatPattern" db:"repeat_pattern"`
	Weekday       *int          `json:"weekday,omitempty" db:"weekday"`           // Monday=0, weekly only
	DayOfMonth    *int          `json:"dayOfMonth,omitempty" db:"day_of_month"`   // 1..31, monthly only

	// Temporal bounds and session shape
	StartDate       time.Time  `json:"startDate" db:"start_date"`
	EndDate         *time.Time `json:"endDate,omitempty" db:"end_date"` // Nullable
	StartTime       string     `json:"startTime" db:"start_time"`       // "15:04"
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes"`

	// Defaults copied onto generated occurrences
	InstructorID *int64  `json:"instructorId,omitempty" db:"instructor_id"`
	Location     *string `json:"location,omitempty" db:"location"`

	// Booking controls
	Vacancy            int        `json:"vacancy" db:"vacancy"`
	IsOnlineBookable   bool       `json:"isOnlineBookable" db:"is_online_bookable"`
	EnrollmentDeadline *time.Time `json:"enrollmentDeadline,omitempty" db:"enrollment_deadline"`

	// Lifecycle (BookableState is a cache of the last evaluation)
	Status        CourseStatus  `json:"status" db:"status"`
	BookableState BookableState `json:"bookableState" db:"bookable_state"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// EffectiveEndDate is the date used for all expiry comparisons:
// EndDate when set, otherwise StartDate.
func (c *Course) EffectiveEndDate() time.Time {
	if c.EndDate != nil {
		return *c.EndDate
	}
	return c.StartDate
}

// Normalize fills pattern-dependent defaults and clears the recurrence field
// that does not belong to the pattern. Single sessions get their end date
// pinned to the start date; weekly courses missing a weekday default it from
// the start date. The expander itself never guesses, so this must run before
// expansion.
func (c *Course) Normalize() {
	switch c.RepeatPattern {
	case RepeatOnce:
		if c.EndDate == nil {
			d := c.StartDate
			c.EndDate = &d
		}
		c.Weekday = nil
		c.DayOfMonth = nil
	case RepeatDaily:
		c.Weekday = nil
		c.DayOfMonth = nil
	case RepeatWeekly:
		if c.Weekday == nil {
			w := calendar.Weekday(c.StartDate)
			c.Weekday = &w
		}
		c.DayOfMonth = nil
	case RepeatMonthly:
		c.Weekday = nil
	}
}

// Validate checks the course's invariants before persistence
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !c.RepeatPattern.Valid() {
		return fmt.Errorf("%w: unknown repeat pattern %q", apperrors.ErrValidationFailed, c.RepeatPattern)
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidationFailed, c.Status)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", apperrors.ErrValidationFailed)
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidationFailed)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", apperrors.ErrValidationFailed)
	}
	if c.Vacancy < 0 {
		return fmt.Errorf("%w: vacancy cannot be negative", apperrors.ErrValidationFailed)
	}
	if _, err := time.Parse("15:04", c.StartTime); err != nil {
		return fmt.Errorf("%w: start time must be HH:MM", apperrors.ErrValidationFailed)
	}
	if c.Weekday != nil && (*c.Weekday < 0 || *c.Weekday > 6) {
		return fmt.Errorf("%w: weekday must be in 0..6", apperrors.ErrValidationFailed)
	}
	if c.DayOfMonth != nil && (*c.DayOfMonth < 1 || *c.DayOfMonth > 31) {
		return fmt.Errorf("%w: day of month must be in 1..31", apperrors.ErrValidationFailed)
	}
	switch c.RepeatPattern {
	case RepeatWeekly:
		if c.DayOfMonth != nil {
			return fmt.Errorf("%w: day of month not allowed for weekly courses", apperrors.ErrValidationFailed)
		}
	case RepeatMonthly:
		if c.Weekday != nil {
			return fmt.Errorf("%w: weekday not allowed for monthly courses", apperrors.ErrValidationFailed)
		}
	default:
		if c.Weekday != nil || c.DayOfMonth != nil {
			return fmt.Errorf("%w: recurrence fields not allowed for %s courses", apperrors.ErrValidationFailed, c.RepeatPattern)
		}
	}
	return nil
}
