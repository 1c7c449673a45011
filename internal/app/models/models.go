package models

// RepeatPattern defines how a course's sessions recur
type RepeatPattern string

// Repeat pattern constants
const (
	RepeatOnce    RepeatPattern = "once"
	RepeatDaily   RepeatPattern = "daily"
	RepeatWeekly  RepeatPattern = "weekly"
	RepeatMonthly RepeatPattern = "monthly"
)

// Valid reports whether the pattern is one of the known values
func (p RepeatPattern) Valid() bool {
	switch p {
	case RepeatOnce, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// CourseStatus is the editorial lifecycle status of a course
type CourseStatus string

// Course status constants
const (
	StatusDraft     CourseStatus = "draft"
	StatusPublished CourseStatus = "published"
	StatusExpired   CourseStatus = "expired"
)

// Valid reports whether the status is one of the known values
func (s CourseStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusExpired:
		return true
	}
	return false
}

// BookableState is the derived public enrollability of a course. It is a
// cache of the last lifecycle evaluation, never independently authoritative.
type BookableState string

// Bookable state constants
const (
	StateBookable    BookableState = "bookable"
	StateFullyBooked BookableState = "fully_booked"
	StateClosed      BookableState = "closed"
)
