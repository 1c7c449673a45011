package models

import "time"

// ClassOccurrence is one concrete dated session generated from a course's
// recurrence pattern. The full set for a course is replaced atomically on
// regeneration; (course_id, date, start_time) is unique.
type ClassOccurrence struct {
	ID              int64     `json:"id" db:"id"`
	CourseID        int64     `json:"courseId" db:"course_id"`
	Date            time.Time `json:"date" db:"date"`
	StartTime       string    `json:"startTime" db:"start_time"` // "15:04"
	DurationMinutes int       `json:"durationMinutes" db:"duration_minutes"`

	// Per-occurrence overrides, defaulted from the course at generation time
	InstructorID *int64  `json:"instructorId,omitempty" db:"instructor_id"`
	Location     *string `json:"location,omitempty" db:"location"`

	IsActive bool `json:"isActive" db:"is_active"`

	// AttendanceCount mirrors dependent attendance rows; regeneration is
	// refused while it is nonzero unless forced.
	AttendanceCount int `json:"attendanceCount" db:"attendance_count"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
