package dto

import (
	"fmt"
	"time"

	"github.com/edupulse/edupulse/internal/app/models"
)

const dateLayout = "2006-01-02"

// CourseRequest represents the payload for creating or updating a course.
// Dates use the YYYY-MM-DD layout; start time uses HH:MM.
type CourseRequest struct {
	Name               string  `json:"name" binding:"required"`
	Description        *string `json:"description,omitempty"`
	RepeatPattern      string  `json:"repeatPattern" binding:"required,oneof=once daily weekly monthly"`
	Weekday            *int    `json:"weekday,omitempty" binding:"omitempty,min=0,max=6"`
	DayOfMonth         *int    `json:"dayOfMonth,omitempty" binding:"omitempty,min=1,max=31"`
	StartDate          string  `json:"startDate" binding:"required"`
	EndDate            *string `json:"endDate,omitempty"`
	StartTime          string  `json:"startTime" binding:"required"`
	DurationMinutes    int     `json:"durationMinutes" binding:"required,min=1"`
	InstructorID       *int64  `json:"instructorId,omitempty"`
	Location           *string `json:"location,omitempty"`
	Vacancy            int     `json:"vacancy" binding:"min=0"`
	IsOnlineBookable   bool    `json:"isOnlineBookable"`
	EnrollmentDeadline *string `json:"enrollmentDeadline,omitempty"`
}

// ToModel converts the request into a course model, parsing its dates
func (r *CourseRequest) ToModel() (*models.Course, error) {
	startDate, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:             r.Name,
		Description:      r.Description,
		RepeatPattern:    models.RepeatPattern(r.RepeatPattern),
		Weekday:          r.Weekday,
		DayOfMonth:       r.DayOfMonth,
		StartDate:        startDate,
		StartTime:        r.StartTime,
		DurationMinutes:  r.DurationMinutes,
		InstructorID:     r.InstructorID,
		Location:         r.Location,
		Vacancy:          r.Vacancy,
		IsOnlineBookable: r.IsOnlineBookable,
	}

	if r.EndDate != nil {
		endDate, err := parseDate("endDate", *r.EndDate)
		if err != nil {
			return nil, err
		}
		course.EndDate = &endDate
	}

	if r.EnrollmentDeadline != nil {
		deadline, err := parseDate("enrollmentDeadline", *r.EnrollmentDeadline)
		if err != nil {
			return nil, err
		}
		course.EnrollmentDeadline = &deadline
	}

	return course, nil
}

func parseDate(field, value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must use the %s format: %w", field, dateLayout, err)
	}
	return parsed, nil
}

// CourseResponse represents a course in API responses
type CourseResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Description        *string `json:"description,omitempty"`
	RepeatPattern      string  `json:"repeatPattern"`
	Weekday            *int    `json:"weekday,omitempty"`
	DayOfMonth         *int    `json:"dayOfMonth,omitempty"`
	StartDate          string  `json:"startDate"`
	EndDate            *string `json:"endDate,omitempty"`
	EffectiveEndDate   string  `json:"effectiveEndDate"`
	StartTime          string  `json:"startTime"`
	DurationMinutes    int     `json:"durationMinutes"`
	InstructorID       *int64  `json:"instructorId,omitempty"`
	Location           *string `json:"location,omitempty"`
	Vacancy            int     `json:"vacancy"`
	IsOnlineBookable   bool    `json:"isOnlineBookable"`
	EnrollmentDeadline *string `json:"enrollmentDeadline,omitempty"`
	Status             string  `json:"status"`
	BookableState      string  `json:"bookableState"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// FromCourse converts a course model to a CourseResponse
func FromCourse(course *models.Course) CourseResponse {
	if course == nil {
		return CourseResponse{}
	}

	resp := CourseResponse{
		ID:               course.ID,
		Name:             course.Name,
		Description:      course.Description,
		RepeatPattern:    string(course.RepeatPattern),
		Weekday:          course.Weekday,
		DayOfMonth:       course.DayOfMonth,
		StartDate:        course.StartDate.Format(dateLayout),
		EffectiveEndDate: course.EffectiveEndDate().Format(dateLayout),
		StartTime:        course.StartTime,
		DurationMinutes:  course.DurationMinutes,
		InstructorID:     course.InstructorID,
		Location:         course.Location,
		Vacancy:          course.Vacancy,
		IsOnlineBookable: course.IsOnlineBookable,
		Status:           string(course.Status),
		BookableState:    string(course.BookableState),
		CreatedAt:        course.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        course.UpdatedAt.Format(time.RFC3339),
	}

	if course.EndDate != nil {
		formatted := course.EndDate.Format(dateLayout)
		resp.EndDate = &formatted
	}
	if course.EnrollmentDeadline != nil {
		formatted := course.EnrollmentDeadline.Format(dateLayout)
		resp.EnrollmentDeadline = &formatted
	}

	return resp
}

// CourseListResponse represents the response for a list of courses with pagination
type CourseListResponse struct {
	Courses    []CourseResponse `json:"courses"`
	Pagination PaginationInfo   `json:"pagination"`
}

// OccurrenceResponse represents one generated class session
type OccurrenceResponse struct {
	ID              int64   `json:"id"`
	CourseID        int64   `json:"courseId"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	DurationMinutes int     `json:"durationMinutes"`
	InstructorID    *int64  `json:"instructorId,omitempty"`
	Location        *string `json:"location,omitempty"`
	IsActive        bool    `json:"isActive"`
	AttendanceCount int     `json:"attendanceCount"`
}

// FromOccurrence converts a class occurrence model to an OccurrenceResponse
func FromOccurrence(occ *models.ClassOccurrence) OccurrenceResponse {
	if occ == nil {
		return OccurrenceResponse{}
	}
	return OccurrenceResponse{
		ID:              occ.ID,
		CourseID:        occ.CourseID,
		Date:            occ.Date.Format(dateLayout),
		StartTime:       occ.StartTime,
		DurationMinutes: occ.DurationMinutes,
		InstructorID:    occ.InstructorID,
		Location:        occ.Location,
		IsActive:        occ.IsActive,
		AttendanceCount: occ.AttendanceCount,
	}
}

// OccurrenceListResponse represents a course's generated sessions
type OccurrenceListResponse struct {
	CourseID    int64                `json:"courseId"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// RegenerateResponse reports the outcome of an occurrence regeneration
type RegenerateResponse struct {
	CourseID           int64 `json:"courseId"`
	OccurrencesCreated int   `json:"occurrencesCreated"`
}
