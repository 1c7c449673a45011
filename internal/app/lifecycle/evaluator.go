// Package lifecycle derives a course's effective status and bookable state
// from its stored fields, the current date, and the confirmed enrollment
// count. Evaluation is pure; persistence of the result lives in the
// reconciliation service.
package lifecycle

import (
	"time"

	"github.com/edupulse/edupulse/internal/app/models"
)

// Evaluation is the derived lifecycle state of a course at a given date.
type Evaluation struct {
	Status        models.CourseStatus
	BookableState models.BookableState
}

// Evaluate computes the status and bookable state a course should hold on
// the given date with the given confirmed enrollment count. It never writes
// and must be called with a caller-supplied today.
//
// Status: draft stays draft, published expires once the effective end date
// has passed, expired never reverses. Bookable state is only meaningful for
// published courses; anything else is closed. The closure rules are ordered
// and the first match wins, so a fully booked course past its enrollment
// deadline reports closed, not fully_booked.
func Evaluate(course *models.Course, today time.Time, confirmedCount int) Evaluation {
	status := course.Status
	if status == models.StatusPublished && course.EffectiveEndDate().Before(today) {
		status = models.StatusExpired
	}

	if status != models.StatusPublished {
		return Evaluation{Status: status, BookableState: models.StateClosed}
	}

	switch {
	case course.EnrollmentDeadline != nil && course.EnrollmentDeadline.Before(today):
		return Evaluation{Status: status, BookableState: models.StateClosed}
	case course.EffectiveEndDate().Before(today):
		return Evaluation{Status: status, BookableState: models.StateClosed}
	case !course.IsOnlineBookable:
		return Evaluation{Status: status, BookableState: models.StateClosed}
	case confirmedCount >= course.Vacancy:
		return Evaluation{Status: status, BookableState: models.StateFullyBooked}
	default:
		return Evaluation{Status: status, BookableState: models.StateBookable}
	}
}

// Changed reports whether the evaluation differs from the course's stored
// status or bookable state.
func (e Evaluation) Changed(course *models.Course) bool {
	return e.Status != course.Status || e.BookableState != course.BookableState
}
