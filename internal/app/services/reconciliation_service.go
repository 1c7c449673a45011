package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edupulse/edupulse/internal/app/lifecycle"
	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/app/repositories"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/clock"
)

// ReconciliationStore is the persistence surface of the reconciliation pass
type ReconciliationStore interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error)
	UpdateLifecycleState(ctx context.Context, id int64, status models.CourseStatus, state models.BookableState, expectedUpdatedAt time.Time) error
	SelectExpiredPublished(ctx context.Context, today time.Time) ([]*models.Course, error)
	SelectIncorrectlyExpired(ctx context.Context, today time.Time) ([]*models.Course, error)
	SelectUpcomingExpiry(ctx context.Context, today, until time.Time) ([]*models.Course, error)
	SelectPublished(ctx context.Context) ([]*models.Course, error)
}

// CourseStatusInfo describes one course inside a reconciliation report
type CourseStatusInfo struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	EndDate       time.Time           `json:"endDate"`
	CurrentStatus models.CourseStatus `json:"currentStatus"`
}

// SkippedCourse describes a course a pass could not process, with the reason
type SkippedCourse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ExpiryReport summarizes an expiry sweep
type ExpiryReport struct {
	FoundExpired int                `json:"foundExpired"`
	Updated      int                `json:"updated"`
	Courses      []CourseStatusInfo `json:"courses"`
	Skipped      []SkippedCourse    `json:"skipped,omitempty"`
	DryRun       bool               `json:"dryRun"`
}

// ConsistencyReport is the read-only status audit
type ConsistencyReport struct {
	ShouldBeExpired    []CourseStatusInfo `json:"shouldBeExpired"`
	IncorrectlyExpired []CourseStatusInfo `json:"incorrectlyExpired"`
}

// BulkStatusReport summarizes a bulk status override
type BulkStatusReport struct {
	Updated        int             `json:"updated"`
	Skipped        []SkippedCourse `json:"skipped,omitempty"`
	TotalRequested int             `json:"totalRequested"`
}

// PassReport summarizes a full reconciliation pass
type PassReport struct {
	Examined  int             `json:"examined"`
	Changed   int             `json:"changed"`
	Conflicts int             `json:"conflicts"`
	Skipped   []SkippedCourse `json:"skipped,omitempty"`
	DryRun    bool            `json:"dryRun"`
}

// ReconciliationService keeps every course's status and bookable state
// consistent with calendar time and enrollment counts. All passes are
// idempotent: re-running on unchanged data is a no-op.
type ReconciliationService struct {
	courses     ReconciliationStore
	enrollments repositories.EnrollmentCounter
	clk         clock.Clock
	events      lifecycle.EventSink
	logger      zerolog.Logger
}

// NewReconciliationService creates a new reconciliation service instance
func NewReconciliationService(
	courses ReconciliationStore,
	enrollments repositories.EnrollmentCounter,
	clk clock.Clock,
	events lifecycle.EventSink,
	logger zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		courses:     courses,
		enrollments: enrollments,
		clk:         clk,
		events:      events,
		logger:      logger,
	}
}

// ApplyIfChanged evaluates a course's lifecycle state and persists only the
// fields that differ from the stored values. Status is only ever moved
// forward to expired here; an expired course whose end date was later
// edited into the future is left alone. Returns whether a write happened.
func (s *ReconciliationService) ApplyIfChanged(ctx context.Context, course *models.Course, today time.Time, confirmedCount int) (bool, error) {
	eval := lifecycle.Evaluate(course, today, confirmedCount)
	if !eval.Changed(course) {
		return false, nil
	}

	// Structural guard on top of Evaluate: the automatic path may only
	// follow edges the transition table allows it.
	if !models.CanTransition(course.Status, eval.Status, models.TransitionAutomatic) {
		return false, fmt.Errorf("%w: %s -> %s", apperrors.ErrTransitionNotAllowed, course.Status, eval.Status)
	}

	before := *course
	if err := s.courses.UpdateLifecycleState(ctx, course.ID, eval.Status, eval.BookableState, course.UpdatedAt); err != nil {
		return false, err
	}

	course.Status = eval.Status
	course.BookableState = eval.BookableState
	s.events.Publish(ctx, lifecycle.NewStatusChangeEvent(&before, course))

	return true, nil
}

// UpdateExpiredCourses selects published courses whose effective end date
// has passed and transitions them to expired. In dry-run mode the same
// selection is reported without mutation.
func (s *ReconciliationService) UpdateExpiredCourses(ctx context.Context, dryRun bool) (*ExpiryReport, error) {
	today := s.clk.Today()

	expired, err := s.courses.SelectExpiredPublished(ctx, today)
	if err != nil {
		return nil, err
	}

	report := &ExpiryReport{
		FoundExpired: len(expired),
		Courses:      make([]CourseStatusInfo, 0, len(expired)),
		DryRun:       dryRun,
	}

	for _, course := range expired {
		report.Courses = append(report.Courses, CourseStatusInfo{
			ID:            course.ID,
			Name:          course.Name,
			EndDate:       course.EffectiveEndDate(),
			CurrentStatus: course.Status,
		})

		if dryRun {
			continue
		}

		// Abortable between courses, never mid-course
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		changed, err := s.reconcileCourse(ctx, course, today)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedCourse{ID: course.ID, Name: course.Name, Reason: err.Error()})
			continue
		}
		if changed {
			report.Updated++
			s.logger.Info().Int64("courseId", course.ID).Str("name", course.Name).Msg("Course expired")
		}
	}

	if !dryRun && report.Updated > 0 {
		s.logger.Info().Int("updated", report.Updated).Msg("Expired course sweep complete")
	}

	return report, nil
}

// RunPass applies the lifecycle evaluation across all published courses,
// refreshing both expiry and bookable state. This is the entry point for
// the scheduled daily pass and the manual trigger.
func (s *ReconciliationService) RunPass(ctx context.Context, dryRun bool) (*PassReport, error) {
	today := s.clk.Today()

	courses, err := s.courses.SelectPublished(ctx)
	if err != nil {
		return nil, err
	}

	report := &PassReport{Examined: len(courses), DryRun: dryRun}

	for _, course := range courses {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if dryRun {
			count, err := s.enrollments.ConfirmedCount(ctx, course.ID)
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedCourse{ID: course.ID, Name: course.Name, Reason: err.Error()})
				continue
			}
			if lifecycle.Evaluate(course, today, count).Changed(course) {
				report.Changed++
			}
			continue
		}

		changed, err := s.reconcileCourse(ctx, course, today)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// Picked up again on the next scheduled pass
				report.Conflicts++
				s.logger.Warn().Int64("courseId", course.ID).Msg("Concurrent modification during reconciliation, deferring")
				continue
			}
			report.Skipped = append(report.Skipped, SkippedCourse{ID: course.ID, Name: course.Name, Reason: err.Error()})
			continue
		}
		if changed {
			report.Changed++
		}
	}

	s.logger.Info().
		Int("examined", report.Examined).
		Int("changed", report.Changed).
		Int("conflicts", report.Conflicts).
		Bool("dryRun", dryRun).
		Msg("Reconciliation pass complete")

	return report, nil
}

func (s *ReconciliationService) reconcileCourse(ctx context.Context, course *models.Course, today time.Time) (bool, error) {
	count, err := s.enrollments.ConfirmedCount(ctx, course.ID)
	if err != nil {
		return false, err
	}
	return s.ApplyIfChanged(ctx, course, today, count)
}

// CheckConsistency is the read-only status audit. It always succeeds and
// returns whatever it found; nothing is corrected.
func (s *ReconciliationService) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	today := s.clk.Today()

	shouldBeExpired, err := s.courses.SelectExpiredPublished(ctx, today)
	if err != nil {
		return nil, err
	}

	incorrectlyExpired, err := s.courses.SelectIncorrectlyExpired(ctx, today)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		ShouldBeExpired:    make([]CourseStatusInfo, 0, len(shouldBeExpired)),
		IncorrectlyExpired: make([]CourseStatusInfo, 0, len(incorrectlyExpired)),
	}

	for _, course := range shouldBeExpired {
		report.ShouldBeExpired = append(report.ShouldBeExpired, CourseStatusInfo{
			ID: course.ID, Name: course.Name, EndDate: course.EffectiveEndDate(), CurrentStatus: course.Status,
		})
	}
	for _, course := range incorrectlyExpired {
		report.IncorrectlyExpired = append(report.IncorrectlyExpired, CourseStatusInfo{
			ID: course.ID, Name: course.Name, EndDate: course.EffectiveEndDate(), CurrentStatus: course.Status,
		})
	}

	return report, nil
}

// BulkUpdateStatus is the administrative override. Publishing a course whose
// effective end date has passed is rejected unless force is set; rejected
// courses are skipped with a reason, never partially applied. Force also
// unlocks the expired -> published edge of the transition table.
func (s *ReconciliationService) BulkUpdateStatus(ctx context.Context, ids []int64, newStatus models.CourseStatus, force bool) (*BulkStatusReport, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, newStatus)
	}

	courses, err := s.courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.clk.Today()
	mode := models.TransitionManual
	if force {
		mode = models.TransitionForced
	}

	report := &BulkStatusReport{TotalRequested: len(ids)}

	found := make(map[int64]bool, len(courses))
	for _, course := range courses {
		found[course.ID] = true

		if !models.CanTransition(course.Status, newStatus, mode) {
			report.Skipped = append(report.Skipped, SkippedCourse{
				ID: course.ID, Name: course.Name,
				Reason: fmt.Sprintf("transition %s -> %s not allowed", course.Status, newStatus),
			})
			continue
		}

		if !force && newStatus == models.StatusPublished && course.EffectiveEndDate().Before(today) {
			report.Skipped = append(report.Skipped, SkippedCourse{
				ID: course.ID, Name: course.Name,
				Reason: "cannot publish expired course",
			})
			continue
		}

		count, err := s.enrollments.ConfirmedCount(ctx, course.ID)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedCourse{ID: course.ID, Name: course.Name, Reason: err.Error()})
			continue
		}

		before := *course
		course.Status = newStatus
		state := lifecycle.Evaluate(course, today, count).BookableState

		if err := s.courses.UpdateLifecycleState(ctx, course.ID, newStatus, state, before.UpdatedAt); err != nil {
			course.Status = before.Status
			report.Skipped = append(report.Skipped, SkippedCourse{ID: course.ID, Name: course.Name, Reason: err.Error()})
			continue
		}

		course.BookableState = state
		s.events.Publish(ctx, lifecycle.NewStatusChangeEvent(&before, course))
		report.Updated++
		s.logger.Info().Int64("courseId", course.ID).Str("status", string(newStatus)).Msg("Bulk status update applied")
	}

	for _, id := range ids {
		if !found[id] {
			report.Skipped = append(report.Skipped, SkippedCourse{ID: id, Reason: "course not found"})
		}
	}

	return report, nil
}

// GetUpcomingExpiry returns published courses whose effective end date falls
// within [today, today+daysAhead], for early-warning reporting.
func (s *ReconciliationService) GetUpcomingExpiry(ctx context.Context, daysAhead int) ([]*models.Course, error) {
	if daysAhead < 0 {
		return nil, apperrors.NewBadRequestError("daysAhead cannot be negative")
	}

	today := s.clk.Today()
	until := today.AddDate(0, 0, daysAhead)
	return s.courses.SelectUpcomingExpiry(ctx, today, until)
}
