package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edupulse/edupulse/internal/app/lifecycle"
	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/app/recurrence"
	"github.com/edupulse/edupulse/internal/app/repositories"
	"github.com/edupulse/edupulse/internal/db"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/clock"
)

// CourseStore is the persistence surface the course service needs
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, offset uint64, limit int) ([]*models.Course, int64, error)
	Update(ctx context.Context, course *models.Course, expectedUpdatedAt time.Time) error
	UpdateLifecycleState(ctx context.Context, id int64, status models.CourseStatus, state models.BookableState, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

// OccurrenceStore is the persistence surface for class occurrences
type OccurrenceStore interface {
	ListByCourse(ctx context.Context, courseID int64) ([]*models.ClassOccurrence, error)
	CountWithAttendance(ctx context.Context, courseID int64) (int, error)
	ReplaceForCourse(ctx context.Context, tx pgx.Tx, courseID int64, occurrences []*models.ClassOccurrence) (int, error)
}

// TransactionRunner executes a function within a database transaction
type TransactionRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// CourseService handles course CRUD and occurrence regeneration
type CourseService struct {
	courses     CourseStore
	occurrences OccurrenceStore
	tx          TransactionRunner
	enrollments repositories.EnrollmentCounter
	clk         clock.Clock
	events      lifecycle.EventSink
	logger      zerolog.Logger
}

// NewCourseService creates a new course service instance
func NewCourseService(
	courses CourseStore,
	occurrences OccurrenceStore,
	tx TransactionRunner,
	enrollments repositories.EnrollmentCounter,
	clk clock.Clock,
	events lifecycle.EventSink,
	logger zerolog.Logger,
) *CourseService {
	return &CourseService{
		courses:     courses,
		occurrences: occurrences,
		tx:          tx,
		enrollments: enrollments,
		clk:         clk,
		events:      events,
		logger:      logger,
	}
}

// CreateCourse persists a new course in draft and generates its occurrences
func (s *CourseService) CreateCourse(ctx context.Context, course *models.Course) error {
	course.Status = models.StatusDraft
	course.BookableState = models.StateClosed
	course.Normalize()

	if err := course.Validate(); err != nil {
		return err
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return err
	}

	created, err := s.regenerate(ctx, course, false)
	if err != nil {
		return fmt.Errorf("course %d created but occurrence generation failed: %w", course.ID, err)
	}

	s.logger.Info().Int64("courseId", course.ID).Int("occurrences", created).Msg("Course created")
	return nil
}

// GetCourse retrieves a course by id
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// ListCourses retrieves a page of courses with the total count
func (s *CourseService) ListCourses(ctx context.Context, offset uint64, limit int) ([]*models.Course, int64, error) {
	return s.courses.List(ctx, offset, limit)
}

// UpdateCourse rewrites a course's recurrence configuration and booking
// controls, then regenerates its occurrences. Status and bookable state are
// not editable here; they move through Publish and the reconciliation
// service. Force pushes the regeneration through an attendance guard.
func (s *CourseService) UpdateCourse(ctx context.Context, course *models.Course, force bool) error {
	existing, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return err
	}

	course.Status = existing.Status
	course.BookableState = existing.BookableState
	course.Normalize()

	if err := course.Validate(); err != nil {
		return err
	}

	if err := s.courses.Update(ctx, course, existing.UpdatedAt); err != nil {
		return err
	}

	created, err := s.regenerate(ctx, course, force)
	if err != nil {
		return fmt.Errorf("course %d updated but occurrence regeneration failed: %w", course.ID, err)
	}

	s.logger.Info().Int64("courseId", course.ID).Int("occurrences", created).Msg("Course updated")
	return nil
}

// DeleteCourse removes a course and its occurrences
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	return s.courses.Delete(ctx, id)
}

// GetOccurrences lists a course's stored occurrences
func (s *CourseService) GetOccurrences(ctx context.Context, courseID int64) ([]*models.ClassOccurrence, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.occurrences.ListByCourse(ctx, courseID)
}

// RegenerateOccurrences is the manual trigger used after an administrative
// edit to recurrence fields. Returns the number of occurrences created.
func (s *CourseService) RegenerateOccurrences(ctx context.Context, courseID int64, force bool) (int, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return s.regenerate(ctx, course, force)
}

// regenerate replaces a course's occurrence set with a fresh expansion of
// its recurrence configuration, atomically: the delete and every insert
// share one transaction, so a failed insert leaves the previous set intact.
func (s *CourseService) regenerate(ctx context.Context, course *models.Course, force bool) (int, error) {
	// Never persisted, nothing to regenerate
	if course.ID == 0 {
		return 0, nil
	}

	if !force {
		withAttendance, err := s.occurrences.CountWithAttendance(ctx, course.ID)
		if err != nil {
			return 0, err
		}
		if withAttendance > 0 {
			return 0, fmt.Errorf("%w: course %d has %d occurrences with attendance, regeneration requires force",
				apperrors.ErrOccurrencesInUse, course.ID, withAttendance)
		}
	}

	elements, err := recurrence.Expand(course)
	if err != nil {
		return 0, err
	}

	occurrences := make([]*models.ClassOccurrence, len(elements))
	for i, e := range elements {
		occurrences[i] = &models.ClassOccurrence{
			CourseID:        course.ID,
			Date:            e.Date,
			StartTime:       e.StartTime,
			DurationMinutes: e.DurationMinutes,
			InstructorID:    course.InstructorID,
			Location:        course.Location,
			IsActive:        true,
		}
	}

	var created int
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var replaceErr error
		created, replaceErr = s.occurrences.ReplaceForCourse(ctx, tx, course.ID, occurrences)
		return replaceErr
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// PublishCourse moves a draft course to published and derives its initial
// bookable state. Publishing a course whose effective end date has already
// passed is rejected; forcing that through goes via the bulk status
// endpoint.
func (s *CourseService) PublishCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(course.Status, models.StatusPublished, models.TransitionManual) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrTransitionNotAllowed, course.Status, models.StatusPublished)
	}

	today := s.clk.Today()
	if course.EffectiveEndDate().Before(today) {
		return nil, apperrors.NewBadRequestError(
			fmt.Sprintf("cannot publish course %d: effective end date %s has passed", id, course.EffectiveEndDate().Format("2006-01-02")))
	}

	count, err := s.enrollments.ConfirmedCount(ctx, id)
	if err != nil {
		return nil, err
	}

	before := *course
	course.Status = models.StatusPublished
	eval := lifecycle.Evaluate(course, today, count)
	course.BookableState = eval.BookableState

	if err := s.courses.UpdateLifecycleState(ctx, id, course.Status, course.BookableState, before.UpdatedAt); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, lifecycle.NewStatusChangeEvent(&before, course))
	s.logger.Info().Int64("courseId", id).Str("bookableState", string(course.BookableState)).Msg("Course published")
	return course, nil
}

// IsNotFound reports whether the error marks a missing course
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrCourseNotFound) || errors.Is(err, apperrors.ErrResourceNotFound)
}
