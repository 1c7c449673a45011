package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
)

const courseColumns = `
	id, name, description, repeat_pattern, weekday, day_of_month,
	start_date, end_date, start_time, duration_minutes,
	instructor_id, location, vacancy, is_online_bookable, enrollment_deadline,
	status, bookable_state, created_at, updated_at
	`

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID,
		&course.Name,
		&course.Description,
		&course.RepeatPattern,
		&course.Weekday,
		&course.DayOfMonth,
		&course.StartDate,
		&course.EndDate,
		&course.StartTime,
		&course.DurationMinutes,
		&course.InstructorID,
		&course.Location,
		&course.Vacancy,
		&course.IsOnlineBookable,
		&course.EnrollmentDeadline,
		&course.Status,
		&course.BookableState,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func collectCourses(rows pgx.Rows) ([]*models.Course, error) {
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

// Create creates a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (
			name, description, repeat_pattern, weekday, day_of_month,
			start_date, end_date, start_time, duration_minutes,
			instructor_id, location, vacancy, is_online_bookable, enrollment_deadline,
			status, bookable_state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		course.Name, course.Description, course.RepeatPattern, course.Weekday, course.DayOfMonth,
		course.StartDate, course.EndDate, course.StartTime, course.DurationMinutes,
		course.InstructorID, course.Location, course.Vacancy, course.IsOnlineBookable, course.EnrollmentDeadline,
		course.Status, course.BookableState,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating course: %w", err)
	}

	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT` + courseColumns + `FROM courses WHERE id = $1`

	course, err := scanCourse(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return course, nil
}

// GetByIDs retrieves the courses with the given ids, in id order
func (r *CourseRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Course, error) {
	query := `SELECT` + courseColumns + `FROM courses WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// List retrieves courses ordered by start date, newest first
func (r *CourseRepository) List(ctx context.Context, offset uint64, limit int) ([]*models.Course, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + courseColumns + `FROM courses ORDER BY start_date DESC, id DESC OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	courses, err := collectCourses(rows)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// Update rewrites a course's editable fields. The update is guarded by the
// expected updated_at: a concurrent writer that touched the row first makes
// this call fail with ErrConflict instead of silently winning.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, expectedUpdatedAt time.Time) error {
	query := `
		UPDATE courses SET
			name = $2, description = $3, repeat_pattern = $4, weekday = $5, day_of_month = $6,
			start_date = $7, end_date = $8, start_time = $9, duration_minutes = $10,
			instructor_id = $11, location = $12, vacancy = $13, is_online_bookable = $14,
			enrollment_deadline = $15, updated_at = NOW()
		WHERE id = $1 AND updated_at = $16
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		course.ID,
		course.Name, course.Description, course.RepeatPattern, course.Weekday, course.DayOfMonth,
		course.StartDate, course.EndDate, course.StartTime, course.DurationMinutes,
		course.InstructorID, course.Location, course.Vacancy, course.IsOnlineBookable,
		course.EnrollmentDeadline,
		expectedUpdatedAt,
	).Scan(&course.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.conflictOrNotFound(ctx, course.ID)
		}
		return fmt.Errorf("error updating course: %w", err)
	}

	return nil
}

// UpdateLifecycleState persists a new status and bookable state, guarded by
// the expected updated_at like Update.
func (r *CourseRepository) UpdateLifecycleState(ctx context.Context, id int64, status models.CourseStatus, state models.BookableState, expectedUpdatedAt time.Time) error {
	query := `
		UPDATE courses SET status = $2, bookable_state = $3, updated_at = NOW()
		WHERE id = $1 AND updated_at = $4
	`

	tag, err := r.db.Exec(ctx, query, id, status, state, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("error updating course lifecycle state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.conflictOrNotFound(ctx, id)
	}

	return nil
}

// Delete removes a course; its occurrences cascade
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// SelectExpiredPublished returns published courses whose effective end date
// has passed the given date.
func (r *CourseRepository) SelectExpiredPublished(ctx context.Context, today time.Time) ([]*models.Course, error) {
	query := `SELECT` + courseColumns + `
		FROM courses
		WHERE status = 'published' AND COALESCE(end_date, start_date) < $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, today)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// SelectIncorrectlyExpired returns expired courses whose effective end date
// is on or after the given date. Possible only when a course was edited
// after expiring; reported, never auto-corrected.
func (r *CourseRepository) SelectIncorrectlyExpired(ctx context.Context, today time.Time) ([]*models.Course, error) {
	query := `SELECT` + courseColumns + `
		FROM courses
		WHERE status = 'expired' AND COALESCE(end_date, start_date) >= $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, today)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// SelectUpcomingExpiry returns published courses whose effective end date
// falls within [today, until].
func (r *CourseRepository) SelectUpcomingExpiry(ctx context.Context, today, until time.Time) ([]*models.Course, error) {
	query := `SELECT` + courseColumns + `
		FROM courses
		WHERE status = 'published'
		  AND COALESCE(end_date, start_date) >= $1
		  AND COALESCE(end_date, start_date) <= $2
		ORDER BY COALESCE(end_date, start_date), id`

	rows, err := r.db.Query(ctx, query, today, until)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// SelectPublished returns all published courses, for the full reconciliation sweep
func (r *CourseRepository) SelectPublished(ctx context.Context) ([]*models.Course, error) {
	query := `SELECT` + courseColumns + `FROM courses WHERE status = 'published' ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

// conflictOrNotFound distinguishes a missing row from a stale updated_at guard
func (r *CourseRepository) conflictOrNotFound(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("error checking course existence: %w", err)
	}
	if !exists {
		return apperrors.ErrCourseNotFound
	}
	return apperrors.NewConflictError(fmt.Sprintf("course %d was modified concurrently", id))
}
