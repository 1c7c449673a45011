package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/dberrors"
)

// OccurrenceRepository handles database operations for class occurrences
type OccurrenceRepository struct {
	db *pgxpool.Pool
}

// NewOccurrenceRepository creates a new occurrence repository
func NewOccurrenceRepository(db *pgxpool.Pool) *OccurrenceRepository {
	return &OccurrenceRepository{
		db: db,
	}
}

// ListByCourse retrieves a course's occurrences in date order
func (r *OccurrenceRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.ClassOccurrence, error) {
	query := `
		SELECT id, course_id, date, start_time, duration_minutes,
		       instructor_id, location, is_active, attendance_count, created_at, updated_at
		FROM class_occurrences
		WHERE course_id = $1
		ORDER BY date, start_time
	`

	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occurrences []*models.ClassOccurrence
	for rows.Next() {
		var occ models.ClassOccurrence
		if err := rows.Scan(
			&occ.ID,
			&occ.CourseID,
			&occ.Date,
			&occ.StartTime,
			&occ.DurationMinutes,
			&occ.InstructorID,
			&occ.Location,
			&occ.IsActive,
			&occ.AttendanceCount,
			&occ.CreatedAt,
			&occ.UpdatedAt,
		); err != nil {
			return nil, err
		}
		occurrences = append(occurrences, &occ)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return occurrences, nil
}

// CountWithAttendance returns how many of a course's occurrences carry
// attendance rows. Regeneration is refused while this is nonzero unless
// forced.
func (r *OccurrenceRepository) CountWithAttendance(ctx context.Context, courseID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM class_occurrences WHERE course_id = $1 AND attendance_count > 0`
	if err := r.db.QueryRow(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting occurrences with attendance: %w", err)
	}
	return count, nil
}

// ReplaceForCourse deletes every occurrence owned by the course and inserts
// the given set, all within the caller's transaction. A duplicate
// (date, start_time) pair from a malformed recurrence configuration rolls
// the whole replacement back as ErrUniquenessViolation.
func (r *OccurrenceRepository) ReplaceForCourse(ctx context.Context, tx pgx.Tx, courseID int64, occurrences []*models.ClassOccurrence) (int, error) {
	if _, err := tx.Exec(ctx, `DELETE FROM class_occurrences WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("error clearing occurrences for course %d: %w", courseID, err)
	}

	query := `
		INSERT INTO class_occurrences (
			course_id, date, start_time, duration_minutes, instructor_id, location, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	for _, occ := range occurrences {
		err := tx.QueryRow(ctx, query,
			occ.CourseID, occ.Date, occ.StartTime, occ.DurationMinutes,
			occ.InstructorID, occ.Location, occ.IsActive,
		).Scan(&occ.ID, &occ.CreatedAt, &occ.UpdatedAt)
		if err != nil {
			if dberrors.IsUniqueViolation(err) {
				return 0, apperrors.NewUniquenessError(
					fmt.Sprintf("duplicate occurrence for course %d on %s %s", courseID, occ.Date.Format("2006-01-02"), occ.StartTime))
			}
			return 0, fmt.Errorf("error creating occurrence: %w", err)
		}
	}

	return len(occurrences), nil
}
