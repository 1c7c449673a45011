package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentCounter supplies the confirmed enrollment count for a course.
// Enrollment itself is owned by the enrollment subsystem; only the counting
// surface is consumed here.
type EnrollmentCounter interface {
	ConfirmedCount(ctx context.Context, courseID int64) (int, error)
}

// EnrollmentRepository is the pg-backed EnrollmentCounter
type EnrollmentRepository struct {
	db *pgxpool.Pool
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
	}
}

// ConfirmedCount returns the number of confirmed enrollments for a course
func (r *EnrollmentRepository) ConfirmedCount(ctx context.Context, courseID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = 'confirmed'`
	if err := r.db.QueryRow(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting confirmed enrollments: %w", err)
	}
	return count, nil
}
