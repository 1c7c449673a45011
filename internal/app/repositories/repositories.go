package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	CourseRepository     *CourseRepository
	OccurrenceRepository *OccurrenceRepository
	EnrollmentRepository *EnrollmentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		CourseRepository:     NewCourseRepository(db),
		OccurrenceRepository: NewOccurrenceRepository(db),
		EnrollmentRepository: NewEnrollmentRepository(db),
	}
}
