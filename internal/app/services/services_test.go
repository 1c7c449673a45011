package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edupulse/edupulse/internal/app/lifecycle"
	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/db"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
)

// In-memory fakes standing in for the pg-backed repositories. The fake
// course store mimics the updated_at guard so conflict paths are testable.

type fakeCourseStore struct {
	courses map[int64]*models.Course
	nextID  int64
	now     time.Time
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses: make(map[int64]*models.Course),
		nextID:  1,
		now:     time.Date(2025, time.November, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeCourseStore) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeCourseStore) Create(_ context.Context, course *models.Course) error {
	course.ID = f.nextID
	f.nextID++
	course.CreatedAt = f.tick()
	course.UpdatedAt = course.CreatedAt
	copied := *course
	f.courses[course.ID] = &copied
	return nil
}

func (f *fakeCourseStore) GetByID(_ context.Context, id int64) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	copied := *course
	return &copied, nil
}

func (f *fakeCourseStore) GetByIDs(_ context.Context, ids []int64) ([]*models.Course, error) {
	var out []*models.Course
	for _, id := range ids {
		if course, ok := f.courses[id]; ok {
			copied := *course
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCourseStore) List(_ context.Context, offset uint64, limit int) ([]*models.Course, int64, error) {
	all := f.sorted()
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (f *fakeCourseStore) Update(_ context.Context, course *models.Course, expectedUpdatedAt time.Time) error {
	existing, ok := f.courses[course.ID]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	if !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return apperrors.NewConflictError(fmt.Sprintf("course %d was modified concurrently", course.ID))
	}
	course.UpdatedAt = f.tick()
	copied := *course
	f.courses[course.ID] = &copied
	return nil
}

func (f *fakeCourseStore) UpdateLifecycleState(_ context.Context, id int64, status models.CourseStatus, state models.BookableState, expectedUpdatedAt time.Time) error {
	existing, ok := f.courses[id]
	if !ok {
		return apperrors.ErrCourseNotFound
	}
	if !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return apperrors.NewConflictError(fmt.Sprintf("course %d was modified concurrently", id))
	}
	existing.Status = status
	existing.BookableState = state
	existing.UpdatedAt = f.tick()
	return nil
}

func (f *fakeCourseStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseStore) SelectExpiredPublished(_ context.Context, today time.Time) ([]*models.Course, error) {
	return f.filter(func(c *models.Course) bool {
		return c.Status == models.StatusPublished && c.EffectiveEndDate().Before(today)
	}), nil
}

func (f *fakeCourseStore) SelectIncorrectlyExpired(_ context.Context, today time.Time) ([]*models.Course, error) {
	return f.filter(func(c *models.Course) bool {
		return c.Status == models.StatusExpired && !c.EffectiveEndDate().Before(today)
	}), nil
}

func (f *fakeCourseStore) SelectUpcomingExpiry(_ context.Context, today, until time.Time) ([]*models.Course, error) {
	return f.filter(func(c *models.Course) bool {
		end := c.EffectiveEndDate()
		return c.Status == models.StatusPublished && !end.Before(today) && !end.After(until)
	}), nil
}

func (f *fakeCourseStore) SelectPublished(_ context.Context) ([]*models.Course, error) {
	return f.filter(func(c *models.Course) bool {
		return c.Status == models.StatusPublished
	}), nil
}

func (f *fakeCourseStore) filter(keep func(*models.Course) bool) []*models.Course {
	var out []*models.Course
	for _, course := range f.sorted() {
		if keep(course) {
			out = append(out, course)
		}
	}
	return out
}

func (f *fakeCourseStore) sorted() []*models.Course {
	ids := make([]int64, 0, len(f.courses))
	for id := range f.courses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*models.Course, 0, len(ids))
	for _, id := range ids {
		copied := *f.courses[id]
		out = append(out, &copied)
	}
	return out
}

type fakeOccurrenceStore struct {
	byCourse map[int64][]*models.ClassOccurrence
	nextID   int64
}

func newFakeOccurrenceStore() *fakeOccurrenceStore {
	return &fakeOccurrenceStore{
		byCourse: make(map[int64][]*models.ClassOccurrence),
		nextID:   1,
	}
}

func (f *fakeOccurrenceStore) ListByCourse(_ context.Context, courseID int64) ([]*models.ClassOccurrence, error) {
	return f.byCourse[courseID], nil
}

func (f *fakeOccurrenceStore) CountWithAttendance(_ context.Context, courseID int64) (int, error) {
	count := 0
	for _, occ := range f.byCourse[courseID] {
		if occ.AttendanceCount > 0 {
			count++
		}
	}
	return count, nil
}

func (f *fakeOccurrenceStore) ReplaceForCourse(_ context.Context, _ pgx.Tx, courseID int64, occurrences []*models.ClassOccurrence) (int, error) {
	// Atomic like the real thing: a duplicate leaves the stored set untouched
	seen := make(map[string]bool, len(occurrences))
	for _, occ := range occurrences {
		key := occ.Date.Format("2006-01-02") + " " + occ.StartTime
		if seen[key] {
			return 0, apperrors.NewUniquenessError(
				fmt.Sprintf("duplicate occurrence for course %d on %s", courseID, key))
		}
		seen[key] = true
	}

	stored := make([]*models.ClassOccurrence, len(occurrences))
	for i, occ := range occurrences {
		copied := *occ
		copied.ID = f.nextID
		f.nextID++
		occ.ID = copied.ID
		stored[i] = &copied
	}
	f.byCourse[courseID] = stored
	return len(stored), nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

type fakeEnrollmentCounter struct {
	counts map[int64]int
	err    error
}

func (f *fakeEnrollmentCounter) ConfirmedCount(_ context.Context, courseID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[courseID], nil
}

type recordingSink struct {
	events []lifecycle.StatusChangeEvent
}

func (s *recordingSink) Publish(_ context.Context, event lifecycle.StatusChangeEvent) {
	s.events = append(s.events, event)
}
