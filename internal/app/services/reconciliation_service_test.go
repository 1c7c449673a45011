package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/clock"
)

type reconciliationFixture struct {
	service     *ReconciliationService
	courses     *fakeCourseStore
	enrollments *fakeEnrollmentCounter
	sink        *recordingSink
}

func newReconciliationFixture(today time.Time) *reconciliationFixture {
	f := &reconciliationFixture{
		courses:     newFakeCourseStore(),
		enrollments: &fakeEnrollmentCounter{counts: make(map[int64]int)},
		sink:        &recordingSink{},
	}
	f.service = NewReconciliationService(
		f.courses, f.enrollments, clock.Fixed{Date: today}, f.sink, zerolog.Nop(),
	)
	return f
}

// seed stores a course directly in the fake, bypassing the create flow
func (f *reconciliationFixture) seed(name string, status models.CourseStatus, start time.Time, end *time.Time) *models.Course {
	course := &models.Course{
		Name:             name,
		RepeatPattern:    models.RepeatOnce,
		StartDate:        start,
		EndDate:          end,
		StartTime:        "10:00",
		DurationMinutes:  60,
		Vacancy:          10,
		IsOnlineBookable: true,
		Status:           status,
		BookableState:    models.StateClosed,
	}
	if status == models.StatusPublished {
		course.BookableState = models.StateBookable
	}
	_ = f.courses.Create(context.Background(), course)
	f.courses.courses[course.ID].Status = status
	f.courses.courses[course.ID].BookableState = course.BookableState
	return course
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestUpdateExpiredCourses(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)

	f.seed("Past course", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 9))
	running := f.seed("Running course", models.StatusPublished, date(2025, time.November, 1), datePtr(2025, time.December, 1))
	f.seed("Past draft", models.StatusDraft, date(2025, time.October, 1), datePtr(2025, time.October, 15))

	report, err := f.service.UpdateExpiredCourses(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FoundExpired)
	assert.Equal(t, 1, report.Updated)
	assert.False(t, report.DryRun)
	require.Len(t, report.Courses, 1)
	assert.Equal(t, "Past course", report.Courses[0].Name)
	assert.Equal(t, date(2025, time.November, 9), report.Courses[0].EndDate)

	expired, err := f.courses.GetByID(context.Background(), report.Courses[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, expired.Status)
	assert.Equal(t, models.StateClosed, expired.BookableState)

	untouched, err := f.courses.GetByID(context.Background(), running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, untouched.Status)
}

func TestUpdateExpiredCoursesIsIdempotent(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	f.seed("Past course", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 1))

	first, err := f.service.UpdateExpiredCourses(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := f.service.UpdateExpiredCourses(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FoundExpired)
	assert.Equal(t, 0, second.Updated)
	assert.Len(t, f.sink.events, 1)
}

func TestUpdateExpiredCoursesDryRun(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	course := f.seed("Past course", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 1))

	report, err := f.service.UpdateExpiredCourses(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FoundExpired)
	assert.Equal(t, 0, report.Updated)
	assert.True(t, report.DryRun)

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
	assert.Empty(t, f.sink.events)
}

func TestExpiryFallsBackToStartDate(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	f.seed("One-off yesterday", models.StatusPublished, date(2025, time.November, 9), nil)
	f.seed("One-off today", models.StatusPublished, today, nil)

	report, err := f.service.UpdateExpiredCourses(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FoundExpired)
	require.Len(t, report.Courses, 1)
	assert.Equal(t, "One-off yesterday", report.Courses[0].Name)
}

func TestRunPassRefreshesBookableState(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	course := f.seed("Yoga", models.StatusPublished, today, datePtr(2025, time.December, 1))
	f.enrollments.counts[course.ID] = 10 // vacancy reached

	report, err := f.service.RunPass(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Examined)
	assert.Equal(t, 1, report.Changed)

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
	assert.Equal(t, models.StateFullyBooked, stored.BookableState)
}

func TestRunPassNoChangeIsNoOp(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	f.seed("Yoga", models.StatusPublished, today, datePtr(2025, time.December, 1))

	report, err := f.service.RunPass(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Examined)
	assert.Equal(t, 0, report.Changed)
	assert.Empty(t, f.sink.events)
}

func TestRunPassDryRunCountsWithoutWriting(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	course := f.seed("Past course", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 1))

	report, err := f.service.RunPass(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.True(t, report.DryRun)

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
}

func TestRunPassDefersOnConflict(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	course := f.seed("Past course", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 1))

	// Another writer touched the row after the pass selected it
	f.courses.courses[course.ID].UpdatedAt = f.courses.courses[course.ID].UpdatedAt.Add(time.Minute)

	report, err := f.service.RunPass(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicts)
	assert.Equal(t, 0, report.Changed)
	assert.Empty(t, report.Skipped)
}

func TestApplyIfChangedNeverRevivesExpired(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	course := f.seed("Done deal", models.StatusExpired, today, datePtr(2025, time.December, 1))

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)

	changed, err := f.service.ApplyIfChanged(context.Background(), stored, today, 0)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.StatusExpired, stored.Status)
}

func TestCheckConsistency(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	stale := f.seed("Should be expired", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 1))
	wrong := f.seed("Wrongly expired", models.StatusExpired, today, datePtr(2025, time.December, 1))
	f.seed("Fine", models.StatusPublished, today, datePtr(2025, time.December, 1))

	report, err := f.service.CheckConsistency(context.Background())
	require.NoError(t, err)

	require.Len(t, report.ShouldBeExpired, 1)
	assert.Equal(t, stale.ID, report.ShouldBeExpired[0].ID)
	require.Len(t, report.IncorrectlyExpired, 1)
	assert.Equal(t, wrong.ID, report.IncorrectlyExpired[0].ID)

	// Audit is read-only
	stored, err := f.courses.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
}

func TestBulkUpdateStatus(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	draft := f.seed("Draft", models.StatusDraft, today, datePtr(2025, time.December, 1))
	expired := f.seed("Expired", models.StatusExpired, date(2025, time.October, 1), datePtr(2025, time.October, 20))

	report, err := f.service.BulkUpdateStatus(context.Background(),
		[]int64{draft.ID, expired.ID, 999}, models.StatusPublished, false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRequested)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Skipped, 2)

	reasons := map[int64]string{}
	for _, s := range report.Skipped {
		reasons[s.ID] = s.Reason
	}
	assert.Contains(t, reasons[expired.ID], "not allowed")
	assert.Equal(t, "course not found", reasons[999])

	stored, err := f.courses.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
	assert.Equal(t, models.StateBookable, stored.BookableState)
}

func TestBulkUpdateStatusForceRevivesExpired(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	expired := f.seed("Expired", models.StatusExpired, today, datePtr(2025, time.December, 1))

	report, err := f.service.BulkUpdateStatus(context.Background(),
		[]int64{expired.ID}, models.StatusPublished, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	stored, err := f.courses.GetByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.Status)
}

func TestBulkUpdateStatusRejectsPublishingPastCourse(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	past := f.seed("Past draft", models.StatusDraft, date(2025, time.October, 1), datePtr(2025, time.October, 20))

	report, err := f.service.BulkUpdateStatus(context.Background(),
		[]int64{past.ID}, models.StatusPublished, false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "cannot publish expired course", report.Skipped[0].Reason)
}

func TestBulkUpdateStatusInvalidStatus(t *testing.T) {
	f := newReconciliationFixture(date(2025, time.November, 10))

	_, err := f.service.BulkUpdateStatus(context.Background(), []int64{1}, "archived", false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestGetUpcomingExpiry(t *testing.T) {
	today := date(2025, time.November, 10)
	f := newReconciliationFixture(today)
	soon := f.seed("Ends soon", models.StatusPublished, date(2025, time.November, 1), datePtr(2025, time.November, 14))
	f.seed("Ends later", models.StatusPublished, date(2025, time.November, 1), datePtr(2025, time.December, 20))
	f.seed("Already past", models.StatusPublished, date(2025, time.October, 1), datePtr(2025, time.November, 5))

	courses, err := f.service.GetUpcomingExpiry(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, soon.ID, courses[0].ID)
}

func TestGetUpcomingExpiryRejectsNegativeWindow(t *testing.T) {
	f := newReconciliationFixture(date(2025, time.November, 10))

	_, err := f.service.GetUpcomingExpiry(context.Background(), -1)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
