package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/edupulse/internal/app/lifecycle"
	"github.com/edupulse/edupulse/internal/app/models"
	"github.com/edupulse/edupulse/internal/pkg/apperrors"
	"github.com/edupulse/edupulse/internal/pkg/clock"
)

type courseServiceFixture struct {
	service     *CourseService
	courses     *fakeCourseStore
	occurrences *fakeOccurrenceStore
	enrollments *fakeEnrollmentCounter
	sink        *recordingSink
	clk         clock.Fixed
}

func newCourseServiceFixture(today time.Time) *courseServiceFixture {
	f := &courseServiceFixture{
		courses:     newFakeCourseStore(),
		occurrences: newFakeOccurrenceStore(),
		enrollments: &fakeEnrollmentCounter{counts: make(map[int64]int)},
		sink:        &recordingSink{},
		clk:         clock.Fixed{Date: today},
	}
	f.service = NewCourseService(
		f.courses, f.occurrences, fakeTxRunner{}, f.enrollments,
		f.clk, f.sink, zerolog.Nop(),
	)
	return f
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weeklyCourse() *models.Course {
	weekday := 1
	end := date(2025, time.October, 28)
	return &models.Course{
		Name:             "Evening Pottery",
		RepeatPattern:    models.RepeatWeekly,
		Weekday:          &weekday,
		StartDate:        date(2025, time.October, 14),
		EndDate:          &end,
		StartTime:        "18:30",
		DurationMinutes:  90,
		Vacancy:          12,
		IsOnlineBookable: true,
	}
}

func TestCreateCourseGeneratesOccurrences(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()

	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	assert.Equal(t, models.StatusDraft, course.Status)
	assert.Equal(t, models.StateClosed, course.BookableState)

	occs, err := f.service.GetOccurrences(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, date(2025, time.October, 14), occs[0].Date)
	assert.Equal(t, date(2025, time.October, 21), occs[1].Date)
	assert.Equal(t, date(2025, time.October, 28), occs[2].Date)
	for _, occ := range occs {
		assert.Equal(t, "18:30", occ.StartTime)
		assert.Equal(t, 90, occ.DurationMinutes)
		assert.True(t, occ.IsActive)
	}
}

func TestCreateCourseIgnoresClientStatus(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	course.Status = models.StatusPublished
	course.BookableState = models.StateBookable

	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Equal(t, models.StateClosed, stored.BookableState)
}

func TestCreateCourseValidationFailure(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	course.DurationMinutes = 0

	err := f.service.CreateCourse(context.Background(), course)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Empty(t, f.courses.courses)
}

func TestRegenerateIsIdempotent(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	first, err := f.service.GetOccurrences(context.Background(), course.ID)
	require.NoError(t, err)

	created, err := f.service.RegenerateOccurrences(context.Background(), course.ID, false)
	require.NoError(t, err)
	assert.Equal(t, len(first), created)

	second, err := f.service.GetOccurrences(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Date, second[i].Date)
		assert.Equal(t, first[i].StartTime, second[i].StartTime)
	}
}

func TestRegenerateRefusedWithRecordedAttendance(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	f.occurrences.byCourse[course.ID][0].AttendanceCount = 5

	_, err := f.service.RegenerateOccurrences(context.Background(), course.ID, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOccurrencesInUse)

	created, err := f.service.RegenerateOccurrences(context.Background(), course.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, created)
}

func TestUpdateCoursePreservesLifecycleState(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))
	_, err := f.service.PublishCourse(context.Background(), course.ID)
	require.NoError(t, err)

	updated := weeklyCourse()
	updated.ID = course.ID
	updated.Name = "Evening Pottery II"
	updated.Status = models.StatusDraft // client attempt, must be ignored
	require.NoError(t, f.service.UpdateCourse(context.Background(), updated, false))

	stored, err := f.courses.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening Pottery II", stored.Name)
	assert.Equal(t, models.StatusPublished, stored.Status)
}

func TestUpdateCourseRegeneratesOccurrences(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	updated := weeklyCourse()
	updated.ID = course.ID
	updated.RepeatPattern = models.RepeatOnce
	updated.Weekday = nil
	updated.EndDate = nil
	require.NoError(t, f.service.UpdateCourse(context.Background(), updated, false))

	occs, err := f.service.GetOccurrences(context.Background(), course.ID)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, date(2025, time.October, 14), occs[0].Date)
}

func TestUpdateMissingCourse(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	course.ID = 42

	err := f.service.UpdateCourse(context.Background(), course, false)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestPublishCourse(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	published, err := f.service.PublishCourse(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)
	assert.Equal(t, models.StateBookable, published.BookableState)

	require.Len(t, f.sink.events, 1)
	event := f.sink.events[0]
	assert.Equal(t, course.ID, event.CourseID)
	assert.Equal(t, models.StatusDraft, event.OldStatus)
	assert.Equal(t, models.StatusPublished, event.NewStatus)
	assert.NotEqual(t, "", event.EventID.String())
}

func TestPublishFullCourseStartsFullyBooked(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))
	f.enrollments.counts[course.ID] = course.Vacancy

	published, err := f.service.PublishCourse(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFullyBooked, published.BookableState)
}

func TestPublishRejectsPastEndDate(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.December, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	_, err := f.service.PublishCourse(context.Background(), course.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Empty(t, f.sink.events)
}

func TestPublishRejectsExpiredCourse(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))
	f.courses.courses[course.ID].Status = models.StatusExpired

	_, err := f.service.PublishCourse(context.Background(), course.ID)
	assert.ErrorIs(t, err, apperrors.ErrTransitionNotAllowed)
}

func TestDeleteCourse(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	require.NoError(t, f.service.DeleteCourse(context.Background(), course.ID))
	_, err := f.service.GetCourse(context.Background(), course.ID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestListCoursesPagination(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	for i := 0; i < 5; i++ {
		course := weeklyCourse()
		require.NoError(t, f.service.CreateCourse(context.Background(), course))
	}

	page, total, err := f.service.ListCourses(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)
	assert.Equal(t, int64(4), page[1].ID)
}

func TestEventSinkCarriesBookableStateChange(t *testing.T) {
	f := newCourseServiceFixture(date(2025, time.October, 1))
	course := weeklyCourse()
	require.NoError(t, f.service.CreateCourse(context.Background(), course))

	_, err := f.service.PublishCourse(context.Background(), course.ID)
	require.NoError(t, err)

	require.Len(t, f.sink.events, 1)
	event := f.sink.events[0]
	assert.Equal(t, models.StateClosed, event.OldBookableState)
	assert.Equal(t, models.StateBookable, event.NewBookableState)
}

var _ lifecycle.EventSink = (*recordingSink)(nil)
