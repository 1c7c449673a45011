package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edupulse/edupulse/internal/app/models"
)

// StatusChangeEvent carries a course's persisted status or bookable-state
// transition to downstream collaborators (catalog sync, notifications).
type StatusChangeEvent struct {
	EventID          uuid.UUID            `json:"eventId"`
	CourseID         int64                `json:"courseId"`
	OldStatus        models.CourseStatus  `json:"oldStatus"`
	NewStatus        models.CourseStatus  `json:"newStatus"`
	OldBookableState models.BookableState `json:"oldBookableState"`
	NewBookableState models.BookableState `json:"newBookableState"`
}

// EventSink receives status-change events. Sinks must not block the
// reconciliation pass; slow consumers should buffer internally.
type EventSink interface {
	Publish(ctx context.Context, event StatusChangeEvent)
}

// NewStatusChangeEvent builds an event with a fresh id for the given
// before/after pair.
func NewStatusChangeEvent(before, after *models.Course) StatusChangeEvent {
	return StatusChangeEvent{
		EventID:          uuid.New(),
		CourseID:         after.ID,
		OldStatus:        before.Status,
		NewStatus:        after.Status,
		OldBookableState: before.BookableState,
		NewBookableState: after.BookableState,
	}
}

// LogSink is an EventSink that records events to the structured log. It is
// the default wiring when no downstream consumer is configured.
type LogSink struct {
	Logger zerolog.Logger
}

// Publish implements EventSink
func (s LogSink) Publish(_ context.Context, event StatusChangeEvent) {
	s.Logger.Info().
		Str("eventId", event.EventID.String()).
		Int64("courseId", event.CourseID).
		Str("oldStatus", string(event.OldStatus)).
		Str("newStatus", string(event.NewStatus)).
		Str("oldBookableState", string(event.OldBookableState)).
		Str("newBookableState", string(event.NewBookableState)).
		Msg("Course lifecycle state changed")
}
