package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from CourseStatus
		to   CourseStatus
		mode TransitionMode
		want bool
	}{
		{"draft publish manual", StatusDraft, StatusPublished, TransitionManual, true},
		{"draft publish automatic forbidden", StatusDraft, StatusPublished, TransitionAutomatic, false},
		{"published expire automatic", StatusPublished, StatusExpired, TransitionAutomatic, true},
		{"published expire manual", StatusPublished, StatusExpired, TransitionManual, true},
		{"expired republish manual forbidden", StatusExpired, StatusPublished, TransitionManual, false},
		{"expired republish forced", StatusExpired, StatusPublished, TransitionForced, true},
		{"expired to draft forced only", StatusExpired, StatusDraft, TransitionManual, false},
		{"unpublish manual", StatusPublished, StatusDraft, TransitionManual, true},
		{"unpublish automatic forbidden", StatusPublished, StatusDraft, TransitionAutomatic, false},
		{"no-op always allowed", StatusExpired, StatusExpired, TransitionAutomatic, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to, tt.mode))
		})
	}
}

// The reconciliation pass must never be able to move a course out of
// expired, whatever the target.
func TestExpiredNeverLeavesAutomatically(t *testing.T) {
	for _, to := range []CourseStatus{StatusDraft, StatusPublished} {
		assert.False(t, CanTransition(StatusExpired, to, TransitionAutomatic))
	}
}
