// Package clock provides an injectable source of the current date so that
// lifecycle evaluation and reconciliation are deterministic under test.
package clock

import "time"

// Clock supplies the current civil date. All expiry and bookability
// comparisons in the engine go through a Clock rather than reading
// wall-clock time directly.
type Clock interface {
	// Today returns the current date truncated to midnight UTC.
	Today() time.Time
	// Now returns the current instant.
	Now() time.Time
}

// System is the wall-clock backed Clock used in production.
type System struct{}

// Today returns the current date truncated to midnight UTC.
func (System) Today() time.Time {
	return Date(time.Now().UTC())
}

// Now returns the current instant.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock pinned to a single date, for tests and dry runs.
type Fixed struct {
	Date time.Time
}

// Today returns the pinned date.
func (f Fixed) Today() time.Time {
	return Date(f.Date)
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time {
	return f.Date
}

// Date truncates t to midnight UTC, keeping only the civil date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
