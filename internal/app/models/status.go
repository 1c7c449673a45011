package models

// TransitionMode is who (or what) is requesting a status change. Modes are
// ordered: a transition permitted at a lower mode is permitted at every
// higher one, so the reconciliation pass (automatic) can never perform a
// change that requires operator intent.
type TransitionMode int

// Transition modes, weakest first
const (
	// TransitionAutomatic is a change made by the reconciliation pass.
	TransitionAutomatic TransitionMode = iota
	// TransitionManual is an explicit operator action.
	TransitionManual
	// TransitionForced is an operator override that may reverse an expiry.
	TransitionForced
)

// statusTransition is one allowed edge in the course status state machine.
type statusTransition struct {
	From    CourseStatus
	To      CourseStatus
	MinMode TransitionMode
}

// statusTransitions is the full transition table. Expiry is the only edge
// reachable automatically; reversing an expiry always requires force.
var statusTransitions = []statusTransition{
	{From: StatusDraft, To: StatusPublished, MinMode: TransitionManual},
	{From: StatusDraft, To: StatusExpired, MinMode: TransitionManual},
	{From: StatusPublished, To: StatusDraft, MinMode: TransitionManual},
	{From: StatusPublished, To: StatusExpired, MinMode: TransitionAutomatic},
	{From: StatusExpired, To: StatusDraft, MinMode: TransitionForced},
	{From: StatusExpired, To: StatusPublished, MinMode: TransitionForced},
}

// CanTransition reports whether a status change from one status to another
// is allowed at the given mode. A no-change transition is always allowed.
func CanTransition(from, to CourseStatus, mode TransitionMode) bool {
	if from == to {
		return true
	}
	for _, t := range statusTransitions {
		if t.From == from && t.To == to {
			return mode >= t.MinMode
		}
	}
	return false
}
