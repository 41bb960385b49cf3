package models

// State is the lifecycle of one verification attempt.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StatePending   State = "pending"
	StateVerified  State = "verified"
	StateFailed    State = "failed"
)

// CanTransitionTo reports whether next is a legal successor of s.
// Reset to idle is always allowed; verified is only reachable through pending.
func (s State) CanTransitionTo(next State) bool {
	if next == StateIdle {
		return true
	}
	switch s {
	case StateIdle:
		return next == StateRequested
	case StateRequested:
		return next == StatePending
	case StatePending:
		return next == StateVerified || next == StateFailed
	default:
		return false
	}
}

// IsTerminal reports whether the attempt has finished.
func (s State) IsTerminal() bool {
	return s == StateVerified || s == StateFailed
}

// IsActive reports whether a request is outstanding or a poll loop is running.
func (s State) IsActive() bool {
	return s == StateRequested || s == StatePending
}

func (s State) String() string { return string(s) }
