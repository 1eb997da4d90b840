// Copyright 2024-2026 Aiku AI

package supervisor

// State is the supervisor's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateBackoff
	// StateStopped is terminal: a stop was requested or Run returned an
	// unclassified error.
	StateStopped
	// StateDeactivated is terminal: the credentials were rejected.
	StateDeactivated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	case StateDeactivated:
		return "deactivated"
	default:
		return "invalid"
	}
}
