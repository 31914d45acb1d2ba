package engine

// State is the manager lifecycle state
type State int32

// Lifecycle states. TornDown is terminal.
const (
	StateUnconfigured State = iota
	StateValidating
	StateActive
	StateReconfiguring
	StateTornDown
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateValidating:
		return "validating"
	case StateActive:
		return "active"
	case StateReconfiguring:
		return "reconfiguring"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// CanPropagate reports whether envelopes may be propagated in this state.
func (s State) CanPropagate() bool {
	return s == StateActive || s == StateReconfiguring
}
