package workflow

// State is a position in the orchestrator's state machine.
//
//	Idle -> Refreshing -> Matching -> Idle
//	Idle -> Refreshing -> Failed -> Idle
//	Idle -> Matching -> Failed -> Idle
//
// Failed is transient: it is reported to transition hooks and immediately left for Idle.
type State int32

const (
	Idle State = iota
	Refreshing
	Matching
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	case Matching:
		return "matching"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether a workflow is in flight.
func (s State) Busy() bool {
	return s == Refreshing || s == Matching
}
