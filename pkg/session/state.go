package session

import "fmt"

// State is a bootstrapper lifecycle state.
type State int32

const (
	StateProbingDependencies State = iota
	StateProbingPatterns
	StateRunning
	StateTerminated
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateProbingDependencies:
		return "PROBING_DEPENDENCIES"
	case StateProbingPatterns:
		return "PROBING_PATTERNS"
	case StateRunning:
		return "RUNNING"
	case StateTerminated:
		return "TERMINATED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Final reports whether s is terminal.
func (s State) Final() bool {
	return s == StateTerminated || s == StateFailed
}
