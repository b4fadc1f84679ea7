package node

// State represents the lifecycle state of a node activation
type State int32

const (
	// StateNotStarted indicates the node was created but has not run
	StateNotStarted State = iota
	// StatePreLoop indicates one-time setup is running
	StatePreLoop
	// StateLooping indicates the loop body is being driven
	StateLooping
	// StatePostLoop indicates teardown is running
	StatePostLoop
	// StateTerminated indicates the activation finished cleanly
	StateTerminated
	// StateFailed indicates the activation ended with a fatal error
	StateFailed
)

// String returns a string representation of the node state
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StatePreLoop:
		return "pre_loop"
	case StateLooping:
		return "looping"
	case StatePostLoop:
		return "post_loop"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is the outcome of one loop body invocation
type Step int

const (
	// Continue keeps looping while the loop condition holds
	Continue Step = iota
	// Abort ends looping and proceeds to teardown
	Abort
)

// String returns a string representation of the step
func (s Step) String() string {
	if s == Abort {
		return "abort"
	}
	return "continue"
}
