package value_object

import "fmt"

// SessionState is the lifecycle position of one control session.
type SessionState byte

const (
	StateIdle SessionState = iota
	StateConnecting
	StateNegotiating
	StateAttaching
	StateAttached
	StateFailed
	StateClosed
)

var sessionTransitions = map[SessionState][]SessionState{
	StateIdle:        {StateConnecting, StateFailed},
	StateConnecting:  {StateNegotiating, StateFailed},
	StateNegotiating: {StateAttaching, StateFailed},
	StateAttaching:   {StateAttached, StateFailed},
	StateAttached:    {StateClosed, StateFailed},
	StateFailed:      {StateClosed},
}

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateAttaching:
		return "attaching"
	case StateAttached:
		return "attached"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// CanTransition reports whether moving from s to next is allowed.
func (s SessionState) CanTransition(next SessionState) bool {
	for _, t := range sessionTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s SessionState) IsTerminal() bool { return s == StateClosed }
