package session

import "fmt"

// State is the lifecycle stage of a Session.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateEstablished
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateEstablished:
		return "established"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// terminal reports whether no further operation is possible.
func (s State) terminal() bool { return s == StateClosed || s == StateFailed }
