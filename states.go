package calce2e

// State of a Session
type State int

const (
	// StateUninitialized is a session whose browser is not opened yet
	StateUninitialized State = iota
	// StateReady is a session that can be driven
	StateReady
	// StateClosed is a released session, it can't be used again
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
