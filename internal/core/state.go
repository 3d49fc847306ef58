package core

import "sync/atomic"

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle is the Connecting -> Open -> Closed machine shared by session
// implementations. Transitions only move forward; Closed is terminal.
type Lifecycle struct {
	state atomic.Int32
}

func (l *Lifecycle) State() SessionState {
	return SessionState(l.state.Load())
}

// Open moves Connecting to Open. It reports false from any other state.
func (l *Lifecycle) Open() bool {
	return l.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Close moves to Closed and reports whether this call made the transition.
func (l *Lifecycle) Close() bool {
	for {
		cur := l.state.Load()
		if cur == int32(StateClosed) {
			return false
		}
		if l.state.CompareAndSwap(cur, int32(StateClosed)) {
			return true
		}
	}
}
