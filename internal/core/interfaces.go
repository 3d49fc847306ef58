package core

import "errors"

var (
	ErrBackpressure  = errors.New("backpressure")
	ErrSessionClosed = errors.New("session closed")
)

// Frame is an encoded outbound event, written to the wire as is.
type Frame []byte

type SessionID string

// Session is one open client connection as seen by the hub.
// The transport adapter owns the underlying resources; Close must be
// idempotent and must not call back into the hub synchronously.
type Session interface {
	ID() SessionID
	TrySend(Frame) error
	State() SessionState
	Close()
}

// DeliveryFailure pairs a session with the error its TrySend returned.
type DeliveryFailure struct {
	Session Session
	Err     error
}

// PublishResult reports delivery stats to the caller of Broadcast.
type PublishResult struct {
	SendTo  int
	Dropped []DeliveryFailure
}
