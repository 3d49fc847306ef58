package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Named events carried over a session.
const (
	EventConnect = "connect"
	EventMessage = "message"
	EventError   = "error"
	EventPing    = "ping"
	EventPong    = "pong"
)

var ErrBadEnvelope = errors.New("bad envelope")

// Event is the wire envelope: an event name and an opaque payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent builds an outbound frame. Raw payloads (json.RawMessage,
// []byte) are embedded verbatim.
func EncodeEvent(name string, data any) (Frame, error) {
	ev := Event{Name: name}
	switch d := data.(type) {
	case nil:
	case json.RawMessage:
		ev.Data = d
	case []byte:
		ev.Data = json.RawMessage(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", name, err)
		}
		ev.Data = b
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return b, nil
}

// DecodeEvent parses an inbound frame. Payloads are relayed as raw bytes, so
// frames that are not valid UTF-8 are rejected here; browsers close the
// socket on invalid text frames.
func DecodeEvent(raw []byte) (Event, error) {
	if !utf8.Valid(raw) {
		return Event{}, fmt.Errorf("%w: invalid utf-8", ErrBadEnvelope)
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if ev.Name == "" {
		return Event{}, fmt.Errorf("%w: missing event name", ErrBadEnvelope)
	}
	return ev, nil
}
