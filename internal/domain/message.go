// Package domain contains entities without transport logic.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrInvalidMessage   = errors.New("invalid message")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is a chat line as produced by a browser client.
// The server never mutates or stores it.
type Message struct {
	ID        string    `json:"id" validate:"required"`
	Text      string    `json:"text"`
	User      string    `json:"user" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// ParseMessage decodes and validates an untrusted payload.
func ParseMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
