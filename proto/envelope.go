// Package proto defines the wire protocol shared by the broker and clients:
// the chat envelope, topic addressing, and the websocket frame layer.
package proto

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EnvelopeType classifies an envelope.
type EnvelopeType string

const (
	// TypeJoin announces a user entering a room.
	TypeJoin EnvelopeType = "JOIN"
	// TypeLeave announces a user leaving a room.
	TypeLeave EnvelopeType = "LEAVE"
	// TypeChat carries a user-authored text message.
	TypeChat EnvelopeType = "CHAT"
)

// Envelope is the atomic unit of chat data exchanged between sessions.
// It is a value type: constructed once, transmitted, never mutated.
type Envelope struct {
	Sender  string       `json:"sender" validate:"required,min=1,max=64"`
	Content string       `json:"content,omitempty" validate:"max=4096"`
	Type    EnvelopeType `json:"type" validate:"required"`
}

var validate = validator.New()

// NewChat builds a CHAT envelope.
func NewChat(sender, content string) Envelope {
	return Envelope{Sender: sender, Content: content, Type: TypeChat}
}

// NewPresence builds a JOIN or LEAVE envelope. Presence envelopes carry no
// content; the receiving UI renders its own join/leave text.
func NewPresence(sender string, t EnvelopeType) Envelope {
	return Envelope{Sender: sender, Type: t}
}

// Validate checks the envelope against the wire contract: sender 1..64,
// content at most 4096, CHAT content non-empty after trimming, presence
// envelopes content-free.
func (e Envelope) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	switch e.Type {
	case TypeChat:
		if strings.TrimSpace(e.Content) == "" {
			return fmt.Errorf("envelope: chat content is empty")
		}
	case TypeJoin, TypeLeave:
		if e.Content != "" {
			return fmt.Errorf("envelope: %s carries content", e.Type)
		}
	default:
		return fmt.Errorf("envelope: unknown type %q", e.Type)
	}
	return nil
}

// EncodeEnvelope serializes a valid envelope to its canonical JSON form.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// DecodeEnvelope parses a payload back into an envelope. Unknown extra
// fields are ignored for forward compatibility. Failures are reported as
// *DecodeError and the payload is expected to be dropped by the caller.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(payload, &e); err != nil {
		return Envelope{}, &DecodeError{Kind: MalformedPayload, cause: err}
	}
	switch e.Type {
	case TypeJoin, TypeLeave, TypeChat:
	default:
		return Envelope{}, &DecodeError{Kind: MissingField, Field: "type"}
	}
	if e.Sender == "" {
		return Envelope{}, &DecodeError{Kind: MissingField, Field: "sender"}
	}
	return e, nil
}

// DecodeErrorKind distinguishes the ways a payload can fail to decode.
type DecodeErrorKind int

const (
	// MalformedPayload means the payload is not well-formed JSON.
	MalformedPayload DecodeErrorKind = iota
	// MissingField means a required field is absent or unrecognized.
	MissingField
)

// DecodeError reports an undecodable inbound payload.
type DecodeError struct {
	Kind  DecodeErrorKind
	Field string
	cause error
}

func (e *DecodeError) Error() string {
	if e.Kind == MissingField {
		return fmt.Sprintf("decode envelope: missing or invalid field %q", e.Field)
	}
	if e.cause != nil {
		return fmt.Sprintf("decode envelope: malformed payload: %v", e.cause)
	}
	return "decode envelope: malformed payload"
}

func (e *DecodeError) Unwrap() error { return e.cause }
