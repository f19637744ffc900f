package core

import "errors"

// Error codes carried on protocol error frames.
const (
	ErrCodeRoomNotFound  = "room_not_found"
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeNotInRoom     = "not_in_room"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInvalidFrame  = "invalid_frame"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotInRoom     = errors.New("not in room")
)

// BrokerError wraps a code and human-readable message.
type BrokerError struct {
	Code    string
	Message string
}

func (e *BrokerError) Error() string {
	return e.Message
}

func brokerError(code, msg string) *BrokerError {
	return &BrokerError{Code: code, Message: msg}
}
