package client

import "errors"

// ErrEmptyUsername is returned by Connect when the trimmed username is
// empty. It is rejected before any side effect.
var ErrEmptyUsername = errors.New("username is empty")

// TransportError reports a websocket-level failure. It is terminal for the
// session it occurred on; the caller must connect again for a fresh session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
