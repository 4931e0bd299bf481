package core

import "errors"

// ErrBackpressure is returned by TrySend when the outbound buffer is full.
// Relay treats it as a dropped frame, never as a reason to block.
var ErrBackpressure = errors.New("backpressure")

// ErrInvalidCredential covers every credential verification failure.
// The verifier's underlying error is logged, not surfaced to the client.
var ErrInvalidCredential = errors.New("invalid credential")

// ProtocolError is a non-fatal per-frame violation: the offending
// connection gets a single error frame and stays open.
type ProtocolError struct {
	Reason string
}

func NewProtocolError(reason string) *ProtocolError {
	return &ProtocolError{Reason: reason}
}

func (e *ProtocolError) Error() string { return e.Reason }
