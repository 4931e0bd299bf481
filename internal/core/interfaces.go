package core

import (
	"context"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

// ConnID distinguishes physical connections so that a stale close callback
// can never evict a handle that was already replaced for the same role.
type ConnID string

// WebSocket close codes used on the signaling socket.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
)

// Close reasons carried alongside the close code.
const (
	ReasonReplaced      = "replaced"
	ReasonSessionEnded  = "session ended"
	ReasonBadCredential = "invalid credential"
	ReasonNoSession     = "session not found"
	ReasonNotAuthorized = "not authorized for this session"
)

// SignalConn abstracts a single live transport endpoint.
// Owned by the adapter; the registry only issues send and close commands
// and never holds a handle past a single operation.
type SignalConn interface {
	ID() ConnID
	TrySend(Frame) error
	Close(code int, reason string)
}

// CredentialVerifier resolves an opaque credential to a participant
// identity. Consulted exactly once per connection attempt.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, token string) (domain.ParticipantID, error)
}

// SessionDirectory resolves a session handle. Fetched fresh per connection
// attempt so a session closed mid-call is observable to a racing connect.
type SessionDirectory interface {
	GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error)
}
