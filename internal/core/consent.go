package core

import "github.com/pyth0nkod3r/coding-interview-platform/internal/domain"

// ConsentState tracks the media-sharing handshake for one session.
// It is session-scoped: only the sender's role matters, never which
// physical connection carried the frame.
type ConsentState int

const (
	ConsentIdle ConsentState = iota
	ConsentRequested
	ConsentAccepted
	ConsentActive
)

func (s ConsentState) String() string {
	switch s {
	case ConsentIdle:
		return "idle"
	case ConsentRequested:
		return "requested"
	case ConsentAccepted:
		return "accepted"
	case ConsentActive:
		return "active"
	default:
		return "unknown"
	}
}

// Consent is the per-session handshake machine. Not safe for concurrent
// use; the owning registry entry serializes access.
type Consent struct {
	state ConsentState
}

func (c *Consent) State() ConsentState { return c.state }

// Apply validates t from role under the current state and performs any
// transition that does not depend on delivery. It reports whether the
// frame may be relayed; relay=false with a nil error is a silent no-op.
// A *ProtocolError never mutates state.
func (c *Consent) Apply(role domain.Role, t FrameType) (relay bool, err error) {
	switch t {
	case FrameVideoRequest:
		if role != domain.RoleInterviewer {
			return false, NewProtocolError("only interviewer can request video")
		}
		if c.state != ConsentIdle {
			return false, NewProtocolError("video request already in progress")
		}
		c.state = ConsentRequested
		return true, nil

	case FrameVideoAccept, FrameVideoReject:
		if role != domain.RoleCandidate {
			return false, NewProtocolError("only candidate can answer a video request")
		}
		if c.state != ConsentRequested {
			return false, NewProtocolError("no pending video request")
		}
		if t == FrameVideoAccept {
			c.state = ConsentAccepted
		} else {
			c.state = ConsentIdle
		}
		return true, nil

	case FrameVideoStop:
		// Idempotent: stopping an idle handshake is a silent no-op.
		if c.state == ConsentIdle {
			return false, nil
		}
		c.state = ConsentIdle
		return true, nil

	case FrameOffer, FrameAnswer, FrameICECandidate:
		if c.state != ConsentAccepted && c.state != ConsentActive {
			return false, NewProtocolError("video handshake not established")
		}
		return true, nil

	default:
		return false, NewProtocolError("unknown message type")
	}
}

// Delivered records a successful relay of t. The first offer delivered
// after acceptance activates the handshake.
func (c *Consent) Delivered(t FrameType) {
	if t == FrameOffer && c.state == ConsentAccepted {
		c.state = ConsentActive
	}
}

// Reset returns the handshake to idle. Called when either connection slot
// empties: the handshake cannot continue without both peers.
func (c *Consent) Reset() {
	c.state = ConsentIdle
}
