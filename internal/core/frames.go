package core

import (
	"encoding/json"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

// Frame is a raw encoded signaling frame as it travels on the wire.
type Frame []byte

// FrameType tags the signaling frame union. Seven client types are
// accepted; everything else is a protocol violation before it reaches
// the consent machine.
type FrameType string

const (
	// Bidirectional, relayed to the counterpart role.
	FrameVideoRequest FrameType = "video-request"
	FrameVideoAccept  FrameType = "video-accept"
	FrameVideoReject  FrameType = "video-reject"
	FrameVideoStop    FrameType = "video-stop"
	FrameOffer        FrameType = "offer"
	FrameAnswer       FrameType = "answer"
	FrameICECandidate FrameType = "ice-candidate"

	// Server to client only.
	FrameConnected        FrameType = "connected"
	FramePeerConnected    FrameType = "peer-connected"
	FramePeerDisconnected FrameType = "peer-disconnected"
	FrameError            FrameType = "error"
)

// Envelope is the wire contract: {"type","sessionId","payload"?} inbound,
// plus role/message fields on server-originated frames. Payload stays an
// opaque json.RawMessage; this layer never parses negotiation internals.
type Envelope struct {
	Type      FrameType        `json:"type"`
	SessionID domain.SessionID `json:"sessionId,omitempty"`
	Role      domain.Role      `json:"role,omitempty"`
	Message   string           `json:"message,omitempty"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
}

// IsConsent reports whether t is one of the no-payload consent frames.
func (t FrameType) IsConsent() bool {
	switch t {
	case FrameVideoRequest, FrameVideoAccept, FrameVideoReject, FrameVideoStop:
		return true
	}
	return false
}

// IsNegotiation reports whether t carries an opaque peer-negotiation payload.
func (t FrameType) IsNegotiation() bool {
	switch t {
	case FrameOffer, FrameAnswer, FrameICECandidate:
		return true
	}
	return false
}

// DecodeFrame parses an inbound frame and rejects anything that is not one
// of the seven client frame types. Malformed input never reaches the
// consent machine.
func DecodeFrame(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, NewProtocolError("invalid message format")
	}
	if !env.Type.IsConsent() && !env.Type.IsNegotiation() {
		return Envelope{}, NewProtocolError("unknown message type")
	}
	return env, nil
}

// Encode serializes the envelope for the wire.
func (e Envelope) Encode() (Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

// NewConnectedFrame confirms a successful registration to the new connection.
func NewConnectedFrame(sid domain.SessionID, role domain.Role) Envelope {
	return Envelope{Type: FrameConnected, SessionID: sid, Role: role}
}

// NewPeerEvent announces a counterpart joining or leaving to the surviving
// connection.
func NewPeerEvent(t FrameType, role domain.Role) Envelope {
	return Envelope{Type: t, Role: role}
}

// NewErrorFrame wraps a human-readable error message for the client.
func NewErrorFrame(msg string) Envelope {
	return Envelope{Type: FrameError, Message: msg}
}

// NewRelayFrame rebuilds the outbound copy of a relayed frame: type and
// payload travel verbatim, everything else is stripped.
func NewRelayFrame(t FrameType, payload json.RawMessage) Envelope {
	return Envelope{Type: t, Payload: payload}
}
