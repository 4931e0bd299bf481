package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

const sid = domain.SessionID("s1")

func newRelayPair(t *testing.T) (*Relay, *fakeConn, *fakeConn) {
	t.Helper()
	rl := NewRelay(NewRegistry())
	iv := newFakeConn("iv")
	cd := newFakeConn("cd")
	rl.Attach(sid, domain.RoleInterviewer, iv)
	rl.Attach(sid, domain.RoleCandidate, cd)
	return rl, iv, cd
}

func inbound(t core.FrameType, payload string) core.Envelope {
	env := core.Envelope{Type: t, SessionID: sid}
	if payload != "" {
		env.Payload = json.RawMessage(payload)
	}
	return env
}

func TestAttachNotifies(t *testing.T) {
	rl := NewRelay(NewRegistry())
	iv := newFakeConn("iv")
	cd := newFakeConn("cd")

	rl.Attach(sid, domain.RoleInterviewer, iv)
	frames := iv.received()
	require.Len(t, frames, 1)
	assert.Equal(t, core.FrameConnected, frames[0].Type)
	assert.Equal(t, domain.RoleInterviewer, frames[0].Role)
	assert.Equal(t, sid, frames[0].SessionID)

	rl.Attach(sid, domain.RoleCandidate, cd)
	last, ok := iv.lastFrame()
	require.True(t, ok)
	assert.Equal(t, core.FramePeerConnected, last.Type)
	assert.Equal(t, domain.RoleCandidate, last.Role)

	frames = cd.received()
	require.Len(t, frames, 1)
	assert.Equal(t, core.FrameConnected, frames[0].Type)
	assert.Equal(t, domain.RoleCandidate, frames[0].Role)
}

func TestAttachEvictsPredecessor(t *testing.T) {
	rl := NewRelay(NewRegistry())
	first := newFakeConn("iv1")
	second := newFakeConn("iv2")
	cd := newFakeConn("cd")

	rl.Attach(sid, domain.RoleInterviewer, first)
	rl.Attach(sid, domain.RoleInterviewer, second)

	closed, code, reason := first.closedWith()
	assert.True(t, closed)
	assert.Equal(t, core.CloseNormal, code)
	assert.Equal(t, core.ReasonReplaced, reason)

	// Frames relayed afterwards reach the replacement, never the evicted
	// connection.
	rl.Attach(sid, domain.RoleCandidate, cd)
	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	assert.Equal(t, 0, first.countType(core.FrameVideoRequest))
	assert.Equal(t, 1, second.countType(core.FramePeerConnected))
	assert.Equal(t, 1, cd.countType(core.FrameVideoRequest))
}

func TestHappyPathHandshake(t *testing.T) {
	rl, iv, cd := newRelayPair(t)

	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	assert.Equal(t, 1, cd.countType(core.FrameVideoRequest))
	assert.Equal(t, core.ConsentRequested, rl.ConsentStateOf(sid))

	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameVideoAccept, "")))
	assert.Equal(t, 1, iv.countType(core.FrameVideoAccept))
	assert.Equal(t, core.ConsentAccepted, rl.ConsentStateOf(sid))

	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameOffer, `"X"`)))
	assert.Equal(t, core.ConsentActive, rl.ConsentStateOf(sid))

	last, ok := iv.lastFrame()
	require.True(t, ok)
	assert.Equal(t, core.FrameOffer, last.Type)
	assert.Equal(t, `"X"`, string(last.Payload), "payload must be forwarded verbatim")
}

func TestVideoRequestFromCandidateRejected(t *testing.T) {
	rl, iv, _ := newRelayPair(t)

	err := rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameVideoRequest, ""))
	var perr *core.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, iv.countType(core.FrameVideoRequest))
	assert.Equal(t, core.ConsentIdle, rl.ConsentStateOf(sid))
}

func TestVideoAcceptWhileIdleRejected(t *testing.T) {
	rl, iv, _ := newRelayPair(t)

	err := rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameVideoAccept, ""))
	var perr *core.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, iv.countType(core.FrameVideoAccept))
}

func TestNegotiationBeforeConsentRejected(t *testing.T) {
	rl, iv, _ := newRelayPair(t)

	err := rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameICECandidate, `{"candidate":"c"}`))
	var perr *core.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, iv.countType(core.FrameICECandidate))
}

func TestSessionIDMismatchDropped(t *testing.T) {
	rl, iv, cd := newRelayPair(t)

	env := core.Envelope{Type: core.FrameVideoRequest, SessionID: "other"}
	err := rl.HandleFrame(sid, domain.RoleInterviewer, env)
	var perr *core.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "session id mismatch", perr.Reason)
	assert.Equal(t, 0, cd.countType(core.FrameVideoRequest))
	assert.Equal(t, 0, iv.countType(core.FrameError), "error replies are the adapter's job")
	assert.Equal(t, core.ConsentIdle, rl.ConsentStateOf(sid))
}

func TestVideoStopIdempotent(t *testing.T) {
	rl, iv, cd := newRelayPair(t)

	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameVideoAccept, "")))
	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameOffer, `{}`)))

	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoStop, "")))
	assert.Equal(t, 1, cd.countType(core.FrameVideoStop))
	assert.Equal(t, core.ConsentIdle, rl.ConsentStateOf(sid))

	// Second stop: silent no-op, nothing relayed.
	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoStop, "")))
	assert.Equal(t, 1, cd.countType(core.FrameVideoStop))
	assert.Equal(t, 0, iv.countType(core.FrameVideoStop))
}

func TestRelayDropsWhenPeerAbsent(t *testing.T) {
	rl := NewRelay(NewRegistry())
	iv := newFakeConn("iv")
	rl.Attach(sid, domain.RoleInterviewer, iv)

	// No candidate connected: permitted frame, silent drop, no error.
	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	assert.Equal(t, core.ConsentRequested, rl.ConsentStateOf(sid))
}

func TestBackpressureDoesNotActivate(t *testing.T) {
	rl, iv, _ := newRelayPair(t)

	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameVideoAccept, "")))

	// Interviewer's buffer is full: the offer is dropped, so the
	// handshake must not activate.
	iv.setFull(true)
	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameOffer, `{}`)))
	assert.Equal(t, core.ConsentAccepted, rl.ConsentStateOf(sid))

	iv.setFull(false)
	require.NoError(t, rl.HandleFrame(sid, domain.RoleCandidate, inbound(core.FrameOffer, `{}`)))
	assert.Equal(t, core.ConsentActive, rl.ConsentStateOf(sid))
}

func TestDetachNotifiesPeerAndResetsConsent(t *testing.T) {
	rl, iv, cd := newRelayPair(t)

	require.NoError(t, rl.HandleFrame(sid, domain.RoleInterviewer, inbound(core.FrameVideoRequest, "")))
	require.Equal(t, core.ConsentRequested, rl.ConsentStateOf(sid))

	rl.Detach(sid, domain.RoleCandidate, cd)
	assert.Equal(t, 1, iv.countType(core.FramePeerDisconnected))
	last, _ := iv.lastFrame()
	assert.Equal(t, domain.RoleCandidate, last.Role)
	assert.Equal(t, core.ConsentIdle, rl.ConsentStateOf(sid))

	// Detaching an already-replaced or already-removed handle does not
	// notify again.
	rl.Detach(sid, domain.RoleCandidate, cd)
	assert.Equal(t, 1, iv.countType(core.FramePeerDisconnected))

	rl.Detach(sid, domain.RoleInterviewer, iv)
	assert.Equal(t, 0, rl.Reg.ActiveSessions())
}

func TestCloseSessionConnections(t *testing.T) {
	rl, iv, cd := newRelayPair(t)

	rl.CloseSessionConnections(sid)

	for _, conn := range []*fakeConn{iv, cd} {
		closed, code, reason := conn.closedWith()
		assert.True(t, closed)
		assert.Equal(t, core.CloseNormal, code)
		assert.Equal(t, core.ReasonSessionEnded, reason)
	}
	assert.Equal(t, 0, rl.Reg.ActiveSessions())
}
