package app

import (
	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/metrics"
)

// Relay is the protocol engine: it validates inbound frames against the
// consent machine and forwards permitted frames to the counterpart role.
// It owns no transport resources; all handles stay with the registry.
type Relay struct {
	Reg *Registry
}

func NewRelay(reg *Registry) *Relay {
	return &Relay{Reg: reg}
}

// Attach registers the new connection, closes any evicted predecessor,
// confirms the registration to the newcomer and announces it to the peer.
func (rl *Relay) Attach(sid domain.SessionID, role domain.Role, conn core.SignalConn) {
	if evicted := rl.Reg.Register(sid, role, conn); evicted != nil {
		evicted.Close(core.CloseNormal, core.ReasonReplaced)
		// The evicted connection's own Detach will find the slot taken
		// and skip accounting, so settle it here.
		metrics.ActiveConnections.WithLabelValues(role.String()).Dec()
	}

	rl.send(conn, core.NewConnectedFrame(sid, role))
	if peer, ok := rl.Reg.Peer(sid, role); ok {
		rl.send(peer, core.NewPeerEvent(core.FramePeerConnected, role))
	}
	metrics.ActiveConnections.WithLabelValues(role.String()).Inc()
}

// Detach runs on transport close from any path. The ownership check inside
// Unregister makes it safe to call for an already-replaced connection.
func (rl *Relay) Detach(sid domain.SessionID, role domain.Role, conn core.SignalConn) {
	removed, peer := rl.Reg.Unregister(sid, role, conn)
	if !removed {
		return
	}
	if peer != nil {
		rl.send(peer, core.NewPeerEvent(core.FramePeerDisconnected, role))
	}
	metrics.ActiveConnections.WithLabelValues(role.String()).Dec()
}

// HandleFrame processes one inbound frame from the connection registered
// as (sid, role). A returned *core.ProtocolError means the frame was
// dropped without mutating state; the caller replies to the sender and
// keeps the connection open.
func (rl *Relay) HandleFrame(sid domain.SessionID, role domain.Role, env core.Envelope) error {
	if env.SessionID != sid {
		metrics.ProtocolViolations.Inc()
		return core.NewProtocolError("session id mismatch")
	}

	e, ok := rl.Reg.lockEntry(sid)
	if !ok {
		// Connection raced with an administrative close; nothing to do.
		return nil
	}

	// Consent transition, peer lookup and delivery are one atomic step
	// within the session's serialization domain.
	defer e.mu.Unlock()

	relay, err := e.consent.Apply(role, env.Type)
	if err != nil {
		metrics.ProtocolViolations.Inc()
		return err
	}
	if !relay {
		return nil
	}

	peer, ok := e.slots[role.Opposite()]
	if !ok {
		// No one is listening: expected steady state, not a fault.
		metrics.DroppedFrames.WithLabelValues("peer_absent").Inc()
		log.Debug().Str("module", "app.relay").
			Str("session", string(sid)).
			Str("type", string(env.Type)).
			Msg("peer absent, frame dropped")
		return nil
	}

	out, encErr := core.NewRelayFrame(env.Type, env.Payload).Encode()
	if encErr != nil {
		log.Error().Err(encErr).Str("module", "app.relay").Msg("encode relay frame")
		return nil
	}
	if sendErr := peer.TrySend(out); sendErr != nil {
		metrics.DroppedFrames.WithLabelValues("backpressure").Inc()
		log.Warn().Str("module", "app.relay").
			Str("session", string(sid)).
			Str("type", string(env.Type)).
			Msg("peer outbound buffer full, frame dropped")
		return nil
	}

	e.consent.Delivered(env.Type)
	metrics.RelayedFrames.WithLabelValues(string(env.Type)).Inc()
	return nil
}

// CloseSessionConnections force-closes both slots, invoked when a session
// is administratively ended by the rest of the system.
func (rl *Relay) CloseSessionConnections(sid domain.SessionID) {
	for _, role := range rl.Reg.CloseAll(sid, core.CloseNormal, core.ReasonSessionEnded) {
		metrics.ActiveConnections.WithLabelValues(role.String()).Dec()
	}
}

// ConsentStateOf exposes the current handshake state for diagnostics.
func (rl *Relay) ConsentStateOf(sid domain.SessionID) core.ConsentState {
	e, ok := rl.Reg.lockEntry(sid)
	if !ok {
		return core.ConsentIdle
	}
	defer e.mu.Unlock()
	return e.consent.State()
}

func (rl *Relay) send(conn core.SignalConn, env core.Envelope) {
	out, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode server frame")
		return
	}
	if err := conn.TrySend(out); err != nil {
		log.Warn().Str("module", "app.relay").
			Str("conn", string(conn.ID())).
			Str("type", string(env.Type)).
			Msg("server frame dropped")
	}
}
