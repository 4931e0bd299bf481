package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

// sessionEntry is the per-session serialization domain: two connection
// slots plus the consent machine, guarded by their own mutex so sessions
// never block one another.
type sessionEntry struct {
	mu      sync.Mutex
	slots   map[domain.Role]core.SignalConn
	consent core.Consent
	// discarded marks an entry removed from the registry map. An operation
	// that fetched the entry before removal must not act on it: nothing
	// installed into a discarded entry is reachable.
	discarded bool
}

// Registry owns every live transport handle, keyed by (session, role).
// Invariant: at most one connection per role; a newcomer for an occupied
// role evicts the previous holder.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*sessionEntry)}
}

// entry returns the session's entry, creating it lazily on first use.
func (r *Registry) entry(sid domain.SessionID) *sessionEntry {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.sessions[sid]; !ok {
		e = &sessionEntry{slots: make(map[domain.Role]core.SignalConn)}
		r.sessions[sid] = e
		log.Debug().Str("module", "app.registry").Str("session", string(sid)).Msg("session entry created")
	}
	return e
}

// lookup never creates an entry.
func (r *Registry) lookup(sid domain.SessionID) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	return e, ok
}

// lockEntry returns the session's entry with its mutex held. An entry
// discarded between lookup and lock is retried against the current map,
// so callers never operate on an unreachable entry.
func (r *Registry) lockEntry(sid domain.SessionID) (*sessionEntry, bool) {
	for {
		e, ok := r.lookup(sid)
		if !ok {
			return nil, false
		}
		e.mu.Lock()
		if !e.discarded {
			return e, true
		}
		e.mu.Unlock()
	}
}

// maybeDiscard drops the session entry, consent state included, once both
// slots are empty. The discarded flag flips in the same critical section
// as the emptiness check, so a racing Register either installs before the
// check (entry survives) or observes the flag and re-creates the entry.
// Lock order is always registry then entry.
func (r *Registry) maybeDiscard(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	e.mu.Lock()
	if len(e.slots) == 0 {
		e.discarded = true
		delete(r.sessions, sid)
		log.Debug().Str("module", "app.registry").Str("session", string(sid)).Msg("session entry discarded")
	}
	e.mu.Unlock()
}

// Register atomically claims the (session, role) slot. The previous holder,
// if any, is returned to the caller for graceful closure and is otherwise
// unreachable from the registry.
func (r *Registry) Register(sid domain.SessionID, role domain.Role, conn core.SignalConn) (evicted core.SignalConn) {
	var e *sessionEntry
	for {
		e = r.entry(sid)
		e.mu.Lock()
		if !e.discarded {
			break
		}
		// Lost the race against maybeDiscard; the entry is gone from the
		// map, so installing here would strand the connection.
		e.mu.Unlock()
	}
	defer e.mu.Unlock()
	evicted = e.slots[role]
	e.slots[role] = conn
	log.Info().Str("module", "app.registry").
		Str("session", string(sid)).
		Str("role", role.String()).
		Str("conn", string(conn.ID())).
		Bool("evicted", evicted != nil).
		Msg("slot registered")
	return evicted
}

// Unregister vacates the slot only if conn is still the registered holder,
// so a stale close callback cannot evict a replacement. It reports whether
// the slot was vacated and, if so, whether a peer connection survives.
func (r *Registry) Unregister(sid domain.SessionID, role domain.Role, conn core.SignalConn) (removed bool, peer core.SignalConn) {
	e, ok := r.lockEntry(sid)
	if !ok {
		return false, nil
	}

	current, occupied := e.slots[role]
	if !occupied || current.ID() != conn.ID() {
		e.mu.Unlock()
		return false, nil
	}
	delete(e.slots, role)
	// A half-open handshake cannot survive a missing peer.
	e.consent.Reset()
	peer = e.slots[role.Opposite()]
	e.mu.Unlock()

	log.Info().Str("module", "app.registry").
		Str("session", string(sid)).
		Str("role", role.String()).
		Str("conn", string(conn.ID())).
		Msg("slot vacated")

	if peer == nil {
		r.maybeDiscard(sid)
	}
	return true, peer
}

// Peer returns the live handle registered for the opposite role, if any.
func (r *Registry) Peer(sid domain.SessionID, role domain.Role) (core.SignalConn, bool) {
	e, ok := r.lockEntry(sid)
	if !ok {
		return nil, false
	}
	defer e.mu.Unlock()
	conn, ok := e.slots[role.Opposite()]
	return conn, ok
}

// CloseAll evicts and closes both slots, used when a session is
// administratively ended. It reports which roles were closed; their
// late Detach callbacks will find the slots already vacated.
func (r *Registry) CloseAll(sid domain.SessionID, code int, reason string) []domain.Role {
	e, ok := r.lockEntry(sid)
	if !ok {
		return nil
	}

	conns := make(map[domain.Role]core.SignalConn, len(e.slots))
	for role, conn := range e.slots {
		conns[role] = conn
		delete(e.slots, role)
	}
	e.consent.Reset()
	e.mu.Unlock()

	roles := make([]domain.Role, 0, len(conns))
	for role, conn := range conns {
		conn.Close(code, reason)
		roles = append(roles, role)
	}
	r.maybeDiscard(sid)

	log.Info().Str("module", "app.registry").
		Str("session", string(sid)).
		Int("closed", len(roles)).
		Str("reason", reason).
		Msg("session connections closed")
	return roles
}

// ActiveSessions reports how many sessions currently hold at least one
// live connection.
func (r *Registry) ActiveSessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
