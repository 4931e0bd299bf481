package directory

import (
	"context"
	"sync"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

// MemoryDirectory is the in-process directory used in dev mode and tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]domain.Session
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{sessions: make(map[domain.SessionID]domain.Session)}
}

func (d *MemoryDirectory) GetSession(_ context.Context, id domain.SessionID) (*domain.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := s
	return &out, nil
}

func (d *MemoryDirectory) Put(s domain.Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[s.ID] = s
}

// End marks a session closed without removing it, so racing connects
// observe "session ended" rather than "session not found".
func (d *MemoryDirectory) End(id domain.SessionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[id]; ok {
		s.Open = false
		d.sessions[id] = s
	}
}
