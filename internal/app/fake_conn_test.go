package app

import (
	"encoding/json"
	"sync"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/core"
)

// fakeConn records every frame and the first close it receives, standing
// in for the websocket adapter.
type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	frames []core.Envelope
	full   bool

	closed      bool
	closeCode   int
	closeReason string
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func (f *fakeConn) ID() core.ConnID { return f.id }

func (f *fakeConn) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return core.ErrBackpressure
	}
	var env core.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeConn) Close(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
}

func (f *fakeConn) setFull(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.full = v
}

func (f *fakeConn) received() []core.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Envelope, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *fakeConn) lastFrame() (core.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return core.Envelope{}, false
	}
	return f.frames[len(f.frames)-1], true
}

func (f *fakeConn) closedWith() (bool, int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.closeCode, f.closeReason
}

func (f *fakeConn) countType(t core.FrameType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, env := range f.frames {
		if env.Type == t {
			n++
		}
	}
	return n
}
