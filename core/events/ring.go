package events

import (
	"sync"

	"github.com/rokso/pf-auctions/core/types"
)

// payloadEvent is the subset of events that carry a canonical wire payload.
type payloadEvent interface {
	Event
	Event() *types.Event
}

// Ring retains the most recent event payloads in emission order so the RPC
// surface can serve them to observers that poll rather than subscribe.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	entries  []*types.Event
}

// NewRing creates a ring buffer holding at most capacity payloads. A
// non-positive capacity defaults to 256.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 256
	}
	return &Ring{capacity: capacity}
}

// Emit implements the Emitter interface. Events without a wire payload are
// ignored.
func (r *Ring) Emit(evt Event) {
	if r == nil {
		return
	}
	carrier, ok := evt.(payloadEvent)
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, payload)
	if overflow := len(r.entries) - r.capacity; overflow > 0 {
		r.entries = append([]*types.Event(nil), r.entries[overflow:]...)
	}
}

// List returns the retained payloads oldest first.
func (r *Ring) List() []*types.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Event, len(r.entries))
	copy(out, r.entries)
	return out
}
