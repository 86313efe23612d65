package events

// Event represents a structured state change emitted by the auction engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (RPC, metrics,
// indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for components that expose events optionally.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// MultiEmitter fans a single event out to several subscribers in registration
// order.
type MultiEmitter struct {
	subscribers []Emitter
}

// NewMultiEmitter builds a fan-out emitter over the provided subscribers. Nil
// entries are skipped.
func NewMultiEmitter(subs ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, sub := range subs {
		if sub != nil {
			m.subscribers = append(m.subscribers, sub)
		}
	}
	return m
}

// Emit implements the Emitter interface.
func (m *MultiEmitter) Emit(evt Event) {
	if m == nil {
		return
	}
	for _, sub := range m.subscribers {
		sub.Emit(evt)
	}
}
