// Package bus is the in-process event fanout feeding live-view subscribers.
package bus

import "sync"

// Event is one broadcast to live-view clients.
type Event struct {
	Name    string `json:"name"`    // e.g. "frame", "status", "health"
	Payload any    `json:"payload,omitempty"`
}

// EventHandler handles a broadcast event.
type EventHandler func(Event)

// EventPublisher abstracts event broadcast + subscription so the gateway and
// the window feeders stay decoupled from the concrete bus.
type EventPublisher interface {
	Subscribe(id string, handler EventHandler)
	Unsubscribe(id string)
	Broadcast(event Event)
}

// MemoryBus is the in-process EventPublisher.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string]EventHandler)}
}

func (b *MemoryBus) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = handler
}

func (b *MemoryBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}

// Broadcast delivers the event to every subscriber. Handlers run on the
// caller's goroutine; keep them fast.
func (b *MemoryBus) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(event)
	}
}
