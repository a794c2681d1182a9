package events

import (
	"sync"

	"autoapply-engine/internal/domain"
)

// Hub broadcasts serialized events to SSE subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// PublishType wraps data in the event envelope and broadcasts it.
func (h *Hub) PublishType(typ string, data any) {
	h.Publish(MakeEvent("", typ, 1, data))
}

// Emit makes the hub a log Sink.
func (h *Hub) Emit(ev domain.LogEvent) {
	h.PublishType(TypeLog, ev)
}
