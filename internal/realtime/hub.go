// Package realtime delivers per-user events to connected SSE streams and
// websocket connections, optionally fanned out across instances over Redis.
package realtime

import (
	"log"
	"sync"
)

// Event is addressed to one user. Type doubles as the websocket event name.
type Event struct {
	UserID  string      `json:"user_id"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const subscriberBuffer = 32

// Subscriber is one open connection of a user.
type Subscriber struct {
	userID string
	events chan Event
	once   sync.Once
}

func (s *Subscriber) Events() <-chan Event {
	return s.events
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.events) })
}

// Hub is the process-local registry of connections keyed by user id.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]struct{})}
}

func (h *Hub) Subscribe(userID string) *Subscriber {
	s := &Subscriber{userID: userID, events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.userID)
		}
	}
	s.close()
}

// Deliver hands ev to every local connection of ev.UserID and returns how
// many received it. A subscriber whose buffer is full misses the event.
func (h *Hub) Deliver(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[ev.UserID] {
		select {
		case s.events <- ev:
			delivered++
		default:
			log.Printf("[REALTIME] Dropping %s for user %s: subscriber buffer full", ev.Type, ev.UserID)
		}
	}
	return delivered
}

func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.subs {
		for s := range set {
			s.close()
		}
		delete(h.subs, userID)
	}
}
