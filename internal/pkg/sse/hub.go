package sse

import (
	"sync"
)

// Topics published by the attendance service.
const (
	TopicAttendance = "attendance"
	TopicDashboard  = "dashboard"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	Topic string
	Event string
	Data  interface{}
}

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber on the given topics and returns the event channel and cleanup function
func (h *Hub) Subscribe(topics ...string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 16)

	for _, topic := range topics {
		if h.subscribers[topic] == nil {
			h.subscribers[topic] = make(map[chan Event]struct{})
		}
		h.subscribers[topic][ch] = struct{}{}
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, topic := range topics {
				delete(h.subscribers[topic], ch)
				if len(h.subscribers[topic]) == 0 {
					delete(h.subscribers, topic)
				}
			}
			close(ch)
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a topic
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
			// Skip if channel is full (non-blocking to prevent deadlock)
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}
