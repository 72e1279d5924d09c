package events

import (
	"sync"
)

// History keeps the most recent events published on a bus.
type History struct {
	mu      sync.RWMutex
	events  []Event
	maxSize int
}

// NewHistory creates a history holding at most maxSize events.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &History{
		events:  make([]Event, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an event, dropping the oldest when full.
func (h *History) Add(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == h.maxSize {
		copy(h.events, h.events[1:])
		h.events = h.events[:len(h.events)-1]
	}
	h.events = append(h.events, ev)
}

// Events returns a copy of the recorded events, oldest first. With types it
// returns only events of those types.
func (h *History) Events(types ...EventType) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, 0, len(h.events))
	for _, ev := range h.events {
		if len(types) == 0 || containsType(types, ev.EventType) {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

func containsType(types []EventType, t EventType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
