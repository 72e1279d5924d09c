// Package events is the event bus of cute. Synchronous subscribers run on
// the publishing goroutine; asynchronous subscribers are delivered through a
// kelindar/event dispatcher fed by an ants worker pool, so publishers never
// wait for them.
package events

import (
	"fmt"
	"time"
)

// EventType represents the type of event
type EventType uint32

// Bean lifecycle event types
const (
	EventBeforeAllBeansLoaded EventType = 0x01
	EventBeforeBeanLoaded     EventType = 0x02
	EventAfterBeanLoaded      EventType = 0x03
	EventAfterAllBeansLoaded  EventType = 0x04
)

// Error event types
const (
	// EventErrorUndispatchable carries failures that bypass kind handlers.
	EventErrorUndispatchable EventType = 0x10
)

// Application event types start here. Values below are reserved.
const EventUser EventType = 0x100

var typeNames = map[EventType]string{
	EventBeforeAllBeansLoaded: "before_all_beans_loaded",
	EventBeforeBeanLoaded:     "before_bean_loaded",
	EventAfterBeanLoaded:      "after_bean_loaded",
	EventAfterAllBeansLoaded:  "after_all_beans_loaded",
	EventErrorUndispatchable:  "error_undispatchable",
}

// String returns the event type name.
func (t EventType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("event(0x%x)", uint32(t))
}

// BuiltinTypes lists the event types published by cute itself.
func BuiltinTypes() []EventType {
	return []EventType{
		EventBeforeAllBeansLoaded,
		EventBeforeBeanLoaded,
		EventAfterBeanLoaded,
		EventAfterAllBeansLoaded,
		EventErrorUndispatchable,
	}
}

// Event is a notification published on the bus.
type Event struct {
	EventType EventType
	// Name is the bean name for per-bean lifecycle events.
	Name string
	// Bean is the instance, set only once it exists.
	Bean any
	// Err is the failure of error events.
	Err error
	// Payload carries application data for user events.
	Payload   any
	Timestamp int64
}

// Type returns the event type for kelindar/event compatibility
func (e Event) Type() uint32 {
	return uint32(e.EventType)
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType) Event {
	return Event{EventType: t, Timestamp: time.Now().UnixNano()}
}

// WithName sets the bean name.
func (e Event) WithName(name string) Event {
	e.Name = name
	return e
}

// WithBean sets the bean instance.
func (e Event) WithBean(bean any) Event {
	e.Bean = bean
	return e
}

// WithError sets the event error
func (e Event) WithError(err error) Event {
	e.Err = err
	return e
}

// WithPayload sets application data.
func (e Event) WithPayload(p any) Event {
	e.Payload = p
	return e
}

// Handler receives events.
type Handler func(Event)
