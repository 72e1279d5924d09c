package events

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/factory"
)

// Markers understood by the event resolvers.
const (
	// MarkerListener tags components implementing Listener.
	MarkerListener beans.Marker = "cute.events.listener"
	// MarkerSubscribe tags methods of shape func(Event).
	MarkerSubscribe beans.Marker = "cute.events.subscribe"
)

// ErrNotListener is returned when a bean tagged MarkerListener does not
// implement Listener.
var ErrNotListener = errors.New("bean does not implement events.Listener")

// Listener receives events.
type Listener interface {
	OnEvent(Event)
}

// TypedListener restricts a Listener to some event types.
type TypedListener interface {
	EventTypes() []EventType
}

// AsyncListener opts a Listener into asynchronous delivery.
type AsyncListener interface {
	Async() bool
}

// Subscription is the marker value of a MarkerSubscribe method.
// No types subscribes to every event (synchronous) or every built-in event
// (asynchronous).
type Subscription struct {
	Types []EventType
	Async bool
}

// ListenerResolver subscribes MarkerListener beans to the bus.
type ListenerResolver struct {
	bus *Bus
}

// NewListenerResolver creates a class resolver bound to bus.
func NewListenerResolver(bus *Bus) *ListenerResolver {
	return &ListenerResolver{bus: bus}
}

// Resolve implements beans.ClassResolver.
func (r *ListenerResolver) Resolve(bean any) error {
	l, ok := bean.(Listener)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotListener, bean)
	}
	sub := Subscription{}
	if tl, ok := bean.(TypedListener); ok {
		sub.Types = tl.EventTypes()
	}
	if al, ok := bean.(AsyncListener); ok {
		sub.Async = al.Async()
	}
	return r.bus.subscribe(sub, l.OnEvent)
}

// SubscribeResolver subscribes MarkerSubscribe methods to the bus.
type SubscribeResolver struct {
	bus *Bus
}

// NewSubscribeResolver creates a method resolver bound to bus.
func NewSubscribeResolver(bus *Bus) *SubscribeResolver {
	return &SubscribeResolver{bus: bus}
}

// Shape implements beans.ShapedResolver: subscriber methods take one Event.
func (r *SubscribeResolver) Shape() beans.MethodShape {
	return beans.MethodShape{Args: []reflect.Type{beans.TypeOf[Event]()}}
}

// ResolveMethod implements beans.MethodResolver.
func (r *SubscribeResolver) ResolveMethod(_ any, m beans.Method) error {
	fn, ok := m.Func.(func(Event))
	if !ok {
		return fmt.Errorf("method %s is %T, want func(events.Event)", m.Name, m.Func)
	}
	var sub Subscription
	switch v := m.Value.(type) {
	case nil:
	case Subscription:
		sub = v
	case EventType:
		sub.Types = []EventType{v}
	case []EventType:
		sub.Types = v
	default:
		return fmt.Errorf("method %s: unsupported subscription value %T", m.Name, m.Value)
	}
	return r.bus.subscribe(sub, fn)
}

func (b *Bus) subscribe(sub Subscription, h Handler) error {
	if sub.Async {
		_, err := b.SubscribeAsync(h, sub.Types...)
		return err
	}
	if len(sub.Types) == 0 {
		_, err := b.Subscribe(0, h)
		return err
	}
	for _, t := range sub.Types {
		if _, err := b.Subscribe(t, h); err != nil {
			return err
		}
	}
	return nil
}

// RegisterResolvers adds the listener and subscribe resolvers, bound to bus,
// to r.
func RegisterResolvers(r *factory.Registry, bus *Bus) error {
	if err := r.Register(factory.ClassResolver(MarkerListener, func() (*ListenerResolver, error) {
		return NewListenerResolver(bus), nil
	}, factory.WithName("cute.events.listenerResolver"))); err != nil {
		return err
	}
	return r.Register(factory.MethodResolver(MarkerSubscribe, func() (*SubscribeResolver, error) {
		return NewSubscribeResolver(bus), nil
	}, factory.WithName("cute.events.subscribeResolver")))
}
