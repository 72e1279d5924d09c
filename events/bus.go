package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	kelindarEvent "github.com/kelindar/event"
	ants "github.com/panjf2000/ants/v2"

	"github.com/go-lynx/cute/conf"
	"github.com/go-lynx/cute/log"
)

// ErrBusClosed is returned when subscribing to a closed bus.
var ErrBusClosed = errors.New("event bus closed")

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events to synchronous and asynchronous subscribers.
type Bus struct {
	// kelindar/event dispatcher for asynchronous subscribers
	dispatcher *kelindarEvent.Dispatcher
	// worker pool feeding the dispatcher
	workerPool *ants.Pool

	mu sync.RWMutex
	// synchronous subscribers by event type; key 0 holds catch-all subscribers
	syncSubs map[EventType][]subscription
	nextID   atomic.Uint64

	// pending publishes not yet handed to the dispatcher; at most one drain
	// task runs at a time so subscribers see publish order
	pendMu   sync.Mutex
	pending  []Event
	draining bool

	history  *History
	isClosed atomic.Bool
	// asyncWG tracks the running drain task for Close
	asyncWG sync.WaitGroup
}

// NewBus creates a bus. The worker pool is sized by cfg.Workers and runs the
// hand-off of publishes to asynchronous subscribers; when the pool cannot be
// created the bus hands them off inline.
func NewBus(cfg conf.Events) *Bus {
	b := &Bus{
		dispatcher: kelindarEvent.NewDispatcher(),
		syncSubs:   make(map[EventType][]subscription),
		history:    NewHistory(256),
	}
	poolSize := max(cfg.Workers, 1)
	maxBlock := max(cfg.MaxBlocking, poolSize*4)
	if p, err := ants.NewPool(poolSize, ants.WithNonblocking(false), ants.WithMaxBlockingTasks(maxBlock)); err == nil {
		b.workerPool = p
	} else {
		log.Warnf("event worker pool init failed, fallback to inline publish: err=%v", err)
	}
	return b
}

// History returns the recent events published on the bus.
func (b *Bus) History() *History {
	return b.history
}

// Subscribe registers a synchronous handler for t. The handler runs on the
// publishing goroutine before Publish returns. A zero t subscribes to every
// event type.
func (b *Bus) Subscribe(t EventType, h Handler) (context.CancelFunc, error) {
	if h == nil {
		return nil, errors.New("event handler is nil")
	}
	if b.isClosed.Load() {
		return nil, ErrBusClosed
	}
	id := b.nextID.Add(1)
	b.mu.Lock()
	b.syncSubs[t] = append(b.syncSubs[t], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(t, id) })
	}, nil
}

func (b *Bus) unsubscribe(t EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.syncSubs[t]
	for i, s := range subs {
		if s.id == id {
			b.syncSubs[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// SubscribeAsync registers an asynchronous handler for the given types, or
// for every built-in type when none are given. Delivery order per handler
// follows publish order; publishers never wait for the handler.
func (b *Bus) SubscribeAsync(h Handler, types ...EventType) (context.CancelFunc, error) {
	if h == nil {
		return nil, errors.New("event handler is nil")
	}
	if b.isClosed.Load() {
		return nil, ErrBusClosed
	}
	if len(types) == 0 {
		types = BuiltinTypes()
	}
	wrapped := func(ev Event) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("async event handler panicked: type=%s panic=%v", ev.EventType, r)
			}
		}()
		h(ev)
	}
	cancels := make([]context.CancelFunc, 0, len(types))
	for _, t := range types {
		cancels = append(cancels, kelindarEvent.SubscribeTo(b.dispatcher, uint32(t), wrapped))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}, nil
}

// Publish delivers ev to synchronous subscribers, then hands it to the
// asynchronous side without waiting. Handler panics are recovered and logged.
func (b *Bus) Publish(ev Event) {
	if b.isClosed.Load() {
		log.Debugf("event %s dropped: bus closed", ev.EventType)
		return
	}
	b.history.Add(ev)

	b.mu.RLock()
	typed := b.syncSubs[ev.EventType]
	all := b.syncSubs[0]
	subs := make([]subscription, 0, len(typed)+len(all))
	subs = append(subs, typed...)
	if ev.EventType != 0 {
		subs = append(subs, all...)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(s.handler, ev)
	}
	b.publishAsync(ev)
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("event handler panicked: type=%s name=%s panic=%v", ev.EventType, ev.Name, r)
		}
	}()
	h(ev)
}

func (b *Bus) publishAsync(ev Event) {
	if b.workerPool == nil {
		kelindarEvent.Publish(b.dispatcher, ev)
		return
	}
	b.pendMu.Lock()
	b.pending = append(b.pending, ev)
	if b.draining {
		b.pendMu.Unlock()
		return
	}
	b.draining = true
	b.pendMu.Unlock()

	b.asyncWG.Add(1)
	if err := b.workerPool.Submit(b.drain); err != nil {
		log.Warnf("event worker pool rejected publish, delivering inline: type=%s err=%v", ev.EventType, err)
		b.drain()
	}
}

// drain hands pending events to the dispatcher in publish order until the
// queue is empty.
func (b *Bus) drain() {
	defer b.asyncWG.Done()
	for {
		b.pendMu.Lock()
		batch := b.pending
		b.pending = nil
		if len(batch) == 0 {
			b.draining = false
			b.pendMu.Unlock()
			return
		}
		b.pendMu.Unlock()
		for _, ev := range batch {
			kelindarEvent.Publish(b.dispatcher, ev)
		}
	}
}

// Close stops accepting events, waits for queued publishes to reach the
// dispatcher and releases the pool and dispatcher.
func (b *Bus) Close() error {
	if !b.isClosed.CompareAndSwap(false, true) {
		return nil
	}
	b.asyncWG.Wait()
	if b.workerPool != nil {
		b.workerPool.Release()
	}
	return b.dispatcher.Close()
}
