// Package dispatch routes caught failures to handlers registered for their
// kind. Dispatch is synchronous and never fails: a broken handler is reported
// through the fallback logger and the failure is still logged.
package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/events"
	"github.com/go-lynx/cute/i18n"
	"github.com/go-lynx/cute/log"
	"github.com/go-lynx/cute/observability/metrics"
)

// Routes reported to metrics.
const (
	RouteHandler        = "handler"
	RouteDefault        = "default"
	RouteUndispatchable = "undispatchable"
)

// ErrHandlerExists is returned when a kind or sentinel already has a handler.
var ErrHandlerExists = errors.New("error handler already registered")

// HandlerFunc handles a dispatched failure.
type HandlerFunc func(err error)

type sentinelHandler struct {
	target     error
	comparable bool
	handler    HandlerFunc
}

// Dispatcher routes failures to the most specific registered handler.
type Dispatcher struct {
	mu             sync.RWMutex
	kinds          map[beans.ErrorKind]HandlerFunc
	sentinels      []sentinelHandler
	undispatchable map[beans.ErrorKind]bool
	fallback       HandlerFunc
	observers      []HandlerFunc

	bus      *events.Bus
	metrics  *metrics.BeanMetrics
	messages *Messages
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBus sets the bus receiving undispatchable failures.
func WithBus(bus *events.Bus) Option {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithMetrics records dispatch routes.
func WithMetrics(m *metrics.BeanMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithCatalog localizes the messages of the default handler.
func WithCatalog(c *i18n.Catalog, lang string) Option {
	return func(d *Dispatcher) { d.messages = NewMessages(c, lang) }
}

// WithDefaultHandler replaces the logging default handler.
func WithDefaultHandler(h HandlerFunc) Option {
	return func(d *Dispatcher) { d.fallback = h }
}

// WithObserver adds h to the functions seeing every dispatched failure
// before it is routed. Observers cannot consume a failure.
func WithObserver(h HandlerFunc) Option {
	return func(d *Dispatcher) {
		if h != nil {
			d.observers = append(d.observers, h)
		}
	}
}

// NewDispatcher creates a dispatcher. KindUndispatchable is always marked
// undispatchable.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		kinds:          make(map[beans.ErrorKind]HandlerFunc),
		undispatchable: map[beans.ErrorKind]bool{beans.KindUndispatchable: true},
		messages:       NewMessages(nil, ""),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.fallback == nil {
		d.fallback = d.logFailure
	}
	return d
}

// Handle registers h for failures of kind.
func (d *Dispatcher) Handle(kind beans.ErrorKind, h HandlerFunc) error {
	if h == nil {
		return errors.New("error handler is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.kinds[kind]; exists {
		return fmt.Errorf("%w: kind %s", ErrHandlerExists, kind)
	}
	d.kinds[kind] = h
	return nil
}

// HandleError registers h for failures matching target. A link of the error
// chain matches when it is target or its Is method reports target.
func (d *Dispatcher) HandleError(target error, h HandlerFunc) error {
	if target == nil || h == nil {
		return errors.New("error handler target and func must not be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sentinels {
		if s.comparable && s.target == target {
			return fmt.Errorf("%w: %v", ErrHandlerExists, target)
		}
	}
	d.sentinels = append(d.sentinels, sentinelHandler{
		target:     target,
		comparable: reflect.TypeOf(target).Comparable(),
		handler:    h,
	})
	return nil
}

// MarkUndispatchable routes failures of the given kinds to the
// undispatchable notification instead of a handler.
func (d *Dispatcher) MarkUndispatchable(kinds ...beans.ErrorKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range kinds {
		d.undispatchable[k] = true
	}
}

// Dispatch hands err to its handler. It never panics.
func (d *Dispatcher) Dispatch(err error) {
	if err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Fallback("ERROR", fmt.Sprintf("error dispatch failed: panic=%v original=%v", r, err))
		}
	}()

	for _, o := range d.observers {
		d.invoke(o, err)
	}

	kind := beans.KindOf(err)
	if d.isUndispatchable(err, kind) {
		d.metrics.ErrorDispatched(kind.String(), RouteUndispatchable)
		d.notifyUndispatchable(err)
		return
	}

	if h := d.lookup(err); h != nil {
		d.metrics.ErrorDispatched(kind.String(), RouteHandler)
		if d.invoke(h, err) {
			return
		}
		// handler broke, make sure the failure is still visible
		d.invoke(d.fallback, err)
		return
	}
	d.metrics.ErrorDispatched(kind.String(), RouteDefault)
	if !d.invoke(d.fallback, err) {
		log.Fallback("ERROR", d.messages.Text(err))
	}
}

func (d *Dispatcher) isUndispatchable(err error, kind beans.ErrorKind) bool {
	var u beans.Undispatchable
	if errors.As(err, &u) && u.Undispatchable() {
		return true
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.undispatchable[kind]
}

func (d *Dispatcher) notifyUndispatchable(err error) {
	if d.bus == nil {
		d.invoke(d.logFailure, err)
		return
	}
	d.bus.Publish(events.NewEvent(events.EventErrorUndispatchable).WithError(err))
}

// lookup walks the error chain outermost first and returns the handler of
// the first link that has one.
func (d *Dispatcher) lookup(err error) HandlerFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()

	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		if be, ok := e.(*beans.Error); ok {
			if h, ok := d.kinds[be.Kind]; ok {
				return h
			}
		}
		for _, s := range d.sentinels {
			if s.comparable && e == s.target {
				return s.handler
			}
			if is, ok := e.(interface{ Is(error) bool }); ok && is.Is(s.target) {
				return s.handler
			}
		}
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		}
	}
	return nil
}

// invoke runs h and reports whether it returned normally.
func (d *Dispatcher) invoke(h HandlerFunc, err error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Fallback("ERROR", fmt.Sprintf("error handler panicked: panic=%v original=%v", r, err))
			ok = false
		}
	}()
	h(err)
	return true
}

// logFailure is the default handler. Structured failures are logged with
// their payload; anything else is logged as an unknown failure.
func (d *Dispatcher) logFailure(err error) {
	// the logger expands lifecycle errors into kind, bean, resolver and method
	var be *beans.Error
	if errors.As(err, &be) {
		log.Errorw("msg", d.messages.Text(err), "error", err)
		return
	}
	log.Errorw(
		"msg", "unknown failure: "+d.messages.Text(err),
		"kind", beans.KindUnknown.String(),
		"error", err,
	)
}
