package cute

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/dispatch"
	"github.com/go-lynx/cute/events"
	"github.com/go-lynx/cute/factory"
	"github.com/go-lynx/cute/log"
	"github.com/go-lynx/cute/observability/metrics"
)

const tracerName = "github.com/go-lynx/cute"

// State is the position of a Manager in the bean creation protocol.
type State int32

const (
	// StateIdle accepts a single CreateAll call.
	StateIdle State = iota
	// StateScanning is reading descriptors from the registry.
	StateScanning
	// StateInstantiating is creating and resolving beans one by one.
	StateInstantiating
	// StateDone is terminal: every component was processed.
	StateDone
	// StateFailed is terminal: the scan failed and no bean was created.
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateScanning:
		return "Scanning"
	case StateInstantiating:
		return "Instantiating"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Bean is an entry of the bean table.
type Bean struct {
	Name     string
	TypeID   string
	Instance any
}

// Manager drives the bean creation protocol. The zero value is not usable;
// create one with NewManager.
type Manager struct {
	scanner    Scanner
	namespaces []string
	names      factory.NameResolver
	bus        *events.Bus
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.BeanMetrics
	tracer     trace.Tracer

	mu      sync.RWMutex
	state   State
	current int
	total   int
	table   map[string]*Bean
	created []*Bean

	classBindings  []beans.ClassResolverBinding
	methodBindings []beans.MethodResolverBinding
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNamespaces restricts the scan to the given namespaces.
func WithNamespaces(ns ...string) ManagerOption {
	return func(m *Manager) { m.namespaces = append([]string(nil), ns...) }
}

// WithNameResolver replaces factory.DefaultName for components without a
// declared name.
func WithNameResolver(r factory.NameResolver) ManagerOption {
	return func(m *Manager) {
		if r != nil {
			m.names = r
		}
	}
}

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus *events.Bus) ManagerOption {
	return func(m *Manager) { m.bus = bus }
}

// WithDispatcher routes component failures to d.
func WithDispatcher(d *dispatch.Dispatcher) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// WithBeanMetrics records created beans and failures.
func WithBeanMetrics(bm *metrics.BeanMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = bm }
}

// WithTracerProvider traces CreateAll with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ManagerOption {
	return func(m *Manager) {
		if tp != nil {
			m.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewManager creates an idle manager reading components from scanner.
func NewManager(scanner Scanner, opts ...ManagerOption) *Manager {
	m := &Manager{
		scanner: scanner,
		names:   factory.DefaultName,
		table:   make(map[string]*Bean),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dispatcher == nil {
		m.dispatcher = dispatch.NewDispatcher(dispatch.WithBus(m.bus), dispatch.WithMetrics(m.metrics))
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	return m
}

// CreateAll scans, orders, instantiates and resolves every component. It may
// be called once. Any later or nested call fails with a protocol violation
// before anything is scanned.
//
// Failures of single components are dispatched and the component is skipped.
// The returned error is either a protocol violation or the scan failure.
func (m *Manager) CreateAll(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}

	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "cute.CreateAll")
	defer span.End()

	m.publish(events.NewEvent(events.EventBeforeAllBeansLoaded))

	descriptors, err := m.scan()
	if err != nil {
		m.setState(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		log.Errorw("msg", "component scan failed", "error", err)
		return err
	}
	sorted := SortDescriptors(descriptors)
	span.SetAttributes(attribute.Int("cute.components", len(sorted)))

	m.mu.Lock()
	m.state = StateInstantiating
	m.total = len(sorted)
	m.mu.Unlock()

	for i, d := range sorted {
		m.mu.Lock()
		m.current = i
		m.mu.Unlock()
		m.load(ctx, d)
	}

	m.setState(StateDone)
	m.publish(events.NewEvent(events.EventAfterAllBeansLoaded))

	elapsed := time.Since(start)
	m.metrics.ObserveCreateAll(elapsed)
	span.SetAttributes(attribute.Int("cute.beans", m.Len()))
	log.Infof("created %d of %d beans in %s", m.Len(), len(sorted), elapsed)
	return nil
}

// begin moves an idle manager to scanning.
func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return &beans.Error{Kind: beans.KindProtocolViolation, State: m.state.String()}
	}
	m.state = StateScanning
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) scan() (ds []beans.Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &beans.Error{Kind: beans.KindScan, Cause: beans.PanicError(r)}
		}
	}()
	if m.scanner == nil {
		return nil, &beans.Error{Kind: beans.KindScan, Cause: errors.New("no component scanner")}
	}
	ds, err = m.scanner.Scan(m.namespaces...)
	if err != nil && !errors.Is(err, beans.ErrScan) {
		err = &beans.Error{Kind: beans.KindScan, Cause: err}
	}
	return ds, err
}

// load runs the per-component steps for d.
func (m *Manager) load(ctx context.Context, d beans.Descriptor) {
	name := m.resolveName(d)
	_, span := m.tracer.Start(ctx, "cute.bean", trace.WithAttributes(
		attribute.String("bean.name", name),
		attribute.String("bean.type", d.TypeID),
	))
	defer span.End()

	m.publish(events.NewEvent(events.EventBeforeBeanLoaded).WithName(name))

	instance, err := instantiate(d)
	if err != nil {
		m.fail(span, beans.NewError(beans.KindInstantiation, name, err))
		return
	}
	if err := m.put(name, d.TypeID, instance); err != nil {
		m.fail(span, err)
		return
	}
	m.metrics.BeanCreated()
	log.Debugf("bean %s (%s) created", name, d.TypeID)

	m.resolveClass(span, name, d, instance)
	m.resolveMethods(span, name, instance)
	if d.IsResolver() {
		m.bind(span, name, d, instance)
	}

	m.publish(events.NewEvent(events.EventAfterBeanLoaded).WithName(name).WithBean(instance))
}

func (m *Manager) resolveName(d beans.Descriptor) string {
	if d.Name != "" {
		return d.Name
	}
	return m.names(d.TypeID)
}

func instantiate(d beans.Descriptor) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, beans.PanicError(r)
		}
	}()
	instance, err = d.Factory()
	if err == nil && isNil(instance) {
		err = errors.New("factory returned no instance")
	}
	return instance, err
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// put adds the bean to the table unless the name is taken.
func (m *Manager) put(name, typeID string, instance any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.table[name]; ok {
		return &beans.Error{
			Kind:  beans.KindNameConflict,
			Bean:  name,
			Cause: fmt.Errorf("%s is already registered by %s", typeID, existing.TypeID),
		}
	}
	b := &Bean{Name: name, TypeID: typeID, Instance: instance}
	m.table[name] = b
	m.created = append(m.created, b)
	return nil
}

// resolveClass hands instance to every class resolver targeting one of the
// descriptor markers.
func (m *Manager) resolveClass(span trace.Span, name string, d beans.Descriptor, instance any) {
	for _, b := range m.classBindingsFor(d) {
		if err := safeCall(func() error { return b.Resolver.Resolve(instance) }); err != nil {
			m.fail(span, beans.ResolverError(name, b.Name, "", err))
		}
	}
}

func (m *Manager) classBindingsFor(d beans.Descriptor) []beans.ClassResolverBinding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []beans.ClassResolverBinding
	for _, b := range m.classBindings {
		if d.HasMarker(b.Target) {
			out = append(out, b)
		}
	}
	return out
}

// resolveMethods hands every marked method of instance to the method
// resolvers targeting its marker. A method failing the resolver's shape is
// reported and never passed on.
func (m *Manager) resolveMethods(span trace.Span, name string, instance any) {
	provider, ok := instance.(beans.MethodProvider)
	if !ok {
		return
	}
	var methods []beans.Method
	if err := safeCall(func() error {
		methods = provider.Methods()
		return nil
	}); err != nil {
		m.fail(span, &beans.Error{Kind: beans.KindResolver, Bean: name, Method: "Methods", Cause: err})
		return
	}

	for _, method := range methods {
		for _, b := range m.methodBindingsFor(method.Marker) {
			if shaped, ok := b.Resolver.(beans.ShapedResolver); ok {
				if err := beans.CheckShape(name, b.Name, method, shaped.Shape()); err != nil {
					m.fail(span, err)
					continue
				}
			}
			if err := safeCall(func() error { return b.Resolver.ResolveMethod(instance, method) }); err != nil {
				m.fail(span, beans.ResolverError(name, b.Name, method.Name, err))
			}
		}
	}
}

func (m *Manager) methodBindingsFor(marker beans.Marker) []beans.MethodResolverBinding {
	if marker == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []beans.MethodResolverBinding
	for _, b := range m.methodBindings {
		if b.Target == marker {
			out = append(out, b)
		}
	}
	return out
}

// bind registers a resolver bean for the components instantiated after it.
func (m *Manager) bind(span trace.Span, name string, d beans.Descriptor, instance any) {
	if d.ClassResolverFor != "" {
		if r, ok := instance.(beans.ClassResolver); ok {
			m.mu.Lock()
			m.classBindings = append(m.classBindings, beans.ClassResolverBinding{Target: d.ClassResolverFor, Name: name, Resolver: r})
			m.mu.Unlock()
			log.Debugf("class resolver %s bound to marker %s", name, d.ClassResolverFor)
		} else {
			m.fail(span, beans.ResolverError(name, name, "", fmt.Errorf("%T does not implement beans.ClassResolver", instance)))
		}
	}
	if d.MethodResolverFor != "" {
		if r, ok := instance.(beans.MethodResolver); ok {
			m.mu.Lock()
			m.methodBindings = append(m.methodBindings, beans.MethodResolverBinding{Target: d.MethodResolverFor, Name: name, Resolver: r})
			m.mu.Unlock()
			log.Debugf("method resolver %s bound to marker %s", name, d.MethodResolverFor)
		} else {
			m.fail(span, beans.ResolverError(name, name, "", fmt.Errorf("%T does not implement beans.MethodResolver", instance)))
		}
	}
}

// fail records err on the span and hands it to the dispatcher.
func (m *Manager) fail(span trace.Span, err error) {
	kind := beans.KindOf(err)
	span.RecordError(err, trace.WithAttributes(attribute.String("cute.error.kind", kind.String())))
	span.SetStatus(codes.Error, kind.String())
	m.metrics.BeanFailed(kind.String())
	m.dispatcher.Dispatch(err)
}

func (m *Manager) publish(ev events.Event) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(ev)
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = beans.PanicError(r)
		}
	}()
	return fn()
}
