package cute

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-lynx/cute/conf"
	"github.com/go-lynx/cute/dispatch"
	"github.com/go-lynx/cute/events"
	"github.com/go-lynx/cute/factory"
	"github.com/go-lynx/cute/i18n"
	"github.com/go-lynx/cute/log"
	"github.com/go-lynx/cute/observability/metrics"
	"github.com/go-lynx/cute/plugins"
)

var (
	// defaultApp is the process-wide App installed with SetDefault
	defaultApp *App
	defaultMu  sync.RWMutex
)

// Default returns the process-wide App, or nil when none was installed.
func Default() *App {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultApp
}

// SetDefault installs a as the process-wide App. Collaborators should
// receive the App explicitly; the default exists for programs that assemble
// one App at startup.
func SetDefault(a *App) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultApp = a
}

// App assembles a Manager with the event bus, the error dispatcher, the
// message catalog, metrics and plugins.
type App struct {
	cfg *conf.Bootstrap

	registry   *factory.Registry
	builtin    *factory.Registry
	pluginReg  *factory.Registry
	loader     *plugins.Loader
	prepared   []plugins.Plugin
	catalog    *i18n.Catalog
	bus        *events.Bus
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.BeanMetrics
	manager    *Manager

	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	nameResolver   factory.NameResolver
	dispatchOpts   []dispatch.Option

	closeOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithRegistry scans r for user components instead of factory.Default().
func WithRegistry(r *factory.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithPluginLoader takes plugins from l instead of plugins.Default().
func WithPluginLoader(l *plugins.Loader) Option {
	return func(a *App) { a.loader = l }
}

// WithCatalog uses c for failure messages. The built-in templates are added
// to it for languages it does not cover.
func WithCatalog(c *i18n.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithRegisterer registers metrics with reg instead of the package registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.registerer = reg }
}

// WithTracer traces the bean creation with tp.
func WithTracer(tp trace.TracerProvider) Option {
	return func(a *App) { a.tracerProvider = tp }
}

// WithNames replaces the default naming of components without a declared name.
func WithNames(r factory.NameResolver) Option {
	return func(a *App) { a.nameResolver = r }
}

// WithDispatchOptions configures the error dispatcher further, e.g. with
// dispatch.WithObserver.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(a *App) { a.dispatchOpts = append(a.dispatchOpts, opts...) }
}

// New assembles an App from cfg. A nil cfg uses conf.Defaults().
func New(cfg *conf.Bootstrap, opts ...Option) (*App, error) {
	if cfg == nil {
		d := conf.Defaults()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = factory.Default()
	}
	if a.loader == nil {
		a.loader = plugins.Default()
	}
	if a.registerer == nil {
		a.registerer = metrics.Registry()
	}
	if a.catalog == nil {
		a.catalog = i18n.NewCatalog("en")
	}
	have := make(map[string]bool)
	for _, lang := range a.catalog.Languages() {
		have[lang] = true
	}
	for lang, msgs := range dispatch.DefaultMessages() {
		if !have[lang] {
			a.catalog.Add(lang, msgs)
		}
	}
	for _, path := range cfg.Messages {
		if err := loadBundle(a.catalog, path); err != nil {
			return nil, err
		}
	}

	bm, err := metrics.NewBeanMetrics(a.registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register bean metrics: %w", err)
	}
	a.metrics = bm
	a.bus = events.NewBus(cfg.Events)
	a.dispatcher = dispatch.NewDispatcher(append([]dispatch.Option{
		dispatch.WithBus(a.bus),
		dispatch.WithMetrics(bm),
		dispatch.WithCatalog(a.catalog, cfg.Locale),
	}, a.dispatchOpts...)...)

	a.builtin = factory.NewRegistry()
	if err := events.RegisterResolvers(a.builtin, a.bus); err != nil {
		_ = a.bus.Close()
		return nil, err
	}
	if err := dispatch.RegisterResolvers(a.builtin, a.dispatcher); err != nil {
		_ = a.bus.Close()
		return nil, err
	}

	a.pluginReg = factory.NewRegistry()
	prepared, err := a.loader.Prepare(a.pluginReg, cfg.Plugins)
	if err != nil {
		_ = a.bus.Close()
		return nil, fmt.Errorf("failed to prepare plugins: %w", err)
	}
	a.prepared = prepared
	plugins.RegisterCollectors(a.registerer, prepared)

	// namespaces restrict the user registry only; built-in resolvers and the
	// components of enabled plugins always take part
	a.manager = NewManager(
		JoinScanners(Unfiltered(a.builtin), a.registry, Unfiltered(a.pluginReg)),
		WithNamespaces(cfg.Namespaces...),
		WithNameResolver(a.nameResolver),
		WithEventBus(a.bus),
		WithDispatcher(a.dispatcher),
		WithBeanMetrics(bm),
		WithTracerProvider(a.tracerProvider),
	)
	return a, nil
}

func loadBundle(c *i18n.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open message bundle: %w", err)
	}
	defer f.Close()
	load := c.LoadYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		load = c.LoadTOML
	}
	if err := load(f); err != nil {
		return fmt.Errorf("message bundle %s: %w", path, err)
	}
	return nil
}

// FromConfig assembles an App from the cute section of c.
func FromConfig(c config.Config, opts ...Option) (*App, error) {
	cfg, err := conf.Scan(c)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// CreateAll runs the bean creation protocol of the App's manager.
func (a *App) CreateAll(ctx context.Context) error {
	return a.manager.CreateAll(ctx)
}

// Config returns the bootstrap configuration.
func (a *App) Config() *conf.Bootstrap { return a.cfg }

// Manager returns the bean lifecycle manager.
func (a *App) Manager() *Manager { return a.manager }

// Bus returns the event bus.
func (a *App) Bus() *events.Bus { return a.bus }

// Dispatcher returns the error dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Catalog returns the message catalog.
func (a *App) Catalog() *i18n.Catalog { return a.catalog }

// Plugins returns the plugins whose components were registered.
func (a *App) Plugins() []plugins.Plugin {
	return append([]plugins.Plugin(nil), a.prepared...)
}

// Close releases the event bus. Beans have no destroy path and are left as is.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.bus.Close()
		if Default() == a {
			SetDefault(nil)
		}
		log.Debugf("app closed")
	})
	return err
}
