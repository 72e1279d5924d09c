package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BeanMetrics records the bean creation pass and error dispatch.
// A nil *BeanMetrics is valid and records nothing.
type BeanMetrics struct {
	BeansCreated     prometheus.Counter
	BeanFailures     *prometheus.CounterVec
	CreateAllSeconds prometheus.Histogram
	Dispatched       *prometheus.CounterVec
}

// NewBeanMetrics creates the collectors and registers them with reg.
// Collectors already registered on reg are reused.
func NewBeanMetrics(reg prometheus.Registerer) (*BeanMetrics, error) {
	m := &BeanMetrics{
		BeansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cute",
			Subsystem: "beans",
			Name:      "created_total",
			Help:      "Number of beans instantiated and registered.",
		}),
		BeanFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cute",
			Subsystem: "beans",
			Name:      "failures_total",
			Help:      "Number of per-bean failures by error kind.",
		}, []string{"kind"}),
		CreateAllSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cute",
			Subsystem: "beans",
			Name:      "create_all_seconds",
			Help:      "Duration of the bean creation pass.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cute",
			Subsystem: "dispatch",
			Name:      "errors_total",
			Help:      "Number of dispatched failures by kind and route.",
		}, []string{"kind", "route"}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	m.BeansCreated, err = register(reg, m.BeansCreated)
	if err != nil {
		return nil, err
	}
	m.BeanFailures, err = register(reg, m.BeanFailures)
	if err != nil {
		return nil, err
	}
	m.CreateAllSeconds, err = register(reg, m.CreateAllSeconds)
	if err != nil {
		return nil, err
	}
	m.Dispatched, err = register(reg, m.Dispatched)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// BeanCreated counts a registered bean.
func (m *BeanMetrics) BeanCreated() {
	if m == nil {
		return
	}
	m.BeansCreated.Inc()
}

// BeanFailed counts a per-bean failure of the given kind.
func (m *BeanMetrics) BeanFailed(kind string) {
	if m == nil {
		return
	}
	m.BeanFailures.WithLabelValues(kind).Inc()
}

// ObserveCreateAll records the duration of a creation pass.
func (m *BeanMetrics) ObserveCreateAll(d time.Duration) {
	if m == nil {
		return
	}
	m.CreateAllSeconds.Observe(d.Seconds())
}

// ErrorDispatched counts a dispatched failure. Route is "handler", "default"
// or "undispatchable".
func (m *BeanMetrics) ErrorDispatched(kind, route string) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(kind, route).Inc()
}
