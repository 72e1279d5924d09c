// Package metrics owns the prometheus registry of cute and the collectors
// recording bean lifecycle and error dispatch activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry (unified registration for all components)
var registry = prometheus.NewRegistry()

// Registry returns the global registry.
func Registry() *prometheus.Registry {
	return registry
}

// RegisterCollector registers c with reg, or with the global registry when
// reg is nil. A collector registered before is not an error.
func RegisterCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if c == nil {
		return nil
	}
	if reg == nil {
		reg = registry
	}
	_, err := register(reg, c)
	return err
}

// Handler serves the global registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
