// Package plugins provides the plugin-loading facility. A plugin contributes
// component registrations to a factory registry; which plugins take part is
// decided by configuration.
package plugins

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-lynx/cute/factory"
)

// Plugin contributes components to a registry.
type Plugin interface {
	// ID is the unique identifier the plugin is enabled by.
	ID() string
	// Name is a human readable name used in logs.
	Name() string
	// Register adds the plugin's components to r.
	Register(r *factory.Registry) error
}

// Func adapts a registration function into a Plugin.
type Func struct {
	PluginID   string
	PluginName string
	Fn         func(r *factory.Registry) error
	// Metrics are the collectors the plugin exports.
	Metrics []prometheus.Collector
}

// ID implements Plugin.
func (f Func) ID() string { return f.PluginID }

// Name implements Plugin. It defaults to the ID.
func (f Func) Name() string {
	if f.PluginName == "" {
		return f.PluginID
	}
	return f.PluginName
}

// Collectors implements MetricsProvider.
func (f Func) Collectors() []prometheus.Collector { return f.Metrics }

// Register implements Plugin.
func (f Func) Register(r *factory.Registry) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(r)
}
