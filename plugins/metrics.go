package plugins

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-lynx/cute/log"
	"github.com/go-lynx/cute/observability/metrics"
)

// MetricsProvider is implemented by plugins exporting their own collectors.
type MetricsProvider interface {
	Collectors() []prometheus.Collector
}

// RegisterCollectors registers the collectors of every plugin in ps that
// provides them with reg. A collector that cannot be registered is logged and
// skipped.
func RegisterCollectors(reg prometheus.Registerer, ps []Plugin) {
	for _, p := range ps {
		mp, ok := p.(MetricsProvider)
		if !ok {
			continue
		}
		for _, c := range mp.Collectors() {
			if err := metrics.RegisterCollector(reg, c); err != nil {
				log.Warnf("plugin %s (%s) collector not registered: %v", p.Name(), p.ID(), err)
			}
		}
	}
}
