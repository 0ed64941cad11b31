package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// CommandsTotal counts dispatched commands by name.
	CommandsTotal *prometheus.CounterVec
	// ConnectionsActive tracks open client connections.
	ConnectionsActive prometheus.Gauge
	// ExpiredTotal counts entries removed by expiration sweeps.
	ExpiredTotal prometheus.Counter
	// PublishedTotal counts PUBLISH commands delivered.
	PublishedTotal prometheus.Counter
}

// NewRegistry creates the collectors. keys, when non-nil, is sampled as
// the live key count gauge.
func NewRegistry(keys func() float64) *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "radixkv_commands_total",
			Help: "Commands dispatched, by command name.",
		}, []string{"cmd"}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "radixkv_connections_active",
			Help: "Open client connections.",
		}),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radixkv_expired_keys_total",
			Help: "Keys evicted by expiration sweeps.",
		}),
		PublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "radixkv_pubsub_published_total",
			Help: "PUBLISH commands processed.",
		}),
	}
	reg.MustRegister(r.CommandsTotal, r.ConnectionsActive, r.ExpiredTotal, r.PublishedTotal)
	reg.MustRegister(collectors.NewGoCollector())
	if keys != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "radixkv_keys",
			Help: "Live keys in the keyspace.",
		}, keys))
	}
	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
