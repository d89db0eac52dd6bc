package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics owns the daemon's Prometheus registry. Bridge counters are scraped
// live from the connection; publish and render outcomes are counted here.
type metrics struct {
	registry *prometheus.Registry

	publishRuns   *prometheus.CounterVec
	renderRuns    *prometheus.CounterVec
	reconnects    prometheus.Counter
	panelCommands prometheus.Counter
}

func newMetrics(d *Daemon) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		publishRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slate",
			Name:      "publish_runs_total",
			Help:      "Publish runs by result.",
		}, []string{"result"}),
		renderRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slate",
			Name:      "render_runs_total",
			Help:      "Forced render runs by result.",
		}, []string{"result"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slate",
			Name:      "bridge_reconnects_total",
			Help:      "Times the daemon redialed the host panel.",
		}),
		panelCommands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slate",
			Name:      "panel_commands_total",
			Help:      "Commands invoked from the panel shelf.",
		}),
	}

	m.registry.MustRegister(m.publishRuns, m.renderRuns, m.reconnects, m.panelCommands)

	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "slate",
		Name:      "bridge_connected",
		Help:      "1 while the host panel connection is up.",
	}, func() float64 {
		if d.Connected() {
			return 1
		}
		return 0
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slate",
		Name:      "bridge_calls_total",
		Help:      "RPC calls issued into the host.",
	}, func() float64 {
		return float64(d.bridgeStats().Calls)
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slate",
		Name:      "bridge_timeouts_total",
		Help:      "RPC calls that hit the response timeout.",
	}, func() float64 {
		return float64(d.bridgeStats().Timeouts)
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slate",
		Name:      "bridge_host_errors_total",
		Help:      "RPC calls the host answered with an error.",
	}, func() float64 {
		return float64(d.bridgeStats().HostErrors)
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slate",
		Name:      "bridge_events_total",
		Help:      "Named events received from the panel.",
	}, func() float64 {
		return float64(d.bridgeStats().Events)
	}))
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slate",
		Name:      "bridge_heartbeat_failures_total",
		Help:      "Heartbeat pings the host failed to answer.",
	}, func() float64 {
		return float64(d.heartbeatFailures())
	}))

	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
