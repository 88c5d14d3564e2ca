package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry and the counters/gauges the
// evaluator and session tasks update as requests are served (adapted from a
// query-client shape into an exposition registry — this domain produces
// metrics, it doesn't query an external Prometheus server).
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal        *prometheus.CounterVec
	EvaluationsTotal     prometheus.Counter
	ScriptsEmittedTotal  prometheus.Counter
	ScriptEmitErrorTotal prometheus.Counter
	DevicesInUse         prometheus.Gauge
}

// NewMetrics constructs and registers the fixed metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scriptgend_requests_total",
			Help: "Evaluator requests processed, by request_type.",
		}, []string{"request_type"}),
		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scriptgend_evaluations_total",
			Help: "Sweep configuration evaluations run.",
		}),
		ScriptsEmittedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scriptgend_scripts_emitted_total",
			Help: "Scripts successfully written to the output path.",
		}),
		ScriptEmitErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scriptgend_script_emit_errors_total",
			Help: "Script emission failures.",
		}),
		DevicesInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scriptgend_devices_in_use",
			Help: "Devices currently marked in_use in the inventory.",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.EvaluationsTotal, m.ScriptsEmittedTotal,
		m.ScriptEmitErrorTotal, m.DevicesInUse)
	return m
}

// Handler returns the /metrics HTTP exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
