package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Relay pipeline metrics
	InterceptsTotal prometheus.Counter
	DecisionsTotal  *prometheus.CounterVec // by action
	BypassTotal     *prometheus.CounterVec // by reason: "disabled", "unreachable"
	StaleDecisions  prometheus.Counter
	PendingActive   prometheus.Gauge

	// Analysis metrics
	AnalysisTotal    *prometheus.CounterVec // by outcome: "ok", "timeout", "error"
	AnalysisDuration prometheus.Histogram

	// Gateway metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec // by type

	// Relay metrics
	RelayDropped prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on its own registry so
// tests can create collectors without duplicate-registration panics.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		InterceptsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "txgate_intercepts_total",
			Help: "Total number of intercepted transaction-send calls",
		}),
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txgate_decisions_total",
			Help: "Operator decisions by action",
		}, []string{"action"}),
		BypassTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txgate_bypass_total",
			Help: "Synthesized approvals that never reached the operator",
		}, []string{"reason"}),
		StaleDecisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "txgate_stale_decisions_total",
			Help: "Decision messages ignored because their id no longer matches",
		}),
		PendingActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txgate_pending_active",
			Help: "Whether a transaction currently awaits a decision (0 or 1)",
		}),

		AnalysisTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txgate_analysis_requests_total",
			Help: "Analysis backend dispatches by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txgate_analysis_duration_seconds",
			Help:    "Analysis backend round-trip duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txgate_ws_connections",
			Help: "Currently connected gateway sessions",
		}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "txgate_ws_messages_total",
			Help: "Gateway frames by message type",
		}, []string{"type"}),

		RelayDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "txgate_relay_dropped_total",
			Help: "Messages dropped because the receiving context was not attached",
		}),

		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txgate_uptime_seconds",
			Help: "Process uptime in seconds",
		}),
	}

	return m, reg
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// ObserveAnalysis records one analysis dispatch.
func (m *Metrics) ObserveAnalysis(outcome string, elapsed time.Duration) {
	m.AnalysisTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}
