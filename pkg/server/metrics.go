package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame directions recorded in the frames_total metric.
const (
	directionIn  = "in"
	directionOut = "out"
)

// metrics holds the server's collectors. A nil *metrics records nothing.
type metrics struct {
	sessions      prometheus.Gauge
	sessionsTotal prometheus.Counter
	frames        *prometheus.CounterVec
	errors        *prometheus.CounterVec
}

// newMetrics registers server metrics.
//
// Metrics collected:
//   - kinesis_server_sessions: Gauge of open sessions
//   - kinesis_server_sessions_total: Counter of sessions opened
//   - kinesis_server_frames_total: Counter of frames by direction and type
//   - kinesis_server_errors_total: Counter of errors reported to clients by code
func newMetrics(registry prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(registry)
	const subsystem = "server"
	return &metrics{
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions",
			Help:      "Number of open sessions",
		}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_total",
			Help:      "Total number of sessions opened",
		}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Total number of protocol frames",
		}, []string{"direction", "type"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors reported to clients",
		}, []string{"code"}),
	}
}

func (m *metrics) opened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
	m.sessionsTotal.Inc()
}

func (m *metrics) closed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *metrics) frame(direction, frameType string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(direction, frameType).Inc()
}

func (m *metrics) error(code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code).Inc()
}
