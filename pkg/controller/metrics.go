package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures controller metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kinesis").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures controller metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "kinesis",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Cycle results recorded in the cycles_total metric.
const (
	ResultOK           = "ok"
	ResultHostError    = "host_error"
	ResultHandlerError = "handler_error"
	ResultDropped      = "dropped"
)

// Metrics holds the Prometheus collectors shared by every controller of a
// process. A nil *Metrics records nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
	hostOps       *prometheus.CounterVec
	rollbacks     prometheus.Counter
	identifiers   prometheus.Gauge
	instances     prometheus.Gauge
}

// NewMetrics registers controller metrics.
//
// Metrics collected:
//   - kinesis_cycles_total: Counter of cycles by phase and result
//   - kinesis_cycle_duration_seconds: Histogram of cycle duration by phase
//   - kinesis_host_ops_total: Counter of committed host operations by kind
//   - kinesis_rollbacks_total: Counter of commits undone after a host failure
//   - kinesis_live_identifiers: Gauge of identifiers held by mounted trees
//   - kinesis_mounted_instances: Gauge of mounted component instances
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of render cycles",
			ConstLabels: config.ConstLabels,
		}, []string{"phase", "result"}),

		cycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Render cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase"}),

		hostOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total number of committed host operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rollbacks_total",
			Help:        "Total number of commits undone after a host failure",
			ConstLabels: config.ConstLabels,
		}),

		identifiers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_identifiers",
			Help:        "Number of identifiers held by mounted trees",
			ConstLabels: config.ConstLabels,
		}),

		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_instances",
			Help:        "Number of mounted component instances",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) cycle(phase, result string, start time.Time) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(phase, result).Inc()
	m.cycleDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func (m *Metrics) hostOp(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.hostOps.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) rollback() {
	if m == nil {
		return
	}
	m.rollbacks.Inc()
}

// live adjusts the gauges by the change a cycle made.
func (m *Metrics) live(identifiers, instances int) {
	if m == nil {
		return
	}
	m.identifiers.Add(float64(identifiers))
	m.instances.Add(float64(instances))
}
