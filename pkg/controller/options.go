package controller

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer used when none is configured.
const DefaultTracerName = "kinesis"

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for cycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records cycle metrics into m. Metrics are shared between
// controllers; create them once with NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for cycle spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTracerName uses the global tracer provider's tracer named name.
func WithTracerName(name string) Option {
	return func(c *Controller) {
		c.tracer = otel.Tracer(name)
	}
}
