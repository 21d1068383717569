package server

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/snapshot"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Sessions log through it with their id
// attached.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry records server and controller metrics into registry and
// serves it on the metrics route.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithControllerOptions passes opts to every session's controller.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(s *Server) {
		s.ctrlOpts = append(s.ctrlOpts, opts...)
	}
}

// WithSnapshots enables the snapshot routes backed by store.
func WithSnapshots(store snapshot.Store) Option {
	return func(s *Server) {
		s.snapshots = store
	}
}
