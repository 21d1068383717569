package server

import (
	"time"

	"github.com/vango-dev/kinesis/internal/config"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// SocketPath is the WebSocket route.
	SocketPath string

	// ReadLimit bounds the size of one inbound message.
	ReadLimit int64

	// WriteTimeout bounds writing one outbound frame.
	WriteTimeout time.Duration

	// AllowedOrigins lists the origins allowed to open sockets. Empty means
	// same origin only; "*" allows any.
	AllowedOrigins []string

	// MetricsPath is the metrics route, used when a registry is set.
	MetricsPath string

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string

	// QueueSize is the number of events a session buffers before it starts
	// refusing them.
	QueueSize int

	// EventRate is the sustained number of events per second a session
	// accepts; zero disables the limit.
	EventRate float64

	// EventBurst is the number of events accepted at once above EventRate.
	// It defaults to QueueSize.
	EventBurst int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with the defaults of internal/config.
func DefaultConfig() Config {
	return Config{
		Addr:             config.DefaultAddr,
		SocketPath:       config.DefaultSocketPath,
		ReadLimit:        config.DefaultReadLimit,
		WriteTimeout:     10 * time.Second,
		MetricsPath:      config.DefaultMetricsPath,
		MetricsNamespace: config.DefaultNamespace,
		QueueSize:        64,
		ShutdownTimeout:  10 * time.Second,
	}
}

// ConfigFrom converts a loaded configuration file.
func ConfigFrom(cfg *config.Config) (Config, error) {
	wt, err := cfg.WriteTimeout()
	if err != nil {
		return Config{}, err
	}
	c := DefaultConfig()
	c.Addr = cfg.Server.Addr
	c.SocketPath = cfg.Server.SocketPath
	c.ReadLimit = cfg.Server.ReadLimit
	c.WriteTimeout = wt
	c.AllowedOrigins = cfg.Server.AllowedOrigins
	c.MetricsPath = cfg.Metrics.Path
	c.MetricsNamespace = cfg.Metrics.Namespace
	c.EventRate = cfg.Server.EventRate
	c.EventBurst = cfg.Server.EventBurst
	return c, nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.SocketPath == "" {
		c.SocketPath = d.SocketPath
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.EventRate > 0 && c.EventBurst <= 0 {
		c.EventBurst = c.QueueSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}
