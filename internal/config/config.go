package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/kinesis/internal/errors"
)

const (
	// DefaultAddr is the default server listen address.
	DefaultAddr = "localhost:8080"

	// DefaultSocketPath is the default WebSocket endpoint.
	DefaultSocketPath = "/ws"

	// DefaultReadLimit is the default maximum size of an inbound frame.
	DefaultReadLimit = 64 * 1024

	// DefaultWriteTimeout is the default deadline for one outbound frame.
	DefaultWriteTimeout = "10s"

	// DefaultApp is the demo component served when none is configured.
	DefaultApp = "counter"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "kinesis"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "kinesis"

	// DefaultSnapshotDir is where file snapshots are written.
	DefaultSnapshotDir = "snapshots"

	// DefaultSnapshotDB is the database file for bolt snapshots.
	DefaultSnapshotDB = "snapshots.db"

	// DefaultRegion is used for s3 snapshots when no region is set.
	DefaultRegion = "us-east-1"
)

// FileNames lists the configuration files Load looks for, in order.
var FileNames = []string{"kinesis.json", "kinesis.yaml", "kinesis.yml"}

// Snapshot targets.
const (
	SnapshotNone = ""
	SnapshotFile = "file"
	SnapshotS3   = "s3"
	SnapshotBolt = "bolt"
)

// Config represents the complete kinesis configuration.
type Config struct {
	// App names the component served to each connection.
	App string `json:"app,omitempty" yaml:"app,omitempty"`

	// Server contains HTTP and WebSocket settings.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Snapshot contains snapshot publishing settings.
	Snapshot SnapshotConfig `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP and WebSocket settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// SocketPath is the WebSocket endpoint.
	SocketPath string `json:"socketPath,omitempty" yaml:"socketPath,omitempty"`

	// ReadLimit is the maximum size in bytes of an inbound frame.
	ReadLimit int64 `json:"readLimit,omitempty" yaml:"readLimit,omitempty"`

	// EventRate is the sustained number of events per second one session
	// accepts. Zero means unlimited.
	EventRate float64 `json:"eventRate,omitempty" yaml:"eventRate,omitempty"`

	// EventBurst is the number of events accepted at once above EventRate.
	EventBurst int `json:"eventBurst,omitempty" yaml:"eventBurst,omitempty"`

	// WriteTimeout bounds each outbound frame (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`

	// AllowedOrigins lists origins allowed to open a socket. Empty allows
	// same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Path is the metrics endpoint.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName names the tracer cycle spans are recorded with.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// SnapshotConfig contains snapshot publishing settings.
type SnapshotConfig struct {
	// Target is "", "file", "s3" or "bolt".
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Dir is the output directory for file snapshots.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Path is the database file for bolt snapshots.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Bucket is the S3 bucket for s3 snapshots.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is prepended to every snapshot key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the AWS region of Bucket.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from dir, trying each of FileNames in order.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigRead).
		WithDetail("No kinesis.json or kinesis.yaml found in " + dir).
		WithSuggestion("Create kinesis.json, or run without --config to use defaults")
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).WithDetail(path).Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file's syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// SaveTo writes the configuration to path, as YAML or JSON depending on
// the extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).WithDetail(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.App == "" {
		c.App = DefaultApp
	}

	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.SocketPath == "" {
		c.Server.SocketPath = DefaultSocketPath
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Tracing
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}

	// Snapshot
	if c.Snapshot.Target == SnapshotFile && c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
	if c.Snapshot.Target == SnapshotBolt && c.Snapshot.Path == "" {
		c.Snapshot.Path = DefaultSnapshotDB
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.SocketPath, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.socketPath must start with /")
	}
	if c.Server.EventRate < 0 || c.Server.EventBurst < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.eventRate and server.eventBurst must not be negative")
	}
	if c.Server.ReadLimit < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.readLimit must not be negative")
	}
	if _, err := c.WriteTimeout(); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("server.writeTimeout: " + err.Error())
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("metrics.path must start with /")
	}
	switch c.Snapshot.Target {
	case SnapshotNone, SnapshotFile, SnapshotBolt:
	case SnapshotS3:
		if c.Snapshot.Bucket == "" {
			return errors.New(errors.CodeConfigInvalid).
				WithDetail("snapshot.bucket is required for the s3 target")
		}
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetailf("snapshot.target %q is not file, s3 or bolt", c.Snapshot.Target)
	}
	return nil
}

// WriteTimeout returns the parsed server write timeout.
func (c *Config) WriteTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.WriteTimeout)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	if l, ok := levels[strings.ToLower(c.Log.Level)]; ok {
		return l
	}
	return slog.LevelInfo
}
