package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reactor/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactor.yaml"

	// DefaultMaxDepth bounds synchronous effect nesting.
	DefaultMaxDepth = 256

	// DefaultMaxRunsPerTick bounds deferred runs per tick.
	DefaultMaxRunsPerTick = 10000

	// DefaultAddr is the default state hub listen address.
	DefaultAddr = ":7070"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "reactor"
)

// Config represents the complete reactor.yaml configuration.
type Config struct {
	// Engine tunes the reactive engine.
	Engine EngineConfig `yaml:"engine"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Serve configures the state hub server.
	Serve ServeConfig `yaml:"serve"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `yaml:"tracing"`

	// configPath is the path the config was loaded from.
	configPath string
}

// EngineConfig contains engine limits.
type EngineConfig struct {
	// MaxDepth is the synchronous effect nesting limit.
	MaxDepth int `yaml:"max_depth"`

	// MaxRunsPerTick caps deferred runs per tick. Zero disables the cap.
	MaxRunsPerTick int `yaml:"max_runs_per_tick"`

	// OwnerCheck panics when the engine is used from a foreign goroutine.
	OwnerCheck bool `yaml:"owner_check"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// ServeConfig contains state hub server configuration.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// MetricsPath is the route serving Prometheus metrics.
	MetricsPath string `yaml:"metrics_path"`
}

// TracingConfig contains OpenTelemetry configuration.
type TracingConfig struct {
	// Enabled turns on the tracing observer.
	Enabled bool `yaml:"enabled"`

	// TracerName is the tracer name.
	TracerName string `yaml:"tracer_name"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxDepth:       DefaultMaxDepth,
			MaxRunsPerTick: DefaultMaxRunsPerTick,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Serve: ServeConfig{
			Addr:        DefaultAddr,
			MetricsPath: DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for reactor.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
// Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create one or run without --config to use the defaults").
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := New()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse YAML: " + err.Error()).
			WithSuggestion("Check the file against the documented schema")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	return buf.Bytes(), nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if c.Engine.MaxDepth <= 0 {
		return invalid("engine.max_depth must be positive")
	}
	if c.Engine.MaxRunsPerTick < 0 {
		return invalid("engine.max_runs_per_tick must not be negative")
	}
	if _, ok := levels[c.Log.Level]; !ok {
		return invalid("log.level must be one of debug, info, warn, error; got " + c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json; got " + c.Log.Format)
	}
	if c.Serve.Addr == "" {
		return invalid("serve.addr is required")
	}
	if !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return invalid("serve.metrics_path must start with /")
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.Log.Level)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	if level, ok := levels[strings.ToLower(name)]; ok {
		return level
	}
	return slog.LevelInfo
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
