package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for run and flush durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "reactor",
		Subsystem: "engine",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer records engine events as Prometheus metrics. Pass it to
// reactive.WithObserver.
//
// Metrics collected (default namespace and subsystem):
//   - reactor_engine_effect_runs_total: effect runs by effect name
//   - reactor_engine_effect_run_duration_seconds: effect run duration
//   - reactor_engine_triggers_total: triggers that found dependents, by op
//   - reactor_engine_trigger_fanout: effects scheduled per trigger
//   - reactor_engine_flushes_total: job queue flushes
//   - reactor_engine_flush_duration_seconds: job queue flush duration
//   - reactor_engine_readonly_violations_total: refused writes, by op
//   - reactor_engine_budget_dropped_total: deferred runs dropped by the budget
type Observer struct {
	effectRuns     *prometheus.CounterVec
	effectDuration *prometheus.HistogramVec
	triggers       *prometheus.CounterVec
	fanout         prometheus.Histogram
	flushes        prometheus.Counter
	flushDuration  prometheus.Histogram
	readonly       *prometheus.CounterVec
	dropped        prometheus.Counter
}

var _ reactive.Observer = (*Observer)(nil)

// New registers the engine metrics and returns an observer feeding them.
// It panics if the metrics are already registered with the registry.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	eng := reactive.New(reactive.WithObserver(metrics.New(metrics.WithRegistry(reg))))
//	http.Handle("/metrics", metrics.Handler(reg))
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Observer{
		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"effect"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_run_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"effect"}),

		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total number of triggers that scheduled at least one effect",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		fanout: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "trigger_fanout",
			Help:        "Number of effects scheduled per trigger",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		}),

		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of job queue flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Job queue flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		readonly: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "readonly_violations_total",
			Help:        "Total number of writes and deletes refused by readonly views",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "budget_dropped_total",
			Help:        "Total number of deferred runs dropped by the run budget",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EffectRan implements reactive.Observer.
func (o *Observer) EffectRan(info reactive.EffectInfo, elapsed time.Duration) {
	name := effectLabel(info.Name)
	o.effectRuns.WithLabelValues(name).Inc()
	o.effectDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Triggered implements reactive.Observer.
func (o *Observer) Triggered(_ reactive.Key, op reactive.TriggerOp, effects int) {
	o.triggers.WithLabelValues(op.String()).Inc()
	o.fanout.Observe(float64(effects))
}

// Flushed implements reactive.Observer.
func (o *Observer) Flushed(_ int, elapsed time.Duration) {
	o.flushes.Inc()
	o.flushDuration.Observe(elapsed.Seconds())
}

// ReadonlyViolation implements reactive.Observer.
func (o *Observer) ReadonlyViolation(_ reactive.Key, op reactive.TriggerOp) {
	o.readonly.WithLabelValues(op.String()).Inc()
}

// BudgetExceeded implements reactive.Observer.
func (o *Observer) BudgetExceeded(dropped int) {
	o.dropped.Add(float64(dropped))
}

// effectLabel keeps label cardinality bounded: effects are labeled by
// name, never by ID.
func effectLabel(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
