package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Default tracer name for reactor engines.
const defaultTracerName = "reactor"

// Span names.
const (
	SpanEffect   = "reactive.effect"
	SpanTrigger  = "reactive.trigger"
	SpanFlush    = "reactive.flush"
	SpanReadonly = "reactive.readonly_violation"
	SpanBudget   = "reactive.budget_exceeded"
)

// Config configures the OpenTelemetry observer.
type Config struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Provider supplies the tracer. Defaults to the global provider.
	Provider trace.TracerProvider

	// Parent is the context spans are started under.
	// Default: context.Background()
	Parent context.Context

	// Triggers adds a span per trigger. Off by default; triggers are
	// frequent and already visible as the effect runs they cause.
	Triggers bool

	// Filter determines which effect runs to trace.
	// If nil, all runs are traced.
	Filter func(info reactive.EffectInfo) bool
}

// Option configures the OpenTelemetry observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = tp
	}
}

// WithParent starts every span under ctx, typically one carrying a
// long-lived server span.
func WithParent(ctx context.Context) Option {
	return func(c *Config) {
		c.Parent = ctx
	}
}

// WithTriggerSpans enables or disables per-trigger spans.
func WithTriggerSpans(enabled bool) Option {
	return func(c *Config) {
		c.Triggers = enabled
	}
}

// WithEffectFilter sets a filter for effect runs.
func WithEffectFilter(filter func(info reactive.EffectInfo) bool) Option {
	return func(c *Config) {
		c.Filter = filter
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
		Parent:     context.Background(),
	}
}

// Observer turns engine events into spans. The engine reports events after
// the fact, so spans are started and ended with explicit timestamps.
//
// Example:
//
//	eng := reactive.New(reactive.WithObserver(tracing.New(
//	    tracing.WithTracerName("my-app"),
//	)))
type Observer struct {
	config Config
	tracer trace.Tracer
}

var _ reactive.Observer = (*Observer)(nil)

// New creates a tracing observer.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	if config.Parent == nil {
		config.Parent = context.Background()
	}
	return &Observer{
		config: config,
		tracer: config.Provider.Tracer(config.TracerName),
	}
}

// record emits a finished span covering [end-elapsed, end].
func (o *Observer) record(name string, elapsed time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := o.tracer.Start(o.config.Parent, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-elapsed)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

// EffectRan implements reactive.Observer.
func (o *Observer) EffectRan(info reactive.EffectInfo, elapsed time.Duration) {
	if o.config.Filter != nil && !o.config.Filter(info) {
		return
	}
	o.record(SpanEffect, elapsed, nil,
		attribute.Int64("reactive.effect.id", int64(info.ID)),
		attribute.String("reactive.effect.name", info.Name),
		attribute.Int("reactive.effect.runs", info.Runs),
		attribute.Int("reactive.effect.depth", info.Depth),
	)
}

// Triggered implements reactive.Observer.
func (o *Observer) Triggered(key reactive.Key, op reactive.TriggerOp, effects int) {
	if !o.config.Triggers {
		return
	}
	o.record(SpanTrigger, 0, nil,
		attribute.String("reactive.key", key.String()),
		attribute.String("reactive.op", op.String()),
		attribute.Int("reactive.effects", effects),
	)
}

// Flushed implements reactive.Observer.
func (o *Observer) Flushed(jobs int, elapsed time.Duration) {
	o.record(SpanFlush, elapsed, nil, attribute.Int("reactive.jobs", jobs))
}

// ReadonlyViolation implements reactive.Observer.
func (o *Observer) ReadonlyViolation(key reactive.Key, op reactive.TriggerOp) {
	err := reactive.ErrReadonlyWrite
	if op == reactive.OpDelete {
		err = reactive.ErrReadonlyDelete
	}
	o.record(SpanReadonly, 0, err,
		attribute.String("reactive.key", key.String()),
		attribute.String("reactive.op", op.String()),
	)
}

// BudgetExceeded implements reactive.Observer.
func (o *Observer) BudgetExceeded(dropped int) {
	o.record(SpanBudget, 0, reactive.ErrBudgetExceeded, attribute.Int("reactive.dropped", dropped))
}
