package reactive

import "log/slog"

const (
	// DefaultMaxDepth bounds synchronous effect nesting.
	DefaultMaxDepth = 256

	// DefaultMaxRunsPerTick bounds deferred runs between two quiet points.
	DefaultMaxRunsPerTick = 10000
)

// options holds configuration for an Engine.
type options struct {
	logger         *slog.Logger
	observers      []Observer
	maxDepth       int
	maxRunsPerTick int
	ownerCheck     bool
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver adds an observer. May be given several times.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithMaxDepth sets how deeply effects may nest synchronously before the
// engine panics with a recursion error. Non-positive values keep the default.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithRunBudget caps deferred runs (microtasks and queued jobs) per tick.
// Zero disables the budget.
func WithRunBudget(maxRunsPerTick int) Option {
	return func(o *options) {
		o.maxRunsPerTick = maxRunsPerTick
	}
}

// WithOwnerCheck makes the engine panic when it is used from a goroutine
// other than the first one that touched it. Meant for tests and development;
// it costs a stack read per operation.
func WithOwnerCheck() Option {
	return func(o *options) {
		o.ownerCheck = true
	}
}
