package reactive

import "time"

// EffectInfo describes an effect run reported to an Observer.
type EffectInfo struct {
	ID    uint64
	Name  string
	Runs  int
	Depth int
}

// Observer receives engine events. Implementations must be cheap: they are
// called synchronously on the engine goroutine.
type Observer interface {
	// EffectRan is called after every effect run.
	EffectRan(info EffectInfo, elapsed time.Duration)

	// Triggered is called once per trigger that found dependents.
	Triggered(key Key, op TriggerOp, effects int)

	// Flushed is called after a job queue flush.
	Flushed(jobs int, elapsed time.Duration)

	// ReadonlyViolation is called when a write or delete hits a readonly view.
	ReadonlyViolation(key Key, op TriggerOp)

	// BudgetExceeded is called when deferred work is dropped.
	BudgetExceeded(dropped int)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) EffectRan(EffectInfo, time.Duration) {}
func (NopObserver) Triggered(Key, TriggerOp, int)       {}
func (NopObserver) Flushed(int, time.Duration)          {}
func (NopObserver) ReadonlyViolation(Key, TriggerOp)    {}
func (NopObserver) BudgetExceeded(int)                  {}

// multiObserver fans events out to several observers.
type multiObserver []Observer

func (m multiObserver) EffectRan(info EffectInfo, elapsed time.Duration) {
	for _, o := range m {
		o.EffectRan(info, elapsed)
	}
}

func (m multiObserver) Triggered(key Key, op TriggerOp, effects int) {
	for _, o := range m {
		o.Triggered(key, op, effects)
	}
}

func (m multiObserver) Flushed(jobs int, elapsed time.Duration) {
	for _, o := range m {
		o.Flushed(jobs, elapsed)
	}
}

func (m multiObserver) ReadonlyViolation(key Key, op TriggerOp) {
	for _, o := range m {
		o.ReadonlyViolation(key, op)
	}
}

func (m multiObserver) BudgetExceeded(dropped int) {
	for _, o := range m {
		o.BudgetExceeded(dropped)
	}
}
