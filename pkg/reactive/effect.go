package reactive

import (
	"time"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Scheduler decides when a triggered effect runs. It receives the effect and
// is expected to call Run now or later.
type Scheduler func(*Effect)

// Effect is a re-runnable computation whose reads are tracked.
//
// Every run first leaves all dependency sets it joined during the previous
// run, so a branch that stops reading a field stops depending on it. Effects
// created while another effect runs become its children and are stopped
// when the parent runs again or is stopped.
type Effect struct {
	id  uint64
	eng *Engine

	// fn is the computation.
	fn func() any

	// deps are the dependency sets this effect currently belongs to.
	deps []*depSet

	lazy      bool
	scheduler Scheduler
	name      string

	children []*Effect

	// onStop runs once when the effect is stopped.
	onStop func()

	runs    int
	stopped bool
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// Lazy registers the effect without running it.
func Lazy() EffectOption {
	return func(e *Effect) {
		e.lazy = true
	}
}

// WithScheduler routes triggered re-runs through s instead of running
// synchronously.
func WithScheduler(s Scheduler) EffectOption {
	return func(e *Effect) {
		e.scheduler = s
	}
}

// WithName names the effect for logs and metrics.
func WithName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// Effect registers fn and, unless Lazy is given, runs it immediately.
// The returned handle re-runs fn on demand and returns its result.
//
// Example:
//
//	eng.Effect(func() any {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//	state.Set("count", 2) // prints "count is 2"
func (e *Engine) Effect(fn func() any, opts ...EffectOption) *Effect {
	eff := &Effect{
		id:  nextID(),
		eng: e,
		fn:  fn,
	}
	for _, opt := range opts {
		opt(eff)
	}

	if parent := e.tracking.active(); parent != nil {
		parent.children = append(parent.children, eff)
	} else if sc := e.tracking.scope; sc != nil {
		sc.adopt(eff)
	}

	if !eff.lazy {
		eff.Run()
	}
	return eff
}

// ID returns the unique identifier for this effect.
func (eff *Effect) ID() uint64 {
	return eff.id
}

// Name returns the name given with WithName.
func (eff *Effect) Name() string {
	return eff.name
}

// Runs returns how many times the effect has run.
func (eff *Effect) Runs() int {
	return eff.runs
}

// Stopped reports whether Stop has been called.
func (eff *Effect) Stopped() bool {
	return eff.stopped
}

// Deps returns the number of dependency sets the effect belongs to.
func (eff *Effect) Deps() int {
	return len(eff.deps)
}

// Run executes the computation with dependency tracking and returns its
// result. A stopped effect runs its computation untracked.
func (eff *Effect) Run() any {
	e := eff.eng
	if eff.stopped {
		var result any
		e.Untracked(func() { result = eff.fn() })
		return result
	}
	e.assertOwner()

	if len(e.tracking.stack) >= e.maxDepth {
		panic(rerrors.New(rerrors.CodeRecursionDepth).
			WithDetailf("effect %d (%s) exceeded depth %d", eff.id, eff.name, e.maxDepth))
	}

	eff.stopChildren()
	eff.cleanup()

	prevTrack := e.tracking.push(eff)
	start := time.Now()
	defer func() {
		depth := len(e.tracking.stack)
		e.tracking.pop(prevTrack)
		e.observer.EffectRan(EffectInfo{
			ID:    eff.id,
			Name:  eff.name,
			Runs:  eff.runs,
			Depth: depth,
		}, time.Since(start))
	}()

	eff.runs++
	return eff.fn()
}

// Stop detaches the effect from every dependency and stops its children.
// A stopped effect is never triggered again.
func (eff *Effect) Stop() {
	if eff.stopped {
		return
	}
	eff.stopped = true
	eff.stopChildren()
	eff.cleanup()
	if eff.onStop != nil {
		eff.onStop()
		eff.onStop = nil
	}
}

// cleanup removes the effect from every dependency set it belongs to.
func (eff *Effect) cleanup() {
	for _, ds := range eff.deps {
		ds.remove(eff)
	}
	clear(eff.deps)
	eff.deps = eff.deps[:0]
}

func (eff *Effect) stopChildren() {
	children := eff.children
	eff.children = nil
	for _, child := range children {
		child.Stop()
	}
}

// forgetDep drops ds from the effect's list after the store released it.
func (eff *Effect) forgetDep(ds *depSet) {
	for i, d := range eff.deps {
		if d == ds {
			eff.deps = append(eff.deps[:i], eff.deps[i+1:]...)
			return
		}
	}
}
