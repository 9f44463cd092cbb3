package reactive

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Engine owns one dependency store, tracking context and microtask queue.
// Engines share no state, so independent engines (one per test, one per
// session) never see each other's effects.
//
// An Engine is confined to a single goroutine. Use a Loop to drive it from
// concurrent code.
type Engine struct {
	id       uint64
	log      *slog.Logger
	observer Observer

	store    *depStore
	tracking trackingContext
	micro    microtaskQueue
	budget   *RunBudget

	maxDepth   int
	ownerCheck bool
	owner      atomic.Uint64
}

// New creates an engine.
func New(opts ...Option) *Engine {
	o := options{
		maxDepth:       DefaultMaxDepth,
		maxRunsPerTick: DefaultMaxRunsPerTick,
	}
	for _, opt := range opts {
		opt(&o)
	}

	id := nextID()
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	var observer Observer = NopObserver{}
	switch len(o.observers) {
	case 0:
	case 1:
		observer = o.observers[0]
	default:
		observer = multiObserver(o.observers)
	}

	return &Engine{
		id:         id,
		log:        logger.With("component", "reactive", "engine", id),
		observer:   observer,
		store:      newDepStore(),
		tracking:   trackingContext{shouldTrack: true},
		budget:     newRunBudget(o.maxRunsPerTick),
		maxDepth:   o.maxDepth,
		ownerCheck: o.ownerCheck,
	}
}

// ID returns the engine's unique identifier.
func (e *Engine) ID() uint64 {
	return e.id
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.log
}

// track records that the active effect depends on (t, key). An effect
// stopped during its own run records nothing more.
func (e *Engine) track(t Target, key Key) {
	eff := e.tracking.active()
	if eff == nil || eff.stopped || !e.tracking.shouldTrack {
		return
	}
	e.assertOwner()

	ds := e.store.ensure(t).set(key)
	if ds.add(eff) {
		eff.deps = append(eff.deps, ds)
	}
}

// trigger schedules every effect depending on (t, key) according to op.
// newLength is only consulted for array length writes.
func (e *Engine) trigger(t Target, key Key, op TriggerOp, newLength int) {
	e.assertOwner()

	td := e.store.lookup(t.targetID())
	if td == nil {
		return
	}

	active := e.tracking.active()
	var toRun []*Effect
	seen := make(map[*Effect]struct{})
	collect := func(ds *depSet) {
		if ds == nil {
			return
		}
		for _, eff := range ds.effects {
			if eff == active {
				continue
			}
			if _, dup := seen[eff]; dup {
				continue
			}
			seen[eff] = struct{}{}
			toRun = append(toRun, eff)
		}
	}

	collect(td.keys[key])
	if op == OpAdd || op == OpDelete {
		collect(td.keys[IterateKey])
	}
	if td.array {
		if op == OpAdd {
			collect(td.keys[LengthKey])
		}
		if key == LengthKey {
			for _, ds := range td.indexSetsFrom(newLength) {
				collect(ds)
			}
		}
	}

	if len(toRun) == 0 {
		return
	}

	e.observer.Triggered(key, op, len(toRun))
	if e.log.Enabled(context.Background(), slog.LevelDebug) {
		e.log.Debug("trigger", "target", t.targetID(), "key", key.String(), "op", op.String(), "effects", len(toRun))
	}

	for _, eff := range toRun {
		if eff.stopped {
			continue
		}
		if eff.scheduler != nil {
			eff.scheduler(eff)
		} else {
			eff.Run()
		}
	}
}

// Release drops all dependency entries for t. Effects that depended on t
// stop reacting to it until they run again and re-read it.
func (e *Engine) Release(t Target) {
	e.assertOwner()
	e.store.release(t.targetID())
}

// Stats reports the engine's current size.
type Stats struct {
	Store             StoreStats
	Depth             int
	PendingMicrotasks int
	Budget            BudgetStats
}

// Stats returns a snapshot of the engine's bookkeeping.
func (e *Engine) Stats() Stats {
	return Stats{
		Store:             e.store.stats(),
		Depth:             len(e.tracking.stack),
		PendingMicrotasks: e.micro.len(),
		Budget:            e.budget.Stats(),
	}
}
