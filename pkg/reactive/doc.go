// Package reactive is a fine-grained dependency-tracking engine.
//
// Plain data lives in Objects and Arrays. Reading it through a View while
// an Effect runs records a dependency; writing it through a View re-runs
// the effects that read the written key.
//
// # Core Types
//
// Engine holds all state. Engines are independent of each other:
//
//	eng := reactive.New()
//	state := eng.Reactive(reactive.NewObject().Put("count", 0))
//
// Effect runs a computation now and again whenever what it read changes:
//
//	eng.Effect(func() any {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//	state.Set("count", 1) // prints "count is 1"
//
// Computed caches a derivation and recomputes it only after a change:
//
//	doubled := reactive.NewComputed(eng, func() int {
//	    return state.Get("count").(int) * 2
//	})
//
// Watch calls back with new and old values:
//
//	eng.Watch(state, func(newValue, oldValue any, onInvalidate func(func())) {
//	    ...
//	}, reactive.WithFlush(reactive.FlushPost))
//
// # Scheduling
//
// Effects run synchronously inside the write that triggers them unless
// they have a Scheduler. A JobQueue batches re-runs into one microtask;
// microtasks are drained by FlushMicrotasks, at the end of Tick, or after
// every Loop task.
//
// # Lifetimes
//
// Effects created during another effect's run belong to it and are stopped
// when it re-runs. Effects created outside any effect belong to the current
// Scope, if any. The dependency store refers to targets by ID only, so a
// target nothing else references is collected and its entries evicted.
//
// # Thread Safety
//
// An Engine must be used from one goroutine. A Loop owns an engine on its
// own goroutine and accepts work from any goroutine via Do and Post.
// WithOwnerCheck turns misuse into a panic.
package reactive
