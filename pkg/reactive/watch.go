package reactive

import (
	"fmt"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// FlushMode selects when a watcher callback runs after a change.
type FlushMode int

const (
	// FlushSync runs the callback inside the trigger.
	FlushSync FlushMode = iota
	// FlushPost defers the callback to the microtask queue. Several changes
	// in one task produce one callback.
	FlushPost
)

func (m FlushMode) String() string {
	switch m {
	case FlushSync:
		return "sync"
	case FlushPost:
		return "post"
	default:
		return fmt.Sprintf("FlushMode(%d)", int(m))
	}
}

// WatchCallback receives the new and previous values of a watch source.
// onInvalidate registers a function that runs before the next callback or
// when the watcher stops, whichever comes first; use it to discard results
// of work the callback started.
type WatchCallback func(newValue, oldValue any, onInvalidate func(func()))

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

type watchOptions struct {
	immediate bool
	flush     FlushMode
}

// Immediate runs the callback once at registration, with a nil old value.
func Immediate() WatchOption {
	return func(o *watchOptions) {
		o.immediate = true
	}
}

// WithFlush sets the flush mode. The default is FlushSync.
func WithFlush(m FlushMode) WatchOption {
	return func(o *watchOptions) {
		o.flush = m
	}
}

// Watcher observes a source and calls back on change.
type Watcher struct {
	eng    *Engine
	effect *Effect
	cb     WatchCallback
	flush  FlushMode

	oldValue   any
	invalidate func()
	pending    bool
}

// Watch calls cb whenever source changes. Source is one of:
//
//   - func() any: the values it reads are watched and its result is passed
//     to cb;
//   - *View: every field and element reachable from it is watched, and cb
//     receives the view;
//   - *Computed[T]: its value is watched.
//
// Any other source fails with R003.
//
// The callback runs untracked, whichever effect made the change. Effects it
// creates belong to the watcher and are stopped before the next callback or
// when the watcher stops.
func (e *Engine) Watch(source any, cb WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cb == nil {
		return nil, rerrors.New(rerrors.CodeInvalidSource).WithDetail("nil callback")
	}

	var getter func() any
	switch src := source.(type) {
	case func() any:
		getter = src
	case *View:
		if src == nil {
			return nil, rerrors.New(rerrors.CodeInvalidSource).WithDetail("nil view")
		}
		getter = func() any { return Traverse(src) }
	case valueSource:
		getter = src.anyValue
	default:
		return nil, rerrors.New(rerrors.CodeInvalidSource).
			WithDetailf("cannot watch %T", source)
	}

	var o watchOptions
	for _, opt := range opts {
		opt(&o)
	}

	w := &Watcher{eng: e, cb: cb, flush: o.flush}
	w.effect = e.Effect(getter, Lazy(), WithName("watch"), WithScheduler(w.schedule))
	w.effect.onStop = w.fireInvalidate

	if o.immediate {
		w.job()
	} else {
		w.oldValue = w.effect.Run()
	}
	return w, nil
}

func (w *Watcher) schedule(*Effect) {
	if w.flush != FlushPost {
		w.job()
		return
	}
	if w.pending {
		return
	}
	w.pending = true
	w.eng.queueMicrotask(w.job, func() { w.pending = false })
}

func (w *Watcher) job() {
	w.pending = false
	if w.effect.stopped {
		return
	}
	newValue := w.effect.Run()
	w.fireInvalidate()
	oldValue := w.oldValue
	w.eng.runOwned(w.effect, func() {
		w.cb(newValue, oldValue, w.onInvalidate)
	})
	w.oldValue = newValue
}

func (w *Watcher) onInvalidate(fn func()) {
	w.invalidate = fn
}

func (w *Watcher) fireInvalidate() {
	if fn := w.invalidate; fn != nil {
		w.invalidate = nil
		fn()
	}
}

// Stop stops watching. A registered invalidation callback runs now.
func (w *Watcher) Stop() {
	w.effect.Stop()
}

// Stopped reports whether the watcher was stopped, directly or by its
// owning effect or scope.
func (w *Watcher) Stopped() bool {
	return w.effect.stopped
}

// Effect returns the effect that runs the watch source.
func (w *Watcher) Effect() *Effect {
	return w.effect
}
