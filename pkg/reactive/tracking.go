package reactive

import (
	"runtime"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// trackingContext holds the engine's record of what is currently running.
type trackingContext struct {
	// stack holds the running effects, innermost last.
	stack []*Effect

	// shouldTrack is false while reads must not create dependencies.
	shouldTrack bool

	// scope receives effects created outside any running effect.
	scope *Scope
}

// active returns the innermost running effect, or nil.
func (tc *trackingContext) active() *Effect {
	if len(tc.stack) == 0 {
		return nil
	}
	return tc.stack[len(tc.stack)-1]
}

// push makes e the active effect and re-enables tracking for its body.
// It returns the tracking flag to hand back to pop.
func (tc *trackingContext) push(e *Effect) bool {
	tc.stack = append(tc.stack, e)
	prev := tc.shouldTrack
	tc.shouldTrack = true
	return prev
}

func (tc *trackingContext) pop(prevTrack bool) {
	tc.stack[len(tc.stack)-1] = nil
	tc.stack = tc.stack[:len(tc.stack)-1]
	tc.shouldTrack = prevTrack
}

// pauseTracking disables tracking and returns a func restoring the previous state.
func (e *Engine) pauseTracking() func() {
	prev := e.tracking.shouldTrack
	e.tracking.shouldTrack = false
	return func() { e.tracking.shouldTrack = prev }
}

// runOwned runs fn with owner as the active effect and tracking off. Effects
// fn creates become owner's children; its reads subscribe nothing.
func (e *Engine) runOwned(owner *Effect, fn func()) {
	prev := e.tracking.push(owner)
	e.tracking.shouldTrack = false
	defer e.tracking.pop(prev)
	fn()
}

// Untracked runs fn without recording any reads as dependencies.
//
// Example:
//
//	eng.Effect(func() any {
//	    total := view.Get("total")          // tracked
//	    eng.Untracked(func() {
//	        log.Println(view.Get("label"))  // not tracked
//	    })
//	    return total
//	})
func (e *Engine) Untracked(fn func()) {
	restore := e.pauseTracking()
	defer restore()
	fn()
}

// ActiveEffect returns the innermost running effect, or nil.
func (e *Engine) ActiveEffect() *Effect {
	return e.tracking.active()
}

// Depth returns the number of effects currently running on the stack.
func (e *Engine) Depth() int {
	return len(e.tracking.stack)
}

// getGoroutineID returns the ID of the calling goroutine, parsed from the
// runtime stack header. Only used by the owner check.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// assertOwner panics when the owner check is enabled and the engine is used
// from a goroutine other than the first one that touched it.
func (e *Engine) assertOwner() {
	if !e.ownerCheck {
		return
	}
	gid := getGoroutineID()
	if e.owner.CompareAndSwap(0, gid) {
		return
	}
	if owner := e.owner.Load(); owner != gid {
		panic(rerrors.New(rerrors.CodeForeignRoutine).
			WithDetailf("engine %d is owned by goroutine %d, called from goroutine %d", e.id, owner, gid))
	}
}
