package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Includes reports whether the array contains value, using SameValueZero.
//
// The reactive elements are searched first; when that misses, the raw
// elements are searched with value unwrapped, so a raw target finds the
// element that reads back as a view.
func (v *View) Includes(value any) bool {
	return v.search(value, sameValueZero, false) >= 0
}

// IndexOf returns the first index holding value, or -1. NaN is never found.
func (v *View) IndexOf(value any) int {
	return v.search(value, strictEquals, false)
}

// LastIndexOf returns the last index holding value, or -1.
func (v *View) LastIndexOf(value any) int {
	return v.search(value, strictEquals, true)
}

func (v *View) search(value any, eq func(a, b any) bool, fromEnd bool) int {
	arr, ok := v.target.(*Array)
	if !ok {
		return -1
	}

	n := v.Len()
	for step := 0; step < n; step++ {
		i := step
		if fromEnd {
			i = n - 1 - step
		}
		if elementMatches(v.At(i), value, eq) {
			return i
		}
	}

	needle := toRaw(value)
	n = arr.Len()
	for step := 0; step < n; step++ {
		i := step
		if fromEnd {
			i = n - 1 - step
		}
		if eq(arr.items[i], needle) {
			return i
		}
	}
	return -1
}

// elementMatches compares a read-back element with a search value. Views of
// the same target with the same flags are interchangeable.
func elementMatches(elem, value any, eq func(a, b any) bool) bool {
	ev, ok1 := elem.(*View)
	vv, ok2 := value.(*View)
	if ok1 && ok2 {
		return ev.target == vv.target && ev.readonly == vv.readonly && ev.shallow == vv.shallow
	}
	return eq(elem, value)
}

// Push appends values and returns the new length. The length read it makes
// is not tracked, so an effect that pushes does not re-run itself.
func (v *View) Push(values ...any) int {
	arr, ok := v.mutableArray()
	if !ok {
		return v.rawLen()
	}
	defer v.eng.pauseTracking()()

	for _, value := range values {
		v.TrySetAt(arr.Len(), value)
	}
	return arr.Len()
}

// Pop removes and returns the last element, or nil when empty.
func (v *View) Pop() any {
	arr, ok := v.mutableArray()
	if !ok {
		return nil
	}
	defer v.eng.pauseTracking()()

	n := arr.Len()
	if n == 0 {
		return nil
	}
	last := v.wrapResult(arr.items[n-1])
	v.TrySetLen(n - 1)
	return last
}

// Shift removes and returns the first element, or nil when empty.
func (v *View) Shift() any {
	arr, ok := v.mutableArray()
	if !ok {
		return nil
	}
	defer v.eng.pauseTracking()()

	n := arr.Len()
	if n == 0 {
		return nil
	}
	first := v.wrapResult(arr.items[0])
	for i := 1; i < n; i++ {
		v.TrySetAt(i-1, arr.items[i])
	}
	v.TrySetLen(n - 1)
	return first
}

// Unshift inserts values at the front and returns the new length.
func (v *View) Unshift(values ...any) int {
	arr, ok := v.mutableArray()
	if !ok {
		return v.rawLen()
	}
	defer v.eng.pauseTracking()()

	n, k := arr.Len(), len(values)
	if k == 0 {
		return n
	}
	for i := n - 1; i >= 0; i-- {
		v.TrySetAt(i+k, arr.items[i])
	}
	for j, value := range values {
		v.TrySetAt(j, value)
	}
	return arr.Len()
}

// Splice removes deleteCount elements at start, inserts items in their
// place and returns the removed elements. A negative start counts from the
// end; out-of-range arguments are clamped.
func (v *View) Splice(start, deleteCount int, items ...any) []any {
	arr, ok := v.mutableArray()
	if !ok {
		return nil
	}
	defer v.eng.pauseTracking()()

	n := arr.Len()
	switch {
	case start < 0:
		start = max(n+start, 0)
	case start > n:
		start = n
	}
	deleteCount = min(max(deleteCount, 0), n-start)

	removed := make([]any, deleteCount)
	for i := range removed {
		removed[i] = v.wrapResult(arr.items[start+i])
	}

	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, arr.items[:start]...)
	next = append(next, items...)
	next = append(next, arr.items[start+deleteCount:]...)

	for i := start; i < len(next); i++ {
		v.TrySetAt(i, next[i])
	}
	if len(next) < n {
		v.TrySetLen(len(next))
	}
	return removed
}

// mutableArray returns the array behind a writable view. Readonly views
// report a violation; non-array views fail.
func (v *View) mutableArray() (*Array, bool) {
	arr, ok := v.target.(*Array)
	if !ok {
		return nil, false
	}
	if v.readonly {
		v.readonlyViolation(rerrors.CodeReadonlyWrite, LengthKey, OpSet)
		return nil, false
	}
	return arr, true
}

func (v *View) rawLen() int {
	if arr, ok := v.target.(*Array); ok {
		return arr.Len()
	}
	return 0
}
