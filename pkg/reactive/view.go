package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// View is the tracked accessor layer over one target. Reads through a view
// record dependencies for the running effect; writes trigger dependents.
//
// Nested objects and arrays are returned as fresh views on every read
// unless the view is shallow. Two views of the same target behave the same
// but are not the same pointer; compare Raw() values for identity.
type View struct {
	eng      *Engine
	target   Target
	shallow  bool
	readonly bool
}

// Reactive returns a deep, writable view of t.
func (e *Engine) Reactive(t Target) *View {
	return e.wrap(t, false, false)
}

// ShallowReactive returns a writable view whose nested values are returned raw.
func (e *Engine) ShallowReactive(t Target) *View {
	return e.wrap(t, true, false)
}

// Readonly returns a deep readonly view. Reads are not tracked and writes
// are suppressed.
func (e *Engine) Readonly(t Target) *View {
	return e.wrap(t, false, true)
}

// ShallowReadonly returns a readonly view whose nested values are returned raw.
func (e *Engine) ShallowReadonly(t Target) *View {
	return e.wrap(t, true, true)
}

func (e *Engine) wrap(t Target, shallow, readonly bool) *View {
	if t == nil {
		return nil
	}
	return &View{eng: e, target: t, shallow: shallow, readonly: readonly}
}

// Raw returns the wrapped target.
func (v *View) Raw() Target {
	return v.target
}

// Engine returns the engine the view reports to.
func (v *View) Engine() *Engine {
	return v.eng
}

// IsArray reports whether the view wraps an *Array.
func (v *View) IsArray() bool {
	return v.target.isArray()
}

// IsReadonly reports whether writes through the view are suppressed.
func (v *View) IsReadonly() bool {
	return v.readonly
}

// IsShallow reports whether nested values are returned raw.
func (v *View) IsShallow() bool {
	return v.shallow
}

// toRaw unwraps a view to its target; other values are returned unchanged.
func toRaw(value any) any {
	if v, ok := value.(*View); ok && v != nil {
		return v.target
	}
	return value
}

// wrapResult wraps nested targets with the view's flags.
func (v *View) wrapResult(value any) any {
	if v.shallow {
		return value
	}
	if t, ok := value.(Target); ok {
		return v.eng.wrap(t, false, v.readonly)
	}
	return value
}

func (v *View) track(key Key) {
	if v.readonly {
		return
	}
	v.eng.track(v.target, key)
}

// Get reads a field. On array views, numeric keys read elements and
// "length" reads the length. Keys the object does not own are read from its
// prototype.
func (v *View) Get(key string) any {
	if _, ok := v.target.(*Array); ok {
		if key == "length" {
			return v.Len()
		}
		if i, ok := parseIndex(key); ok {
			return v.At(i)
		}
		return nil
	}
	return v.getWith(key, v)
}

func (v *View) getWith(key string, receiver *View) any {
	obj := v.target.(*Object)
	v.track(FieldKey(key))
	if value, ok := obj.fields[key]; ok {
		return receiver.wrapResult(value)
	}
	if obj.proto != nil && !obj.proto.IsArray() {
		return obj.proto.getWith(key, receiver)
	}
	return nil
}

// Has reports whether the key resolves, tracking the key.
func (v *View) Has(key string) bool {
	if arr, ok := v.target.(*Array); ok {
		i, isIndex := parseIndex(key)
		if !isIndex {
			return false
		}
		v.track(IndexKey(i))
		return i < arr.Len()
	}
	v.track(FieldKey(key))
	_, ok := v.target.(*Object).resolve(key)
	return ok
}

// Set writes a field and reports whether the write happened.
// Writes through a readonly view are suppressed and logged.
func (v *View) Set(key string, value any) bool {
	return v.TrySet(key, value) == nil
}

// TrySet is Set returning the reason a write was refused.
func (v *View) TrySet(key string, value any) error {
	if _, ok := v.target.(*Array); ok {
		if key == "length" {
			n, ok := value.(int)
			if !ok {
				return v.unsupported("length must be an int")
			}
			return v.TrySetLen(n)
		}
		if i, ok := parseIndex(key); ok {
			return v.TrySetAt(i, value)
		}
		return v.unsupported("array views accept numeric keys and length")
	}
	return v.setWith(key, value, v)
}

// setWith stores key on the receiver's object. The write is offered to the
// prototype chain when the object does not own key, and only the view whose
// target equals the receiver's target triggers. Shadowing an inherited key
// with an equal value only notifies iteration.
func (v *View) setWith(key string, value any, receiver *View) error {
	if v.readonly {
		return v.readonlyViolation(rerrors.CodeReadonlyWrite, FieldKey(key), OpSet)
	}
	if !v.shallow {
		value = toRaw(value)
	}

	obj := v.target.(*Object)
	old, inherited := obj.resolve(key)
	op := OpSet
	if !obj.has(key) {
		op = OpAdd
	} else {
		inherited = false
	}

	if obj.has(key) || obj.proto == nil || obj.proto.IsArray() {
		receiver.target.(*Object).store(key, value)
	} else if err := obj.proto.setWith(key, value, receiver); err != nil {
		return err
	}

	if receiver.target != v.target {
		return nil
	}
	switch {
	case inherited && SameValue(old, value):
		// The visible value is unchanged; only the own key set grew.
		v.eng.trigger(v.target, IterateKey, OpSet, 0)
	case op == OpAdd || !SameValue(old, value):
		v.eng.trigger(v.target, FieldKey(key), op, 0)
	}
	return nil
}

// Delete removes a field and reports whether the delete happened.
func (v *View) Delete(key string) bool {
	return v.TryDelete(key) == nil
}

// TryDelete is Delete returning the reason a delete was refused. Deleting
// a missing key is not an error. On arrays, deleting an element leaves a nil
// hole and keeps the length.
func (v *View) TryDelete(key string) error {
	if arr, ok := v.target.(*Array); ok {
		i, isIndex := parseIndex(key)
		if !isIndex {
			return v.unsupported("array views accept numeric keys")
		}
		if v.readonly {
			return v.readonlyViolation(rerrors.CodeReadonlyDelete, IndexKey(i), OpDelete)
		}
		if i < arr.Len() {
			arr.items[i] = nil
			v.eng.trigger(arr, IndexKey(i), OpDelete, 0)
		}
		return nil
	}
	if v.readonly {
		return v.readonlyViolation(rerrors.CodeReadonlyDelete, FieldKey(key), OpDelete)
	}
	obj := v.target.(*Object)
	if obj.remove(key) {
		v.eng.trigger(obj, FieldKey(key), OpDelete, 0)
	}
	return nil
}

// Keys enumerates own keys. Objects track the iterate channel; arrays track
// length and return index strings.
func (v *View) Keys() []string {
	switch t := v.target.(type) {
	case *Array:
		v.track(LengthKey)
		return t.indexKeys()
	case *Object:
		v.track(IterateKey)
		return t.Keys()
	}
	return nil
}

// Len returns the element count of an array (tracking length) or the own
// key count of an object (tracking the iterate channel).
func (v *View) Len() int {
	switch t := v.target.(type) {
	case *Array:
		v.track(LengthKey)
		return t.Len()
	case *Object:
		v.track(IterateKey)
		return t.Len()
	}
	return 0
}

// At reads element i of an array view, or nil when out of range.
func (v *View) At(i int) any {
	arr, ok := v.target.(*Array)
	if !ok || i < 0 {
		return nil
	}
	v.track(IndexKey(i))
	return v.wrapResult(arr.At(i))
}

// Values reads every element of an array view, tracking length and each
// index. Object views return nil; use Keys and Get for those.
func (v *View) Values() []any {
	if _, ok := v.target.(*Array); !ok {
		return nil
	}
	n := v.Len()
	out := make([]any, n)
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// SetAt writes element i. Writing at or past the length grows the array,
// padding with nil.
func (v *View) SetAt(i int, value any) bool {
	return v.TrySetAt(i, value) == nil
}

// TrySetAt is SetAt returning the reason a write was refused.
func (v *View) TrySetAt(i int, value any) error {
	arr, ok := v.target.(*Array)
	if !ok {
		return v.unsupported("SetAt requires an array view")
	}
	if i < 0 {
		return v.unsupported("negative index")
	}
	if v.readonly {
		return v.readonlyViolation(rerrors.CodeReadonlyWrite, IndexKey(i), OpSet)
	}
	if !v.shallow {
		value = toRaw(value)
	}

	op := OpSet
	if i >= arr.Len() {
		op = OpAdd
	}
	old := arr.At(i)
	arr.storeAt(i, value)
	if op == OpAdd || !SameValue(old, value) {
		v.eng.trigger(arr, IndexKey(i), op, 0)
	}
	return nil
}

// SetLen truncates or extends an array. Truncation triggers effects that
// read any removed index.
func (v *View) SetLen(n int) bool {
	return v.TrySetLen(n) == nil
}

// TrySetLen is SetLen returning the reason a write was refused.
func (v *View) TrySetLen(n int) error {
	arr, ok := v.target.(*Array)
	if !ok {
		return v.unsupported("SetLen requires an array view")
	}
	if n < 0 {
		return v.unsupported("negative length")
	}
	if v.readonly {
		return v.readonlyViolation(rerrors.CodeReadonlyWrite, LengthKey, OpSet)
	}
	old := arr.Len()
	arr.resize(n)
	if old != n {
		v.eng.trigger(arr, LengthKey, OpSet, n)
	}
	return nil
}

func (v *View) readonlyViolation(code string, key Key, op TriggerOp) error {
	err := rerrors.New(code).
		WithDetailf("key %q on target %d", key.String(), v.target.targetID())
	v.eng.observer.ReadonlyViolation(key, op)
	v.eng.log.Warn("readonly target", "err", err)
	return err
}

func (v *View) unsupported(detail string) error {
	return rerrors.New(rerrors.CodeUnsupportedOp).WithDetail(detail)
}
