package reactive

import (
	"sort"
	"strconv"
)

// Target is a plain data container that a View can wrap. The application
// owns targets; the engine only observes them. Implemented by *Object and
// *Array.
type Target interface {
	targetID() uint64
	isArray() bool
}

// Object is an ordered, string-keyed record.
//
// Reads and writes made directly on an Object are invisible to the engine.
// Wrap it with Engine.Reactive to get tracked access.
type Object struct {
	id     uint64
	keys   []string
	fields map[string]any

	// proto is consulted for keys the object does not own.
	proto *View
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{
		id:     nextID(),
		fields: make(map[string]any),
	}
}

func (o *Object) targetID() uint64 { return o.id }
func (o *Object) isArray() bool    { return false }

// Put stores a field without tracking and returns the object for chaining.
func (o *Object) Put(key string, value any) *Object {
	o.store(key, value)
	return o
}

// Lookup returns an own field.
func (o *Object) Lookup(key string) (any, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Keys returns the own keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of own fields.
func (o *Object) Len() int {
	return len(o.keys)
}

// Proto returns the prototype view, or nil.
func (o *Object) Proto() *View {
	return o.proto
}

// SetProto makes reads of missing keys fall through to proto. Writes of keys
// the object does not own are offered to proto first, with the original view
// as receiver, and land on the receiving object.
func (o *Object) SetProto(proto *View) {
	o.proto = proto
}

func (o *Object) has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// resolve looks a key up along the prototype chain without tracking.
func (o *Object) resolve(key string) (any, bool) {
	for cur := o; cur != nil; {
		if v, ok := cur.fields[key]; ok {
			return v, true
		}
		if cur.proto == nil {
			break
		}
		next, ok := cur.proto.target.(*Object)
		if !ok {
			break
		}
		cur = next
	}
	return nil, false
}

func (o *Object) store(key string, value any) {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = value
}

func (o *Object) remove(key string) bool {
	if _, ok := o.fields[key]; !ok {
		return false
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Array is an ordered list of values.
type Array struct {
	id    uint64
	items []any
}

// NewArray returns an array holding items.
func NewArray(items ...any) *Array {
	return &Array{
		id:    nextID(),
		items: append([]any(nil), items...),
	}
}

func (a *Array) targetID() uint64 { return a.id }
func (a *Array) isArray() bool    { return true }

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.items)
}

// At returns element i without tracking, or nil when out of range.
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns a copy of the elements.
func (a *Array) Items() []any {
	return append([]any(nil), a.items...)
}

func (a *Array) storeAt(i int, value any) {
	if i >= len(a.items) {
		a.resize(i + 1)
	}
	a.items[i] = value
}

// resize truncates or pads with nil holes.
func (a *Array) resize(n int) {
	switch {
	case n < len(a.items):
		clear(a.items[n:])
		a.items = a.items[:n]
	case n > len(a.items):
		a.items = append(a.items, make([]any, n-len(a.items))...)
	}
}

func (a *Array) indexKeys() []string {
	keys := make([]string, len(a.items))
	for i := range a.items {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

// From converts nested map[string]any and []any values into Objects and
// Arrays. Map keys are inserted in sorted order. Other values, including
// existing targets, are returned unchanged.
func From(value any) any {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.store(k, From(v[k]))
		}
		return obj
	case []any:
		arr := &Array{id: nextID(), items: make([]any, len(v))}
		for i, item := range v {
			arr.items[i] = From(item)
		}
		return arr
	default:
		return value
	}
}
