package statehub

import (
	"reflect"
	"sort"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// EventType identifies a change feed message.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventSet      EventType = "set"
	EventDelete   EventType = "delete"
)

// Event is sent to subscribers as a JSON text message.
type Event struct {
	Type    EventType `json:"type"`
	Key     string    `json:"key,omitempty"`
	Value   any       `json:"value,omitempty"`
	Version uint64    `json:"version"`
}

// plain converts a value read through a view into JSON-ready Go values.
// Reading every field and element subscribes the running effect to all of
// them.
func plain(value any) any {
	view, ok := value.(*reactive.View)
	if !ok {
		return value
	}
	if view.IsArray() {
		items := view.Values()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plain(item)
		}
		return out
	}
	keys := view.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = plain(view.Get(k))
	}
	return out
}

// diff returns the events turning prev into next, sorted by key.
func diff(prev, next map[string]any, version uint64) []Event {
	var events []Event
	for k, v := range next {
		if old, ok := prev[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		events = append(events, Event{Type: EventSet, Key: k, Value: v, Version: version})
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			events = append(events, Event{Type: EventDelete, Key: k, Version: version})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Key < events[j].Key
	})
	return events
}
