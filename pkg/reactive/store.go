package reactive

import (
	"runtime"
	"sort"
	"sync"
)

// TriggerOp classifies a write for the trigger rules.
type TriggerOp uint8

const (
	// OpSet overwrites an existing field or element.
	OpSet TriggerOp = iota
	// OpAdd creates a field, or an element at or beyond the current length.
	OpAdd
	// OpDelete removes a field or element.
	OpDelete
)

// String returns the operation name.
func (op TriggerOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	default:
		return "set"
	}
}

// depSet is the insertion-ordered set of effects depending on one
// (target, key) pair.
type depSet struct {
	effects []*Effect
}

func (s *depSet) add(e *Effect) bool {
	for _, existing := range s.effects {
		if existing == e {
			return false
		}
	}
	s.effects = append(s.effects, e)
	return true
}

func (s *depSet) remove(e *Effect) {
	for i, existing := range s.effects {
		if existing == e {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return
		}
	}
}

func (s *depSet) len() int {
	return len(s.effects)
}

// targetDeps maps the keys of one target to their dependency sets.
type targetDeps struct {
	array bool
	keys  map[Key]*depSet
}

func (td *targetDeps) set(key Key) *depSet {
	ds, ok := td.keys[key]
	if !ok {
		ds = &depSet{}
		td.keys[key] = ds
	}
	return ds
}

// indexSetsFrom returns the sets of index keys >= n in ascending order.
func (td *targetDeps) indexSetsFrom(n int) []*depSet {
	var idx []int
	for k := range td.keys {
		if i, ok := k.Index(); ok && i >= n {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	sets := make([]*depSet, len(idx))
	for j, i := range idx {
		sets[j] = td.keys[IndexKey(i)]
	}
	return sets
}

// depStore maps target identities to per-key dependency sets.
//
// Entries are keyed by the target's numeric ID and never hold the target
// itself, so the store does not keep a target alive. When a tracked target
// becomes unreachable, a runtime cleanup queues its ID for eviction; the
// queue is drained on the engine goroutine the next time the store is used.
type depStore struct {
	targets map[uint64]*targetDeps

	evictMu sync.Mutex
	evicted []uint64
}

func newDepStore() *depStore {
	return &depStore{targets: make(map[uint64]*targetDeps)}
}

// ensure returns the entry for t, creating it on first use.
func (s *depStore) ensure(t Target) *targetDeps {
	s.applyEvictions()

	id := t.targetID()
	td, ok := s.targets[id]
	if !ok {
		td = &targetDeps{array: t.isArray(), keys: make(map[Key]*depSet)}
		s.targets[id] = td
		s.watchLifetime(t, id)
	}
	return td
}

// lookup returns the entry for a target ID, or nil.
func (s *depStore) lookup(id uint64) *targetDeps {
	s.applyEvictions()
	return s.targets[id]
}

// release drops the entry for a target and detaches its effects.
func (s *depStore) release(id uint64) {
	td, ok := s.targets[id]
	if !ok {
		return
	}
	delete(s.targets, id)
	for _, ds := range td.keys {
		for _, e := range ds.effects {
			e.forgetDep(ds)
		}
		ds.effects = nil
	}
}

func (s *depStore) watchLifetime(t Target, id uint64) {
	switch t := t.(type) {
	case *Object:
		runtime.AddCleanup(t, s.enqueueEviction, id)
	case *Array:
		runtime.AddCleanup(t, s.enqueueEviction, id)
	}
}

// enqueueEviction runs on the runtime's cleanup goroutine.
func (s *depStore) enqueueEviction(id uint64) {
	s.evictMu.Lock()
	s.evicted = append(s.evicted, id)
	s.evictMu.Unlock()
}

func (s *depStore) applyEvictions() {
	s.evictMu.Lock()
	ids := s.evicted
	s.evicted = nil
	s.evictMu.Unlock()

	for _, id := range ids {
		s.release(id)
	}
}

// StoreStats summarizes the dependency store.
type StoreStats struct {
	// Targets is the number of targets with at least one tracked key.
	Targets int
	// Keys is the number of (target, key) entries.
	Keys int
	// Links is the total number of effect memberships.
	Links int
}

func (s *depStore) stats() StoreStats {
	s.applyEvictions()
	var st StoreStats
	st.Targets = len(s.targets)
	for _, td := range s.targets {
		st.Keys += len(td.keys)
		for _, ds := range td.keys {
			st.Links += ds.len()
		}
	}
	return st
}
