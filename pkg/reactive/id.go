package reactive

import "sync/atomic"

// globalIDCounter is the source of unique IDs for targets, effects and engines.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are monotonically increasing and
// never reused, so a dependency store entry keyed by an ID can never be
// confused with a later target.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
