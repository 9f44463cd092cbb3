package reactive

// Traverse reads every field and element reachable from value through the
// view accessors, so a running effect depends on the whole structure.
// Each target is visited once, which makes cyclic graphs safe. Values that
// are not views are returned untouched.
func Traverse(value any) any {
	traverse(value, make(map[uint64]struct{}))
	return value
}

func traverse(value any, seen map[uint64]struct{}) {
	v, ok := value.(*View)
	if !ok || v == nil {
		return
	}
	id := v.target.targetID()
	if _, dup := seen[id]; dup {
		return
	}
	seen[id] = struct{}{}

	if v.IsArray() {
		for i, n := 0, v.Len(); i < n; i++ {
			traverse(v.At(i), seen)
		}
		return
	}
	for _, key := range v.Keys() {
		traverse(v.Get(key), seen)
	}
}
