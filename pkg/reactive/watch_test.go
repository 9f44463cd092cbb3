package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	newValue, oldValue any
}

func TestWatchGetter(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("foo", 1).Put("bar", 1))

	var changes []change
	_, err := eng.Watch(func() any { return state.Get("foo") }, func(n, o any, _ func(func())) {
		changes = append(changes, change{n, o})
	})
	require.NoError(t, err)

	state.Set("bar", 2)
	state.Set("foo", 2)
	state.Set("foo", 3)
	assert.Equal(t, []change{{2, 1}, {3, 2}}, changes)
}

func TestWatchViewIsDeep(t *testing.T) {
	eng := New()
	state := eng.Reactive(From(map[string]any{
		"user": map[string]any{"tags": []any{"a"}},
	}).(*Object))

	calls := 0
	_, err := eng.Watch(state, func(n, o any, _ func(func())) {
		calls++
		assert.Same(t, state, n)
	})
	require.NoError(t, err)

	user := state.Get("user").(*View)
	user.Get("tags").(*View).Push("b")
	assert.Equal(t, 1, calls)

	user.Set("name", "ada")
	assert.Equal(t, 2, calls)

	state.Delete("user")
	assert.Equal(t, 3, calls)
}

func TestWatchCyclicGraphTerminates(t *testing.T) {
	eng := New()
	a := NewObject().Put("n", 1)
	b := NewObject().Put("a", a)
	a.Put("b", b)
	state := eng.Reactive(a)

	calls := 0
	_, err := eng.Watch(state, func(any, any, func(func())) { calls++ })
	require.NoError(t, err)

	state.Get("b").(*View).Get("a").(*View).Set("n", 2)
	assert.Equal(t, 1, calls)
}

func TestWatchComputed(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 1))
	doubled := NewComputed(eng, func() int { return state.Get("n").(int) * 2 })

	var changes []change
	_, err := eng.Watch(doubled, func(n, o any, _ func(func())) {
		changes = append(changes, change{n, o})
	})
	require.NoError(t, err)

	state.Set("n", 5)
	assert.Equal(t, []change{{10, 2}}, changes)
}

func TestWatchImmediate(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 1))

	var changes []change
	_, err := eng.Watch(func() any { return state.Get("n") }, func(n, o any, _ func(func())) {
		changes = append(changes, change{n, o})
	}, Immediate())
	require.NoError(t, err)
	require.Equal(t, []change{{1, nil}}, changes)

	state.Set("n", 2)
	assert.Equal(t, []change{{1, nil}, {2, 1}}, changes)
}

func TestWatchFlushPost(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 0))

	var changes []change
	_, err := eng.Watch(func() any { return state.Get("n") }, func(n, o any, _ func(func())) {
		changes = append(changes, change{n, o})
	}, WithFlush(FlushPost))
	require.NoError(t, err)

	eng.Tick(func() {
		state.Set("n", 1)
		state.Set("n", 2)
		assert.Empty(t, changes, "post-flush callbacks wait for the microtask queue")
	})
	assert.Equal(t, []change{{2, 0}}, changes)

	eng.Tick(func() {
		state.Set("n", 3)
		state.Set("n", 4)
	})
	assert.Equal(t, []change{{2, 0}, {4, 2}}, changes, "a flushed watcher schedules again")
	assert.Equal(t, "post", FlushPost.String())
}

// TestWatchInvalidationDiscardsStaleResults starts a slow "request" per
// change. The first request resolves after the second one started, and its
// result must be discarded.
func TestWatchInvalidationDiscardsStaleResults(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("query", "a"))

	var pending []func()
	var finalData any
	_, err := eng.Watch(state, func(n, _ any, onInvalidate func(func())) {
		expired := false
		onInvalidate(func() { expired = true })

		query := n.(*View).Get("query")
		pending = append(pending, func() {
			if !expired {
				finalData = query
			}
		})
	})
	require.NoError(t, err)

	state.Set("query", "b")
	state.Set("query", "c")
	require.Len(t, pending, 2)

	pending[0]() // first response arrives late
	assert.Nil(t, finalData)
	pending[1]()
	assert.Equal(t, "c", finalData)
}

func TestWatchStopFiresInvalidation(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 0))

	invalidated := 0
	calls := 0
	w, err := eng.Watch(func() any { return state.Get("n") }, func(_, _ any, onInvalidate func(func())) {
		calls++
		onInvalidate(func() { invalidated++ })
	})
	require.NoError(t, err)

	state.Set("n", 1)
	w.Stop()
	assert.True(t, w.Stopped())
	assert.Equal(t, 1, invalidated)

	state.Set("n", 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, invalidated, "the invalidation callback runs once")
}

func TestWatchInvalidSource(t *testing.T) {
	eng := New()
	noop := func(any, any, func(func())) {}

	_, err := eng.Watch(42, noop)
	assert.True(t, errors.Is(err, ErrInvalidSource))

	_, err = eng.Watch((*View)(nil), noop)
	assert.True(t, errors.Is(err, ErrInvalidSource))

	_, err = eng.Watch(func() any { return nil }, nil)
	assert.True(t, errors.Is(err, ErrInvalidSource))
}

func TestTraverseReadsEverything(t *testing.T) {
	eng := New()
	state := eng.Reactive(From(map[string]any{
		"list": []any{map[string]any{"x": 1}},
	}).(*Object))

	eff := eng.Effect(func() any { return Traverse(state) })
	// state: iterate + list; list: length + 0; element: iterate + x
	assert.Equal(t, 6, eff.Deps())
	assert.Equal(t, 7, Traverse(7))
}

func TestWatchCallbackIsDetachedFromWriter(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("count", 0).Put("go", 0).Put("seen", 0))

	var created []*Effect
	w, err := eng.Watch(func() any { return state.Get("count") }, func(_, _ any, _ func(func())) {
		state.Get("seen")
		created = append(created, eng.Effect(func() any { return nil }))
	})
	require.NoError(t, err)

	writerRuns := 0
	eng.Effect(func() any {
		writerRuns++
		if state.Get("go").(int) > 0 {
			state.Set("count", 1)
		}
		return nil
	})

	state.Set("go", 1)
	require.Len(t, created, 1)
	require.Equal(t, 2, writerRuns)

	state.Set("seen", 1)
	assert.Equal(t, 2, writerRuns, "reads in the callback must not subscribe the writer")

	state.Set("go", 2)
	assert.Equal(t, 3, writerRuns)
	assert.False(t, created[0].Stopped(), "the writer's re-run must not dispose callback effects")

	w.Stop()
	assert.True(t, created[0].Stopped(), "callback effects belong to the watcher")
}
