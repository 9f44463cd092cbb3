package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeStopsOwnedEffects(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 0))

	scope := eng.NewScope()
	var eff *Effect
	var w *Watcher
	scope.Run(func() {
		eff = eng.Effect(func() any { return state.Get("n") })
		var err error
		w, err = eng.Watch(func() any { return state.Get("n") }, func(any, any, func(func())) {})
		require.NoError(t, err)
	})
	assert.Equal(t, 2, scope.Effects())
	assert.Nil(t, eng.CurrentScope(), "Run restores the previous scope")

	var cleaned []string
	scope.OnCleanup(func() { cleaned = append(cleaned, "first") })
	scope.OnCleanup(func() { cleaned = append(cleaned, "second") })

	scope.Stop()
	assert.True(t, scope.Stopped())
	assert.True(t, eff.Stopped())
	assert.True(t, w.Stopped())
	assert.Equal(t, []string{"second", "first"}, cleaned)
	assert.Equal(t, 0, eng.Stats().Store.Links)

	scope.Stop()
	assert.Len(t, cleaned, 2, "stopping twice is a no-op")
}

func TestScopeHierarchy(t *testing.T) {
	eng := New()
	parent := eng.NewScope()

	var child *Scope
	var eff *Effect
	parent.Run(func() {
		child = eng.NewScope()
		child.Run(func() {
			eff = eng.Effect(func() any { return nil })
			assert.Same(t, child, eng.CurrentScope())
		})
		assert.Same(t, parent, eng.CurrentScope())
	})

	parent.Stop()
	assert.True(t, child.Stopped())
	assert.True(t, eff.Stopped())
}

func TestStoppedChildScopeDetaches(t *testing.T) {
	eng := New()
	parent := eng.NewScope()
	var child *Scope
	parent.Run(func() { child = eng.NewScope() })

	child.Stop()
	assert.Empty(t, parent.children)
	assert.False(t, parent.Stopped())
}

func TestStoppedScopeRefusesWork(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 0))
	scope := eng.NewScope()
	scope.Stop()

	ran := false
	scope.OnCleanup(func() { ran = true })
	assert.True(t, ran, "cleanups on a stopped scope run at once")

	var eff *Effect
	scope.Run(func() {
		eff = eng.Effect(func() any { return state.Get("n") })
	})
	assert.True(t, eff.Stopped())
	assert.Equal(t, 0, eff.Deps())
}

func TestEffectsInsideEffectsBelongToTheEffect(t *testing.T) {
	eng := New()
	scope := eng.NewScope()
	scope.Run(func() {
		eng.Effect(func() any {
			eng.Effect(func() any { return nil })
			return nil
		})
	})
	assert.Equal(t, 1, scope.Effects())
}
