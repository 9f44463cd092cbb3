package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputedMemoizes(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("foo", 1).Put("bar", 2))

	evals := 0
	sum := NewComputed(eng, func() int {
		evals++
		return state.Get("foo").(int) + state.Get("bar").(int)
	})
	assert.True(t, sum.Dirty())
	assert.Equal(t, 0, evals, "computed values are lazy")

	assert.Equal(t, 3, sum.Value())
	assert.Equal(t, 3, sum.Value())
	assert.Equal(t, 1, evals)

	state.Set("foo", 10)
	assert.True(t, sum.Dirty())
	assert.Equal(t, 1, evals, "invalidation does not recompute")

	assert.Equal(t, 12, sum.Value())
	assert.Equal(t, 12, sum.Value())
	assert.Equal(t, 2, evals)
}

func TestComputedNotifiesReaders(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("foo", 1))
	doubled := NewComputed(eng, func() int { return state.Get("foo").(int) * 2 })

	var seen []int
	eng.Effect(func() any {
		seen = append(seen, doubled.Value())
		return nil
	})

	state.Set("foo", 2)
	state.Set("foo", 3)
	assert.Equal(t, []int{2, 4, 6}, seen)
}

func TestComputedChain(t *testing.T) {
	eng := New()
	price := eng.Reactive(NewObject().Put("base", 100.0).Put("tax", 0.5))

	taxed := NewComputed(eng, func() float64 {
		return price.Get("base").(float64) * (1 + price.Get("tax").(float64))
	})
	evals := 0
	rounded := NewComputed(eng, func() int {
		evals++
		return int(taxed.Value())
	})

	require.Equal(t, 150, rounded.Value())
	price.Set("base", 200.0)
	assert.True(t, rounded.Dirty())
	assert.Equal(t, 300, rounded.Value())
	assert.Equal(t, 2, evals)
}

func TestComputedDiamond(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("a", 1))

	b := NewComputed(eng, func() int { return state.Get("a").(int) * 2 })
	c := NewComputed(eng, func() int { return state.Get("a").(int) * 3 })

	var sums []int
	eng.Effect(func() any {
		sums = append(sums, b.Value()+c.Value())
		return nil
	})

	state.Set("a", 2)
	require.NotEmpty(t, sums)
	assert.Equal(t, 10, sums[len(sums)-1])
	assert.Equal(t, 5, sums[0])
}

func TestComputedPeekDoesNotTrack(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 1))
	c := NewComputed(eng, func() int { return state.Get("n").(int) })

	runs := countingEffect(eng, func() { c.Peek() })
	state.Set("n", 2)
	assert.Equal(t, 1, *runs)
	assert.Equal(t, 2, c.Peek())
}

func TestComputedStop(t *testing.T) {
	eng := New()
	state := eng.Reactive(NewObject().Put("n", 1))
	evals := 0
	c := NewComputed(eng, func() int {
		evals++
		return state.Get("n").(int)
	})
	c.Value()
	c.Stop()
	assert.True(t, c.Effect().Stopped())

	state.Set("n", 5)
	assert.Equal(t, 5, c.Value())
	assert.Equal(t, 5, c.Value())
	assert.Equal(t, 3, evals, "a stopped computed evaluates on every read")
}

func TestComputedNilInterface(t *testing.T) {
	eng := New()
	c := NewComputed(eng, func() error { return nil })
	assert.NoError(t, c.Value())
}
