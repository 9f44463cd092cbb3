package reactive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayTruncateTriggersRemovedIndices(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray("a", "b"))

	var seen [][2]any
	eng.Effect(func() any {
		seen = append(seen, [2]any{arr.At(0), arr.At(1)})
		return nil
	})

	require.True(t, arr.SetLen(0))
	assert.Equal(t, [][2]any{{"a", "b"}, {nil, nil}}, seen)
}

func TestArrayTruncateSkipsSurvivingIndices(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2, 3))

	runs := countingEffect(eng, func() { arr.At(0) })
	arr.SetLen(1)
	assert.Equal(t, 1, *runs)
	arr.SetLen(0)
	assert.Equal(t, 2, *runs)
}

func TestArrayLengthKeySetViaGet(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2))

	var lengths []any
	eng.Effect(func() any {
		lengths = append(lengths, arr.Get("length"))
		return nil
	})
	arr.Set("length", 5)
	arr.Set("2", "x")
	assert.Equal(t, []any{2, 5}, lengths, "writing inside the length does not add")
	assert.Equal(t, "x", arr.Get("2"))
	assert.Nil(t, arr.Get("4"))
}

func TestArrayPushTriggersIteration(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray("foo"))

	var keys [][]string
	eng.Effect(func() any {
		keys = append(keys, arr.Keys())
		return nil
	})

	arr.Push("bar")
	assert.Equal(t, [][]string{{"0"}, {"0", "1"}}, keys)
}

func TestArrayWriteBeyondLengthTriggersLength(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray("foo"))

	var lengths []int
	eng.Effect(func() any {
		lengths = append(lengths, arr.Len())
		return nil
	})
	arr.SetAt(1, "bar")
	arr.SetAt(0, "baz")
	assert.Equal(t, []int{1, 2}, lengths)
}

func TestArrayPushInsideEffectsDoesNotLoop(t *testing.T) {
	eng := New(WithMaxDepth(16))
	arr := eng.Reactive(NewArray())

	eng.Effect(func() any {
		arr.Push(1)
		return nil
	})
	eng.Effect(func() any {
		arr.Push(1)
		return nil
	})
	assert.Equal(t, 2, arr.Raw().(*Array).Len())
}

func TestArrayPushRestoresTrackingState(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray())
	state := eng.Reactive(NewObject().Put("n", 0))

	runs := countingEffect(eng, func() {
		arr.Push(1)
		state.Get("n")
	})
	state.Set("n", 1)
	assert.Equal(t, 2, *runs, "reads after a push are tracked again")
}

func TestArrayIncludesFindsRawElement(t *testing.T) {
	eng := New()
	obj := NewObject()
	arr := eng.Reactive(NewArray(obj))

	assert.True(t, arr.Includes(obj), "raw needle matches the raw element")
	assert.True(t, arr.Includes(arr.At(0)), "a view read back from the array matches")
	assert.True(t, arr.Includes(eng.Reactive(obj)), "an independently wrapped needle matches")
	assert.False(t, arr.Includes(NewObject()))
	assert.Equal(t, 0, arr.IndexOf(obj))
	assert.Equal(t, -1, arr.IndexOf(NewObject()))
}

func TestArraySearchTracksElements(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2))

	var found []bool
	eng.Effect(func() any {
		found = append(found, arr.Includes(3))
		return nil
	})
	arr.SetAt(1, 3)
	arr.Push(4)
	assert.Equal(t, []bool{false, true, true}, found)
}

func TestArraySearchEquality(t *testing.T) {
	eng := New()
	nan := math.NaN()
	arr := eng.Reactive(NewArray(nan, 1, 2, 1))

	assert.True(t, arr.Includes(nan), "includes uses SameValueZero")
	assert.Equal(t, -1, arr.IndexOf(nan), "indexOf uses strict equality")
	assert.Equal(t, 1, arr.IndexOf(1))
	assert.Equal(t, 3, arr.LastIndexOf(1))
	assert.Equal(t, -1, arr.LastIndexOf(9))

	zeros := eng.Reactive(NewArray(math.Copysign(0, -1)))
	assert.True(t, zeros.Includes(0.0))
	assert.Equal(t, 0, zeros.IndexOf(0.0))
}

func TestArrayPopShift(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2, 3))

	var snapshots [][]any
	eng.Effect(func() any {
		snapshots = append(snapshots, arr.Values())
		return nil
	})

	assert.Equal(t, 3, arr.Pop())
	assert.Equal(t, 1, arr.Shift())
	assert.Equal(t, []any{2}, arr.Raw().(*Array).Items())

	require.NotEmpty(t, snapshots)
	assert.Equal(t, []any{2}, snapshots[len(snapshots)-1])

	arr.Pop()
	assert.Nil(t, arr.Pop())
	assert.Nil(t, arr.Shift())
}

func TestArrayUnshift(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(3))

	assert.Equal(t, 3, arr.Unshift(1, 2))
	assert.Equal(t, []any{1, 2, 3}, arr.Raw().(*Array).Items())
	assert.Equal(t, 3, arr.Unshift())
}

func TestArraySplice(t *testing.T) {
	tests := []struct {
		name        string
		start       int
		deleteCount int
		items       []any
		wantRemoved []any
		want        []any
	}{
		{"remove middle", 1, 2, nil, []any{2, 3}, []any{1, 4, 5}},
		{"insert", 2, 0, []any{"a", "b"}, []any{}, []any{1, 2, "a", "b", 3, 4, 5}},
		{"replace", 0, 1, []any{"x"}, []any{1}, []any{"x", 2, 3, 4, 5}},
		{"negative start", -2, 1, nil, []any{4}, []any{1, 2, 3, 5}},
		{"clamped count", 3, 99, nil, []any{4, 5}, []any{1, 2, 3}},
		{"start past end", 10, 1, []any{6}, []any{}, []any{1, 2, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := New()
			arr := eng.Reactive(NewArray(1, 2, 3, 4, 5))

			removed := arr.Splice(tt.start, tt.deleteCount, tt.items...)
			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.want, arr.Raw().(*Array).Items())
		})
	}
}

func TestArraySpliceTriggersLength(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2, 3))

	var lengths []int
	eng.Effect(func() any {
		lengths = append(lengths, arr.Len())
		return nil
	})
	arr.Splice(0, 1)
	arr.Splice(0, 0, "a", "b")
	// Each element written past the end grows the array by one.
	assert.Equal(t, []int{3, 2, 3, 4}, lengths)
}

func TestArrayDeleteLeavesHole(t *testing.T) {
	eng := New()
	arr := eng.Reactive(NewArray(1, 2))

	var seen []any
	eng.Effect(func() any {
		seen = append(seen, arr.At(0))
		return nil
	})
	require.True(t, arr.Delete("0"))
	assert.Equal(t, []any{1, nil}, seen)
	assert.Equal(t, 2, arr.Raw().(*Array).Len())
}

func TestReadonlyArrayRefusesMutators(t *testing.T) {
	obs := &recordingObserver{}
	eng := New(WithObserver(obs))
	arr := eng.Readonly(NewArray(1, 2))

	assert.Equal(t, 2, arr.Push(3))
	assert.Nil(t, arr.Pop())
	assert.Nil(t, arr.Splice(0, 1))
	assert.False(t, arr.SetAt(0, 9))
	assert.False(t, arr.SetLen(0))
	assert.Equal(t, []any{1, 2}, arr.Raw().(*Array).Items())
	assert.Equal(t, 5, obs.readonly)
}
