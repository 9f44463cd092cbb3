package reactive

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueCoalescesWrites(t *testing.T) {
	eng := New()
	q := NewJobQueue(eng)
	state := eng.Reactive(NewObject().Put("foo", 1))

	var seen []any
	eng.Effect(func() any {
		seen = append(seen, state.Get("foo"))
		return nil
	}, WithScheduler(q.Schedule))

	eng.Tick(func() {
		state.Set("foo", 2)
		state.Set("foo", 3)
		assert.Equal(t, 1, q.Len())
	})

	assert.Equal(t, []any{1, 3}, seen)
	assert.Equal(t, 1, q.Flushes())
	assert.Equal(t, 0, q.Len())
}

func TestJobQueuePreservesFirstInsertionOrder(t *testing.T) {
	eng := New()
	q := NewJobQueue(eng)
	state := eng.Reactive(NewObject().Put("a", 0).Put("b", 0))

	var order []string
	eng.Effect(func() any {
		state.Get("b")
		order = append(order, "b")
		return nil
	}, WithScheduler(q.Schedule))
	eng.Effect(func() any {
		state.Get("a")
		order = append(order, "a")
		return nil
	}, WithScheduler(q.Schedule))
	order = nil

	state.Set("a", 1)
	state.Set("b", 1)
	state.Set("a", 2)
	eng.FlushMicrotasks()

	assert.Equal(t, []string{"a", "b"}, order)
}

func TestJobQueueRequeueDuringFlush(t *testing.T) {
	obs := &recordingObserver{}
	eng := New(WithObserver(obs))
	q := NewJobQueue(eng)
	state := eng.Reactive(NewObject().Put("n", 0).Put("out", 0))

	eng.Effect(func() any {
		state.Set("out", state.Get("n"))
		return nil
	}, WithScheduler(q.Schedule))

	var outs []any
	eng.Effect(func() any {
		outs = append(outs, state.Get("out"))
		return nil
	}, WithScheduler(q.Schedule))

	state.Set("n", 1)
	eng.FlushMicrotasks()

	assert.Equal(t, []any{0, 1}, outs)
	assert.Equal(t, 2, q.Flushes(), "jobs queued during a flush get a new flush")
	assert.Equal(t, 2, obs.flushes)
}

func TestJobQueueSkipsStoppedEffects(t *testing.T) {
	eng := New()
	q := NewJobQueue(eng)
	state := eng.Reactive(NewObject().Put("n", 0))

	eff := eng.Effect(func() any { return state.Get("n") }, WithScheduler(q.Schedule))
	state.Set("n", 1)
	eff.Stop()
	eng.FlushMicrotasks()
	assert.Equal(t, 1, eff.Runs())
}

func TestMicrotasksRunInOrderAndDrainNested(t *testing.T) {
	eng := New()
	var order []int
	eng.QueueMicrotask(func() {
		order = append(order, 1)
		eng.QueueMicrotask(func() { order = append(order, 3) })
		eng.FlushMicrotasks() // no-op while draining
	})
	eng.QueueMicrotask(func() { order = append(order, 2) })

	assert.Equal(t, 2, eng.Stats().PendingMicrotasks)
	eng.FlushMicrotasks()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, eng.Stats().PendingMicrotasks)
}

func TestRunBudgetDropsRunawayMicrotasks(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	eng := New(
		WithRunBudget(10),
		WithObserver(obs),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	runs := 0
	var spin func()
	spin = func() {
		runs++
		eng.QueueMicrotask(spin)
	}
	eng.QueueMicrotask(spin)
	eng.FlushMicrotasks()

	assert.Equal(t, 10, runs)
	assert.Equal(t, 1, obs.dropped)
	assert.Contains(t, buf.String(), "R004")

	st := eng.Stats().Budget
	assert.Equal(t, 10, st.MaxRunsPerTick)
	assert.Equal(t, 0, st.RunsThisTick, "the tick is reset after draining")
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, 1, st.Exceeded)
}

func TestRunBudgetRecoversJobQueue(t *testing.T) {
	eng := New(WithRunBudget(2))
	q := NewJobQueue(eng)
	state := eng.Reactive(NewObject().Put("n", 0))

	eff := eng.Effect(func() any {
		state.Get("n")
		return nil
	}, WithScheduler(q.Schedule))

	eng.QueueMicrotask(func() {})
	eng.QueueMicrotask(func() {})
	state.Set("n", 1) // the flush is the third task and gets dropped
	eng.FlushMicrotasks()
	require.Equal(t, 1, eff.Runs())
	require.Equal(t, 0, q.Len())

	state.Set("n", 2)
	eng.FlushMicrotasks()
	assert.Equal(t, 2, eff.Runs(), "a dropped flush does not wedge the queue")
}

func TestRunBudgetDisabled(t *testing.T) {
	eng := New(WithRunBudget(0))
	runs := 0
	var spin func()
	spin = func() {
		runs++
		if runs < DefaultMaxRunsPerTick+10 {
			eng.QueueMicrotask(spin)
		}
	}
	eng.QueueMicrotask(spin)
	eng.FlushMicrotasks()
	assert.Equal(t, DefaultMaxRunsPerTick+10, runs)
	assert.Equal(t, BudgetStats{}, eng.Stats().Budget)
}
