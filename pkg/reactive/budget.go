package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// RunBudget caps the number of deferred runs (microtasks and queued jobs)
// between two quiet points. It protects the engine from effects that keep
// rescheduling each other through a scheduler, which the synchronous depth
// guard cannot see.
//
// A nil *RunBudget allows everything.
type RunBudget struct {
	maxRunsPerTick int

	runsThisTick int
	dropped      int
	exceeded     int
}

// BudgetStats reports budget usage.
type BudgetStats struct {
	MaxRunsPerTick int
	RunsThisTick   int
	// Dropped counts runs refused since the engine was created.
	Dropped int
	// Exceeded counts ticks in which the budget ran out.
	Exceeded int
}

func newRunBudget(maxRunsPerTick int) *RunBudget {
	if maxRunsPerTick <= 0 {
		return nil
	}
	return &RunBudget{maxRunsPerTick: maxRunsPerTick}
}

// spend takes one run from the budget.
// Returns an R004 error once the tick's budget is used up.
func (b *RunBudget) spend() error {
	if b == nil {
		return nil
	}
	if b.runsThisTick >= b.maxRunsPerTick {
		if b.runsThisTick == b.maxRunsPerTick {
			b.exceeded++
			// Count the overflow once so later refusals do not re-report it.
			b.runsThisTick++
		}
		b.dropped++
		return rerrors.New(rerrors.CodeBudgetExceeded).
			WithDetailf("more than %d deferred runs in one tick", b.maxRunsPerTick)
	}
	b.runsThisTick++
	return nil
}

// resetTick starts a new tick.
func (b *RunBudget) resetTick() {
	if b == nil {
		return
	}
	b.runsThisTick = 0
}

// Stats returns current budget usage.
func (b *RunBudget) Stats() BudgetStats {
	if b == nil {
		return BudgetStats{}
	}
	return BudgetStats{
		MaxRunsPerTick: b.maxRunsPerTick,
		RunsThisTick:   min(b.runsThisTick, b.maxRunsPerTick),
		Dropped:        b.dropped,
		Exceeded:       b.exceeded,
	}
}
