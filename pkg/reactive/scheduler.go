package reactive

import (
	"time"
)

// microtask is a deferred callback. onDrop, if set, runs instead of fn when
// the run budget refuses the task, so owners can clear pending flags.
type microtask struct {
	fn     func()
	onDrop func()
}

// microtaskQueue holds callbacks deferred to the end of the current task.
type microtaskQueue struct {
	tasks    []microtask
	draining bool
}

func (q *microtaskQueue) len() int {
	return len(q.tasks)
}

// QueueMicrotask defers fn until the microtask queue is drained, either by
// FlushMicrotasks, at the end of Tick, or after each Loop task.
func (e *Engine) QueueMicrotask(fn func()) {
	e.queueMicrotask(fn, nil)
}

func (e *Engine) queueMicrotask(fn, onDrop func()) {
	e.assertOwner()
	e.micro.tasks = append(e.micro.tasks, microtask{fn: fn, onDrop: onDrop})
}

// FlushMicrotasks runs queued microtasks, including ones queued while
// draining, until the queue is empty. Runs beyond the tick's budget are
// dropped and reported. Calls made from inside a microtask return at once.
func (e *Engine) FlushMicrotasks() {
	e.assertOwner()
	if e.micro.draining {
		return
	}
	e.micro.draining = true
	defer func() { e.micro.draining = false }()

	dropped := 0
	for len(e.micro.tasks) > 0 {
		task := e.micro.tasks[0]
		e.micro.tasks[0] = microtask{}
		e.micro.tasks = e.micro.tasks[1:]

		if err := e.budget.spend(); err != nil {
			if dropped == 0 {
				e.log.Error("run budget exhausted", "err", err)
			}
			dropped++
			if task.onDrop != nil {
				task.onDrop()
			}
			continue
		}
		task.fn()
	}
	e.micro.tasks = nil

	if dropped > 0 {
		e.observer.BudgetExceeded(dropped)
	}
	e.budget.resetTick()
}

// Tick runs fn and then drains the microtask queue, like one turn of an
// event loop.
func (e *Engine) Tick(fn func()) {
	fn()
	e.FlushMicrotasks()
}

// JobQueue batches effect re-runs. Scheduling an effect that is already
// queued is a no-op, and at most one flush is pending at a time.
//
//	q := reactive.NewJobQueue(eng)
//	eng.Effect(func() any {
//	    fmt.Println(counter.Get("n"))
//	    return nil
//	}, reactive.WithScheduler(q.Schedule))
//
//	counter.Set("n", 1)
//	counter.Set("n", 2)
//	eng.FlushMicrotasks() // prints 2 once
type JobQueue struct {
	eng *Engine

	jobs     []*Effect
	queued   map[*Effect]struct{}
	flushing bool // a flush microtask is pending

	flushes int
}

// NewJobQueue creates a job queue that flushes on e's microtask queue.
func NewJobQueue(e *Engine) *JobQueue {
	return &JobQueue{
		eng:    e,
		queued: make(map[*Effect]struct{}),
	}
}

// Schedule queues eff and requests a flush. It has the Scheduler signature.
func (q *JobQueue) Schedule(eff *Effect) {
	if _, ok := q.queued[eff]; !ok {
		q.queued[eff] = struct{}{}
		q.jobs = append(q.jobs, eff)
	}
	if q.flushing {
		return
	}
	q.flushing = true
	q.eng.queueMicrotask(q.flush, q.drop)
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int {
	return len(q.jobs)
}

// Flushes returns how many flushes have run.
func (q *JobQueue) Flushes() int {
	return q.flushes
}

// drop discards the queued jobs when the flush is refused by the budget.
func (q *JobQueue) drop() {
	q.jobs = nil
	clear(q.queued)
	q.flushing = false
}

func (q *JobQueue) flush() {
	jobs := q.jobs
	q.jobs = nil
	clear(q.queued)
	q.flushing = false
	q.flushes++

	start := time.Now()
	ran := 0
	for _, eff := range jobs {
		if eff.stopped {
			continue
		}
		eff.Run()
		ran++
	}
	q.eng.observer.Flushed(ran, time.Since(start))
}
