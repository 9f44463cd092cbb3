package reactive

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// DefaultLoopQueue is the number of tasks a Loop buffers.
const DefaultLoopQueue = 256

type loopTask struct {
	fn  func(*Engine)
	res chan error // nil for Post
}

// Loop owns an Engine and runs tasks against it one at a time on a single
// goroutine. It is the way to share an engine between goroutines: HTTP
// handlers, file watchers and timers post work to the loop instead of
// touching the engine directly.
//
// Microtasks queued by a task are drained before the next task starts.
type Loop struct {
	eng *Engine

	tasks   chan loopTask
	quit    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
	once    sync.Once
}

// NewLoop creates an engine with opts and starts its loop goroutine.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		eng:     New(opts...),
		tasks:   make(chan loopTask, DefaultLoopQueue),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// Engine returns the loop's engine. Only use it from inside a task.
func (l *Loop) Engine() *Engine {
	return l.eng
}

// Do runs fn on the loop and waits for it. It returns the task's panic as
// an R009 error, R008 when the loop is closed, or ctx's error when ctx ends
// first. A task abandoned through ctx may still run.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	if l.closed.Load() {
		return rerrors.New(rerrors.CodeLoopClosed)
	}

	task := loopTask{fn: fn, res: make(chan error, 1)}
	select {
	case l.tasks <- task:
	case <-l.quit:
		return rerrors.New(rerrors.CodeLoopClosed)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-task.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case err := <-task.res:
			return err
		default:
			return rerrors.New(rerrors.CodeLoopClosed)
		}
	}
}

// Post queues fn without waiting. It returns false if the loop is closed
// or its queue is full.
func (l *Loop) Post(fn func(*Engine)) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.tasks <- loopTask{fn: fn}:
		return true
	case <-l.quit:
		return false
	default:
		l.eng.log.Warn("loop queue full, discarding task")
		return false
	}
}

// Close stops accepting tasks, runs the ones already queued and waits for
// the loop goroutine to exit.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.quit)
	})
	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case t := <-l.tasks:
			l.exec(t)
		case <-l.quit:
			for {
				select {
				case t := <-l.tasks:
					l.exec(t)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) exec(t loopTask) {
	err := l.safeExecute(t.fn)
	if t.res != nil {
		t.res <- err
	}
}

// safeExecute runs one task and the microtasks it queued with panic recovery.
func (l *Loop) safeExecute(fn func(*Engine)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := rerrors.New(rerrors.CodeTaskPanicked).WithDetailf("%v", r)
			if cause, ok := r.(error); ok {
				perr = perr.Wrap(cause)
			}
			l.eng.log.Error("task panic", "err", perr, "stack", string(debug.Stack()))
			l.eng.budget.resetTick()
			err = perr
		}
	}()
	l.eng.Tick(func() { fn(l.eng) })
	return nil
}
