package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/reactive"
)

// demo is a scripted scenario that prints what the engine does.
type demo struct {
	name    string
	summary string
	run     func(w io.Writer, e *reactive.Engine) error
}

var demos = []demo{
	{"branch", "effects drop dependencies of branches they no longer take", demoBranch},
	{"nested", "re-running an outer effect replaces its inner effects", demoNested},
	{"self", "an effect that writes what it reads does not loop", demoSelf},
	{"scheduler", "a job queue coalesces re-runs within one tick", demoScheduler},
	{"computed", "computed values are lazy and cached", demoComputed},
	{"watch", "watchers with post and sync flush, and deep watching", demoWatch},
	{"invalidate", "invalidation discards results of superseded work", demoInvalidate},
	{"array", "length, index and search semantics of arrays", demoArray},
	{"readonly", "readonly views refuse writes", demoReadonly},
}

func findDemo(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

func demoCmd(a *app) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "demo [name...]",
		Short: "Run engine demonstrations",
		Long: `Run one or more scripted scenarios against a fresh engine and print
what every effect, watcher and computed does.

Examples:
  reactor demo --list
  reactor demo branch
  reactor demo all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				listDemos(a.stdout)
				return nil
			}
			if len(args) == 1 && args[0] == "all" {
				args = args[:0]
				for _, d := range demos {
					args = append(args, d.name)
				}
			}

			for i, name := range args {
				d, ok := findDemo(name)
				if !ok {
					return errors.New(errors.CodeUnknownDemo).
						WithDetail(fmt.Sprintf("No demo named %q", name)).
						WithSuggestion("Run 'reactor demo --list' to see the available demos")
				}
				if i > 0 {
					a.printf("\n")
				}
				if err := runDemo(a.stdout, d, a.engineOptions()...); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List available demos")

	return cmd
}

func listDemos(w io.Writer) {
	width := 0
	for _, d := range demos {
		width = max(width, len(d.name))
	}
	for _, d := range demos {
		fmt.Fprintf(w, "  %-*s  %s\n", width, d.name, d.summary)
	}
}

// runDemo runs d on a new engine.
func runDemo(w io.Writer, d demo, opts ...reactive.Option) error {
	fmt.Fprintf(w, "== %s ==\n", d.name)
	return d.run(w, reactive.New(opts...))
}

// step announces an action taken by the script.
func step(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "> %s\n", fmt.Sprintf(format, args...))
}

// say prints something the engine did in response.
func say(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

func object(fields map[string]any) *reactive.Object {
	return reactive.From(fields).(*reactive.Object)
}

func demoBranch(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"ok": true, "text": "hello"}))

	eff := e.Effect(func() any {
		if state.Get("ok") == true {
			say(w, "effect: %v", state.Get("text"))
		} else {
			say(w, "effect: not ok")
		}
		return nil
	})

	step(w, `text = "world"`)
	state.Set("text", "world")
	step(w, "ok = false")
	state.Set("ok", false)
	step(w, `text = "ignored"`)
	state.Set("text", "ignored")

	fmt.Fprintf(w, "runs: %d\n", eff.Runs())
	return nil
}

func demoNested(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"foo": 1, "bar": 1}))

	e.Effect(func() any {
		say(w, "outer: foo=%v", state.Get("foo"))
		e.Effect(func() any {
			say(w, "inner: bar=%v", state.Get("bar"))
			return nil
		}, reactive.WithName("inner"))
		return nil
	}, reactive.WithName("outer"))

	step(w, "bar = 2")
	state.Set("bar", 2)
	step(w, "foo = 2")
	state.Set("foo", 2)
	step(w, "bar = 3")
	state.Set("bar", 3)
	return nil
}

func demoSelf(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"n": 0}))

	eff := e.Effect(func() any {
		state.Set("n", state.Get("n").(int)+1)
		return nil
	})
	say(w, "n=%v after the first run", state.Get("n"))

	step(w, "n = 10")
	state.Set("n", 10)
	say(w, "n=%v", state.Get("n"))

	fmt.Fprintf(w, "runs: %d\n", eff.Runs())
	return nil
}

func demoScheduler(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"count": 0}))
	q := reactive.NewJobQueue(e)

	e.Effect(func() any {
		say(w, "effect: count=%v", state.Get("count"))
		return nil
	}, reactive.WithScheduler(q.Schedule))

	step(w, "tick: count = 1, 2, 3")
	e.Tick(func() {
		for i := 1; i <= 3; i++ {
			state.Set("count", i)
		}
		say(w, "queued jobs: %d", q.Len())
	})

	fmt.Fprintf(w, "flushes: %d\n", q.Flushes())
	return nil
}

func demoComputed(w io.Writer, e *reactive.Engine) error {
	cart := e.Reactive(object(map[string]any{"price": 3, "qty": 2}))

	calls := 0
	total := reactive.NewComputed(e, func() int {
		calls++
		return cart.Get("price").(int) * cart.Get("qty").(int)
	})
	say(w, "created, dirty=%v", total.Dirty())

	e.Effect(func() any {
		say(w, "effect: total=%d", total.Value())
		return nil
	})

	value := total.Value()
	say(w, "read again: total=%d calls=%d", value, calls)

	step(w, "qty = 5")
	cart.Set("qty", 5)

	fmt.Fprintf(w, "calls: %d\n", calls)
	return nil
}

func demoWatch(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"count": 0}))

	_, err := e.Watch(func() any { return state.Get("count") },
		func(newValue, oldValue any, _ func(func())) {
			say(w, "post: %v -> %v", oldValue, newValue)
		}, reactive.WithFlush(reactive.FlushPost))
	if err != nil {
		return err
	}

	step(w, "tick: count = 1, then 2")
	e.Tick(func() {
		state.Set("count", 1)
		state.Set("count", 2)
	})

	step(w, "add a sync watcher with immediate")
	_, err = e.Watch(func() any { return state.Get("count") },
		func(newValue, oldValue any, _ func(func())) {
			say(w, "sync: %v -> %v", oldValue, newValue)
		}, reactive.Immediate())
	if err != nil {
		return err
	}

	step(w, "count = 3")
	state.Set("count", 3)
	step(w, "flush")
	e.FlushMicrotasks()

	profile := e.Reactive(object(map[string]any{
		"user": map[string]any{"name": "ada"},
	}))
	_, err = e.Watch(profile, func(_, _ any, _ func(func())) {
		say(w, "deep: user.name=%v", profile.Get("user").(*reactive.View).Get("name"))
	})
	if err != nil {
		return err
	}

	step(w, `user.name = "grace"`)
	profile.Get("user").(*reactive.View).Set("name", "grace")
	return nil
}

func demoInvalidate(w io.Writer, e *reactive.Engine) error {
	state := e.Reactive(object(map[string]any{"id": 1}))

	watcher, err := e.Watch(func() any { return state.Get("id") },
		func(newValue, _ any, onInvalidate func(func())) {
			say(w, "fetch id=%v", newValue)
			expired := false
			onInvalidate(func() {
				expired = true
				say(w, "discard id=%v", newValue)
			})
			// The response arrives on a later turn.
			e.QueueMicrotask(func() {
				if expired {
					say(w, "stale response for id=%v ignored", newValue)
					return
				}
				say(w, "response for id=%v applied", newValue)
			})
		}, reactive.Immediate())
	if err != nil {
		return err
	}

	step(w, "id = 2 before the response arrives")
	state.Set("id", 2)
	step(w, "responses arrive")
	e.FlushMicrotasks()
	step(w, "stop")
	watcher.Stop()
	return nil
}

func demoArray(w io.Writer, e *reactive.Engine) error {
	list := e.Reactive(reactive.NewArray("a", "b", "c"))

	e.Effect(func() any {
		say(w, "length=%d", list.Len())
		return nil
	})
	e.Effect(func() any {
		say(w, "[2]=%v", list.At(2))
		return nil
	})

	step(w, `push "d"`)
	list.Push("d")
	step(w, "length = 1")
	list.SetLen(1)

	items := e.Reactive(reactive.NewArray(reactive.NewObject()))
	raw := items.Raw().(*reactive.Array).At(0)
	viaRaw, viaView := items.Includes(raw), items.Includes(items.At(0))
	say(w, "includes(raw)=%v includes(view)=%v", viaRaw, viaView)

	nums := e.Reactive(reactive.NewArray(math.NaN(), 0.0))
	hasNaN, idxNaN := nums.Includes(math.NaN()), nums.IndexOf(math.NaN())
	hasNegZero := nums.Includes(math.Copysign(0, -1))
	say(w, "includes(NaN)=%v indexOf(NaN)=%d includes(-0)=%v", hasNaN, idxNaN, hasNegZero)
	return nil
}

func demoReadonly(w io.Writer, e *reactive.Engine) error {
	settings := e.Readonly(object(map[string]any{"theme": "dark"}))

	ok := settings.Set("theme", "light")
	say(w, "set returned %v, theme=%v", ok, settings.Get("theme"))

	rerr := errors.FromError(settings.TryDelete("theme"), "")
	say(w, "delete refused: %s %s", rerr.Code, strings.ToLower(rerr.Message))
	return nil
}
