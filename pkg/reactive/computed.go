package reactive

// Computed is a lazily evaluated, cached derivation.
//
// The getter runs on the first Value call and again only after one of the
// values it read has changed. Effects that read Value are notified when the
// computed goes stale, without recomputing it eagerly.
type Computed[T any] struct {
	eng    *Engine
	src    *Object
	effect *Effect
	value  T
	dirty  bool
}

// NewComputed creates a computed value over getter.
//
//	total := reactive.NewComputed(eng, func() int {
//	    return cart.Get("price").(int) * cart.Get("qty").(int)
//	})
//	total.Value()
func NewComputed[T any](e *Engine, getter func() T) *Computed[T] {
	c := &Computed[T]{
		eng:   e,
		src:   NewObject(),
		dirty: true,
	}
	c.effect = e.Effect(func() any {
		return getter()
	}, Lazy(), WithName("computed"), WithScheduler(func(*Effect) {
		if c.dirty {
			return
		}
		c.dirty = true
		e.trigger(c.src, valueKey, OpSet, 0)
	}))
	return c
}

// Value returns the cached value, recomputing it when stale. The read is
// tracked even when the cache is fresh.
func (c *Computed[T]) Value() T {
	c.refresh()
	c.eng.track(c.src, valueKey)
	return c.value
}

// Peek returns the value without tracking the read.
func (c *Computed[T]) Peek() T {
	c.refresh()
	return c.value
}

// Dirty reports whether the next read will recompute.
func (c *Computed[T]) Dirty() bool {
	return c.dirty
}

// Effect returns the effect that evaluates the getter.
func (c *Computed[T]) Effect() *Effect {
	return c.effect
}

// Stop detaches the computed from its dependencies. Later reads evaluate
// the getter untracked every time.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
	c.dirty = true
}

func (c *Computed[T]) refresh() {
	if !c.dirty {
		return
	}
	v, _ := c.effect.Run().(T)
	c.value = v
	if !c.effect.stopped {
		c.dirty = false
	}
}

func (c *Computed[T]) anyValue() any {
	return c.Value()
}

// valueSource is implemented by every *Computed[T].
type valueSource interface {
	anyValue() any
}
