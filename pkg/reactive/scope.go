package reactive

// Scope owns effects created while it is current and disposes them
// together. Scopes form a hierarchy: a scope created while another is
// current becomes its child and is stopped with it.
type Scope struct {
	eng *Engine

	parent   *Scope
	children []*Scope

	effects  []*Effect
	cleanups []func()

	stopped bool
}

// NewScope creates a scope, as a child of the current scope if there is one.
func (e *Engine) NewScope() *Scope {
	s := &Scope{eng: e, parent: e.tracking.scope}
	if s.parent != nil {
		s.parent.children = append(s.parent.children, s)
	}
	return s
}

// CurrentScope returns the scope new effects attach to, or nil.
func (e *Engine) CurrentScope() *Scope {
	return e.tracking.scope
}

// Run runs fn with s as the current scope. Effects, computeds and watchers
// created by fn outside any running effect are owned by s.
func (s *Scope) Run(fn func()) {
	prev := s.eng.tracking.scope
	s.eng.tracking.scope = s
	defer func() { s.eng.tracking.scope = prev }()
	fn()
}

// OnCleanup registers fn to run when the scope stops.
func (s *Scope) OnCleanup(fn func()) {
	if s.stopped {
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Effects returns the number of live effects owned directly by the scope.
func (s *Scope) Effects() int {
	n := 0
	for _, eff := range s.effects {
		if !eff.stopped {
			n++
		}
	}
	return n
}

// Stopped reports whether the scope has been stopped.
func (s *Scope) Stopped() bool {
	return s.stopped
}

func (s *Scope) adopt(eff *Effect) {
	if s.stopped {
		eff.stopped = true
		return
	}
	s.effects = append(s.effects, eff)
}

// Stop stops child scopes, owned effects, then runs cleanups in reverse
// registration order.
func (s *Scope) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true

	children := s.children
	s.children = nil
	for _, child := range children {
		child.Stop()
	}

	for _, eff := range s.effects {
		eff.Stop()
	}
	s.effects = nil

	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil

	if s.parent != nil {
		s.parent.removeChild(s)
	}
}

func (s *Scope) removeChild(child *Scope) {
	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}
