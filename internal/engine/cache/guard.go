package cache

import (
	"sync"

	"github.com/Faultbox/shapekit/internal/engine/state"
)

// Phase is the lifecycle of guarded cache data.
type Phase int

const (
	Invalid Phase = iota
	Computing
	Valid
)

func (p Phase) String() string {
	switch p {
	case Computing:
		return "computing"
	case Valid:
		return "valid"
	}
	return "invalid"
}

// Guard protects cache data shared by concurrent traversals. Any number of
// readers may hold valid data; recomputation waits for them to leave and
// runs alone. Validity is always re-checked after waking, so a writer that
// lost a race never recomputes data another writer just produced.
type Guard struct {
	mu      sync.Mutex
	cond    *sync.Cond
	phase   Phase
	readers int
	deps    *state.Dependencies
	stale   bool
}

func (g *Guard) init() {
	if g.cond == nil {
		g.cond = sync.NewCond(&g.mu)
	}
}

// Acquire returns once the data is valid for s, running compute when it is
// not. compute runs with a dependency recorder open on s, so every element
// it reads becomes part of the validity check. It reports whether compute
// ran. Each Acquire must be paired with Release.
func (g *Guard) Acquire(s *state.State, compute func()) bool {
	g.mu.Lock()
	g.init()
	ran := false
	for {
		switch {
		case g.phase == Computing:
			g.cond.Wait()
		case g.phase == Valid && g.deps.IsValid(s):
			g.readers++
			deps := g.deps
			g.mu.Unlock()
			if s.IsCacheOpen() {
				s.AddDependencies(deps)
			}
			return ran
		case g.readers > 0:
			g.cond.Wait()
		default:
			g.phase = Computing
			g.stale = false
			g.mu.Unlock()

			deps := g.run(s, compute)
			ran = true

			g.mu.Lock()
			g.deps = deps
			g.phase = Valid
			if g.stale {
				g.phase = Invalid
			}
			g.cond.Broadcast()
		}
	}
}

// run calls compute with a dependency recorder open on s. A panicking
// compute leaves the guard Invalid and wakes the waiters before the panic
// continues, so the next Acquire retries.
func (g *Guard) run(s *state.State, compute func()) *state.Dependencies {
	deps := state.NewDependencies()
	s.OpenCache(deps)
	done := false
	defer func() {
		s.CloseCache()
		if done {
			return
		}
		g.mu.Lock()
		g.phase = Invalid
		g.stale = false
		g.cond.Broadcast()
		g.mu.Unlock()
	}()
	compute()
	done = true
	return deps
}

// Release ends a read started by Acquire.
func (g *Guard) Release() {
	g.mu.Lock()
	g.readers--
	if g.readers == 0 {
		g.init()
		g.cond.Broadcast()
	}
	g.mu.Unlock()
}

// Invalidate marks the data stale. Readers keep their current view until
// they release it.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	switch g.phase {
	case Computing:
		g.stale = true
	case Valid:
		g.phase = Invalid
	}
	g.mu.Unlock()
}

// Phase returns the current phase.
func (g *Guard) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// IsValid reports whether the data is valid for s without acquiring it.
func (g *Guard) IsValid(s *state.State) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase == Valid && g.deps.IsValid(s)
}
