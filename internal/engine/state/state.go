// Package state implements the traversal state consumed by shapes: a stack of
// element values addressed by typed keys, with generation numbers so caches
// can record what they depend on and detect when it changes.
package state

import (
	"fmt"
	"sync/atomic"
)

var (
	keyCounter atomic.Int32
	genCounter atomic.Uint64
)

// Key identifies one element type. Packages define their own keys with NewKey
// at init time.
type Key[T any] struct {
	id   int
	name string
	def  T
}

// NewKey registers a new element with a default value returned while no
// traversal has set it.
func NewKey[T any](name string, def T) *Key[T] {
	return &Key[T]{id: int(keyCounter.Add(1)), name: name, def: def}
}

// Name returns the element name.
func (k *Key[T]) Name() string { return k.name }

func (k *Key[T]) String() string { return fmt.Sprintf("%s#%d", k.name, k.id) }

type entry struct {
	value any
	gen   uint64
}

// State is the per-traversal element stack. A State is not safe for
// concurrent use; concurrent traversals each own a State and share nodes.
type State struct {
	frames []map[int]entry
	open   []*Dependencies
}

// New returns an empty state with one frame.
func New() *State {
	return &State{frames: []map[int]entry{{}}}
}

// Push opens a new frame. Values set afterwards are dropped by the matching Pop.
func (s *State) Push() {
	s.frames = append(s.frames, map[int]entry{})
}

// Pop discards the top frame. Popping the base frame panics.
func (s *State) Pop() {
	if len(s.frames) == 1 {
		panic("state: pop without push")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth returns the number of pushed frames.
func (s *State) Depth() int {
	return len(s.frames) - 1
}

func (s *State) lookup(id int) (entry, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if e, ok := s.frames[i][id]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// Get returns the current value of k and records the dependency in every
// open cache.
func Get[T any](s *State, k *Key[T]) T {
	e, ok := s.lookup(k.id)
	for _, d := range s.open {
		d.record(k.id, e.gen)
	}
	if !ok {
		return k.def
	}
	return e.value.(T)
}

// Peek returns the current value of k without recording a dependency.
func Peek[T any](s *State, k *Key[T]) T {
	e, ok := s.lookup(k.id)
	if !ok {
		return k.def
	}
	return e.value.(T)
}

// Set stores v for k in the top frame under a fresh generation.
func Set[T any](s *State, k *Key[T], v T) {
	s.frames[len(s.frames)-1][k.id] = entry{value: v, gen: NextID()}
}

// SetNode stores v for k under the generation id of the node that owns the
// value. Setting the same unchanged node again keeps dependent caches valid.
func SetNode[T any](s *State, k *Key[T], v T, nodeID uint64) {
	s.frames[len(s.frames)-1][k.id] = entry{value: v, gen: nodeID}
}

// NextID returns a process-unique id. Nodes take a new one whenever they change.
func NextID() uint64 {
	return genCounter.Add(1)
}

// IsCacheOpen reports whether a cache is currently recording dependencies.
func (s *State) IsCacheOpen() bool {
	return len(s.open) > 0
}

// OpenCache starts recording every Get into d until CloseCache.
func (s *State) OpenCache(d *Dependencies) {
	s.open = append(s.open, d)
}

// CloseCache stops recording into the most recently opened cache. Its
// dependencies are added to the enclosing open cache, if any.
func (s *State) CloseCache() {
	if len(s.open) == 0 {
		return
	}
	d := s.open[len(s.open)-1]
	s.open = s.open[:len(s.open)-1]
	if len(s.open) > 0 {
		s.open[len(s.open)-1].Add(d)
	}
}

// AddDependencies adds d to every open cache. Callers use it when they
// reuse data cached earlier so enclosing caches inherit its dependencies.
func (s *State) AddDependencies(d *Dependencies) {
	for _, o := range s.open {
		o.Add(d)
	}
}

// Dependencies is the set of element generations a cache was built from.
type Dependencies struct {
	gens map[int]uint64
}

// NewDependencies returns an empty dependency set.
func NewDependencies() *Dependencies {
	return &Dependencies{gens: map[int]uint64{}}
}

func (d *Dependencies) record(id int, gen uint64) {
	if _, seen := d.gens[id]; !seen {
		d.gens[id] = gen
	}
}

// Add merges other into d.
func (d *Dependencies) Add(other *Dependencies) {
	for id, gen := range other.gens {
		d.record(id, gen)
	}
}

// Len returns the number of recorded elements.
func (d *Dependencies) Len() int {
	return len(d.gens)
}

// IsValid reports whether every recorded element still has the same
// generation in s.
func (d *Dependencies) IsValid(s *State) bool {
	for id, gen := range d.gens {
		e, _ := s.lookup(id)
		if e.gen != gen {
			return false
		}
	}
	return true
}
