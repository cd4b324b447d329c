package cache

import (
	"sync"
	"time"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// BoxOf boxes coordinates [start, start+count), or every coordinate from
// start when count < 0. Homogeneous points are divided by w. The centroid is
// only meaningful when ok is true; an empty range leaves it zero.
func BoxOf(c *state.Coordinates, start, count int) (box math.Box3, center math.Vec3, ok bool) {
	box = math.EmptyBox3()
	n := c.Count()
	if start < 0 {
		start = 0
	}
	end := n
	if count >= 0 && start+count < n {
		end = start + count
	}
	if start >= end {
		return box, center, false
	}
	var sum math.Vec3
	for i := start; i < end; i++ {
		p := c.Get3(i)
		box.ExtendBy(p)
		sum = sum.Add(p)
	}
	return box, sum.Scale(1 / float32(end-start)), true
}

// BoxIndexed boxes every valid coordinate referenced by indices. Negative
// indices are separators.
func BoxIndexed(c *state.Coordinates, indices []int) (box math.Box3, center math.Vec3, ok bool) {
	box = math.EmptyBox3()
	n := c.Count()
	var sum math.Vec3
	cnt := 0
	for _, i := range indices {
		if i < 0 || i >= n {
			continue
		}
		p := c.Get3(i)
		box.ExtendBy(p)
		sum = sum.Add(p)
		cnt++
	}
	if cnt == 0 {
		return box, center, false
	}
	return box, sum.Scale(1 / float32(cnt)), true
}

// BoxFunc computes a shape's bounding box and centroid.
type BoxFunc func(s *state.State) (box math.Box3, center math.Vec3, ok bool)

// BBoxCache decides on first use whether a shape's bounding box is costly
// enough to keep. Cheap boxes are recomputed on every call.
type BBoxCache struct {
	svc   *Service
	guard Guard

	mu          sync.Mutex
	decided     bool
	shouldCache bool
	cost        time.Duration

	box    math.Box3
	center math.Vec3
	ok     bool
}

// NewBBoxCache returns an undecided cache.
func NewBBoxCache(svc *Service) *BBoxCache {
	return &BBoxCache{svc: svc}
}

// Get returns the box for s.
func (c *BBoxCache) Get(s *state.State, compute BoxFunc) (math.Box3, math.Vec3, bool) {
	c.mu.Lock()
	decided, should := c.decided, c.shouldCache
	c.mu.Unlock()

	if decided && !should {
		return compute(s)
	}

	var elapsed time.Duration
	ran := c.guard.Acquire(s, func() {
		start := time.Now()
		b, ce, o := compute(s)
		elapsed = time.Since(start)
		c.mu.Lock()
		c.box, c.center, c.ok = b, ce, o
		c.mu.Unlock()
	})
	box, center, ok := c.box, c.center, c.ok
	c.guard.Release()
	if c.svc != nil {
		c.svc.record(!ran)
	}

	if !decided && ran {
		c.mu.Lock()
		if !c.decided {
			c.decided = true
			c.cost = elapsed
			c.shouldCache = c.svc == nil || elapsed >= c.svc.Calibration()
		}
		keep := c.shouldCache
		c.mu.Unlock()
		if !keep {
			c.guard.Invalidate()
		}
	}
	return box, center, ok
}

// Cached reports whether the box is currently held and valid for s. Culling
// only trusts the box when this is true.
func (c *BBoxCache) Cached(s *state.State) (math.Box3, bool) {
	if !c.guard.IsValid(s) {
		return math.Box3{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.shouldCache || !c.ok {
		return math.Box3{}, false
	}
	return c.box, true
}

// Decision reports whether the cache decided to keep boxes and how long the
// measured computation took.
func (c *BBoxCache) Decision() (decided, cached bool, cost time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decided, c.shouldCache, c.cost
}

// Invalidate drops the cached box. The keep-or-recompute decision stands.
func (c *BBoxCache) Invalidate() { c.guard.Invalidate() }
