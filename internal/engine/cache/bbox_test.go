package cache

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func TestBoxOfRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	const k = 257
	pts := make([]math.Vec3, k)
	var sum math.Vec3
	for i := range pts {
		pts[i] = math.Vec3{X: r.Float32()*20 - 10, Y: r.Float32() * 3, Z: -r.Float32()}
		sum = sum.Add(pts[i])
	}
	box, center, ok := BoxOf(&state.Coordinates{Points3: pts}, 0, k)
	require.True(t, ok)

	for _, p := range pts {
		assert.True(t, box.Contains(p))
	}
	// Every face of the box touches a point.
	var minHit, maxHit [3]bool
	for _, p := range pts {
		minHit[0] = minHit[0] || p.X == box.Min.X
		minHit[1] = minHit[1] || p.Y == box.Min.Y
		minHit[2] = minHit[2] || p.Z == box.Min.Z
		maxHit[0] = maxHit[0] || p.X == box.Max.X
		maxHit[1] = maxHit[1] || p.Y == box.Max.Y
		maxHit[2] = maxHit[2] || p.Z == box.Max.Z
	}
	assert.Equal(t, [3]bool{true, true, true}, minHit)
	assert.Equal(t, [3]bool{true, true, true}, maxHit)

	mean := sum.Scale(1.0 / k)
	assert.True(t, center.Equals(mean, 1e-4), "center %v mean %v", center, mean)
}

func TestBoxOfRanges(t *testing.T) {
	c := &state.Coordinates{Points3: []math.Vec3{{X: -5}, {X: 1}, {X: 2}, {X: 9}}}

	box, center, ok := BoxOf(c, 1, 2)
	require.True(t, ok)
	assert.Equal(t, math.Vec3{X: 1}, box.Min)
	assert.Equal(t, math.Vec3{X: 2}, box.Max)
	assert.Equal(t, math.Vec3{X: 1.5}, center)

	box, _, ok = BoxOf(c, 2, -1)
	require.True(t, ok)
	assert.Equal(t, float32(9), box.Max.X)

	_, _, ok = BoxOf(c, 4, 3)
	assert.False(t, ok)

	box, _, ok = BoxIndexed(c, []int{3, -1, 0, 42})
	require.True(t, ok)
	assert.Equal(t, float32(-5), box.Min.X)
	assert.Equal(t, float32(9), box.Max.X)
}

func TestBoxOfHomogeneous(t *testing.T) {
	c := &state.Coordinates{Points4: []math.Vec4{{2, 4, 6, 2}, {1, 1, 1, 1}}}
	box, _, ok := BoxOf(c, 0, -1)
	require.True(t, ok)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, box.Max)
}

func TestBBoxCacheDecision(t *testing.T) {
	coords := &state.Coordinates{Points3: []math.Vec3{{X: 1}, {Y: 2}}}
	compute := func(s *state.State) (math.Box3, math.Vec3, bool) {
		return BoxOf(state.Get(s, state.CoordinatesKey), 0, -1)
	}

	t.Run("expensive boxes are kept", func(t *testing.T) {
		svc := NewService(config.RenderConfig{BBoxCalibration: time.Nanosecond})
		c := NewBBoxCache(svc)
		s := coordState(coords, state.NextID())
		slow := func(s *state.State) (math.Box3, math.Vec3, bool) {
			time.Sleep(time.Millisecond)
			return compute(s)
		}
		box, _, ok := c.Get(s, slow)
		require.True(t, ok)
		decided, cached, cost := c.Decision()
		assert.True(t, decided)
		assert.True(t, cached)
		assert.GreaterOrEqual(t, cost, time.Millisecond)

		got, ok := c.Cached(s)
		require.True(t, ok)
		assert.Equal(t, box, got)

		c.Invalidate()
		_, ok = c.Cached(s)
		assert.False(t, ok)
	})

	t.Run("cheap boxes are recomputed", func(t *testing.T) {
		svc := NewService(config.RenderConfig{BBoxCalibration: time.Hour})
		c := NewBBoxCache(svc)
		s := coordState(coords, state.NextID())
		calls := 0
		counting := func(s *state.State) (math.Box3, math.Vec3, bool) {
			calls++
			return compute(s)
		}
		c.Get(s, counting)
		c.Get(s, counting)
		assert.Equal(t, 2, calls)
		decided, cached, _ := c.Decision()
		assert.True(t, decided)
		assert.False(t, cached)
		_, ok := c.Cached(s)
		assert.False(t, ok)
	})
}

func TestServiceMeasuresCalibration(t *testing.T) {
	svc := NewService(config.RenderConfig{})
	d := svc.Calibration()
	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, d, svc.Calibration())
}
