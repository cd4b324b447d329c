package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/pkg/math"
)

func lerp(a, b Vertex[float32], _ math.Vec3, t float32) float32 {
	return a.Data + (b.Data-a.Data)*t
}

func TestClipTriangle(t *testing.T) {
	c := New(lerp)
	c.Add(math.Vec3{}, 0)
	c.Add(math.Vec3{X: 2}, 2)
	c.Add(math.Vec3{Y: 2}, 4)

	// Keep x <= 1.
	c.Clip(math.NewPlane(math.Vec3{X: -1}, math.Vec3{X: 1}))
	require.Equal(t, 4, c.Len())
	for _, v := range c.Vertices() {
		assert.LessOrEqual(t, v.Point.X, float32(1)+1e-6)
	}
	// The cut on the bottom edge sits halfway, so its data is 1.
	found := false
	for _, v := range c.Vertices() {
		if v.Point.Equals(math.Vec3{X: 1}, 1e-6) {
			found = true
			assert.InDelta(t, 1, v.Data, 1e-6)
		}
	}
	assert.True(t, found)
}

func TestClipOutsideEmpties(t *testing.T) {
	c := New[int](nil)
	c.Add(math.Vec3{}, 1)
	c.Add(math.Vec3{X: 1}, 2)
	c.Add(math.Vec3{Y: 1}, 3)
	c.Clip(math.NewPlane(math.Vec3{X: 1}, math.Vec3{X: 5}))
	assert.Zero(t, c.Len())

	c.Clip(math.NewPlane(math.Vec3{X: 1}, math.Vec3{}))
	assert.Zero(t, c.Len())
}

func TestClipInsideUnchanged(t *testing.T) {
	c := New[int](nil)
	pts := []math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	for i, p := range pts {
		c.Add(p, i)
	}
	c.Clip(math.NewPlane(math.Vec3{X: 1}, math.Vec3{X: -1}))
	require.Equal(t, 4, c.Len())
	for i := range pts {
		assert.Equal(t, i, c.At(i).Data)
	}

	c.Reset()
	assert.Zero(t, c.Len())
}
