package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func TestPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Pitch, c.Yaw, c.Distance = 0, 0, 5
	c.Center = math.Vec3{X: 1}
	p := c.Position()
	assert.InDelta(t, 1, p.X, 1e-5)
	assert.InDelta(t, 0, p.Y, 1e-5)
	assert.InDelta(t, 5, p.Z, 1e-5)
}

func TestDragAndZoomClamp(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	assert.Equal(t, c.MaxPitch, c.Pitch)
	c.HandleDrag(0, -1e6)
	assert.Equal(t, c.MinPitch, c.Pitch)

	c.Distance = 10
	c.HandleZoom(1)
	assert.InDelta(t, 9, c.Distance, 1e-5)
	c.HandleZoom(100)
	assert.Equal(t, c.MinDistance, c.Distance)
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	box := math.NewBox3(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 3, Y: 1, Z: 1})
	c.FitToBounds(box)
	assert.Equal(t, math.Vec3{X: 1}, c.Center)
	assert.Greater(t, c.Distance, box.Size().Length()/2)

	before := *c
	c.FitToBounds(math.EmptyBox3())
	assert.Equal(t, before.Center, c.Center)
}

func TestFrustumPlanes(t *testing.T) {
	c := NewOrbitCamera()
	c.Pitch, c.Yaw, c.Distance = 0, 0, 10
	planes := FrustumPlanes(c.ProjectionMatrix(1).Mul(c.ViewMatrix()))
	assert.Len(t, planes, 6)

	inside := func(p math.Vec3) bool {
		for _, pl := range planes {
			if pl.SignedDistance(p) < 0 {
				return false
			}
		}
		return true
	}
	assert.True(t, inside(math.Vec3{}))
	assert.False(t, inside(math.Vec3{Z: 20}), "behind the camera")
	assert.False(t, inside(math.Vec3{X: 100}), "far to the side")
}

func TestApply(t *testing.T) {
	s := state.New()
	c := NewOrbitCamera()
	c.Apply(s, 800, 600)
	assert.Equal(t, state.Viewport{Width: 800, Height: 600}, state.Get(s, state.ViewportKey))
	assert.Equal(t, c.ViewMatrix(), state.Get(s, state.ViewMatrixKey))
	assert.Len(t, state.Get(s, state.CullKey).Planes, 6)

	outside, _ := state.Get(s, state.CullKey).CullTest(
		math.NewBox3(math.Vec3{X: 500}, math.Vec3{X: 501, Y: 1, Z: 1}), math.Identity())
	assert.True(t, outside)
}
