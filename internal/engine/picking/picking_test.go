package picking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/camera"
	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func TestIntersectBox(t *testing.T) {
	box := math.NewBox3(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	tests := []struct {
		name string
		ray  Ray
		want float32
		hit  bool
	}{
		{"front", Ray{math.Vec3{Z: 5}, math.Vec3{Z: -1}}, 4, true},
		{"inside", Ray{math.Vec3{}, math.Vec3{X: 1}}, 1, true},
		{"behind", Ray{math.Vec3{Z: 5}, math.Vec3{Z: 1}}, 0, false},
		{"parallel outside", Ray{math.Vec3{Y: 3}, math.Vec3{X: 1}}, 0, false},
		{"miss", Ray{math.Vec3{X: 3, Z: 5}, math.Vec3{Z: -1}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectBox(box)
			assert.Equal(t, tt.hit, hit)
			assert.InDelta(t, tt.want, got, 1e-5)
		})
	}
	_, hit := Ray{Direction: math.Vec3{X: 1}}.IntersectBox(math.EmptyBox3())
	assert.False(t, hit)
}

func TestScreenToRayCenter(t *testing.T) {
	cam := camera.NewOrbitCamera()
	cam.Pitch, cam.Yaw, cam.Distance = 0, 0, 10
	r, ok := ScreenToRay(50, 50, 100, 100, cam.ViewMatrix(), cam.ProjectionMatrix(1))
	require.True(t, ok)
	assert.InDelta(t, -1, r.Direction.Z, 1e-3)
	assert.InDelta(t, 0, r.Origin.X, 1e-3)
	assert.InDelta(t, 0, r.At(5).Y, 1e-3)
}

func TestPick(t *testing.T) {
	cfg := config.Default().Render
	cfg.BBoxCalibration = time.Nanosecond
	svc := cache.NewService(cfg)

	line := func() *shape.LineSet {
		l := shape.NewLineSet(svc)
		l.NumVertices = []int{2}
		return l
	}
	coords := scene.Set(state.CoordinatesKey, &state.Coordinates{Points3: []math.Vec3{{X: -1, Y: -1}, {X: 1, Y: 1}}})
	near := scene.NewItem("near", line(), coords)
	near.Model = math.Translate(0, 0, 2)
	far := scene.NewItem("far", line(), coords)
	aside := scene.NewItem("aside", line(), coords)
	aside.Model = math.Translate(10, 0, 0)
	sc := scene.New()
	sc.Add(far, aside, near)

	act := shape.NewAction(shape.BoundingBoxAction, state.New(), svc)
	it, dist, ok := Pick(sc, act, Ray{math.Vec3{Z: 10}, math.Vec3{Z: -1}})
	require.True(t, ok)
	assert.Equal(t, "near", it.Name)
	assert.InDelta(t, 8, dist, 1e-5)

	_, _, ok = Pick(sc, act, Ray{math.Vec3{X: 5, Z: 10}, math.Vec3{Z: -1}})
	assert.False(t, ok)
}
