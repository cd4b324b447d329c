// Package picking casts rays from the viewport and finds the scene item
// whose bounding box they hit first.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Ray is a half line with a unit direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 { return r.Origin.Add(r.Direction.Scale(t)) }

// ScreenToRay returns the world space ray through window pixel (x, y),
// measured from the top left corner of a width x height viewport.
func ScreenToRay(x, y float32, width, height int, view, proj math.Mat4) (Ray, bool) {
	wy := float32(height) - y
	near, err := mgl32.UnProject(mgl32.Vec3{x, wy, 0}, mgl32.Mat4(view), mgl32.Mat4(proj), 0, 0, width, height)
	if err != nil {
		return Ray{}, false
	}
	far, err := mgl32.UnProject(mgl32.Vec3{x, wy, 1}, mgl32.Mat4(view), mgl32.Mat4(proj), 0, 0, width, height)
	if err != nil {
		return Ray{}, false
	}
	o := math.Vec3{X: near[0], Y: near[1], Z: near[2]}
	d := math.Vec3{X: far[0], Y: far[1], Z: far[2]}.Sub(o)
	if d.SqrLength() == 0 {
		return Ray{}, false
	}
	return Ray{Origin: o, Direction: d.Normalize()}, true
}

// IntersectBox returns the distance at which r enters box, or leaves it
// when the origin is inside.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin, tmax := float32(-math32.MaxFloat32), float32(math32.MaxFloat32)
	o := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}
	for a := 0; a < 3; a++ {
		if d[a] == 0 {
			if o[a] < lo[a] || o[a] > hi[a] {
				return 0, false
			}
			continue
		}
		t1 := (lo[a] - o[a]) / d[a]
		t2 := (hi[a] - o[a]) / d[a]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Pick returns the item of sc whose world space bounding box r hits
// nearest.
func Pick(sc *scene.Scene, act *shape.Action, r Ray) (item *scene.Item, dist float32, ok bool) {
	sc.Visit(act.State, func(it *scene.Item) {
		box, _, valid := shape.BoundingBox(act, it.Shape)
		if !valid {
			return
		}
		world := box.Transform(state.Get(act.State, state.ModelMatrixKey))
		if t, hit := r.IntersectBox(world); hit && (!ok || t < dist) {
			item, dist, ok = it, t, true
		}
	})
	return item, dist, ok
}
