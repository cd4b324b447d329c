// Package camera provides the orbit camera of the viewer. It feeds view,
// projection, viewport and culling planes into the traversal state.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	Distance float32
	Pitch    float32 // radians above the horizon
	Yaw      float32 // radians around +Y

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	FovY      float32 // radians
	NearRatio float32 // near plane as a fraction of Distance

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates an orbit camera looking at the origin.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        10,
		Pitch:           0.4,
		MinDistance:     0.01,
		MaxDistance:     1e5,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            math32.Pi / 4,
		NearRatio:       0.01,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sp, cp := math32.Sincos(c.Pitch)
	sy, cy := math32.Sincos(c.Yaw)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * sy,
		Y: c.Distance * sp,
		Z: c.Distance * cp * cy,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns a perspective projection for a viewport of the
// given aspect ratio. Near and far planes follow the orbit distance.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	near := c.Distance * c.NearRatio
	far := c.Distance * 2 / c.NearRatio
	return math.Perspective(c.FovY, aspect, near, far)
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom moves the camera along its view direction by wheel steps.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers the camera on box and backs off until the bounding
// sphere fills the vertical field of view.
func (c *OrbitCamera) FitToBounds(box math.Box3) {
	if box.IsEmpty() {
		return
	}
	c.Center = box.Center()
	radius := box.Size().Length() / 2
	if radius == 0 {
		radius = 1
	}
	c.Distance = clamp(radius/math32.Sin(c.FovY/2), c.MinDistance, c.MaxDistance)
}

// Apply sets the view, projection, viewport and culling planes of s for a
// viewport of width x height pixels.
func (c *OrbitCamera) Apply(s *state.State, width, height int) {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix(float32(width) / float32(max(height, 1)))
	state.Set(s, state.ViewMatrixKey, view)
	state.Set(s, state.ProjectionMatrixKey, proj)
	state.Set(s, state.ViewportKey, state.Viewport{Width: width, Height: height})
	state.Set(s, state.CullKey, state.Cull{Planes: FrustumPlanes(proj.Mul(view))})
}

// FrustumPlanes extracts the six world space planes of the view volume of
// the combined projection*view matrix m. Normals point inwards.
func FrustumPlanes(m math.Mat4) []math.Plane {
	row := func(i int) [4]float32 { return [4]float32{m[i], m[4+i], m[8+i], m[12+i]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	planes := make([]math.Plane, 0, 6)
	for _, pair := range [][2][4]float32{{r3, r0}, {r3, r1}, {r3, r2}} {
		for _, sign := range [2]float32{1, -1} {
			var p [4]float32
			for k := range p {
				p[k] = pair[0][k] + sign*pair[1][k]
			}
			n := math.Vec3{X: p[0], Y: p[1], Z: p[2]}
			l := n.Length()
			if l == 0 {
				continue
			}
			planes = append(planes, math.Plane{Normal: n.Scale(1 / l), Distance: -p[3] / l})
		}
	}
	return planes
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
