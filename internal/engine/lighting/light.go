// Package lighting describes the light sources active during a traversal.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Kind is the light source type.
type Kind int

const (
	Directional Kind = iota
	Point
	Spot
)

func (k Kind) String() string {
	switch k {
	case Directional:
		return "directional"
	case Point:
		return "point"
	case Spot:
		return "spot"
	}
	return "unknown"
}

// Light is one light source in world space.
type Light struct {
	Kind      Kind
	Direction math.Vec3 // direction the light travels (directional, spot)
	Location  math.Vec3 // position (point, spot)
	Color     math.Vec3
	Intensity float32
	// Transform maps the light's own coordinates to world space.
	Transform math.Mat4
}

// NewDirectional returns a white directional light travelling along dir.
func NewDirectional(dir math.Vec3) Light {
	return Light{Kind: Directional, Direction: dir, Color: math.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 1, Transform: math.Identity()}
}

// NewPoint returns a white point light at loc.
func NewPoint(loc math.Vec3) Light {
	return Light{Kind: Point, Location: loc, Color: math.Vec3{X: 1, Y: 1, Z: 1}, Intensity: 1, Transform: math.Identity()}
}

// SunDirection converts longitude/latitude angles in degrees to the direction
// light from the sun travels. Latitude is the elevation above the horizon.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lon := longitude * math32.Pi / 180
	lat := latitude * math32.Pi / 180
	towardSun := math.Vec3{
		X: math32.Cos(lat) * math32.Sin(lon),
		Y: math32.Sin(lat),
		Z: math32.Cos(lat) * math32.Cos(lon),
	}
	return towardSun.Neg()
}

// Source is a light expressed in some object's coordinate system.
type Source struct {
	Vector  math.Vec3 // position for positional lights, unit vector towards the light otherwise
	IsPoint bool
}

// InObjectSpace expresses l in the coordinate system reached by toObject.
// Point and spot lights keep their location. Directional lights become the
// normalized direction towards the light.
func (l Light) InObjectSpace(toObject math.Mat4) Source {
	m := toObject.Mul(l.Transform)
	switch l.Kind {
	case Point, Spot:
		return Source{Vector: m.TransformPoint(l.Location), IsPoint: true}
	case Directional:
		return Source{Vector: m.TransformDirection(l.Direction.Neg()).Normalize()}
	}
	return Source{Vector: math.Vec3{Z: 1}}
}

// VectorAt returns the unit vector from v towards the light.
func (s Source) VectorAt(v math.Vec3) math.Vec3 {
	if s.IsPoint {
		return s.Vector.Sub(v).Normalize()
	}
	return s.Vector
}
