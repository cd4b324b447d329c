package math

// Plane is the set of points p where Normal.Dot(p) == Distance.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// NewPlane returns the plane with the given normal through point p.
func NewPlane(normal, p Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Distance: n.Dot(p)}
}

// PlaneFromPoints returns the plane through three points, oriented
// counterclockwise.
func PlaneFromPoints(p0, p1, p2 Vec3) Plane {
	n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
	return Plane{Normal: n, Distance: n.Dot(p0)}
}

// SignedDistance returns the signed distance of p from the plane.
func (pl Plane) SignedDistance(p Vec3) float32 {
	return pl.Normal.Dot(p) - pl.Distance
}

// IsInHalfSpace reports whether p lies on the side the normal points to.
func (pl Plane) IsInHalfSpace(p Vec3) bool {
	return pl.SignedDistance(p) >= 0
}

// Transform returns the plane transformed by m.
func (pl Plane) Transform(m Mat4) Plane {
	p := m.TransformPoint(pl.Normal.Scale(pl.Distance))
	n := m.Inverse().Transpose().TransformDirection(pl.Normal).Normalize()
	return Plane{Normal: n, Distance: n.Dot(p)}
}

// BoxOutside reports whether the whole box lies in the negative half-space.
func (pl Plane) BoxOutside(b Box3) bool {
	// Test the corner furthest along the normal.
	p := b.Min
	if pl.Normal.X >= 0 {
		p.X = b.Max.X
	}
	if pl.Normal.Y >= 0 {
		p.Y = b.Max.Y
	}
	if pl.Normal.Z >= 0 {
		p.Z = b.Max.Z
	}
	return pl.SignedDistance(p) < 0
}
