package nurbs

import (
	"iter"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Surface is a rational B-spline surface. Points holds NumV rows of NumU
// homogeneous control points.
type Surface struct {
	NumU, NumV     int
	UKnots, VKnots []float32
	Points         []math.Vec4
	// Tex optionally maps the surface parameters to texture coordinates.
	// When nil the normalized parameters are used.
	Tex *TexSurface
}

// TexSurface is a non-rational B-spline surface of 2D texture coordinates.
type TexSurface struct {
	NumS, NumT     int
	SKnots, TKnots []float32
	Points         []math.Vec2
}

// SurfacePoint is one tessellated surface vertex.
type SurfacePoint struct {
	Point    math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec4
}

// UOrder returns the order in the u direction.
func (s *Surface) UOrder() int { return len(s.UKnots) - s.NumU }

// VOrder returns the order in the v direction.
func (s *Surface) VOrder() int { return len(s.VKnots) - s.NumV }

// Validate checks both knot vectors and the control point count.
func (s *Surface) Validate() error {
	if len(s.Points) < s.NumU*s.NumV {
		return ErrInvalidKnots
	}
	if err := validate(s.UOrder(), s.NumU, s.UKnots); err != nil {
		return err
	}
	if err := validate(s.VOrder(), s.NumV, s.VKnots); err != nil {
		return err
	}
	if s.Tex != nil {
		if len(s.Tex.Points) < s.Tex.NumS*s.Tex.NumT {
			return ErrInvalidKnots
		}
		if err := validate(len(s.Tex.SKnots)-s.Tex.NumS, s.Tex.NumS, s.Tex.SKnots); err != nil {
			return err
		}
		if err := validate(len(s.Tex.TKnots)-s.Tex.NumT, s.Tex.NumT, s.Tex.TKnots); err != nil {
			return err
		}
	}
	return nil
}

// Eval returns the point, unit normal and texture coordinate at (u, v).
func (s *Surface) Eval(u, v float32) SurfacePoint {
	pu, pv := s.UOrder()-1, s.VOrder()-1
	su := findSpan(s.NumU-1, pu, u, s.UKnots)
	sv := findSpan(s.NumV-1, pv, v, s.VKnots)
	nu := basisDerivs(su, pu, u, s.UKnots)
	nv := basisDerivs(sv, pv, v, s.VKnots)

	var a, au, av math.Vec4
	for j := 0; j <= pv; j++ {
		row := (sv - pv + j) * s.NumU
		for i := 0; i <= pu; i++ {
			cp := s.Points[row+su-pu+i]
			for k := range cp {
				a[k] += nu[0][i] * nv[0][j] * cp[k]
				au[k] += nu[1][i] * nv[0][j] * cp[k]
				av[k] += nu[0][i] * nv[1][j] * cp[k]
			}
		}
	}
	w := a[3]
	if w == 0 {
		w = 1
	}
	pt := math.Vec3{X: a[0] / w, Y: a[1] / w, Z: a[2] / w}
	du := math.Vec3{X: au[0], Y: au[1], Z: au[2]}.Sub(pt.Scale(au[3])).Scale(1 / w)
	dv := math.Vec3{X: av[0], Y: av[1], Z: av[2]}.Sub(pt.Scale(av[3])).Scale(1 / w)

	n := du.Cross(dv)
	if n.SqrLength() == 0 {
		n = math.Vec3{Z: 1}
	}
	return SurfacePoint{Point: pt, Normal: n.Normalize(), TexCoord: s.texCoord(u, v)}
}

func (s *Surface) texCoord(u, v float32) math.Vec4 {
	ulo, uhi := domain(s.UOrder(), s.UKnots)
	vlo, vhi := domain(s.VOrder(), s.VKnots)
	nu := (u - ulo) / (uhi - ulo)
	nv := (v - vlo) / (vhi - vlo)
	t := s.Tex
	if t == nil {
		return math.Vec4{nu, nv, 0, 1}
	}
	so, to := len(t.SKnots)-t.NumS, len(t.TKnots)-t.NumT
	slo, shi := domain(so, t.SKnots)
	tlo, thi := domain(to, t.TKnots)
	sp := slo + nu*(shi-slo)
	tp := tlo + nv*(thi-tlo)
	ss := findSpan(t.NumS-1, so-1, sp, t.SKnots)
	ts := findSpan(t.NumT-1, to-1, tp, t.TKnots)
	ns := basisDerivs(ss, so-1, sp, t.SKnots)[0]
	nt := basisDerivs(ts, to-1, tp, t.TKnots)[0]
	var out math.Vec2
	for j := range nt {
		row := (ts - (to - 1) + j) * t.NumS
		for i := range ns {
			cp := t.Points[row+ss-(so-1)+i]
			out.X += ns[i] * nt[j] * cp.X
			out.Y += ns[i] * nt[j] * cp.Y
		}
	}
	return math.Vec4{out.X, out.Y, 0, 1}
}

// Surface returns the tessellated surface as triangle strips, one per pair
// of adjacent sample rows. Strip vertices alternate between row j+1 and
// row j so that the strips wind counterclockwise seen from the normal.
// It yields nothing when s is invalid.
func (t *Tessellator) Surface(s *Surface, samples int) iter.Seq[[]SurfacePoint] {
	return func(yield func([]SurfacePoint) bool) {
		if s.Validate() != nil {
			return
		}
		us := params(s.UOrder(), s.UKnots, samples)
		vs := params(s.VOrder(), s.VKnots, samples)
		prev := make([]SurfacePoint, len(us))
		for i, u := range us {
			prev[i] = s.Eval(u, vs[0])
		}
		for _, v := range vs[1:] {
			cur := make([]SurfacePoint, len(us))
			strip := make([]SurfacePoint, 0, 2*len(us))
			for i, u := range us {
				cur[i] = s.Eval(u, v)
				strip = append(strip, cur[i], prev[i])
			}
			if !yield(strip) {
				return
			}
			prev = cur
		}
	}
}
