// Package tess triangulates simple planar polygons in 3D.
//
// Triangulate returns a lazy sequence of index triples. The sequence is
// finite and restartable: ranging over it again triangulates again.
package tess

import (
	"iter"

	"github.com/chewxy/math32"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Triangle holds three indices into the input polygon, in the winding order
// of the polygon.
type Triangle [3]int

const epsilon = 1e-9

// Normal returns the unnormalized Newell normal of the polygon. Its length
// is twice the polygon area.
func Normal(pts []math.Vec3) math.Vec3 {
	var n math.Vec3
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// IsConvex reports whether the polygon turns the same way at every vertex.
func IsConvex(pts []math.Vec3) bool {
	if len(pts) < 4 {
		return len(pts) == 3
	}
	p := project(pts, Normal(pts))
	if p == nil {
		return false
	}
	for i := range p {
		if cross(p[i], p[(i+1)%len(p)], p[(i+2)%len(p)]) < -epsilon {
			return false
		}
	}
	return true
}

// Triangulate splits a simple polygon into len(pts)-2 triangles by ear
// clipping. Degenerate polygons (fewer than 3 points or zero area) yield
// nothing. Self-intersecting input falls back to a fan over the vertices left
// when no ear can be found.
func Triangulate(pts []math.Vec3) iter.Seq[Triangle] {
	return func(yield func(Triangle) bool) {
		if len(pts) < 3 {
			return
		}
		if len(pts) == 3 {
			yield(Triangle{0, 1, 2})
			return
		}
		p := project(pts, Normal(pts))
		if p == nil {
			return
		}
		idx := make([]int, len(pts))
		for i := range idx {
			idx[i] = i
		}
		for len(idx) > 3 {
			ear := findEar(p, idx)
			if ear < 0 {
				for i := 1; i < len(idx)-1; i++ {
					if !yield(Triangle{idx[0], idx[i], idx[i+1]}) {
						return
					}
				}
				return
			}
			n := len(idx)
			t := Triangle{idx[(ear+n-1)%n], idx[ear], idx[(ear+1)%n]}
			if !yield(t) {
				return
			}
			idx = append(idx[:ear], idx[ear+1:]...)
		}
		yield(Triangle{idx[0], idx[1], idx[2]})
	}
}

// Collect returns every triangle of the polygon.
func Collect(pts []math.Vec3) []Triangle {
	var out []Triangle
	for t := range Triangulate(pts) {
		out = append(out, t)
	}
	return out
}

func findEar(p []math.Vec2, idx []int) int {
	n := len(idx)
	for i := 0; i < n; i++ {
		a := p[idx[(i+n-1)%n]]
		b := p[idx[i]]
		c := p[idx[(i+1)%n]]
		if cross(a, b, c) <= epsilon {
			continue
		}
		clear := true
		for j := 0; j < n; j++ {
			if j == i || j == (i+n-1)%n || j == (i+1)%n {
				continue
			}
			q := p[idx[j]]
			if q == a || q == b || q == c {
				continue
			}
			if inTriangle(q, a, b, c) {
				clear = false
				break
			}
		}
		if clear {
			return i
		}
	}
	return -1
}

// project drops the dominant axis of n so the polygon becomes
// counterclockwise in 2D. It returns nil for zero-area polygons.
func project(pts []math.Vec3, n math.Vec3) []math.Vec2 {
	ax, ay, az := math32.Abs(n.X), math32.Abs(n.Y), math32.Abs(n.Z)
	if ax+ay+az <= epsilon {
		return nil
	}
	out := make([]math.Vec2, len(pts))
	for i, v := range pts {
		switch {
		case az >= ax && az >= ay:
			out[i] = math.Vec2{X: v.X, Y: v.Y}
			if n.Z < 0 {
				out[i].X = -out[i].X
			}
		case ax >= ay:
			out[i] = math.Vec2{X: v.Y, Y: v.Z}
			if n.X < 0 {
				out[i].X = -out[i].X
			}
		default:
			out[i] = math.Vec2{X: v.Z, Y: v.X}
			if n.Y < 0 {
				out[i].X = -out[i].X
			}
		}
	}
	return out
}

func cross(a, b, c math.Vec2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func inTriangle(q, a, b, c math.Vec2) bool {
	return cross(a, b, q) >= 0 && cross(b, c, q) >= 0 && cross(c, a, q) >= 0
}
