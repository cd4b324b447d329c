// Package clip clips convex polygons against planes, carrying user data
// through every new vertex.
package clip

import "github.com/Faultbox/shapekit/pkg/math"

// Interpolate returns the data of the vertex at point p on the edge from a
// to b. t is the parameter of p along the edge.
type Interpolate[T any] func(a, b Vertex[T], p math.Vec3, t float32) T

// Vertex is a polygon corner with attached data.
type Vertex[T any] struct {
	Point math.Vec3
	Data  T
}

// Polygon is a Sutherland-Hodgman clipper. The zero value clips without
// data interpolation, copying the data of the inside endpoint.
type Polygon[T any] struct {
	interp Interpolate[T]
	cur    []Vertex[T]
	tmp    []Vertex[T]
}

// New returns an empty polygon using interp for new vertices.
func New[T any](interp Interpolate[T]) *Polygon[T] {
	return &Polygon[T]{interp: interp}
}

// Reset empties the polygon, keeping its buffers.
func (c *Polygon[T]) Reset() {
	c.cur = c.cur[:0]
}

// Add appends a corner.
func (c *Polygon[T]) Add(p math.Vec3, data T) {
	c.cur = append(c.cur, Vertex[T]{Point: p, Data: data})
}

// Len returns the number of corners.
func (c *Polygon[T]) Len() int { return len(c.cur) }

// At returns corner i.
func (c *Polygon[T]) At(i int) Vertex[T] { return c.cur[i] }

// Vertices returns the corners. The slice is reused by later calls.
func (c *Polygon[T]) Vertices() []Vertex[T] { return c.cur }

// Clip keeps the part of the polygon in the half-space the plane normal
// points to. A polygon left with fewer than three corners is emptied.
func (c *Polygon[T]) Clip(pl math.Plane) {
	n := len(c.cur)
	if n == 0 {
		return
	}
	out := c.tmp[:0]
	prev := c.cur[n-1]
	prevDist := pl.SignedDistance(prev.Point)
	for _, v := range c.cur {
		d := pl.SignedDistance(v.Point)
		prevIn, in := prevDist >= 0, d >= 0
		if prevIn != in {
			t := prevDist / (prevDist - d)
			p := prev.Point.Add(v.Point.Sub(prev.Point).Scale(t))
			out = append(out, Vertex[T]{Point: p, Data: c.data(prev, v, p, t, prevIn)})
		}
		if in {
			out = append(out, v)
		}
		prev, prevDist = v, d
	}
	if len(out) < 3 {
		out = out[:0]
	}
	c.tmp = c.cur
	c.cur = out
}

func (c *Polygon[T]) data(a, b Vertex[T], p math.Vec3, t float32, aIn bool) T {
	if c.interp != nil {
		return c.interp(a, b, p, t)
	}
	if aIn {
		return a.Data
	}
	return b.Data
}
