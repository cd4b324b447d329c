// Package primitive folds the vertex streams reported by shapes into
// triangles, line segments and points.
package primitive

import "github.com/Faultbox/shapekit/pkg/math"

// Kind is the assembly rule for a group of vertices.
type Kind int

const (
	Triangles Kind = iota
	TriangleStrip
	TriangleFan
	Quads
	QuadStrip
	Polygon
	Lines
	LineStrip
	Points
)

func (k Kind) String() string {
	switch k {
	case Triangles:
		return "TRIANGLES"
	case TriangleStrip:
		return "TRIANGLE_STRIP"
	case TriangleFan:
		return "TRIANGLE_FAN"
	case Quads:
		return "QUADS"
	case QuadStrip:
		return "QUAD_STRIP"
	case Polygon:
		return "POLYGON"
	case Lines:
		return "LINES"
	case LineStrip:
		return "LINE_STRIP"
	case Points:
		return "POINTS"
	}
	return "UNKNOWN"
}

// MinVertices returns the smallest group that produces a primitive.
func (k Kind) MinVertices() int {
	switch k {
	case Triangles, TriangleStrip, TriangleFan, Polygon:
		return 3
	case Quads, QuadStrip:
		return 4
	case Lines, LineStrip:
		return 2
	}
	return 1
}

// Vertex is one generated vertex. The index fields record where each
// attribute came from, so picking and caches can map back to the source
// arrays.
type Vertex struct {
	Point    math.Vec3
	Normal   math.Vec3
	TexCoord math.Vec4

	CoordIndex    int
	NormalIndex   int
	MaterialIndex int
	TexCoordIndex int
}

// Detail identifies the face, part and line a primitive belongs to.
type Detail struct {
	Face int
	Part int
	Line int
}

// Status reports whether a shape produced its primitives or skipped them.
type Status int

const (
	StatusOK Status = iota
	StatusSkipped
)

func (s Status) String() string {
	if s == StatusSkipped {
		return "skipped"
	}
	return "ok"
}

// Sink receives the primitives a Generator emits. Vertex pointers are only
// valid for the duration of the call.
type Sink interface {
	Triangle(a, b, c *Vertex, d Detail)
	Line(a, b *Vertex, d Detail)
	Point(v *Vertex, d Detail)
}

// Counter is a Sink that only counts primitives. Images counts marker
// bitmaps, which shapes add themselves.
type Counter struct {
	Triangles, Lines, Points, Images int
}

func (c *Counter) Triangle(_, _, _ *Vertex, _ Detail) { c.Triangles++ }
func (c *Counter) Line(_, _ *Vertex, _ Detail)        { c.Lines++ }
func (c *Counter) Point(_ *Vertex, _ Detail)          { c.Points++ }

// Add accumulates other into c.
func (c *Counter) Add(other Counter) {
	c.Triangles += other.Triangles
	c.Lines += other.Lines
	c.Points += other.Points
	c.Images += other.Images
}

// Collected is a triangle, line or point retained by a Collector.
type Collected struct {
	V      [3]Vertex
	Detail Detail
}

// Collector is a Sink that keeps copies of everything it receives.
type Collector struct {
	Triangles []Collected
	Lines     []Collected
	Points    []Collected
}

func (c *Collector) Triangle(a, b, cc *Vertex, d Detail) {
	c.Triangles = append(c.Triangles, Collected{V: [3]Vertex{*a, *b, *cc}, Detail: d})
}

func (c *Collector) Line(a, b *Vertex, d Detail) {
	c.Lines = append(c.Lines, Collected{V: [3]Vertex{*a, *b}, Detail: d})
}

func (c *Collector) Point(v *Vertex, d Detail) {
	c.Points = append(c.Points, Collected{V: [3]Vertex{*v}, Detail: d})
}

// TriangleCoords returns the coordinate indices of every collected triangle.
func (c *Collector) TriangleCoords() [][3]int {
	out := make([][3]int, len(c.Triangles))
	for i, t := range c.Triangles {
		out[i] = [3]int{t.V[0].CoordIndex, t.V[1].CoordIndex, t.V[2].CoordIndex}
	}
	return out
}

// LineCoords returns the coordinate indices of every collected segment.
func (c *Collector) LineCoords() [][2]int {
	out := make([][2]int, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = [2]int{l.V[0].CoordIndex, l.V[1].CoordIndex}
	}
	return out
}
