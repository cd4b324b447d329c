package primitive

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/engine/tess"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Generator assembles vertex groups into primitives and hands them to a
// Sink. One Generator serves one shape traversal at a time.
type Generator struct {
	sink   Sink
	kind   Kind
	verts  []Vertex
	count  int
	seen   int
	detail Detail

	matPerFace  bool
	normPerFace bool
	convex      bool

	points []math.Vec3
}

// NewGenerator returns a generator that emits into sink.
func NewGenerator(sink Sink) *Generator {
	return &Generator{sink: sink, verts: make([]Vertex, 16)}
}

// Configure reads the per-face bindings and the face type from the state.
// When the material or normal binding is per face, the index carried by the
// last vertex of each face is copied to the other vertices of that face.
func (g *Generator) Configure(s *state.State) {
	mb := state.Get(s, state.MaterialBindingKey)
	nb := state.Get(s, state.NormalBindingKey)
	g.matPerFace = mb == state.BindPerFace || mb == state.BindPerFaceIndexed
	g.normPerFace = nb == state.BindPerFace || nb == state.BindPerFaceIndexed
	g.convex = state.Get(s, state.ShapeHintsKey).Face == state.Convex
	g.detail = Detail{}
}

// SetPerFace overrides the per-face flags set by Configure.
func (g *Generator) SetPerFace(material, normal bool) {
	g.matPerFace = material
	g.normPerFace = normal
}

// SetConvex declares whether polygons are convex and may be fanned.
func (g *Generator) SetConvex(convex bool) {
	g.convex = convex
}

// Detail returns the current face, part and line indices.
func (g *Generator) Detail() Detail { return g.detail }

// SetFace sets the face index attached to emitted primitives.
func (g *Generator) SetFace(i int) { g.detail.Face = i }

// IncFace advances the face index.
func (g *Generator) IncFace() { g.detail.Face++ }

// IncPart advances the part index.
func (g *Generator) IncPart() { g.detail.Part++ }

// IncLine advances the line index.
func (g *Generator) IncLine() { g.detail.Line++ }

// BeginShape starts a new group of the given kind.
func (g *Generator) BeginShape(kind Kind) {
	g.kind = kind
	g.count = 0
	g.seen = 0
}

// Vertex adds v to the current group, emitting primitives as soon as the
// group's assembly rule completes one.
func (g *Generator) Vertex(v Vertex) {
	g.seen++
	switch g.kind {
	case TriangleStrip:
		if g.count >= 3 {
			if g.count&1 == 1 {
				g.verts[0] = g.verts[2]
			} else {
				g.verts[1] = g.verts[2]
			}
		}
		g.verts[min(g.count, 2)] = v
		g.count++
		if g.count >= 3 {
			g.emitFace(3)
		}
	case TriangleFan:
		if g.count == 3 {
			g.verts[1] = g.verts[2]
			g.verts[2] = v
		} else {
			g.verts[g.count] = v
			g.count++
		}
		if g.count == 3 {
			g.emitFace(3)
		}
	case Triangles:
		g.verts[g.count] = v
		g.count++
		if g.count == 3 {
			g.emitFace(3)
			g.count = 0
		}
	case Polygon:
		if g.count >= len(g.verts) {
			grown := make([]Vertex, len(g.verts)*2)
			copy(grown, g.verts)
			g.verts = grown
		}
		g.verts[g.count] = v
		g.count++
	case Quads:
		g.verts[g.count] = v
		g.count++
		if g.count == 4 {
			g.propagate(4)
			g.sink.Triangle(&g.verts[0], &g.verts[1], &g.verts[2], g.detail)
			g.sink.Triangle(&g.verts[0], &g.verts[2], &g.verts[3], g.detail)
			g.count = 0
		}
	case QuadStrip:
		g.verts[g.count] = v
		g.count++
		if g.count == 4 {
			// The diagonal runs 1-2 like GL_QUAD_STRIP, not 0-2 like QUADS.
			g.propagate(4)
			g.sink.Triangle(&g.verts[0], &g.verts[1], &g.verts[3], g.detail)
			g.sink.Triangle(&g.verts[0], &g.verts[3], &g.verts[2], g.detail)
			g.verts[0] = g.verts[2]
			g.verts[1] = g.verts[3]
			g.count = 2
		}
	case Points:
		g.sink.Point(&v, g.detail)
	case Lines:
		g.verts[g.count] = v
		g.count++
		if g.count == 2 {
			g.sink.Line(&g.verts[0], &g.verts[1], g.detail)
			g.count = 0
		}
	case LineStrip:
		g.verts[g.count] = v
		g.count++
		if g.count == 2 {
			g.sink.Line(&g.verts[0], &g.verts[1], g.detail)
			g.verts[0] = g.verts[1]
			g.count = 1
		}
	}
}

// EndShape finishes the group. Polygons are triangulated here. Groups too
// small to form a primitive are dropped and reported as skipped.
func (g *Generator) EndShape() Status {
	if g.seen < g.kind.MinVertices() {
		logger.DebugOnce("primitive.undersized."+g.kind.String(), "dropping undersized primitive group",
			zap.Stringer("kind", g.kind), zap.Int("vertices", g.seen))
		g.count = 0
		return StatusSkipped
	}
	if g.kind != Polygon {
		return StatusOK
	}
	n := g.count
	g.count = 0
	g.propagate(n)
	if g.convex {
		for i := 1; i < n-1; i++ {
			g.sink.Triangle(&g.verts[0], &g.verts[i], &g.verts[i+1], g.detail)
		}
		return StatusOK
	}
	g.points = g.points[:0]
	for i := 0; i < n; i++ {
		g.points = append(g.points, g.verts[i].Point)
	}
	for t := range tess.Triangulate(g.points) {
		g.sink.Triangle(&g.verts[t[0]], &g.verts[t[1]], &g.verts[t[2]], g.detail)
	}
	return StatusOK
}

func (g *Generator) emitFace(n int) {
	g.propagate(n)
	g.sink.Triangle(&g.verts[0], &g.verts[1], &g.verts[2], g.detail)
}

// propagate copies the per-face indices of the last vertex of a face onto
// the earlier ones. Only indices move; the vertex normals stay as given.
func (g *Generator) propagate(n int) {
	last := g.verts[n-1]
	for i := 0; i < n-1; i++ {
		if g.matPerFace {
			g.verts[i].MaterialIndex = last.MaterialIndex
		}
		if g.normPerFace {
			g.verts[i].NormalIndex = last.NormalIndex
		}
	}
}
