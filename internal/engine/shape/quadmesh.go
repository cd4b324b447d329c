package shape

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// QuadMesh is a grid of VerticesPerColumn rows with VerticesPerRow
// coordinates each, read row by row from StartIndex.
type QuadMesh struct {
	Base
	StartIndex        int
	VerticesPerRow    int
	VerticesPerColumn int
}

// NewQuadMesh returns an empty quad mesh using svc for its caches.
func NewQuadMesh(svc *cache.Service) *QuadMesh {
	return &QuadMesh{Base: newBase(svc)}
}

func (q *QuadMesh) Kind() Kind { return KindQuadMesh }

func (q *QuadMesh) MaterialBinding(s *state.State) binding.Binding {
	return binding.QuadMesh.Material(s)
}

func (q *QuadMesh) NormalBinding(s *state.State) binding.Binding {
	return binding.QuadMesh.Normal(s)
}

// valid checks the grid dimensions against the coordinates, warning once.
func (q *QuadMesh) valid(s *state.State) bool {
	if q.VerticesPerRow < 2 || q.VerticesPerColumn < 2 {
		logger.WarnOnce("QuadMesh.dimension", "quad mesh needs at least two rows and columns",
			zap.Int("verticesPerRow", q.VerticesPerRow), zap.Int("verticesPerColumn", q.VerticesPerColumn))
		return false
	}
	return checkRange(q.Kind(), state.Get(s, state.CoordinatesKey), q.StartIndex, q.VerticesPerRow*q.VerticesPerColumn)
}

func (q *QuadMesh) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	n := max(q.VerticesPerRow, 0) * max(q.VerticesPerColumn, 0)
	return cache.BoxOf(state.Get(s, state.CoordinatesKey), q.StartIndex, n)
}

func (q *QuadMesh) DefaultNormals(s *state.State) (cache.Normals, bool) {
	if !q.valid(s) {
		return cache.Normals{}, false
	}
	pts := points3(state.Get(s, state.CoordinatesKey))[q.StartIndex:]
	ccw := state.Get(s, state.ShapeHintsKey).CCW()
	row, col := q.VerticesPerRow, q.VerticesPerColumn
	switch q.NormalBinding(s) {
	case binding.PerFace:
		return cache.Normals{Normals: cache.GeneratePerFaceQuad(pts, row, col, ccw)}, true
	case binding.PerRow:
		return cache.Normals{Normals: cache.GeneratePerRowQuad(pts, row, col, ccw)}, true
	case binding.Overall:
		return cache.Normals{}, true
	}
	return cache.Normals{Normals: cache.GeneratePerVertexQuad(pts, row, col, ccw)}, true
}

// GeneratePrimitives emits one quad strip per row. Grid indices are
// relative to StartIndex for normals, materials and texture coordinates.
func (q *QuadMesh) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	s := act.State
	if !q.valid(s) {
		return primitive.StatusSkipped
	}
	d := q.vertexData(s, q, true)
	defer d.release()
	mb, nb := q.MaterialBinding(s), q.NormalBinding(s)

	g := primitive.NewGenerator(sink)
	g.SetPerFace(mb == binding.PerFace, nb == binding.PerFace)
	row := q.VerticesPerRow
	var normnr, matnr, mi, ni int
	for i := 0; i < q.VerticesPerColumn-1; i++ {
		g.SetFace(0)
		g.BeginShape(primitive.QuadStrip)
		if nb == binding.PerRow {
			ni = normnr
			normnr++
		}
		if mb == binding.PerRow {
			mi = matnr
			matnr++
		}
		for j := 0; j < row; j++ {
			// A quad is closed by the second column pair; every later
			// pair closes one more.
			if nb == binding.PerFace && j != 1 {
				ni = normnr
				normnr++
			}
			if mb == binding.PerFace && j != 1 {
				mi = matnr
				matnr++
			}
			for _, cur := range [2]int{i*row + j, (i+1)*row + j} {
				if nb == binding.PerVertex {
					ni = cur
				}
				if mb == binding.PerVertex {
					mi = cur
				}
				v := d.vertex(q.StartIndex+cur, ni, mi, cur)
				g.Vertex(v)
			}
			if j > 0 {
				g.IncFace()
			}
		}
		g.EndShape()
		g.IncPart()
	}
	return primitive.StatusOK
}

// CountPrimitives reports two triangles per quad.
func (q *QuadMesh) CountPrimitives(act *Action) primitive.Counter {
	if q.VerticesPerRow < 2 || q.VerticesPerColumn < 2 {
		return primitive.Counter{}
	}
	return primitive.Counter{Triangles: 2 * (q.VerticesPerRow - 1) * (q.VerticesPerColumn - 1)}
}

// preciseEligible reports whether the centroid fan split can be used.
func (q *QuadMesh) preciseEligible(act *Action) bool {
	if act.Service == nil || !act.Service.Config().PreciseLighting() {
		return false
	}
	s := act.State
	return state.Get(s, state.CoordinatesKey).Is3D() &&
		q.MaterialBinding(s) != binding.PerVertex &&
		!state.Get(s, state.TexCoordsKey).IsFunction()
}

// RenderImmediate draws the mesh as quad strips, or as four triangle fans
// around a weighted centroid per quad when precise lighting is enabled.
func (q *QuadMesh) RenderImmediate(act *Action) {
	if !q.preciseEligible(act) {
		renderGenerated(act, q)
		return
	}
	im := newImmediate(act.State, act.Backend)
	q.generatePrecise(act, im)
	im.flush()
}

const quadWeightCount = 32

var quadWeights = func() [quadWeightCount]float32 {
	var w [quadWeightCount]float32
	for i := range w {
		p := math32.Sqrt(math32.Ldexp(0.75, i-quadWeightCount/2))
		w[i] = p / (1 + p)
	}
	return w
}()

// quadWeight maps the ratio of two squared centroid distances to the
// weight of the nearer corner pair.
func quadWeight(ratio float32) float32 {
	e := math32.Ilogb(ratio) + quadWeightCount/2
	if e < 0 {
		return 0
	}
	if e >= quadWeightCount {
		return 1
	}
	return quadWeights[e]
}

// rescale sets v to a quarter of the root of length2, the length the
// weighted normal average would have for unit input. It reports false for
// a zero vector.
func rescale(v math.Vec3, length2 float32) (math.Vec3, bool) {
	l2 := v.SqrLength()
	if l2 <= 0 {
		return v, false
	}
	return v.Scale(math32.Sqrt(length2 / (l2 * 4))), true
}

// generatePrecise emits every quad as a closed triangle fan around its
// centroid. Normals and texture coordinates at the centroid are blended
// from the corners with weights from the diagonal distance ratios.
func (q *QuadMesh) generatePrecise(act *Action, sink primitive.Sink) {
	s := act.State
	if !q.valid(s) {
		return
	}
	d := q.vertexData(s, q, true)
	defer d.release()
	mb, nb := q.MaterialBinding(s), q.NormalBinding(s)
	row, start := q.VerticesPerRow, q.StartIndex

	g := primitive.NewGenerator(sink)
	var normnr, matnr, mi, ni int
	for i := 0; i < q.VerticesPerColumn-1; i++ {
		if nb == binding.PerRow {
			ni = normnr
			normnr++
		}
		if mb == binding.PerRow {
			mi = matnr
			matnr++
		}
		for j := 1; j < row; j++ {
			// Corners: 1 (i,j-1) 2 (i+1,j-1) 3 (i,j) 4 (i+1,j).
			idx := [4]int{i*row + j - 1, (i+1)*row + j - 1, i*row + j, (i+1)*row + j}
			var corner [4]primitive.Vertex
			for k, c := range idx {
				n := ni
				if nb == binding.PerVertex {
					n = c
				}
				corner[k] = d.vertex(start+c, n, mi, c)
			}
			var center math.Vec3
			for _, c := range corner {
				center = center.Add(c.Point)
			}
			center = center.Scale(0.25)

			w1 := quadWeight(corner[0].Point.Sub(center).SqrLength()/corner[3].Point.Sub(center).SqrLength()) * 0.5
			w2 := quadWeight(corner[1].Point.Sub(center).SqrLength()/corner[2].Point.Sub(center).SqrLength()) * 0.5
			w := [4]float32{w1, w2, 0.5 - w2, 0.5 - w1}

			if nb == binding.PerFace {
				ni = normnr
				normnr++
			}
			if mb == binding.PerFace {
				mi = matnr
				matnr++
			}
			mid := primitive.Vertex{Point: center, MaterialIndex: mi, NormalIndex: ni, CoordIndex: -1, TexCoordIndex: -1}
			switch nb {
			case binding.PerVertex:
				var n math.Vec3
				var length2 float32
				for k, c := range corner {
					n = n.Add(c.Normal.Scale(w[k]))
					length2 += c.Normal.SqrLength()
				}
				var ok bool
				if mid.Normal, ok = rescale(n, length2); !ok {
					p := corner[1].Point.Sub(corner[0].Point).Cross(corner[3].Point.Sub(corner[0].Point)).Normalize()
					p = p.Add(corner[3].Point.Sub(corner[0].Point).Cross(corner[2].Point.Sub(corner[0].Point)).Normalize())
					if mid.Normal, ok = rescale(p, length2); !ok {
						logger.DebugOnce("QuadMesh.precise.normal", "cannot compute centroid normal of degenerate quad")
					}
				}
			default:
				mid.Normal = d.normal(ni)
				for k := range corner {
					corner[k].Normal = mid.Normal
					corner[k].NormalIndex = ni
				}
			}
			for k := range corner {
				corner[k].MaterialIndex = mi
			}
			if d.doTex {
				var tc math.Vec4
				for k, c := range corner {
					tc = tc.Add(c.TexCoord.Scale(w[k]))
				}
				mid.TexCoord = tc
			} else {
				mid.TexCoord = math.Vec4{0, 0, 0, 1}
			}

			g.BeginShape(primitive.TriangleFan)
			g.Vertex(mid)
			g.Vertex(corner[0])
			g.Vertex(corner[1])
			g.Vertex(corner[3])
			g.Vertex(corner[2])
			g.Vertex(corner[0])
			g.EndShape()
			g.IncFace()
		}
		g.SetFace(0)
		g.IncPart()
	}
}
