package shape

import (
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// FaceSet is a set of polygons built from consecutive coordinates.
// NumVertices gives the corner count of each face; a single -1 means one
// face over every coordinate from StartIndex on.
type FaceSet struct {
	Base
	StartIndex  int
	NumVertices []int

	convex *cache.ConvexCache
}

// NewFaceSet returns an empty face set using svc for its caches.
func NewFaceSet(svc *cache.Service) *FaceSet {
	f := &FaceSet{Base: newBase(svc), convex: cache.NewConvexCache(svc)}
	f.onTouch = f.convex.Invalidate
	return f
}

func (f *FaceSet) Kind() Kind { return KindFaceSet }

func (f *FaceSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.FaceSet.Material(s)
}

func (f *FaceSet) NormalBinding(s *state.State) binding.Binding {
	return binding.FaceSet.Normal(s)
}

func (f *FaceSet) counts(s *state.State) ([]int, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(f.NumVertices, coords, f.StartIndex)
	return counts, checkRange(f.Kind(), coords, f.StartIndex, sum(counts))
}

func (f *FaceSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(f.NumVertices, coords, f.StartIndex)
	return cache.BoxOf(coords, f.StartIndex, sum(counts))
}

func (f *FaceSet) DefaultNormals(s *state.State) (cache.Normals, bool) {
	counts, ok := f.counts(s)
	if !ok {
		return cache.Normals{}, false
	}
	coords := state.Get(s, state.CoordinatesKey)
	g := cache.NewNormalGenerator(state.Get(s, state.ShapeHintsKey).CCW(), sum(counts))
	idx := f.StartIndex
	for _, n := range counts {
		g.BeginPolygon()
		for k := 0; k < n; k++ {
			g.PolygonVertex(coords.Get3(idx))
			idx++
		}
		g.EndPolygon()
	}
	switch f.NormalBinding(s) {
	case binding.PerFace:
		g.GeneratePerFace()
	case binding.Overall:
		g.GenerateOverall()
	default:
		g.Generate(state.Get(s, state.CreaseAngleKey), nil)
	}
	return cache.Normals{Normals: g.Normals()}, true
}

func (f *FaceSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	s := act.State
	if len(f.NumVertices) == 1 && f.NumVertices[0] == 0 {
		return primitive.StatusSkipped
	}
	counts, ok := f.counts(s)
	if !ok {
		return primitive.StatusSkipped
	}
	d := f.vertexData(s, f, true)
	defer d.release()
	mb, nb := f.MaterialBinding(s), f.NormalBinding(s)

	g := primitive.NewGenerator(sink)
	g.Configure(s)
	g.SetPerFace(mb.IsPerFace(), nb.IsPerFace())

	idx := f.StartIndex
	var matnr, normnr, texnr int
	for _, n := range counts {
		kind := primitive.Polygon
		switch n {
		case 3:
			kind = primitive.Triangles
		case 4:
			kind = primitive.Quads
		}
		g.BeginShape(kind)
		var mi, ni int
		for k := 0; k < n; k++ {
			if nb == binding.PerVertex || (k == 0 && nb != binding.Overall) {
				ni = normnr
				normnr++
			}
			if mb == binding.PerVertex || (k == 0 && mb != binding.Overall) {
				mi = matnr
				matnr++
			}
			g.Vertex(d.vertex(idx, ni, mi, texnr))
			idx++
			texnr++
		}
		g.EndShape()
		g.IncFace()
	}
	return primitive.StatusOK
}

func (f *FaceSet) CountPrimitives(act *Action) primitive.Counter {
	var c primitive.Counter
	counts, ok := f.counts(act.State)
	if !ok {
		return c
	}
	for _, n := range counts {
		if n >= 3 {
			c.Triangles += n - 2
		}
	}
	return c
}

// needsConvexCache reports whether some face may be concave and must be
// split before immediate rendering.
func (f *FaceSet) needsConvexCache(s *state.State, counts []int) bool {
	if state.Get(s, state.ShapeHintsKey).Face == state.Convex {
		return false
	}
	for _, n := range counts {
		if n > 3 {
			return true
		}
	}
	return false
}

// RenderImmediate draws the faces, splitting possibly concave faces through
// the convex cache.
func (f *FaceSet) RenderImmediate(act *Action) {
	s := act.State
	counts, ok := f.counts(s)
	if !ok || !f.needsConvexCache(s, counts) {
		renderGenerated(act, f)
		return
	}
	mb, nb := f.MaterialBinding(s), f.NormalBinding(s)
	d := f.vertexData(s, f, true)
	defer d.release()

	data, release := f.convex.Get(s, func(s *state.State) cache.ConvexData {
		in := cache.ConvexInput{Material: mb, Normal: nb, TexCoords: d.doTex}
		idx := f.StartIndex
		for _, n := range counts {
			for k := 0; k < n; k++ {
				in.CoordIndex = append(in.CoordIndex, idx)
				in.TexCoordIndex = append(in.TexCoordIndex, idx-f.StartIndex)
				idx++
			}
			in.CoordIndex = append(in.CoordIndex, -1)
			in.TexCoordIndex = append(in.TexCoordIndex, -1)
		}
		return cache.Convexify(state.Get(s, state.CoordinatesKey), in)
	})
	defer release()

	im := newImmediate(s, act.Backend)
	var tri [3]primitive.Vertex
	for t := 0; t < data.Triangles(); t++ {
		for k := 0; k < 3; k++ {
			ci := data.CoordIndex[t*4+k]
			tri[k] = d.vertex(ci,
				convexIndex(data.NormalIndex, nb, t, k),
				convexIndex(data.MaterialIndex, mb, t, k),
				convexIndex(data.TexCoordIndex, binding.PerVertex, t, k))
		}
		im.Triangle(&tri[0], &tri[1], &tri[2], primitive.Detail{})
	}
	im.flush()
}

// convexIndex returns the attribute index of corner k of triangle t in
// convex cache output.
func convexIndex(idx []int, b binding.Binding, t, k int) int {
	switch {
	case len(idx) == 0 || b == binding.Overall:
		return 0
	case b == binding.PerVertex || b == binding.PerVertexIndexed:
		return idx[t*4+k]
	default:
		return idx[t]
	}
}
