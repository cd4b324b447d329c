package shape

import (
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// TriangleStripSet is a set of triangle strips built from consecutive
// coordinates. NumVertices gives the vertex count of each strip; a single
// -1 means one strip over every coordinate from StartIndex on.
type TriangleStripSet struct {
	Base
	StartIndex  int
	NumVertices []int
}

// NewTriangleStripSet returns an empty strip set using svc for its caches.
func NewTriangleStripSet(svc *cache.Service) *TriangleStripSet {
	return &TriangleStripSet{Base: newBase(svc)}
}

func (t *TriangleStripSet) Kind() Kind { return KindTriangleStripSet }

func (t *TriangleStripSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.TriangleStripSet.Material(s)
}

func (t *TriangleStripSet) NormalBinding(s *state.State) binding.Binding {
	return binding.TriangleStripSet.Normal(s)
}

func (t *TriangleStripSet) counts(s *state.State) ([]int, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(t.NumVertices, coords, t.StartIndex)
	return counts, checkRange(t.Kind(), coords, t.StartIndex, sum(counts))
}

func (t *TriangleStripSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(t.NumVertices, coords, t.StartIndex)
	return cache.BoxOf(coords, t.StartIndex, sum(counts))
}

// DefaultNormals feeds every strip triangle to the normal generator with
// the winding corrected for its position in the strip. Strips with fewer
// than three vertices are left out.
func (t *TriangleStripSet) DefaultNormals(s *state.State) (cache.Normals, bool) {
	counts, ok := t.counts(s)
	if !ok {
		return cache.Normals{}, false
	}
	coords := state.Get(s, state.CoordinatesKey)
	g := cache.NewNormalGenerator(state.Get(s, state.ShapeHintsKey).CCW(), len(counts)*3)
	idx := t.StartIndex
	strips := make([]int, 0, len(counts))
	for _, n := range counts {
		if n < 3 {
			idx += max(n, 0)
			continue
		}
		strips = append(strips, n)
		var tri [3]math.Vec3
		for k := range tri {
			tri[k] = coords.Get3(idx)
			idx++
		}
		g.Triangle(tri[0], tri[1], tri[2])
		flag := false
		for k := 3; k < n; k++ {
			if flag {
				tri[1] = tri[2]
			} else {
				tri[0] = tri[2]
			}
			flag = !flag
			tri[2] = coords.Get3(idx)
			idx++
			g.Triangle(tri[0], tri[1], tri[2])
		}
	}
	switch t.NormalBinding(s) {
	case binding.Overall:
		g.GenerateOverall()
	case binding.PerStrip:
		g.GeneratePerStrip(strips)
	case binding.PerTriangle:
		g.GeneratePerFace()
	default:
		g.Generate(state.Get(s, state.CreaseAngleKey), strips)
	}
	return cache.Normals{Normals: g.Normals()}, true
}

func (t *TriangleStripSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	s := act.State
	if len(t.NumVertices) == 1 && t.NumVertices[0] == 0 {
		return primitive.StatusSkipped
	}
	counts, ok := t.counts(s)
	if !ok {
		return primitive.StatusSkipped
	}
	d := t.vertexData(s, t, true)
	defer d.release()
	mb, nb := t.MaterialBinding(s), t.NormalBinding(s)

	g := primitive.NewGenerator(sink)
	g.SetPerFace(mb.IsPerFace(), nb.IsPerFace())
	idx := t.StartIndex
	var matnr, normnr, texnr, mi, ni int
	for _, n := range counts {
		if n < 3 {
			idx += max(n, 0)
			continue
		}
		g.SetFace(0)
		g.BeginShape(primitive.TriangleStrip)
		for k := 0; k < n; k++ {
			// The strip's first vertex opens the strip and its first
			// triangle; from the third on each vertex closes a triangle.
			if nb == binding.PerVertex || (k == 0 && nb != binding.Overall) || (k >= 3 && nb == binding.PerTriangle) {
				ni = normnr
				normnr++
			}
			if mb == binding.PerVertex || (k == 0 && mb != binding.Overall) || (k >= 3 && mb == binding.PerTriangle) {
				mi = matnr
				matnr++
			}
			g.Vertex(d.vertex(idx, ni, mi, texnr))
			idx++
			texnr++
			if k >= 2 {
				g.IncFace()
			}
		}
		g.EndShape()
		g.IncPart()
	}
	return primitive.StatusOK
}

func (t *TriangleStripSet) CountPrimitives(act *Action) primitive.Counter {
	var c primitive.Counter
	counts, ok := t.counts(act.State)
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

// IndexedTriangleStripSet is a set of triangle strips addressed through
// CoordIndex, with strips separated by -1. The other index arrays are
// optional; an empty per-vertex index array falls back to CoordIndex.
type IndexedTriangleStripSet struct {
	Base
	CoordIndex        []int
	MaterialIndex     []int
	NormalIndex       []int
	TextureCoordIndex []int
}

// NewIndexedTriangleStripSet returns an empty indexed strip set using svc
// for its caches.
func NewIndexedTriangleStripSet(svc *cache.Service) *IndexedTriangleStripSet {
	return &IndexedTriangleStripSet{Base: newBase(svc)}
}

func (t *IndexedTriangleStripSet) Kind() Kind { return KindIndexedTriangleStripSet }

func (t *IndexedTriangleStripSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.IndexedTriangleStripSet.Material(s)
}

func (t *IndexedTriangleStripSet) NormalBinding(s *state.State) binding.Binding {
	return binding.IndexedTriangleStripSet.Normal(s)
}

func (t *IndexedTriangleStripSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxIndexed(state.Get(s, state.CoordinatesKey), t.CoordIndex)
}

func (t *IndexedTriangleStripSet) DefaultNormals(s *state.State) (cache.Normals, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	if !checkIndices(t.Kind(), coords, t.CoordIndex) {
		return cache.Normals{}, false
	}
	pts := points3(coords)
	ccw := state.Get(s, state.ShapeHintsKey).CCW()
	switch t.NormalBinding(s) {
	case binding.Overall:
		var acc math.Vec3
		for _, n := range cache.GeneratePerFaceStrip(pts, t.CoordIndex, ccw) {
			acc = acc.Add(n)
		}
		return cache.Normals{Normals: []math.Vec3{acc.Normalize()}}, true
	case binding.PerStrip, binding.PerStripIndexed:
		return cache.Normals{Normals: cache.GeneratePerStrip(pts, t.CoordIndex, ccw)}, true
	case binding.PerTriangle, binding.PerTriangleIndexed:
		return cache.Normals{Normals: cache.GeneratePerFaceStrip(pts, t.CoordIndex, ccw)}, true
	}
	crease := state.Get(s, state.CreaseAngleKey)
	return cache.GeneratePerVertex(pts, t.CoordIndex, crease, nil, ccw, true), true
}

func (t *IndexedTriangleStripSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	s := act.State
	if len(t.CoordIndex) < 3 {
		return primitive.StatusSkipped
	}
	if !checkIndices(t.Kind(), state.Get(s, state.CoordinatesKey), t.CoordIndex) {
		return primitive.StatusSkipped
	}
	d := t.vertexData(s, t, true)
	defer d.release()
	mb, nb := t.MaterialBinding(s), t.NormalBinding(s)

	// Generated normals are addressed by the normal cache's own layout.
	nidx := t.NormalIndex
	if d.generated {
		switch nb {
		case binding.PerVertex, binding.PerVertexIndexed:
			nb, nidx = binding.PerVertexIndexed, d.normalIndex
		case binding.PerTriangleIndexed:
			nb = binding.PerTriangle
		case binding.PerStripIndexed:
			nb = binding.PerStrip
		}
	}
	if nb == binding.PerVertexIndexed && len(nidx) == 0 {
		nidx = t.CoordIndex
	}
	midx := t.MaterialIndex
	if mb == binding.PerVertexIndexed && len(midx) == 0 {
		midx = t.CoordIndex
	}
	tidx := t.TextureCoordIndex
	if len(tidx) == 0 {
		tidx = t.CoordIndex
	}

	mat := attrStream(mb, midx)
	norm := attrStream(nb, nidx)
	tex := stream{idx: tidx}

	g := primitive.NewGenerator(sink)
	g.SetPerFace(mb.IsPerFace(), nb.IsPerFace())
	var mi, ni int
	cind := t.CoordIndex
	i := 0
	for i+2 < len(cind) {
		g.SetFace(0)
		g.BeginShape(primitive.TriangleStrip)
		for k := 0; i < len(cind) && cind[i] >= 0; k++ {
			perStep := k == 0 || k >= 3
			if mb == binding.PerVertex || mb == binding.PerVertexIndexed ||
				(perStep && (mb == binding.PerTriangle || mb == binding.PerTriangleIndexed)) ||
				(k == 0 && (mb == binding.PerStrip || mb == binding.PerStripIndexed)) {
				mi = mat.next()
			}
			if nb == binding.PerVertex || nb == binding.PerVertexIndexed ||
				(perStep && (nb == binding.PerTriangle || nb == binding.PerTriangleIndexed)) ||
				(k == 0 && (nb == binding.PerStrip || nb == binding.PerStripIndexed)) {
				ni = norm.next()
			}
			g.Vertex(d.vertex(cind[i], ni, mi, tex.next()))
			if k >= 2 {
				g.IncFace()
			}
			i++
		}
		g.EndShape()
		g.IncPart()
		// Step over the -1 in every array parallel to CoordIndex.
		if mb == binding.PerVertexIndexed {
			mat.skip()
		}
		if nb == binding.PerVertexIndexed {
			norm.skip()
		}
		tex.skip()
		i++
	}
	return primitive.StatusOK
}

// attrStream returns the index source for b: the index array for indexed
// bindings, a counter otherwise.
func attrStream(b binding.Binding, idx []int) stream {
	if b.IsIndexed() {
		if idx == nil {
			idx = []int{}
		}
		return stream{idx: idx}
	}
	return stream{}
}

func (t *IndexedTriangleStripSet) CountPrimitives(act *Action) primitive.Counter {
	var c primitive.Counter
	n := 0
	flush := func() {
		if n >= 3 {
			c.Triangles += n - 2
		}
		n = 0
	}
	for _, i := range t.CoordIndex {
		if i < 0 {
			flush()
			continue
		}
		n++
	}
	flush()
	return c
}
