package shape

import (
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// LineSet is a set of polylines built from consecutive coordinates.
// NumVertices gives the vertex count of each polyline; a single -1 means
// one polyline over every coordinate from StartIndex on.
type LineSet struct {
	Base
	StartIndex  int
	NumVertices []int
}

// NewLineSet returns an empty line set using svc for its caches.
func NewLineSet(svc *cache.Service) *LineSet {
	return &LineSet{Base: newBase(svc)}
}

func (l *LineSet) Kind() Kind { return KindLineSet }

func (l *LineSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.LineSet.Material(s)
}

func (l *LineSet) NormalBinding(s *state.State) binding.Binding {
	return binding.LineSet.Normal(s)
}

func (l *LineSet) counts(s *state.State) ([]int, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(l.NumVertices, coords, l.StartIndex)
	return counts, checkRange(l.Kind(), coords, l.StartIndex, sum(counts))
}

func (l *LineSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	counts := expandCounts(l.NumVertices, coords, l.StartIndex)
	return cache.BoxOf(coords, l.StartIndex, sum(counts))
}

// DefaultNormals reports false: lines are drawn unlit unless normals are
// supplied.
func (l *LineSet) DefaultNormals(*state.State) (cache.Normals, bool) {
	return cache.Normals{}, false
}

func (l *LineSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	s := act.State
	counts, ok := l.counts(s)
	if !ok {
		return primitive.StatusSkipped
	}
	d := l.vertexData(s, l, false)
	defer d.release()
	mb, nb := l.MaterialBinding(s), l.NormalBinding(s)
	if len(d.normals) == 0 {
		nb = binding.Overall
	}

	g := primitive.NewGenerator(sink)
	g.SetPerFace(false, false)
	idx := l.StartIndex
	var matnr, normnr, texnr int
	var mi, ni int
	next := func(b binding.Binding, nr *int, out *int, when ...binding.Binding) {
		for _, w := range when {
			if b == w {
				*out = *nr
				*nr++
				return
			}
		}
	}

	if mb == binding.PerSegment || nb == binding.PerSegment {
		g.BeginShape(primitive.Lines)
		for _, n := range counts {
			if n < 2 {
				idx += max(n, 0)
				continue
			}
			next(nb, &normnr, &ni, binding.PerLine, binding.PerVertex)
			next(mb, &matnr, &mi, binding.PerLine, binding.PerVertex)
			first := texnr
			texnr++
			for k := 1; k < n; k++ {
				next(nb, &normnr, &ni, binding.PerSegment)
				next(mb, &matnr, &mi, binding.PerSegment)
				g.Vertex(d.vertex(idx, ni, mi, first))
				idx++
				next(nb, &normnr, &ni, binding.PerVertex)
				next(mb, &matnr, &mi, binding.PerVertex)
				first = texnr
				texnr++
				g.Vertex(d.vertex(idx, ni, mi, first))
				g.IncPart()
			}
			idx++
			g.IncLine()
		}
		g.EndShape()
		return primitive.StatusOK
	}

	for _, n := range counts {
		if n < 2 {
			idx += max(n, 0)
			continue
		}
		g.BeginShape(primitive.LineStrip)
		next(nb, &normnr, &ni, binding.PerLine)
		next(mb, &matnr, &mi, binding.PerLine)
		for k := 0; k < n; k++ {
			next(nb, &normnr, &ni, binding.PerVertex)
			next(mb, &matnr, &mi, binding.PerVertex)
			g.Vertex(d.vertex(idx, ni, mi, texnr))
			idx++
			texnr++
		}
		g.EndShape()
		g.IncLine()
	}
	return primitive.StatusOK
}

func (l *LineSet) CountPrimitives(act *Action) primitive.Counter {
	var c primitive.Counter
	counts, ok := l.counts(act.State)
	if !ok {
		return c
	}
	for _, n := range counts {
		if n >= 2 {
			c.Lines += n - 1
		}
	}
	return c
}

// RenderImmediate draws the polylines with lighting off when no normals
// are available.
func (l *LineSet) RenderImmediate(act *Action) {
	b := act.Backend
	unlit := len(state.Get(act.State, state.NormalsKey)) == 0 && b.IsEnabled(backend.Lighting)
	if unlit {
		b.Disable(backend.Lighting)
		defer b.Enable(backend.Lighting)
	}
	renderGenerated(act, l)
}
