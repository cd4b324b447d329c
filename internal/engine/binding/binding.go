// Package binding translates the generic material and normal bindings of the
// traversal state into the binding subset each shape kind supports.
package binding

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
)

// Binding is a shape-level attribute binding.
type Binding int

const (
	Overall Binding = iota
	PerVertex
	PerVertexIndexed
	PerFace
	PerFaceIndexed
	PerTriangle
	PerTriangleIndexed
	PerStrip
	PerStripIndexed
	PerRow
	PerLine
	PerSegment
)

func (b Binding) String() string {
	switch b {
	case Overall:
		return "OVERALL"
	case PerVertex:
		return "PER_VERTEX"
	case PerVertexIndexed:
		return "PER_VERTEX_INDEXED"
	case PerFace:
		return "PER_FACE"
	case PerFaceIndexed:
		return "PER_FACE_INDEXED"
	case PerTriangle:
		return "PER_TRIANGLE"
	case PerTriangleIndexed:
		return "PER_TRIANGLE_INDEXED"
	case PerStrip:
		return "PER_STRIP"
	case PerStripIndexed:
		return "PER_STRIP_INDEXED"
	case PerRow:
		return "PER_ROW"
	case PerLine:
		return "PER_LINE"
	case PerSegment:
		return "PER_SEGMENT"
	}
	return "UNKNOWN"
}

// IsIndexed reports whether attribute indices come from an index array.
func (b Binding) IsIndexed() bool {
	switch b {
	case PerVertexIndexed, PerFaceIndexed, PerTriangleIndexed, PerStripIndexed:
		return true
	}
	return false
}

// IsPerFace reports whether the binding changes once per face, which is when
// the primitive generator copies the last vertex index backwards.
func (b Binding) IsPerFace() bool {
	switch b {
	case PerFace, PerFaceIndexed, PerTriangle, PerTriangleIndexed:
		return true
	}
	return false
}

// Resolver maps generic bindings for one shape kind onto the bindings that
// kind supports.
type Resolver struct {
	name      string
	supported []Binding
	material  map[state.Binding]Binding
	normal    map[state.Binding]Binding
}

// mapping names the kind specific binding for each group of generic values.
type mapping struct {
	perPart, perPartIdx, perFace, perFaceIdx, perVertexIdx Binding
}

func newResolver(name string, supported []Binding, mp mapping) *Resolver {
	m := map[state.Binding]Binding{
		state.BindOverall:          Overall,
		state.BindPerPart:          mp.perPart,
		state.BindPerPartIndexed:   mp.perPartIdx,
		state.BindPerFace:          mp.perFace,
		state.BindPerFaceIndexed:   mp.perFaceIdx,
		state.BindPerVertex:        PerVertex,
		state.BindPerVertexIndexed: mp.perVertexIdx,
	}
	n := make(map[state.Binding]Binding, len(m)+1)
	for k, v := range m {
		n[k] = v
	}
	m[state.BindDefault] = Overall
	n[state.BindDefault] = mp.perVertexIdx
	return &Resolver{name: name, supported: supported, material: m, normal: n}
}

// Name returns the shape kind the resolver belongs to.
func (r *Resolver) Name() string { return r.name }

// Material resolves the current material binding. Unknown values fall back
// to Overall with a one-time warning.
func (r *Resolver) Material(s *state.State) Binding {
	return r.MaterialFor(state.Get(s, state.MaterialBindingKey))
}

// Normal resolves the current normal binding. Unknown values fall back to
// PerVertex with a one-time warning.
func (r *Resolver) Normal(s *state.State) Binding {
	return r.NormalFor(state.Get(s, state.NormalBindingKey))
}

// MaterialFor resolves a generic material binding value.
func (r *Resolver) MaterialFor(b state.Binding) Binding {
	if v, ok := r.material[b]; ok {
		return v
	}
	logger.WarnOnce(r.name+".materialBinding", "unknown material binding setting",
		zap.String("shape", r.name), zap.Int("binding", int(b)))
	return Overall
}

// NormalFor resolves a generic normal binding value.
func (r *Resolver) NormalFor(b state.Binding) Binding {
	if v, ok := r.normal[b]; ok {
		return v
	}
	logger.WarnOnce(r.name+".normalBinding", "unknown normal binding setting",
		zap.String("shape", r.name), zap.Int("binding", int(b)))
	return PerVertex
}

// Supported returns the bindings declared for the shape kind.
func (r *Resolver) Supported() []Binding { return slices.Clone(r.supported) }

// Resolvers for each shape kind.
var (
	FaceSet = newResolver("FaceSet",
		[]Binding{Overall, PerFace, PerVertex},
		mapping{PerFace, PerFace, PerFace, PerFace, PerVertex})
	LineSet = newResolver("LineSet",
		[]Binding{Overall, PerSegment, PerLine, PerVertex},
		mapping{PerSegment, PerSegment, PerLine, PerLine, PerVertex})
	QuadMesh = newResolver("QuadMesh",
		[]Binding{Overall, PerRow, PerFace, PerVertex},
		mapping{PerRow, PerRow, PerFace, PerFace, PerVertex})
	TriangleStripSet = newResolver("TriangleStripSet",
		[]Binding{Overall, PerStrip, PerTriangle, PerVertex},
		mapping{PerStrip, PerStrip, PerTriangle, PerTriangle, PerVertex})
	IndexedTriangleStripSet = newResolver("IndexedTriangleStripSet",
		[]Binding{Overall, PerStrip, PerStripIndexed, PerTriangle, PerTriangleIndexed, PerVertex, PerVertexIndexed},
		mapping{PerStrip, PerStripIndexed, PerTriangle, PerTriangleIndexed, PerVertexIndexed})
	MarkerSet = newResolver("MarkerSet",
		[]Binding{Overall, PerVertex},
		mapping{PerVertex, PerVertex, PerVertex, PerVertex, PerVertex})
	IndexedMarkerSet = newResolver("IndexedMarkerSet",
		[]Binding{Overall, PerVertex, PerVertexIndexed},
		mapping{PerVertex, PerVertexIndexed, PerVertex, PerVertexIndexed, PerVertexIndexed})
	Nurbs = newResolver("Nurbs",
		[]Binding{Overall, PerVertex},
		mapping{Overall, Overall, Overall, Overall, PerVertex})
)

// All lists every shape kind resolver.
var All = []*Resolver{
	FaceSet, LineSet, QuadMesh, TriangleStripSet, IndexedTriangleStripSet,
	MarkerSet, IndexedMarkerSet, Nurbs,
}
