// Package shape implements the vertex-based shape kinds and the render,
// primitive generation, bounding box and primitive count actions run on
// them.
//
// Shapes are shared between traversals. Their caches are safe for
// concurrent use, but the exported fields must not be changed while a
// traversal runs; call Touch after changing them.
package shape

import (
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Kind names a shape kind.
type Kind int

const (
	KindFaceSet Kind = iota
	KindLineSet
	KindQuadMesh
	KindTriangleStripSet
	KindIndexedTriangleStripSet
	KindMarkerSet
	KindIndexedMarkerSet
	KindNurbsCurve
	KindIndexedNurbsCurve
	KindNurbsSurface
	KindIndexedNurbsSurface
)

var kindNames = [...]string{
	KindFaceSet:                 "FaceSet",
	KindLineSet:                 "LineSet",
	KindQuadMesh:                "QuadMesh",
	KindTriangleStripSet:        "TriangleStripSet",
	KindIndexedTriangleStripSet: "IndexedTriangleStripSet",
	KindMarkerSet:               "MarkerSet",
	KindIndexedMarkerSet:        "IndexedMarkerSet",
	KindNurbsCurve:              "NurbsCurve",
	KindIndexedNurbsCurve:       "IndexedNurbsCurve",
	KindNurbsSurface:            "NurbsSurface",
	KindIndexedNurbsSurface:     "IndexedNurbsSurface",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// BoundingBoxProvider computes a shape's object space bounds and centroid.
type BoundingBoxProvider interface {
	ComputeBBox(s *state.State) (box math.Box3, center math.Vec3, ok bool)
}

// BindingResolver maps the generic bindings in the state to the subset the
// shape supports.
type BindingResolver interface {
	MaterialBinding(s *state.State) binding.Binding
	NormalBinding(s *state.State) binding.Binding
}

// PrimitiveEmitter walks a shape's arrays and emits its primitives.
type PrimitiveEmitter interface {
	GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status
}

// Shape is implemented by every shape kind.
type Shape interface {
	BoundingBoxProvider
	BindingResolver
	PrimitiveEmitter

	Kind() Kind
	// DefaultNormals computes normals for the current normal binding when
	// the state supplies none. ok is false when the shape cannot produce
	// normals, for example on malformed input.
	DefaultNormals(s *state.State) (n cache.Normals, ok bool)
	// CountPrimitives returns the primitives the shape would emit.
	CountPrimitives(act *Action) primitive.Counter

	base() *Base
}

// immediateRenderer is implemented by shapes with their own immediate mode
// body instead of drawing generated primitives.
type immediateRenderer interface {
	RenderImmediate(act *Action)
}

// ownRenderer is implemented by shapes that never use the cached vertex
// array paths.
type ownRenderer interface {
	immediateRenderer
	ownRendering()
}

// VertexProperty overrides the state's vertex data for one shape.
type VertexProperty struct {
	Coordinates *state.Coordinates
	Normals     []math.Vec3
	TexCoords   *state.TexCoords
	Material    *state.Material
	// MaterialBinding and NormalBinding are used when non-nil.
	MaterialBinding *state.Binding
	NormalBinding   *state.Binding
}

// Base carries the caches and the vertex property shared by all kinds.
type Base struct {
	// VertexProperty, when set, replaces the state's vertex data.
	VertexProperty *VertexProperty

	gen     uint64
	svc     *cache.Service
	bbox    *cache.BBoxCache
	pv      *cache.PrimitiveVertexCache
	normals *cache.NormalCache
	onTouch func()
}

func newBase(svc *cache.Service) Base {
	return Base{
		gen:     state.NextID(),
		svc:     svc,
		bbox:    cache.NewBBoxCache(svc),
		pv:      cache.NewPrimitiveVertexCache(svc),
		normals: cache.NewNormalCache(svc),
	}
}

func (b *Base) base() *Base { return b }

// Touch marks the shape changed, dropping every cache derived from it.
func (b *Base) Touch() {
	b.gen = state.NextID()
	b.bbox.Invalidate()
	b.pv.Invalidate()
	b.normals.Invalidate()
	if b.onTouch != nil {
		b.onTouch()
	}
}

// enter pushes the state and installs the vertex property under the
// shape's generation. The returned function pops the state.
func (b *Base) enter(s *state.State) func() {
	s.Push()
	if vp := b.VertexProperty; vp != nil {
		if vp.Coordinates != nil {
			state.SetNode(s, state.CoordinatesKey, vp.Coordinates, b.gen)
		}
		if vp.Normals != nil {
			state.SetNode(s, state.NormalsKey, vp.Normals, b.gen)
		}
		if vp.TexCoords != nil {
			state.SetNode(s, state.TexCoordsKey, vp.TexCoords, b.gen)
		}
		if vp.Material != nil {
			state.SetNode(s, state.MaterialKey, *vp.Material, b.gen)
		}
		if vp.MaterialBinding != nil {
			state.SetNode(s, state.MaterialBindingKey, *vp.MaterialBinding, b.gen)
		}
		if vp.NormalBinding != nil {
			state.SetNode(s, state.NormalBindingKey, *vp.NormalBinding, b.gen)
		}
	}
	return s.Pop
}

// GenerateDefaultNormals fills the normal cache of sh for s and reports
// whether normals were produced.
func GenerateDefaultNormals(s *state.State, sh Shape) bool {
	b := sh.base()
	pop := b.enter(s)
	defer pop()
	n, release := b.normalsFor(s, sh)
	release()
	return len(n.Normals) > 0
}

// normalsFor returns the cached default normals of sh. The caller must
// call release when done.
func (b *Base) normalsFor(s *state.State, sh Shape) (cache.Normals, func()) {
	return b.normals.Get(s, func(s *state.State) cache.Normals {
		n, ok := sh.DefaultNormals(s)
		if !ok {
			return cache.Normals{}
		}
		return n
	})
}
