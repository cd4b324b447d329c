// Package render selects how a shape is drawn for one render call.
package render

import "github.com/Faultbox/shapekit/internal/engine/state"

// Path is the rendering path chosen for one call.
type Path int

const (
	Invisible Path = iota
	CulledByBBox
	BoundingBoxOnly
	SortedTriangles
	BigTexture
	BumpMap
	VertexArray
	// Immediate hands control back to the shape's own immediate-mode body.
	Immediate
)

func (p Path) String() string {
	switch p {
	case Invisible:
		return "invisible"
	case CulledByBBox:
		return "culled"
	case BoundingBoxOnly:
		return "bbox"
	case SortedTriangles:
		return "sorted-triangles"
	case BigTexture:
		return "big-texture"
	case BumpMap:
		return "bump-map"
	case VertexArray:
		return "vertex-array"
	case Immediate:
		return "immediate"
	}
	return "unknown"
}

// Terminal reports whether the shape's own rendering is skipped.
func (p Path) Terminal() bool { return p != Immediate }

// Inputs is everything the selector looks at.
type Inputs struct {
	Style state.Style
	// Culled is true when a valid cached bounding box failed the cull test.
	Culled bool
	// Deferred is true when the caller takes over transparent shapes, for
	// example to draw them in a later pass.
	Deferred bool
	// BigImage is true when unit 0 is enabled with an image larger than the
	// backend's maximum texture size.
	BigImage bool
	Lights   int
}

// Select returns the first matching path.
func Select(in Inputs) Path {
	st := in.Style
	transparent := st.Transparent()
	switch {
	case st.Has(state.StyleInvisible):
		return Invisible
	case in.Culled:
		return CulledByBBox
	case transparent && in.Deferred:
		return Invisible
	case st.Has(state.StyleBBoxCmplx):
		return BoundingBoxOnly
	case transparent && st.Has(state.StyleSortedTriangles):
		return SortedTriangles
	case st.Has(state.StyleBigImage) && in.BigImage:
		return BigTexture
	case st.Has(state.StyleBumpMap) && in.Lights > 0:
		return BumpMap
	case st.Has(state.StyleVertexArray):
		return VertexArray
	}
	return Immediate
}
