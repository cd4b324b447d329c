package state

import (
	"image"

	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Binding is the generic attribute binding set by material and normal
// binding nodes. Shapes translate it into their own binding subset.
type Binding int

const (
	BindOverall Binding = iota
	BindPerPart
	BindPerPartIndexed
	BindPerFace
	BindPerFaceIndexed
	BindPerVertex
	BindPerVertexIndexed
	// BindDefault asks the shape for its preferred binding.
	BindDefault
)

// Bindings lists every generic binding value.
var Bindings = []Binding{
	BindOverall, BindPerPart, BindPerPartIndexed, BindPerFace,
	BindPerFaceIndexed, BindPerVertex, BindPerVertexIndexed, BindDefault,
}

func (b Binding) String() string {
	switch b {
	case BindOverall:
		return "OVERALL"
	case BindPerPart:
		return "PER_PART"
	case BindPerPartIndexed:
		return "PER_PART_INDEXED"
	case BindPerFace:
		return "PER_FACE"
	case BindPerFaceIndexed:
		return "PER_FACE_INDEXED"
	case BindPerVertex:
		return "PER_VERTEX"
	case BindPerVertexIndexed:
		return "PER_VERTEX_INDEXED"
	case BindDefault:
		return "DEFAULT"
	}
	return "UNKNOWN"
}

// Coordinates is the coordinate source shapes read vertices from. Either the
// 3D or the homogeneous 4D array is populated.
type Coordinates struct {
	Points3 []math.Vec3
	Points4 []math.Vec4
}

// Count returns the number of coordinates.
func (c *Coordinates) Count() int {
	if c == nil {
		return 0
	}
	if c.Points4 != nil {
		return len(c.Points4)
	}
	return len(c.Points3)
}

// Is3D reports whether the coordinates are plain 3D points.
func (c *Coordinates) Is3D() bool {
	return c == nil || c.Points4 == nil
}

// Get3 returns coordinate i as a 3D point, dividing homogeneous points by w.
func (c *Coordinates) Get3(i int) math.Vec3 {
	if c.Points4 != nil {
		return c.Points4[i].Project()
	}
	return c.Points3[i]
}

// Get4 returns coordinate i as a homogeneous point.
func (c *Coordinates) Get4(i int) math.Vec4 {
	if c.Points4 != nil {
		return c.Points4[i]
	}
	return c.Points3[i].Vec4(1)
}

// VertexOrdering is the winding declared by shape hints.
type VertexOrdering int

const (
	UnknownOrdering VertexOrdering = iota
	Clockwise
	CounterClockwise
)

// ShapeType is the solidity declared by shape hints.
type ShapeType int

const (
	UnknownShapeType ShapeType = iota
	Solid
)

// FaceType is the face convexity declared by shape hints.
type FaceType int

const (
	UnknownFaceType FaceType = iota
	Convex
)

// ShapeHints declares properties of the geometry that allow faster processing.
type ShapeHints struct {
	Ordering VertexOrdering
	Shape    ShapeType
	Face     FaceType
}

// CCW reports whether normals should assume counterclockwise winding. Unknown
// ordering is treated as counterclockwise.
func (h ShapeHints) CCW() bool {
	return h.Ordering != Clockwise
}

// ComplexityType selects how Complexity.Value is interpreted.
type ComplexityType int

const (
	ObjectSpace ComplexityType = iota
	ScreenSpace
	BoundingBoxComplexity
)

// Complexity controls tessellation density.
type Complexity struct {
	Type  ComplexityType
	Value float32 // 0..1
}

// DrawStyle selects how shapes are drawn.
type DrawStyle int

const (
	Filled DrawStyle = iota
	Lines
	Points
	Invisible
)

// Material holds the lazily sent material values. Diffuse and Transparency
// are indexed by the material index of each vertex.
type Material struct {
	Diffuse      []math.Vec3
	Transparency []float32
	Specular     math.Vec3
	Shininess    float32
}

// RGBA returns material i packed as 0xRRGGBBAA, clamping i to the last entry.
func (m Material) RGBA(i int) uint32 {
	d := math.Vec3{X: 0.8, Y: 0.8, Z: 0.8}
	if n := len(m.Diffuse); n > 0 {
		d = m.Diffuse[clampIndex(i, n)]
	}
	var tr float32
	if n := len(m.Transparency); n > 0 {
		tr = m.Transparency[clampIndex(i, n)]
	}
	return packColor(d.X, d.Y, d.Z, 1-tr)
}

// IsTransparent reports whether any material has non-zero transparency.
func (m Material) IsTransparent() bool {
	for _, t := range m.Transparency {
		if t > 0 {
			return true
		}
	}
	return false
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func packColor(r, g, b, a float32) uint32 {
	c := func(v float32) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint32(v*255 + 0.5)
	}
	return c(r)<<24 | c(g)<<16 | c(b)<<8 | c(a)
}

// TexCoords is the texture coordinate source. When Function is set the
// coordinates are computed from position and normal instead.
type TexCoords struct {
	Coords   []math.Vec4
	Function func(p, n math.Vec3) math.Vec4
}

// IsFunction reports whether coordinates are generated by a function.
func (t *TexCoords) IsFunction() bool {
	return t != nil && t.Function != nil
}

// Get returns texture coordinate i.
func (t *TexCoords) Get(i int) math.Vec4 {
	if t == nil || len(t.Coords) == 0 {
		return math.Vec4{0, 0, 0, 1}
	}
	return t.Coords[clampIndex(i, len(t.Coords))]
}

// Wrap is a texture wrap mode.
type Wrap int

const (
	Repeat Wrap = iota
	Clamp
)

// TextureUnit is the state of one texture unit.
type TextureUnit struct {
	Enabled bool
	Matrix  math.Mat4
	WrapS   Wrap
	WrapT   Wrap
	// Image is the bound 2D image, nil for none.
	Image image.Image
	// Quality is the texture quality in [0, 1]. Big images use it to pick
	// tile resolution.
	Quality float32
}

// Viewport is the viewport size in pixels.
type Viewport struct {
	Width, Height int
}

// Cull holds the view volume planes (world space, pointing inwards) that
// shapes are culled against.
type Cull struct {
	Planes []math.Plane
}

// CullTest reports whether box (object space, transformed by model) lies
// completely outside any plane. The second result reports whether the box
// is completely inside all planes.
func (c Cull) CullTest(box math.Box3, model math.Mat4) (outside, inside bool) {
	if len(c.Planes) == 0 || box.IsEmpty() {
		return false, true
	}
	world := box.Transform(model)
	inside = true
	for _, pl := range c.Planes {
		if pl.BoxOutside(world) {
			return true, false
		}
		for _, corner := range world.Corners() {
			if !pl.IsInHalfSpace(corner) {
				inside = false
				break
			}
		}
	}
	return false, inside
}

// Standard elements.
var (
	CoordinatesKey      = NewKey[*Coordinates]("coordinates", nil)
	NormalsKey          = NewKey[[]math.Vec3]("normals", nil)
	TexCoordsKey        = NewKey[*TexCoords]("texcoords", nil)
	MaterialKey         = NewKey("material", Material{})
	MaterialBindingKey  = NewKey("materialBinding", BindOverall)
	NormalBindingKey    = NewKey("normalBinding", BindPerVertexIndexed)
	ShapeHintsKey       = NewKey("shapeHints", ShapeHints{})
	CreaseAngleKey      = NewKey[float32]("creaseAngle", 0)
	ComplexityKey       = NewKey("complexity", Complexity{Type: ObjectSpace, Value: 0.5})
	DrawStyleKey        = NewKey("drawStyle", Filled)
	LightsKey           = NewKey[[]lighting.Light]("lights", nil)
	ModelMatrixKey      = NewKey("modelMatrix", math.Identity())
	ViewMatrixKey       = NewKey("viewMatrix", math.Identity())
	ProjectionMatrixKey = NewKey("projectionMatrix", math.Identity())
	ViewportKey         = NewKey("viewport", Viewport{Width: 640, Height: 480})
	CullKey             = NewKey("cull", Cull{})
	TextureUnitsKey     = NewKey[[]TextureUnit]("textureUnits", nil)
	StyleKey            = NewKey[Style]("shapeStyle", 0)
	// BumpCoordsKey holds explicit bump-map coordinates, indexed like
	// texture coordinates. When empty, texture unit 0 coordinates are used.
	BumpCoordsKey = NewKey[[]math.Vec2]("bumpCoords", nil)
	// BumpMapKey is the normal map used by the bump-map path.
	BumpMapKey    = NewKey[image.Image]("bumpMap", nil)
	BumpMatrixKey = NewKey("bumpMatrix", math.Identity())
)

// Texture returns texture unit u, or a disabled unit with identity matrix.
func Texture(s *State, u int) TextureUnit {
	units := Get(s, TextureUnitsKey)
	if u < len(units) {
		return units[u]
	}
	return TextureUnit{Matrix: math.Identity()}
}

// ViewPlane returns the plane through the eye facing the viewer, in world
// space. Distances to it grow toward the viewer, so ascending distance is
// back to front.
func ViewPlane(s *State) math.Plane {
	inv := Get(s, ViewMatrixKey).Inverse()
	eye := inv.TransformPoint(math.Vec3{})
	dir := inv.TransformDirection(math.Vec3{Z: -1}).Normalize()
	return math.NewPlane(dir.Neg(), eye)
}
