package cache

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Arrays selects which per-vertex arrays a render call sends.
type Arrays int

const (
	ArrayNormal Arrays = 1 << iota
	ArrayTexCoord
	ArrayColor
)

// pvKey identifies a unique vertex. Vertices equal in every attribute are
// stored once.
type pvKey struct {
	point    math.Vec3
	normal   math.Vec3
	texCoord math.Vec4
	bump     math.Vec2
	texIndex int
	rgba     uint32
}

// PrimitiveVertexCache holds a shape's tessellated triangles, lines and
// points as flat arrays ready for array or buffer rendering.
type PrimitiveVertexCache struct {
	svc   *Service
	guard Guard

	Vertices   []math.Vec3
	Normals    []math.Vec3
	TexCoords  []math.Vec4
	BumpCoords []math.Vec2
	Colors     []uint32
	// CoordIndex maps each vertex to the coordinate it came from.
	CoordIndex []int

	Triangles []uint32
	Lines     []uint32
	Points    []uint32

	// STangents and TTangents are filled by the bump renderer.
	STangents []math.Vec3
	TTangents []math.Vec3

	colorPerVertex bool
	firstColor     uint32
	hash           map[pvKey]uint32
	material       state.Material
	bumpSource     []math.Vec2

	depth     []float32
	sortPlane math.Plane
	sorted    bool

	vbo vboSet
}

type vboSet struct {
	valid    bool
	vertices backend.Buffer
	normals  backend.Buffer
	texCoord backend.Buffer
	colors   backend.Buffer
	indices  backend.Buffer
}

// NewPrimitiveVertexCache returns an empty cache.
func NewPrimitiveVertexCache(svc *Service) *PrimitiveVertexCache {
	return &PrimitiveVertexCache{svc: svc}
}

// Use runs fn with a cache that is valid for s. When stale, capture is
// called with a sink that records every emitted primitive. The service lock
// is held for the whole capture-and-use window.
func (c *PrimitiveVertexCache) Use(s *state.State, capture func(primitive.Sink), fn func(*PrimitiveVertexCache)) {
	c.svc.Lock()
	defer c.svc.Unlock()
	ran := c.guard.Acquire(s, func() {
		c.reset(s)
		capture(c)
		c.fit()
		logger.Debug("primitive vertex cache captured",
			zap.Int("vertices", len(c.Vertices)),
			zap.Int("triangles", len(c.Triangles)/3),
			zap.Int("lines", len(c.Lines)/2),
			zap.Int("points", len(c.Points)))
	})
	c.svc.record(!ran)
	defer c.guard.Release()
	fn(c)
}

// Invalidate drops the captured primitives.
func (c *PrimitiveVertexCache) Invalidate() { c.guard.Invalidate() }

// IsValid reports whether the cache is valid for s.
func (c *PrimitiveVertexCache) IsValid(s *state.State) bool { return c.guard.IsValid(s) }

func (c *PrimitiveVertexCache) reset(s *state.State) {
	c.Vertices = c.Vertices[:0]
	c.Normals = c.Normals[:0]
	c.TexCoords = c.TexCoords[:0]
	c.BumpCoords = c.BumpCoords[:0]
	c.Colors = c.Colors[:0]
	c.CoordIndex = c.CoordIndex[:0]
	c.Triangles = c.Triangles[:0]
	c.Lines = c.Lines[:0]
	c.Points = c.Points[:0]
	c.STangents = nil
	c.TTangents = nil
	c.colorPerVertex = false
	c.hash = map[pvKey]uint32{}
	c.material = state.Get(s, state.MaterialKey)
	c.firstColor = c.material.RGBA(0)
	c.bumpSource = state.Get(s, state.BumpCoordsKey)
	c.depth = nil
	c.sorted = false
	c.vbo.valid = false
}

func (c *PrimitiveVertexCache) fit() {
	c.hash = nil
}

// ColorPerVertex reports whether vertices differ in color.
func (c *PrimitiveVertexCache) ColorPerVertex() bool { return c.colorPerVertex }

func (c *PrimitiveVertexCache) add(v *primitive.Vertex) uint32 {
	col := c.material.RGBA(v.MaterialIndex)
	if col != c.firstColor {
		c.colorPerVertex = true
	}
	k := pvKey{
		point:    v.Point,
		normal:   v.Normal,
		texCoord: v.TexCoord,
		bump:     math.Vec2{X: v.TexCoord[0], Y: v.TexCoord[1]},
		texIndex: v.TexCoordIndex,
		rgba:     col,
	}
	if n := len(c.bumpSource); n > 0 {
		k.bump = c.bumpSource[max(0, min(v.TexCoordIndex, n-1))]
	}
	if idx, ok := c.hash[k]; ok {
		return idx
	}
	idx := uint32(len(c.Vertices))
	c.hash[k] = idx
	c.Vertices = append(c.Vertices, k.point)
	c.Normals = append(c.Normals, k.normal)
	c.TexCoords = append(c.TexCoords, k.texCoord)
	c.BumpCoords = append(c.BumpCoords, k.bump)
	c.Colors = append(c.Colors, col)
	c.CoordIndex = append(c.CoordIndex, v.CoordIndex)
	return idx
}

// Triangle implements primitive.Sink.
func (c *PrimitiveVertexCache) Triangle(a, b, cc *primitive.Vertex, _ primitive.Detail) {
	c.Triangles = append(c.Triangles, c.add(a), c.add(b), c.add(cc))
}

// Line implements primitive.Sink.
func (c *PrimitiveVertexCache) Line(a, b *primitive.Vertex, _ primitive.Detail) {
	c.Lines = append(c.Lines, c.add(a), c.add(b))
}

// Point implements primitive.Sink.
func (c *PrimitiveVertexCache) Point(v *primitive.Vertex, _ primitive.Detail) {
	c.Points = append(c.Points, c.add(v))
}

// DepthSort orders triangles back to front along plane, which is given in
// object space. Sorting is skipped when the plane has not changed since the
// last sort.
func (c *PrimitiveVertexCache) DepthSort(plane math.Plane) {
	numTri := len(c.Triangles) / 3
	if len(c.Vertices) == 0 || numTri == 0 {
		return
	}
	if c.sorted && plane == c.sortPlane {
		return
	}
	c.sorted = true
	c.sortPlane = plane
	if len(c.depth) != numTri {
		c.depth = make([]float32, numTri)
	}
	idx := c.Triangles
	for i := 0; i < numTri; i++ {
		var acc float32
		for j := 0; j < 3; j++ {
			acc += plane.SignedDistance(c.Vertices[idx[i*3+j]])
		}
		c.depth[i] = acc / 3
	}
	// Shell sort, ascending distance.
	d := c.depth
	gap := 1
	for gap <= numTri/9 {
		gap = 3*gap + 1
	}
	for ; gap > 0; gap /= 3 {
		for i := gap; i < numTri; i++ {
			dt := d[i]
			t0, t1, t2 := idx[i*3], idx[i*3+1], idx[i*3+2]
			j := i
			for j >= gap && d[j-gap] > dt {
				d[j] = d[j-gap]
				idx[j*3], idx[j*3+1], idx[j*3+2] = idx[(j-gap)*3], idx[(j-gap)*3+1], idx[(j-gap)*3+2]
				j -= gap
			}
			d[j] = dt
			idx[j*3], idx[j*3+1], idx[j*3+2] = t0, t1, t2
		}
	}
	c.vbo.valid = false
}

// UseVBO reports whether triangles render from buffer objects.
func (c *PrimitiveVertexCache) UseVBO(b backend.Backend) bool {
	return b.Caps().VBO && len(c.Vertices) >= c.svc.Config().VBOMinVertices
}

// FirstColor returns the packed color of material index 0 at capture time.
func (c *PrimitiveVertexCache) FirstColor() uint32 { return c.firstColor }

// SendFirstColor sets the current color to the material color when colors
// are requested but uniform, so the draw calls do not need a color array.
// It reports whether a color was sent.
func (c *PrimitiveVertexCache) SendFirstColor(b backend.Backend, arrays Arrays) bool {
	if arrays&ArrayColor == 0 || c.colorPerVertex {
		return false
	}
	b.Color(c.firstColor)
	return true
}

// RenderTriangles draws the cached triangles with the selected arrays,
// using buffer objects for large caches, client arrays when available, and
// immediate mode otherwise.
func (c *PrimitiveVertexCache) RenderTriangles(b backend.Backend, arrays Arrays) {
	if len(c.Triangles) == 0 {
		return
	}
	color := c.colorPerVertex && arrays&ArrayColor != 0
	normal := arrays&ArrayNormal != 0
	texture := arrays&ArrayTexCoord != 0
	switch {
	case c.UseVBO(b):
		c.uploadVBO(b)
		c.enableVBO(b, color, normal, texture)
		b.DrawBufferedElements(backend.Triangles, len(c.Triangles))
		c.disable(b, color, normal, texture)
		b.BindBuffer(backend.ArrayBuffer, 0)
		b.BindBuffer(backend.ElementBuffer, 0)
	case b.Caps().VertexArrays:
		c.enableArrays(b, color, normal, texture)
		b.DrawElements(backend.Triangles, c.Triangles)
		c.disable(b, color, normal, texture)
	default:
		c.renderImmediate(b, backend.Triangles, c.Triangles, color, normal, texture)
	}
}

// RenderLines draws the cached line segments.
func (c *PrimitiveVertexCache) RenderLines(b backend.Backend, arrays Arrays) {
	c.renderSimple(b, backend.Lines, c.Lines, arrays)
}

// RenderPoints draws the cached points.
func (c *PrimitiveVertexCache) RenderPoints(b backend.Backend, arrays Arrays) {
	c.renderSimple(b, backend.Points, c.Points, arrays)
}

func (c *PrimitiveVertexCache) renderSimple(b backend.Backend, m backend.Mode, indices []uint32, arrays Arrays) {
	if len(indices) == 0 {
		return
	}
	color := c.colorPerVertex && arrays&ArrayColor != 0
	normal := arrays&ArrayNormal != 0
	texture := arrays&ArrayTexCoord != 0
	if b.Caps().VertexArrays {
		c.enableArrays(b, color, normal, texture)
		b.DrawElements(m, indices)
		c.disable(b, color, normal, texture)
		return
	}
	c.renderImmediate(b, m, indices, color, normal, texture)
}

func (c *PrimitiveVertexCache) enableArrays(b backend.Backend, color, normal, texture bool) {
	if color {
		b.ColorPointer(c.Colors)
		b.EnableArray(backend.ColorArray, 0)
	}
	if texture {
		b.TexCoordPointer(0, c.TexCoords)
		b.EnableArray(backend.TexCoordArray, 0)
	}
	if normal {
		b.NormalPointer(c.Normals)
		b.EnableArray(backend.NormalArray, 0)
	}
	b.VertexPointer(c.Vertices)
	b.EnableArray(backend.VertexArray, 0)
}

func (c *PrimitiveVertexCache) disable(b backend.Backend, color, normal, texture bool) {
	if normal {
		b.DisableArray(backend.NormalArray, 0)
	}
	if texture {
		b.DisableArray(backend.TexCoordArray, 0)
	}
	if color {
		b.DisableArray(backend.ColorArray, 0)
	}
	b.DisableArray(backend.VertexArray, 0)
}

func (c *PrimitiveVertexCache) uploadVBO(b backend.Backend) {
	if c.vbo.valid {
		return
	}
	if c.vbo.vertices == 0 {
		c.vbo.vertices = b.GenBuffer()
		c.vbo.normals = b.GenBuffer()
		c.vbo.texCoord = b.GenBuffer()
		c.vbo.colors = b.GenBuffer()
		c.vbo.indices = b.GenBuffer()
	}
	b.BufferData(backend.ArrayBuffer, c.vbo.vertices, c.Vertices)
	b.BufferData(backend.ArrayBuffer, c.vbo.normals, c.Normals)
	b.BufferData(backend.ArrayBuffer, c.vbo.texCoord, c.TexCoords)
	b.BufferData(backend.ArrayBuffer, c.vbo.colors, backend.ColorBytes(c.Colors))
	b.BufferData(backend.ElementBuffer, c.vbo.indices, c.Triangles)
	c.vbo.valid = true
}

func (c *PrimitiveVertexCache) enableVBO(b backend.Backend, color, normal, texture bool) {
	if color {
		b.BindBuffer(backend.ArrayBuffer, c.vbo.colors)
		b.ColorPointer(nil)
		b.EnableArray(backend.ColorArray, 0)
	}
	if texture {
		b.BindBuffer(backend.ArrayBuffer, c.vbo.texCoord)
		b.TexCoordPointer(0, nil)
		b.EnableArray(backend.TexCoordArray, 0)
	}
	if normal {
		b.BindBuffer(backend.ArrayBuffer, c.vbo.normals)
		b.NormalPointer(nil)
		b.EnableArray(backend.NormalArray, 0)
	}
	b.BindBuffer(backend.ArrayBuffer, c.vbo.vertices)
	b.VertexPointer(nil)
	b.EnableArray(backend.VertexArray, 0)
	b.BindBuffer(backend.ElementBuffer, c.vbo.indices)
}

// ReleaseBuffers deletes the buffer objects. Call it with a current context
// before dropping the cache.
func (c *PrimitiveVertexCache) ReleaseBuffers(b backend.Backend) {
	if c.vbo.vertices == 0 {
		return
	}
	for _, buf := range []backend.Buffer{c.vbo.vertices, c.vbo.normals, c.vbo.texCoord, c.vbo.colors, c.vbo.indices} {
		b.DeleteBuffer(buf)
	}
	c.vbo = vboSet{}
}

func (c *PrimitiveVertexCache) renderImmediate(b backend.Backend, m backend.Mode, indices []uint32, color, normal, texture bool) {
	b.Begin(m)
	for _, i := range indices {
		if color {
			b.Color(c.Colors[i])
		}
		if texture {
			b.TexCoord(0, c.TexCoords[i])
		}
		if normal {
			b.Normal(c.Normals[i])
		}
		b.Vertex(c.Vertices[i])
	}
	b.End()
}
