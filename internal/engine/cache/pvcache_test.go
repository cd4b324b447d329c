package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func vtx(x, y, z float32, mat int) *primitive.Vertex {
	return &primitive.Vertex{Point: math.Vec3{X: x, Y: y, Z: z}, Normal: math.Vec3{Z: 1}, MaterialIndex: mat}
}

// quadCapture emits a unit quad as two triangles sharing an edge.
func quadCapture(sink primitive.Sink) {
	a, b, c, d := vtx(0, 0, 0, 0), vtx(1, 0, 0, 0), vtx(1, 1, 0, 0), vtx(0, 1, 0, 0)
	sink.Triangle(a, b, c, primitive.Detail{})
	sink.Triangle(a, c, d, primitive.Detail{Face: 1})
	sink.Line(a, b, primitive.Detail{})
	sink.Point(d, primitive.Detail{})
}

func TestPrimitiveVertexCacheDeduplicates(t *testing.T) {
	svc := newTestService()
	c := NewPrimitiveVertexCache(svc)
	s := state.New()

	captures := 0
	capture := func(sink primitive.Sink) {
		captures++
		quadCapture(sink)
	}
	c.Use(s, capture, func(c *PrimitiveVertexCache) {
		assert.Len(t, c.Vertices, 4)
		assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, c.Triangles)
		assert.Equal(t, []uint32{0, 1}, c.Lines)
		assert.Equal(t, []uint32{3}, c.Points)
		assert.False(t, c.ColorPerVertex())
	})
	c.Use(s, capture, func(*PrimitiveVertexCache) {})
	assert.Equal(t, 1, captures)

	c.Invalidate()
	c.Use(s, capture, func(*PrimitiveVertexCache) {})
	assert.Equal(t, 2, captures)
}

func TestPrimitiveVertexCacheColors(t *testing.T) {
	s := state.New()
	state.Set(s, state.MaterialKey, state.Material{
		Diffuse: []math.Vec3{{X: 1}, {Y: 1}},
	})
	c := NewPrimitiveVertexCache(newTestService())
	c.Use(s, func(sink primitive.Sink) {
		// Same point with a different material is a different vertex.
		sink.Triangle(vtx(0, 0, 0, 0), vtx(1, 0, 0, 1), vtx(0, 0, 0, 1), primitive.Detail{})
	}, func(c *PrimitiveVertexCache) {
		assert.Len(t, c.Vertices, 3)
		assert.True(t, c.ColorPerVertex())
		assert.Equal(t, uint32(0xff0000ff), c.Colors[0])
		assert.Equal(t, uint32(0x00ff00ff), c.Colors[1])
	})
}

func TestDepthSortBackToFront(t *testing.T) {
	c := NewPrimitiveVertexCache(newTestService())
	s := state.New()
	tri := func(sink primitive.Sink, z float32) {
		sink.Triangle(vtx(0, 0, z, 0), vtx(1, 0, z, 0), vtx(0, 1, z, 0), primitive.Detail{})
	}
	c.Use(s, func(sink primitive.Sink) {
		tri(sink, -1)
		tri(sink, -5)
		tri(sink, -3)
		tri(sink, -4)
	}, func(c *PrimitiveVertexCache) {
		c.DepthSort(state.ViewPlane(s))
		var zs []float32
		for i := 0; i < len(c.Triangles); i += 3 {
			zs = append(zs, c.Vertices[c.Triangles[i]].Z)
		}
		assert.Equal(t, []float32{-5, -4, -3, -1}, zs)

		// Same plane again leaves the order alone.
		c.Triangles[0], c.Triangles[3] = c.Triangles[3], c.Triangles[0]
		c.DepthSort(state.ViewPlane(s))
		assert.NotEqual(t, float32(-5), c.Vertices[c.Triangles[0]].Z)
	})
}

func TestRenderPathsByCapability(t *testing.T) {
	s := state.New()
	svc := newTestService()

	tests := []struct {
		name   string
		caps   func(*backend.Caps)
		min    int
		expect string
	}{
		{"buffer objects", func(*backend.Caps) {}, 1, "DrawBufferedElements"},
		{"below buffer threshold", func(*backend.Caps) {}, 1000, "DrawElements"},
		{"client arrays", func(c *backend.Caps) { c.VBO = false }, 1, "DrawElements"},
		{"immediate", func(c *backend.Caps) { c.VBO, c.VertexArrays = false, false }, 1, "Begin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.cfg.VBOMinVertices = tt.min
			rec := backend.NewRecorder()
			tt.caps(&rec.Capabilities)
			c := NewPrimitiveVertexCache(svc)
			c.Use(s, quadCapture, func(c *PrimitiveVertexCache) {
				c.RenderTriangles(rec, ArrayNormal|ArrayColor)
			})
			require.Equal(t, 1, rec.Count(tt.expect), rec.Names())
			assert.Zero(t, rec.Count("ColorPointer"), "uniform color needs no color array")
		})
	}
}

func TestRenderImmediateSendsAttributes(t *testing.T) {
	rec := backend.NewRecorder()
	rec.Capabilities.VBO = false
	rec.Capabilities.VertexArrays = false
	c := NewPrimitiveVertexCache(newTestService())
	c.Use(state.New(), quadCapture, func(c *PrimitiveVertexCache) {
		c.RenderLines(rec, ArrayNormal|ArrayTexCoord)
	})
	assert.Equal(t, 2, rec.Count("Vertex"))
	assert.Equal(t, 2, rec.Count("Normal"))
	assert.Equal(t, 2, rec.Count("TexCoord"))
	assert.Equal(t, 1, rec.Count("End"))
}

func TestSendFirstColor(t *testing.T) {
	s := state.New()
	red := state.Material{Diffuse: []math.Vec3{{X: 1}}, Transparency: []float32{0.5}}
	state.Set(s, state.MaterialKey, red)

	c := NewPrimitiveVertexCache(newTestService())
	c.Use(s, quadCapture, func(c *PrimitiveVertexCache) {
		rec := backend.NewRecorder()
		assert.False(t, c.SendFirstColor(rec, ArrayNormal), "colors not requested")
		assert.Zero(t, rec.Count("Color"))

		require.True(t, c.SendFirstColor(rec, ArrayNormal|ArrayColor))
		calls := rec.Find("Color")
		require.Len(t, calls, 1)
		assert.Equal(t, red.RGBA(0), calls[0].Args[0])
		assert.Equal(t, red.RGBA(0), c.FirstColor())
	})

	state.Set(s, state.MaterialKey, state.Material{Diffuse: []math.Vec3{{X: 1}, {Y: 1}}})
	perVertex := NewPrimitiveVertexCache(newTestService())
	perVertex.Use(s, func(sink primitive.Sink) {
		sink.Triangle(vtx(0, 0, 0, 0), vtx(1, 0, 0, 1), vtx(0, 1, 0, 1), primitive.Detail{})
	}, func(c *PrimitiveVertexCache) {
		rec := backend.NewRecorder()
		assert.False(t, c.SendFirstColor(rec, ArrayColor), "per vertex colors use the color array")
		c.RenderTriangles(rec, ArrayColor)
		assert.Equal(t, 1, rec.Count("ColorPointer"))
	})
}
