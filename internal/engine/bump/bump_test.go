package bump

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

func texVtx(x, y float32) *primitive.Vertex {
	return &primitive.Vertex{
		Point:    math.Vec3{X: x, Y: y},
		Normal:   math.Vec3{Z: 1},
		TexCoord: math.Vec4{x, y, 0, 1},
	}
}

// withQuad runs fn with a cache holding a unit quad in the XY plane whose
// texture coordinates equal its XY position.
func withQuad(t *testing.T, s *state.State, fn func(c *cache.PrimitiveVertexCache)) {
	t.Helper()
	svc := cache.NewService(config.RenderConfig{BBoxCalibration: time.Nanosecond, VBOMinVertices: 64})
	pv := cache.NewPrimitiveVertexCache(svc)
	pv.Use(s, func(sink primitive.Sink) {
		a, b, c, d := texVtx(0, 0), texVtx(1, 0), texVtx(1, 1), texVtx(0, 1)
		sink.Triangle(a, b, c, primitive.Detail{})
		sink.Triangle(a, c, d, primitive.Detail{})
	}, fn)
}

func bumpState(lights ...lighting.Light) *state.State {
	s := state.New()
	state.Set(s, state.BumpMapKey, image.Image(image.NewRGBA(image.Rect(0, 0, 4, 4))))
	state.Set(s, state.LightsKey, lights)
	return s
}

func TestCalcTangentSpacePlanarQuad(t *testing.T) {
	withQuad(t, state.New(), func(c *cache.PrimitiveVertexCache) {
		CalcTangentSpace(c)
		require.Len(t, c.STangents, 4)
		for i := range c.Vertices {
			assert.True(t, c.STangents[i].Equals(math.Vec3{X: 1}, 1e-5), "s tangent %d: %v", i, c.STangents[i])
			assert.True(t, c.TTangents[i].Equals(math.Vec3{Y: -1}, 1e-5), "t tangent %d: %v", i, c.TTangents[i])
		}
	})
}

func TestTangentLightVectors(t *testing.T) {
	withQuad(t, state.New(), func(c *cache.PrimitiveVertexCache) {
		CalcTangentSpace(c)

		overhead := lighting.NewDirectional(math.Vec3{Z: -1}).InObjectSpace(math.Identity())
		for _, v := range TangentLightVectors(c, overhead) {
			assert.InDelta(t, 1, v[2], 1e-5)
			assert.InDelta(t, 0, v[0], 1e-5)
		}

		side := lighting.NewPoint(math.Vec3{X: 10}).InObjectSpace(math.Identity())
		vecs := TangentLightVectors(c, side)
		assert.Greater(t, vecs[0][0], float32(0.99))
	})
}

func TestToObjectInvertsModel(t *testing.T) {
	model := math.Translate(1, 2, 3).Mul(math.Scale(2, 2, 2))
	p := math.Vec3{X: 5, Y: -1, Z: 4}
	back := ToObject(model).TransformPoint(model.TransformPoint(p))
	assert.True(t, back.Equals(p, 1e-4), "%v", back)
}

func TestNormalizationFaceEncodesAxis(t *testing.T) {
	img := NormalizationFace(4) // +Z
	c := img.RGBAAt(16, 16)
	assert.InDelta(t, 128, int(c.R), 6)
	assert.InDelta(t, 128, int(c.G), 6)
	assert.Equal(t, uint8(255), c.B)
}

func TestDrawOnePassPerLight(t *testing.T) {
	s := bumpState(lighting.NewDirectional(math.Vec3{Z: -1}), lighting.NewPoint(math.Vec3{Z: 5}))
	b := backend.NewRecorder()
	b.Enable(backend.Lighting)
	r := NewRenderer()

	withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
		require.True(t, r.Draw(s, b, c))
	})

	assert.Equal(t, 6, b.Count("CubeMapImage"))
	assert.Equal(t, 1, b.Count("TexImage"))
	// Two diffuse passes and the base pass; no specular material.
	assert.Equal(t, 3, b.Count("DrawElements"))
	assert.Equal(t, 0, b.Count("UseProgram"))
	assert.Contains(t, b.Names(), "BlendFunc")
	assert.True(t, b.IsEnabled(backend.Lighting))
	assert.False(t, b.IsEnabled(backend.Blend))
	src, dst := b.BlendFactors()
	assert.Equal(t, [2]backend.BlendFactor{backend.One, backend.Zero}, [2]backend.BlendFactor{src, dst})
	assert.False(t, b.IsEnabled(backend.TextureCubeMap))
	assert.False(t, b.IsEnabled(backend.Texture2D))

	b.Reset()
	withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
		require.True(t, r.Draw(s, b, c))
	})
	assert.Equal(t, 0, b.Count("CubeMapImage"))
	assert.Equal(t, 0, b.Count("TexImage"))

	r.Release(b)
	assert.Equal(t, 2, b.Count("DeleteTexture"))
}

func TestDrawSpecularPass(t *testing.T) {
	s := bumpState(lighting.NewDirectional(math.Vec3{Z: -1}))
	state.Set(s, state.MaterialKey, state.Material{Specular: math.Vec3{X: 1, Y: 1, Z: 1}, Shininess: 0.5})
	b := backend.NewRecorder()
	r := NewRenderer()

	withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
		require.True(t, r.Draw(s, b, c))
	})
	assert.Equal(t, 1, b.Count("CompileProgram"))
	assert.Equal(t, 3, b.Count("DrawElements"))

	var shininess math.Vec4
	for _, call := range b.Find("Uniform") {
		if call.Args[1] == "shininess" {
			shininess = call.Args[2].(math.Vec4)
		}
	}
	assert.InDelta(t, 32, shininess[0], 1e-5)
	assert.Equal(t, backend.Program(0), b.Find("UseProgram")[1].Args[0])
}

func TestDrawPassOrder(t *testing.T) {
	s := bumpState(lighting.NewDirectional(math.Vec3{Z: -1}), lighting.NewPoint(math.Vec3{Z: 5}))
	mat := state.Material{Diffuse: []math.Vec3{{X: 1}}, Specular: math.Vec3{X: 1, Y: 1, Z: 1}, Shininess: 0.2}
	state.Set(s, state.MaterialKey, mat)
	b := backend.NewRecorder()
	b.Enable(backend.Blend)
	b.BlendFunc(backend.SrcAlpha, backend.OneMinusSrcAlpha)
	b.Reset()

	withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
		require.True(t, NewRenderer().Draw(s, b, c))
	})

	// diffuse sum, base modulation, specular sum, then the entry function
	var blends [][2]backend.BlendFactor
	for _, call := range b.Find("BlendFunc") {
		blends = append(blends, [2]backend.BlendFactor{call.Args[0].(backend.BlendFactor), call.Args[1].(backend.BlendFactor)})
	}
	assert.Equal(t, [][2]backend.BlendFactor{
		{backend.One, backend.One},
		{backend.DstColor, backend.Zero},
		{backend.One, backend.One},
		{backend.SrcAlpha, backend.OneMinusSrcAlpha},
	}, blends)

	// The base pass draws in the material color, after the modulating blend
	// and before any specular program runs.
	colorAt, modulateAt, programAt := -1, -1, -1
	for i, call := range b.Calls {
		switch {
		case call.Name == "Color" && colorAt < 0:
			colorAt = i
			assert.Equal(t, mat.RGBA(0), call.Args[0])
		case call.Name == "BlendFunc" && call.Args[0] == backend.DstColor:
			modulateAt = i
		case call.Name == "UseProgram" && call.Args[0] != backend.Program(0) && programAt < 0:
			programAt = i
		}
	}
	require.NotEqual(t, -1, colorAt, b.Names())
	assert.Equal(t, 1, b.Count("Color"))
	assert.Less(t, modulateAt, colorAt)
	assert.Less(t, colorAt, programAt)
	// two diffuse, one base, two specular
	assert.Equal(t, 5, b.Count("DrawElements"))
	assert.True(t, b.IsEnabled(backend.Blend), "blending was on before the draw")
}

func TestDrawSpecularFallsBackWhenProgramFails(t *testing.T) {
	logger.ResetOnce()
	s := bumpState(lighting.NewDirectional(math.Vec3{Z: -1}))
	state.Set(s, state.MaterialKey, state.Material{Specular: math.Vec3{X: 1}})
	b := backend.NewRecorder()
	b.CompileErr = errors.New("no glsl")
	r := NewRenderer()

	for i := 0; i < 2; i++ {
		withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
			require.True(t, r.Draw(s, b, c))
		})
	}
	assert.Equal(t, 1, logger.OnceCount("bump.specular"))
	assert.Equal(t, 0, b.Count("UseProgram"))
}

func TestDrawDeclines(t *testing.T) {
	logger.ResetOnce()
	b := backend.NewRecorder()
	r := NewRenderer()

	t.Run("no triangles", func(t *testing.T) {
		s := bumpState()
		svc := cache.NewService(config.RenderConfig{})
		pv := cache.NewPrimitiveVertexCache(svc)
		pv.Use(s, func(primitive.Sink) {}, func(c *cache.PrimitiveVertexCache) {
			assert.False(t, r.Draw(s, b, c))
		})
	})

	t.Run("single texture unit", func(t *testing.T) {
		b.Capabilities.TextureUnits = 1
		defer func() { b.Capabilities.TextureUnits = 4 }()
		s := bumpState(lighting.NewDirectional(math.Vec3{Z: -1}))
		withQuad(t, s, func(c *cache.PrimitiveVertexCache) {
			assert.False(t, r.Draw(s, b, c))
		})
		assert.Equal(t, 1, logger.OnceCount("bump.unsupported"))
	})
}
