package bump

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/internal/engine/shader"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Renderer draws a primitive vertex cache with a normal map. It owns the
// normalization cube map, uploaded bump textures and the specular program.
// A Renderer belongs to one graphics context.
type Renderer struct {
	cube     backend.Texture
	textures map[image.Image]backend.Texture

	program     backend.Program
	programDone bool
}

// NewRenderer returns a renderer with no graphics resources allocated.
func NewRenderer() *Renderer {
	return &Renderer{textures: map[image.Image]backend.Texture{}}
}

// ToObject returns the matrix mapping world space into the object space of
// a shape with the given model matrix.
func ToObject(model math.Mat4) math.Mat4 {
	return math.Mat4(mgl32.Mat4(model).Inv())
}

// Supported reports whether the context can run the bump passes.
func Supported(b backend.Backend) bool {
	c := b.Caps()
	return c.TextureUnits >= 2 && c.CubeMaps
}

// Draw renders c lit by every light in s: one diffuse pass per light, added
// together, then a base pass modulating the sum with the material color,
// then the additive specular passes. It returns false when nothing was
// drawn and the caller should render the shape normally.
func (r *Renderer) Draw(s *state.State, b backend.Backend, c *cache.PrimitiveVertexCache) bool {
	if len(c.Triangles) == 0 {
		return false
	}
	if !Supported(b) {
		logger.WarnOnce("bump.unsupported", "bump mapping needs two texture units and cube maps")
		return false
	}
	bump := state.Get(s, state.BumpMapKey)
	if bump == nil {
		return false
	}

	lights := state.Get(s, state.LightsKey)
	toObject := ToObject(state.Get(s, state.ModelMatrixKey))
	mat := state.Get(s, state.MaterialKey)
	specular := mat.Specular != (math.Vec3{}) && b.Caps().Programs

	CalcTangentSpace(c)

	wasLighting := b.IsEnabled(backend.Lighting)
	wasBlend := b.IsEnabled(backend.Blend)
	src, dst := b.BlendFactors()
	b.Disable(backend.Lighting)

	for i, l := range lights {
		if i == 1 {
			b.Enable(backend.Blend)
			b.BlendFunc(backend.One, backend.One)
		}
		r.RenderBump(s, b, c, l, toObject)
	}
	if len(lights) > 0 {
		b.Enable(backend.Blend)
		b.BlendFunc(backend.DstColor, backend.Zero)
	}
	r.RenderNormal(b, c)

	if specular {
		b.Enable(backend.Blend)
		b.BlendFunc(backend.One, backend.One)
		for _, l := range lights {
			r.RenderBumpSpecular(s, b, c, l, toObject)
		}
	}

	b.BlendFunc(src, dst)
	if wasBlend {
		b.Enable(backend.Blend)
	} else {
		b.Disable(backend.Blend)
	}
	if wasLighting {
		b.Enable(backend.Lighting)
	}
	return true
}

// RenderBump draws one diffuse pass for light. Unit 0 holds the normal map,
// unit 1 the normalization cube map fed with tangent space light vectors,
// combined with a dot3 environment. Texture state is restored afterwards.
func (r *Renderer) RenderBump(s *state.State, b backend.Backend, c *cache.PrimitiveVertexCache, light lighting.Light, toObject math.Mat4) {
	if len(c.STangents) != len(c.Vertices) {
		CalcTangentSpace(c)
	}
	lightVecs := TangentLightVectors(c, light.InObjectSpace(toObject))

	unit0 := state.Texture(s, 0)
	unit1 := state.Texture(s, 1)
	bumpMatrix := state.Get(s, state.BumpMatrixKey)

	b.ActiveTexture(0)
	if bumpMatrix != unit0.Matrix {
		loadTextureMatrix(b, bumpMatrix)
	}
	b.Enable(backend.Texture2D)
	b.BindTexture(r.bumpTexture(b, state.Get(s, state.BumpMapKey)))
	b.TexEnv(backend.EnvCombineReplace)

	b.ActiveTexture(1)
	if !unit1.Matrix.IsIdentity() {
		loadTextureMatrix(b, math.Identity())
	}
	b.Enable(backend.TextureCubeMap)
	b.BindCubeMap(r.normalizationCube(b))
	b.TexEnv(backend.EnvCombineDot3)

	b.VertexPointer(c.Vertices)
	b.EnableArray(backend.VertexArray, 0)
	b.TexCoordPointer(0, bumpCoords4(c.BumpCoords))
	b.EnableArray(backend.TexCoordArray, 0)
	b.TexCoordPointer(1, lightVecs)
	b.EnableArray(backend.TexCoordArray, 1)

	b.DrawElements(backend.Triangles, c.Triangles)

	b.DisableArray(backend.TexCoordArray, 1)
	b.DisableArray(backend.TexCoordArray, 0)
	b.DisableArray(backend.VertexArray, 0)

	b.TexEnv(backend.EnvModulate)
	b.Disable(backend.TextureCubeMap)
	if !unit1.Matrix.IsIdentity() {
		loadTextureMatrix(b, unit1.Matrix)
	}
	b.ActiveTexture(0)
	b.TexEnv(backend.EnvModulate)
	if !unit0.Enabled {
		b.Disable(backend.Texture2D)
	}
	if bumpMatrix != unit0.Matrix {
		loadTextureMatrix(b, unit0.Matrix)
	}
}

// RenderNormal draws the base pass with texture coordinates and the
// material colors, a single color when they are uniform.
func (r *Renderer) RenderNormal(b backend.Backend, c *cache.PrimitiveVertexCache) {
	arrays := cache.ArrayTexCoord | cache.ArrayColor
	c.SendFirstColor(b, arrays)
	c.RenderTriangles(b, arrays)
}

// RenderBumpSpecular draws the per-pixel specular highlight of light. It
// does nothing when the context has no programs or the program fails to
// build.
func (r *Renderer) RenderBumpSpecular(s *state.State, b backend.Backend, c *cache.PrimitiveVertexCache, light lighting.Light, toObject math.Mat4) {
	p := r.specularProgram(b)
	if p == 0 {
		return
	}
	if len(c.STangents) != len(c.Vertices) {
		CalcTangentSpace(c)
	}
	mat := state.Get(s, state.MaterialKey)
	src := light.InObjectSpace(toObject)
	eye := toObject.Mul(state.Get(s, state.ViewMatrixKey).Inverse()).TransformPoint(math.Vec3{})

	w := float32(0)
	if src.IsPoint {
		w = 1
	}
	b.UseProgram(p)
	b.Uniform(p, "specular", mat.Specular.Vec4(1))
	b.Uniform(p, "shininess", math.Vec4{mat.Shininess * 64, 0, 0, 1})
	b.Uniform(p, "light", src.Vector.Vec4(w))
	b.Uniform(p, "eye", eye.Vec4(1))

	b.ActiveTexture(0)
	b.Enable(backend.Texture2D)
	b.BindTexture(r.bumpTexture(b, state.Get(s, state.BumpMapKey)))

	b.VertexPointer(c.Vertices)
	b.EnableArray(backend.VertexArray, 0)
	b.NormalPointer(c.Normals)
	b.EnableArray(backend.NormalArray, 0)
	b.TexCoordPointer(0, bumpCoords4(c.BumpCoords))
	b.EnableArray(backend.TexCoordArray, 0)
	b.TexCoordPointer(1, tangents4(c.STangents))
	b.EnableArray(backend.TexCoordArray, 1)
	b.TexCoordPointer(2, tangents4(c.TTangents))
	b.EnableArray(backend.TexCoordArray, 2)

	b.DrawElements(backend.Triangles, c.Triangles)

	b.DisableArray(backend.TexCoordArray, 2)
	b.DisableArray(backend.TexCoordArray, 1)
	b.DisableArray(backend.TexCoordArray, 0)
	b.DisableArray(backend.NormalArray, 0)
	b.DisableArray(backend.VertexArray, 0)
	if !state.Texture(s, 0).Enabled {
		b.Disable(backend.Texture2D)
	}
	b.UseProgram(0)
}

// Release frees every texture and program the renderer created.
func (r *Renderer) Release(b backend.Backend) {
	if r.cube != 0 {
		b.DeleteTexture(r.cube)
		r.cube = 0
	}
	for img, t := range r.textures {
		b.DeleteTexture(t)
		delete(r.textures, img)
	}
	r.program = 0
	r.programDone = false
}

func (r *Renderer) normalizationCube(b backend.Backend) backend.Texture {
	if r.cube != 0 {
		return r.cube
	}
	r.cube = b.GenTexture()
	b.BindCubeMap(r.cube)
	for face := 0; face < 6; face++ {
		b.CubeMapImage(face, NormalizationFace(face))
	}
	return r.cube
}

func (r *Renderer) bumpTexture(b backend.Backend, img image.Image) backend.Texture {
	if t, ok := r.textures[img]; ok {
		return t
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Copy(rgba, rgba.Rect.Min, img, img.Bounds(), draw.Src, nil)
	}
	t := b.GenTexture()
	b.BindTexture(t)
	b.TexImage(rgba, backend.WrapRepeat, backend.WrapRepeat)
	r.textures[img] = t
	return t
}

func (r *Renderer) specularProgram(b backend.Backend) backend.Program {
	if r.programDone {
		return r.program
	}
	r.programDone = true
	if !b.Caps().Programs {
		return 0
	}
	p, err := b.CompileProgram(
		shader.Build(specularVertex, nil),
		shader.Build(specularFragment, nil),
	)
	if err != nil {
		logger.WarnOnce("bump.specular", "specular bump program unavailable", zap.Error(err))
		return 0
	}
	r.program = p
	return p
}

func loadTextureMatrix(b backend.Backend, m math.Mat4) {
	b.MatrixMode(backend.TextureMatrix)
	b.LoadMatrix(m)
	b.MatrixMode(backend.ModelView)
}

func bumpCoords4(in []math.Vec2) []math.Vec4 {
	out := make([]math.Vec4, len(in))
	for i, t := range in {
		out[i] = math.Vec4{t.X, t.Y, 0, 1}
	}
	return out
}

func tangents4(in []math.Vec3) []math.Vec4 {
	out := make([]math.Vec4, len(in))
	for i, t := range in {
		out[i] = t.Vec4(0)
	}
	return out
}
