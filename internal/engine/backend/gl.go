package backend

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v2.1/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/shader"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// GL issues calls to the current OpenGL compatibility context.
type GL struct {
	caps Caps
	// colors keeps the byte-swapped color array alive until the next call.
	colors []byte
}

// NewGL initializes the OpenGL function pointers and queries the context.
// IMPORTANT: Must be called AFTER the OpenGL context is made current!
func NewGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))

	var units, texSize, planes int32
	gl.GetIntegerv(gl.MAX_TEXTURE_UNITS, &units)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &texSize)
	gl.GetIntegerv(gl.MAX_CLIP_PLANES, &planes)

	b := &GL{caps: Caps{
		VertexArrays:   true,
		VBO:            true,
		TextureUnits:   int(units),
		CubeMaps:       true,
		Programs:       true,
		MaxTextureSize: int(texSize),
		MaxClipPlanes:  int(planes),
	}}
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
		zap.Int("textureUnits", b.caps.TextureUnits),
		zap.Int("maxTextureSize", b.caps.MaxTextureSize),
	)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return b, nil
}

func (b *GL) Caps() Caps { return b.caps }

func glCap(c Cap) uint32 {
	if c >= ClipPlane0 {
		return gl.CLIP_PLANE0 + uint32(c-ClipPlane0)
	}
	switch c {
	case Lighting:
		return gl.LIGHTING
	case Blend:
		return gl.BLEND
	case DepthTest:
		return gl.DEPTH_TEST
	case Texture2D:
		return gl.TEXTURE_2D
	case TextureCubeMap:
		return gl.TEXTURE_CUBE_MAP
	case ColorMaterial:
		return gl.COLOR_MATERIAL
	}
	return 0
}

func glMode(m Mode) uint32 {
	switch m {
	case TriangleStrip:
		return gl.TRIANGLE_STRIP
	case TriangleFan:
		return gl.TRIANGLE_FAN
	case Lines:
		return gl.LINES
	case LineStrip:
		return gl.LINE_STRIP
	case Points:
		return gl.POINTS
	}
	return gl.TRIANGLES
}

func glFactor(f BlendFactor) uint32 {
	switch f {
	case One:
		return gl.ONE
	case DstColor:
		return gl.DST_COLOR
	case SrcAlpha:
		return gl.SRC_ALPHA
	case OneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	}
	return gl.ZERO
}

// factorFromGL maps a queried blend factor back. Factors the renderer never
// sets read as Zero.
func factorFromGL(v int32) BlendFactor {
	switch uint32(v) {
	case gl.ONE:
		return One
	case gl.DST_COLOR:
		return DstColor
	case gl.SRC_ALPHA:
		return SrcAlpha
	case gl.ONE_MINUS_SRC_ALPHA:
		return OneMinusSrcAlpha
	}
	return Zero
}

func glWrap(w Wrap) int32 {
	if w == WrapClamp {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func (b *GL) Enable(c Cap)         { gl.Enable(glCap(c)) }
func (b *GL) Disable(c Cap)        { gl.Disable(glCap(c)) }
func (b *GL) IsEnabled(c Cap) bool { return gl.IsEnabled(glCap(c)) }
func (b *GL) Begin(m Mode)         { gl.Begin(glMode(m)) }
func (b *GL) End()                 { gl.End() }
func (b *GL) Vertex(p math.Vec3)   { gl.Vertex3f(p.X, p.Y, p.Z) }
func (b *GL) Normal(n math.Vec3)   { gl.Normal3f(n.X, n.Y, n.Z) }

func (b *GL) MatrixMode(m MatrixMode) {
	switch m {
	case Projection:
		gl.MatrixMode(gl.PROJECTION)
	case TextureMatrix:
		gl.MatrixMode(gl.TEXTURE)
	default:
		gl.MatrixMode(gl.MODELVIEW)
	}
}

func (b *GL) PushMatrix()            { gl.PushMatrix() }
func (b *GL) PopMatrix()             { gl.PopMatrix() }
func (b *GL) LoadMatrix(m math.Mat4) { gl.LoadMatrixf(m.Ptr()) }
func (b *GL) RasterPos(x, y float32) { gl.RasterPos2f(x, y) }
func (b *GL) UseProgram(p Program)   { gl.UseProgram(uint32(p)) }
func (b *GL) BlendFunc(src, dst BlendFactor) {
	gl.BlendFunc(glFactor(src), glFactor(dst))
}

func (b *GL) BlendFactors() (src, dst BlendFactor) {
	var s, d int32
	gl.GetIntegerv(gl.BLEND_SRC, &s)
	gl.GetIntegerv(gl.BLEND_DST, &d)
	return factorFromGL(s), factorFromGL(d)
}

func (b *GL) TexCoord(unit int, t math.Vec4) {
	gl.MultiTexCoord4f(gl.TEXTURE0+uint32(unit), t[0], t[1], t[2], t[3])
}

func (b *GL) Color(rgba uint32) {
	gl.Color4ub(uint8(rgba>>24), uint8(rgba>>16), uint8(rgba>>8), uint8(rgba))
}

func (b *GL) VertexPointer(p []math.Vec3) {
	gl.VertexPointer(3, gl.FLOAT, 0, ptr(p))
}

func (b *GL) NormalPointer(n []math.Vec3) {
	gl.NormalPointer(gl.FLOAT, 0, ptr(n))
}

func (b *GL) TexCoordPointer(unit int, t []math.Vec4) {
	gl.ClientActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.TexCoordPointer(4, gl.FLOAT, 0, ptr(t))
	gl.ClientActiveTexture(gl.TEXTURE0)
}

// ColorPointer takes colors packed as 0xRRGGBBAA. They are byte swapped
// into memory order before upload.
func (b *GL) ColorPointer(rgba []uint32) {
	if rgba == nil {
		gl.ColorPointer(4, gl.UNSIGNED_BYTE, 0, nil)
		return
	}
	b.colors = ColorBytes(rgba)
	gl.ColorPointer(4, gl.UNSIGNED_BYTE, 0, gl.Ptr(b.colors))
}

// ColorBytes unpacks 0xRRGGBBAA colors into RGBA byte order.
func ColorBytes(rgba []uint32) []byte {
	out := make([]byte, len(rgba)*4)
	for i, c := range rgba {
		out[i*4] = byte(c >> 24)
		out[i*4+1] = byte(c >> 16)
		out[i*4+2] = byte(c >> 8)
		out[i*4+3] = byte(c)
	}
	return out
}

func glArray(a Array) uint32 {
	switch a {
	case NormalArray:
		return gl.NORMAL_ARRAY
	case ColorArray:
		return gl.COLOR_ARRAY
	case TexCoordArray:
		return gl.TEXTURE_COORD_ARRAY
	}
	return gl.VERTEX_ARRAY
}

func (b *GL) EnableArray(a Array, unit int) {
	gl.ClientActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.EnableClientState(glArray(a))
	gl.ClientActiveTexture(gl.TEXTURE0)
}

func (b *GL) DisableArray(a Array, unit int) {
	gl.ClientActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.DisableClientState(glArray(a))
	gl.ClientActiveTexture(gl.TEXTURE0)
}

func (b *GL) DrawElements(m Mode, indices []uint32) {
	if len(indices) == 0 {
		return
	}
	gl.DrawElements(glMode(m), int32(len(indices)), gl.UNSIGNED_INT, gl.Ptr(indices))
}

func (b *GL) DrawBufferedElements(m Mode, count int) {
	gl.DrawElements(glMode(m), int32(count), gl.UNSIGNED_INT, nil)
}

func (b *GL) DrawArrays(m Mode, first, count int) {
	gl.DrawArrays(glMode(m), int32(first), int32(count))
}

func (b *GL) GenBuffer() Buffer {
	var id uint32
	gl.GenBuffers(1, &id)
	return Buffer(id)
}

func glTarget(t Target) uint32 {
	if t == ElementBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

// BufferData binds b and uploads data, which must be one of []math.Vec3,
// []math.Vec4, []uint32 (indices) or []byte.
func (b *GL) BufferData(t Target, buf Buffer, data any) {
	var size int
	var p unsafe.Pointer
	switch d := data.(type) {
	case []math.Vec3:
		size, p = len(d)*12, ptr(d)
	case []math.Vec4:
		size, p = len(d)*16, ptr(d)
	case []uint32:
		size, p = len(d)*4, ptr(d)
	case []byte:
		size, p = len(d), ptr(d)
	default:
		logger.WarnOnce("backend.bufferData", "unsupported buffer data type", zap.String("type", fmt.Sprintf("%T", data)))
		return
	}
	gl.BindBuffer(glTarget(t), uint32(buf))
	gl.BufferData(glTarget(t), size, p, gl.STATIC_DRAW)
}

func (b *GL) BindBuffer(t Target, buf Buffer) { gl.BindBuffer(glTarget(t), uint32(buf)) }

func (b *GL) DeleteBuffer(buf Buffer) {
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

func (b *GL) ActiveTexture(unit int) { gl.ActiveTexture(gl.TEXTURE0 + uint32(unit)) }

func (b *GL) GenTexture() Texture {
	var id uint32
	gl.GenTextures(1, &id)
	return Texture(id)
}

func (b *GL) BindTexture(t Texture) { gl.BindTexture(gl.TEXTURE_2D, uint32(t)) }
func (b *GL) BindCubeMap(t Texture) { gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(t)) }

func (b *GL) TexImage(img *image.RGBA, wrapS, wrapT Wrap) {
	size := img.Rect.Size()
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(wrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(wrapT))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(size.X), int32(size.Y), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
}

func (b *GL) CubeMapImage(face int, img *image.RGBA) {
	size := img.Rect.Size()
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.RGBA,
		int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
}

func (b *GL) DeleteTexture(t Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (b *GL) TexEnv(e TexEnv) {
	switch e {
	case EnvCombineReplace:
		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.COMBINE)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_RGB, gl.REPLACE)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_RGB, gl.TEXTURE)
	case EnvCombineDot3:
		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.COMBINE)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_RGB, gl.DOT3_RGB)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_RGB, gl.TEXTURE)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_RGB, gl.SRC_COLOR)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_RGB, gl.PREVIOUS)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_RGB, gl.SRC_COLOR)
	default:
		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.MODULATE)
	}
}

func (b *GL) Bitmap(width, height int, xorig, yorig float32, bits []byte) {
	if len(bits) == 0 {
		return
	}
	gl.Bitmap(int32(width), int32(height), xorig, yorig, 0, 0, &bits[0])
}

func (b *GL) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	p, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, err
	}
	return Program(p), nil
}

func (b *GL) Uniform(p Program, name string, v math.Vec4) {
	loc := shader.UniformLocation(uint32(p), name)
	if loc < 0 {
		return
	}
	gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
}

func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}
