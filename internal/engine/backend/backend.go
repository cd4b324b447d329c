// Package backend abstracts the fixed-function graphics calls issued by the
// shape rendering paths. GL drives a compatibility-profile OpenGL context;
// Recorder captures calls for tests.
package backend

import (
	"image"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Mode is a primitive assembly mode for draw calls.
type Mode int

const (
	Triangles Mode = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	Points
)

// Array is a client-side vertex array.
type Array int

const (
	VertexArray Array = iota
	NormalArray
	ColorArray
	TexCoordArray
)

// Cap is a server-side capability toggled with Enable and Disable.
type Cap int

const (
	Lighting Cap = iota
	Blend
	DepthTest
	Texture2D
	TextureCubeMap
	ColorMaterial
	// ClipPlane0 is the first clip plane; plane i is ClipPlane0 + Cap(i).
	ClipPlane0 Cap = 100
)

// ClipPlane returns the capability for clip plane i.
func ClipPlane(i int) Cap { return ClipPlane0 + Cap(i) }

// MatrixMode selects the matrix stack.
type MatrixMode int

const (
	ModelView MatrixMode = iota
	Projection
	TextureMatrix
)

// BlendFactor is a blend function factor.
type BlendFactor int

const (
	Zero BlendFactor = iota
	One
	DstColor
	SrcAlpha
	OneMinusSrcAlpha
)

// TexEnv is a texture environment setup for the active unit.
type TexEnv int

const (
	// EnvModulate multiplies the texture with the fragment color.
	EnvModulate TexEnv = iota
	// EnvCombineReplace outputs the texture color unchanged.
	EnvCombineReplace
	// EnvCombineDot3 outputs dot3(texture, previous unit).
	EnvCombineDot3
)

// Target is a buffer object binding point.
type Target int

const (
	ArrayBuffer Target = iota
	ElementBuffer
)

// Buffer is a buffer object name. Zero unbinds.
type Buffer uint32

// Texture is a texture object name.
type Texture uint32

// Program is a linked shader program. Zero is the fixed-function pipeline.
type Program uint32

// Wrap is a texture wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// Caps lists the optional features of a context.
type Caps struct {
	VertexArrays   bool
	VBO            bool
	TextureUnits   int
	CubeMaps       bool
	Programs       bool
	MaxTextureSize int
	MaxClipPlanes  int
}

// Backend is the set of graphics calls the renderer needs. Vertex pointers
// passed with a nil slice refer to offset zero of the bound array buffer.
type Backend interface {
	Caps() Caps

	Enable(c Cap)
	Disable(c Cap)
	IsEnabled(c Cap) bool

	Begin(m Mode)
	End()
	Vertex(p math.Vec3)
	Normal(n math.Vec3)
	TexCoord(unit int, t math.Vec4)
	Color(rgba uint32)

	VertexPointer(p []math.Vec3)
	NormalPointer(n []math.Vec3)
	TexCoordPointer(unit int, t []math.Vec4)
	ColorPointer(rgba []uint32)
	EnableArray(a Array, unit int)
	DisableArray(a Array, unit int)
	DrawElements(m Mode, indices []uint32)
	DrawBufferedElements(m Mode, count int)
	DrawArrays(m Mode, first, count int)

	GenBuffer() Buffer
	BufferData(t Target, b Buffer, data any)
	BindBuffer(t Target, b Buffer)
	DeleteBuffer(b Buffer)

	MatrixMode(m MatrixMode)
	PushMatrix()
	PopMatrix()
	LoadMatrix(m math.Mat4)

	ActiveTexture(unit int)
	GenTexture() Texture
	BindTexture(t Texture)
	BindCubeMap(t Texture)
	TexImage(img *image.RGBA, wrapS, wrapT Wrap)
	CubeMapImage(face int, img *image.RGBA)
	DeleteTexture(t Texture)
	TexEnv(e TexEnv)

	BlendFunc(src, dst BlendFactor)
	// BlendFactors returns the current blend function.
	BlendFactors() (src, dst BlendFactor)

	RasterPos(x, y float32)
	Bitmap(width, height int, xorig, yorig float32, bits []byte)

	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	UseProgram(p Program)
	Uniform(p Program, name string, v math.Vec4)
}
