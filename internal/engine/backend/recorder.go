package backend

import (
	"fmt"
	"image"
	"strings"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Call is one recorded backend call.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Recorder is a Backend that records calls and tracks enable state without
// a graphics context.
type Recorder struct {
	Capabilities Caps
	Calls        []Call

	enabled  map[Cap]bool
	blend    [2]BlendFactor
	next     uint32
	programs map[Program][2]string
	// CompileErr, when set, is returned by CompileProgram.
	CompileErr error
}

// NewRecorder returns a recorder reporting full capabilities.
func NewRecorder() *Recorder {
	return &Recorder{
		Capabilities: Caps{
			VertexArrays:   true,
			VBO:            true,
			TextureUnits:   4,
			CubeMaps:       true,
			Programs:       true,
			MaxTextureSize: 2048,
			MaxClipPlanes:  6,
		},
		enabled:  map[Cap]bool{},
		blend:    [2]BlendFactor{One, Zero},
		programs: map[Program][2]string{},
	}
}

func (r *Recorder) rec(name string, args ...any) {
	r.Calls = append(r.Calls, Call{Name: name, Args: args})
}

// Reset forgets recorded calls but keeps enable state.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Count returns how many calls named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Names returns the recorded call names in order.
func (r *Recorder) Names() []string {
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.Name
	}
	return out
}

// Find returns the recorded calls named name.
func (r *Recorder) Find(name string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Caps() Caps { return r.Capabilities }

func (r *Recorder) Enable(c Cap) {
	r.enabled[c] = true
	r.rec("Enable", c)
}

func (r *Recorder) Disable(c Cap) {
	r.enabled[c] = false
	r.rec("Disable", c)
}

func (r *Recorder) IsEnabled(c Cap) bool { return r.enabled[c] }

func (r *Recorder) Begin(m Mode)                   { r.rec("Begin", m) }
func (r *Recorder) End()                           { r.rec("End") }
func (r *Recorder) Vertex(p math.Vec3)             { r.rec("Vertex", p) }
func (r *Recorder) Normal(n math.Vec3)             { r.rec("Normal", n) }
func (r *Recorder) TexCoord(unit int, t math.Vec4) { r.rec("TexCoord", unit, t) }
func (r *Recorder) Color(rgba uint32)              { r.rec("Color", rgba) }

func (r *Recorder) VertexPointer(p []math.Vec3)             { r.rec("VertexPointer", len(p)) }
func (r *Recorder) NormalPointer(n []math.Vec3)             { r.rec("NormalPointer", len(n)) }
func (r *Recorder) TexCoordPointer(unit int, t []math.Vec4) { r.rec("TexCoordPointer", unit, len(t)) }
func (r *Recorder) ColorPointer(rgba []uint32)              { r.rec("ColorPointer", len(rgba)) }
func (r *Recorder) EnableArray(a Array, unit int)           { r.rec("EnableArray", a, unit) }
func (r *Recorder) DisableArray(a Array, unit int)          { r.rec("DisableArray", a, unit) }

func (r *Recorder) DrawElements(m Mode, indices []uint32) {
	r.rec("DrawElements", m, append([]uint32(nil), indices...))
}

func (r *Recorder) DrawBufferedElements(m Mode, count int) { r.rec("DrawBufferedElements", m, count) }
func (r *Recorder) DrawArrays(m Mode, first, count int)    { r.rec("DrawArrays", m, first, count) }

func (r *Recorder) GenBuffer() Buffer {
	r.next++
	r.rec("GenBuffer", r.next)
	return Buffer(r.next)
}

func (r *Recorder) BufferData(t Target, b Buffer, data any) { r.rec("BufferData", t, b) }
func (r *Recorder) BindBuffer(t Target, b Buffer)           { r.rec("BindBuffer", t, b) }
func (r *Recorder) DeleteBuffer(b Buffer)                   { r.rec("DeleteBuffer", b) }

func (r *Recorder) MatrixMode(m MatrixMode) { r.rec("MatrixMode", m) }
func (r *Recorder) PushMatrix()             { r.rec("PushMatrix") }
func (r *Recorder) PopMatrix()              { r.rec("PopMatrix") }
func (r *Recorder) LoadMatrix(m math.Mat4)  { r.rec("LoadMatrix", m) }
func (r *Recorder) ActiveTexture(unit int)  { r.rec("ActiveTexture", unit) }
func (r *Recorder) BindTexture(t Texture)   { r.rec("BindTexture", t) }
func (r *Recorder) BindCubeMap(t Texture)   { r.rec("BindCubeMap", t) }
func (r *Recorder) DeleteTexture(t Texture) { r.rec("DeleteTexture", t) }
func (r *Recorder) TexEnv(e TexEnv)         { r.rec("TexEnv", e) }
func (r *Recorder) RasterPos(x, y float32)  { r.rec("RasterPos", x, y) }
func (r *Recorder) UseProgram(p Program)    { r.rec("UseProgram", p) }
func (r *Recorder) BlendFunc(s, d BlendFactor) {
	r.blend = [2]BlendFactor{s, d}
	r.rec("BlendFunc", s, d)
}

// BlendFactors returns the last blend function set, initially One, Zero
// like a fresh context.
func (r *Recorder) BlendFactors() (src, dst BlendFactor) { return r.blend[0], r.blend[1] }

func (r *Recorder) GenTexture() Texture {
	r.next++
	r.rec("GenTexture", r.next)
	return Texture(r.next)
}

func (r *Recorder) TexImage(img *image.RGBA, wrapS, wrapT Wrap) {
	r.rec("TexImage", img.Rect.Dx(), img.Rect.Dy(), wrapS, wrapT)
}

func (r *Recorder) CubeMapImage(face int, img *image.RGBA) {
	r.rec("CubeMapImage", face, img.Rect.Dx())
}

func (r *Recorder) Bitmap(width, height int, xorig, yorig float32, bits []byte) {
	r.rec("Bitmap", width, height, xorig, yorig)
}

func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (Program, error) {
	if r.CompileErr != nil {
		return 0, r.CompileErr
	}
	r.next++
	p := Program(r.next)
	r.programs[p] = [2]string{vertexSrc, fragmentSrc}
	r.rec("CompileProgram", p)
	return p, nil
}

func (r *Recorder) Uniform(p Program, name string, v math.Vec4) { r.rec("Uniform", p, name, v) }

var _ Backend = (*Recorder)(nil)
var _ Backend = (*GL)(nil)
