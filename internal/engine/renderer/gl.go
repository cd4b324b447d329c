package renderer

import (
	"image"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/Faultbox/shapekit/internal/engine/debug"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/pkg/math"
)

// maxGLLights is the number of fixed-function lights every context has.
const maxGLLights = 8

// GLSurface clears the current OpenGL context and loads the scene lights
// into the fixed-function pipeline.
type GLSurface struct {
	ClearColor [4]float32
}

// NewGLSurface enables depth testing and material tracking on the current
// context. IMPORTANT: the OpenGL functions must be initialized first.
func NewGLSurface() *GLSurface {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.NORMALIZE)
	gl.ColorMaterial(gl.FRONT_AND_BACK, gl.AMBIENT_AND_DIFFUSE)
	gl.Enable(gl.COLOR_MATERIAL)
	gl.LightModeli(gl.LIGHT_MODEL_TWO_SIDE, gl.TRUE)
	return &GLSurface{ClearColor: [4]float32{0.1, 0.1, 0.15, 1}}
}

// Begin implements Surface.
func (g *GLSurface) Begin(width, height int, view math.Mat4, lights []lighting.Light) {
	gl.Viewport(0, 0, int32(width), int32(height))
	c := g.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	// light positions are transformed by the modelview current at the call
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadMatrixf(view.Ptr())
	for i := 0; i < maxGLLights; i++ {
		id := uint32(gl.LIGHT0 + i)
		if i >= len(lights) {
			gl.Disable(id)
			continue
		}
		pos, col := glLight(lights[i])
		gl.Lightfv(id, gl.POSITION, &pos[0])
		gl.Lightfv(id, gl.DIFFUSE, &col[0])
		gl.Enable(id)
	}
	if len(lights) > 0 {
		gl.Enable(gl.LIGHTING)
	} else {
		gl.Disable(gl.LIGHTING)
	}
}

// glLight returns the homogeneous position and diffuse color of l. A
// directional light is a position at infinity opposite its direction.
func glLight(l lighting.Light) (pos, col [4]float32) {
	c := l.Color.Scale(l.Intensity)
	col = [4]float32{c.X, c.Y, c.Z, 1}
	if l.Kind == lighting.Directional {
		d := l.Transform.TransformDirection(l.Direction).Neg()
		return [4]float32{d.X, d.Y, d.Z, 0}, col
	}
	p := l.Transform.TransformPoint(l.Location)
	return [4]float32{p.X, p.Y, p.Z, 1}, col
}

// Capture reads the back buffer into a top-down image.
func Capture(width, height int) (*image.RGBA, error) {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return debug.FromPixels(pixels, width, height)
}
