// Package renderer drives one frame of a scene: camera setup, an opaque
// pass and a blended pass for transparent shapes.
package renderer

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/camera"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/internal/engine/render"
	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Surface prepares the framebuffer and fixed-function state of a frame.
type Surface interface {
	Begin(width, height int, view math.Mat4, lights []lighting.Light)
}

type nopSurface struct{}

func (nopSurface) Begin(int, int, math.Mat4, []lighting.Light) {}

// Stats describes one rendered frame. Paths counts render calls by path;
// transparent shapes are called once per pass.
type Stats struct {
	Frame   int
	Paths   map[render.Path]int
	Redraw  bool
	Elapsed time.Duration
}

// Renderer draws scenes through a backend.
type Renderer struct {
	b       backend.Backend
	svc     *cache.Service
	ctx     *shape.Context
	surface Surface
	frame   int
}

// New returns a renderer drawing through b. surface may be nil when the
// caller prepares the framebuffer itself.
func New(b backend.Backend, svc *cache.Service, surface Surface) *Renderer {
	if surface == nil {
		surface = nopSurface{}
	}
	return &Renderer{b: b, svc: svc, ctx: shape.NewContext(svc.Config()), surface: surface}
}

// Context returns the graphics resources shared by the shapes.
func (r *Renderer) Context() *shape.Context { return r.ctx }

// Close releases the graphics resources held for the shapes.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("frames", r.frame))
	r.ctx.Release(r.b)
}

// Frame draws sc seen from cam into a width x height viewport. Opaque
// shapes are drawn first with transparent ones deferred, then the
// transparent shapes are drawn with blending on.
func (r *Renderer) Frame(sc *scene.Scene, cam *camera.OrbitCamera, width, height int) Stats {
	start := time.Now()
	r.frame++
	s := state.New()
	cam.Apply(s, width, height)
	view := state.Get(s, state.ViewMatrixKey)
	r.surface.Begin(width, height, view, sc.Lights())

	r.b.MatrixMode(backend.Projection)
	r.b.LoadMatrix(state.Get(s, state.ProjectionMatrixKey))
	r.b.MatrixMode(backend.ModelView)

	st := Stats{Frame: r.frame, Paths: map[render.Path]int{}}
	act := shape.NewRenderAction(s, r.svc, r.b, r.ctx)
	draw := func(it *scene.Item) {
		r.b.LoadMatrix(view.Mul(state.Get(s, state.ModelMatrixKey)))
		st.Paths[shape.GLRender(act, it.Shape)]++
	}

	act.Deferred = true
	sc.Visit(s, draw)

	act.Deferred = false
	r.b.Enable(backend.Blend)
	r.b.BlendFunc(backend.SrcAlpha, backend.OneMinusSrcAlpha)
	sc.Visit(s, func(it *scene.Item) {
		if scene.Transparent(s) {
			draw(it)
		}
	})
	r.b.Disable(backend.Blend)

	st.Redraw = act.RedrawRequested
	st.Elapsed = time.Since(start)
	if r.frame == 1 || st.Redraw {
		logger.Debug("frame rendered",
			zap.Int("frame", st.Frame),
			zap.Any("paths", pathNames(st.Paths)),
			zap.Bool("redraw", st.Redraw),
			zap.Duration("elapsed", st.Elapsed),
		)
	}
	return st
}

func pathNames(p map[render.Path]int) map[string]int {
	out := make(map[string]int, len(p))
	for k, v := range p {
		out[k.String()] = v
	}
	return out
}
