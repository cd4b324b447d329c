package shape

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/bigtexture"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/debug"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/render"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// GLRender draws sh with the path chosen for the current state and
// returns that path. Only the chosen path's side effects happen.
func GLRender(act *Action, sh Shape) render.Path {
	s, b := act.State, act.Backend
	base := sh.base()
	pop := base.enter(s)
	defer pop()

	unit0 := state.Texture(s, 0)
	in := render.Inputs{
		Style:    state.Get(s, state.StyleKey),
		Deferred: act.Deferred,
		Lights:   len(state.Get(s, state.LightsKey)),
		BigImage: unit0.Enabled && unit0.Image != nil &&
			bigtexture.IsBig(unit0.Image, b.Caps().MaxTextureSize),
	}
	if box, ok := base.bbox.Cached(s); ok {
		in.Culled, _ = state.Get(s, state.CullKey).CullTest(box, state.Get(s, state.ModelMatrixKey))
	}
	path := render.Select(in)
	if _, own := sh.(ownRenderer); own {
		switch path {
		case render.SortedTriangles, render.BigTexture, render.BumpMap, render.VertexArray:
			path = render.Immediate
		}
	}

	switch path {
	case render.BoundingBoxOnly:
		renderBBox(act, sh)
	case render.SortedTriangles:
		renderSorted(act, sh)
	case render.BigTexture:
		renderBigTexture(act, sh, unit0)
	case render.BumpMap:
		if !renderBump(act, sh) {
			path = render.Immediate
			renderImmediate(act, sh)
		}
	case render.VertexArray:
		renderArrays(act, sh)
	case render.Immediate:
		renderImmediate(act, sh)
	}
	return path
}

// GeneratePrimitives emits the primitives of sh into sink.
func GeneratePrimitives(act *Action, sh Shape, sink primitive.Sink) primitive.Status {
	pop := sh.base().enter(act.State)
	defer pop()
	return sh.GeneratePrimitives(act, sink)
}

// BoundingBox returns the object space box and centroid of sh, using the
// shape's bounding box cache.
func BoundingBox(act *Action, sh Shape) (math.Box3, math.Vec3, bool) {
	pop := sh.base().enter(act.State)
	defer pop()
	return sh.base().bbox.Get(act.State, sh.ComputeBBox)
}

// CountPrimitives returns the primitives sh would emit.
func CountPrimitives(act *Action, sh Shape) primitive.Counter {
	pop := sh.base().enter(act.State)
	defer pop()
	return sh.CountPrimitives(act)
}

// countByGenerating counts by running the shape's generator.
func countByGenerating(act *Action, sh Shape) primitive.Counter {
	var c primitive.Counter
	sh.GeneratePrimitives(act, &c)
	return c
}

func capture(act *Action, sh Shape) func(primitive.Sink) {
	return func(sink primitive.Sink) {
		if st := sh.GeneratePrimitives(act, sink); st != primitive.StatusOK {
			logger.Debug("shape produced no primitives for the vertex cache",
				zap.Stringer("shape", sh.Kind()), zap.Stringer("status", st))
		}
	}
}

func cacheArrays(s *state.State) cache.Arrays {
	arrays := cache.ArrayNormal | cache.ArrayColor
	if state.Texture(s, 0).Enabled {
		arrays |= cache.ArrayTexCoord
	}
	return arrays
}

func drawCache(b backend.Backend, c *cache.PrimitiveVertexCache, arrays cache.Arrays) {
	c.SendFirstColor(b, arrays)
	c.RenderTriangles(b, arrays)
	c.RenderLines(b, arrays)
	c.RenderPoints(b, arrays)
}

func renderBBox(act *Action, sh Shape) {
	box, _, ok := sh.base().bbox.Get(act.State, sh.ComputeBBox)
	if !ok {
		return
	}
	b := act.Backend
	b.Color(state.Get(act.State, state.MaterialKey).RGBA(0))
	b.Begin(backend.Lines)
	for _, p := range debug.BoxWireframe(box, 0) {
		b.Vertex(p)
	}
	b.End()
}

func renderSorted(act *Action, sh Shape) {
	s, b := act.State, act.Backend
	model := state.Get(s, state.ModelMatrixKey)
	plane := state.ViewPlane(s).Transform(model.Inverse())
	arrays := cacheArrays(s)
	sh.base().pv.Use(s, capture(act, sh), func(c *cache.PrimitiveVertexCache) {
		c.DepthSort(plane)
		wasBlend := b.IsEnabled(backend.Blend)
		if !wasBlend {
			b.Enable(backend.Blend)
			b.BlendFunc(backend.SrcAlpha, backend.OneMinusSrcAlpha)
		}
		drawCache(b, c, arrays)
		if !wasBlend {
			b.Disable(backend.Blend)
		}
	})
}

func renderBigTexture(act *Action, sh Shape, unit0 state.TextureUnit) {
	t := act.Context.Tiler
	t.BeginShape(act.Context.BigImage(unit0.Image), unit0.Quality)
	sh.GeneratePrimitives(act, t)
	if !t.EndShape(act.State, act.Backend) {
		act.RedrawRequested = true
	}
}

func renderBump(act *Action, sh Shape) bool {
	drawn := false
	sh.base().pv.Use(act.State, capture(act, sh), func(c *cache.PrimitiveVertexCache) {
		drawn = act.Context.Bump.Draw(act.State, act.Backend, c)
	})
	return drawn
}

func renderArrays(act *Action, sh Shape) {
	arrays := cacheArrays(act.State)
	sh.base().pv.Use(act.State, capture(act, sh), func(c *cache.PrimitiveVertexCache) {
		drawCache(act.Backend, c, arrays)
	})
}

func renderImmediate(act *Action, sh Shape) {
	if r, ok := sh.(immediateRenderer); ok {
		r.RenderImmediate(act)
		return
	}
	renderGenerated(act, sh)
}

// renderGenerated draws the generated primitives in immediate mode.
func renderGenerated(act *Action, sh Shape) {
	im := newImmediate(act.State, act.Backend)
	sh.GeneratePrimitives(act, im)
	im.flush()
}

// immediate is a Sink drawing primitives with Begin/End, batching runs of
// the same primitive type and sending colors only when they change.
type immediate struct {
	b       backend.Backend
	mat     state.Material
	texture bool

	open      bool
	mode      backend.Mode
	color     uint32
	colorSent bool
}

func newImmediate(s *state.State, b backend.Backend) *immediate {
	return &immediate{
		b:       b,
		mat:     state.Get(s, state.MaterialKey),
		texture: state.Texture(s, 0).Enabled,
	}
}

func (im *immediate) begin(m backend.Mode) {
	if im.open && im.mode == m {
		return
	}
	if im.open {
		im.b.End()
	}
	im.b.Begin(m)
	im.mode, im.open = m, true
}

func (im *immediate) send(v *primitive.Vertex) {
	if col := im.mat.RGBA(v.MaterialIndex); !im.colorSent || col != im.color {
		im.b.Color(col)
		im.color, im.colorSent = col, true
	}
	im.b.Normal(v.Normal)
	if im.texture {
		im.b.TexCoord(0, v.TexCoord)
	}
	im.b.Vertex(v.Point)
}

func (im *immediate) flush() {
	if im.open {
		im.b.End()
		im.open = false
	}
}

// Triangle implements primitive.Sink.
func (im *immediate) Triangle(a, b, c *primitive.Vertex, _ primitive.Detail) {
	im.begin(backend.Triangles)
	im.send(a)
	im.send(b)
	im.send(c)
}

// Line implements primitive.Sink.
func (im *immediate) Line(a, b *primitive.Vertex, _ primitive.Detail) {
	im.begin(backend.Lines)
	im.send(a)
	im.send(b)
}

// Point implements primitive.Sink.
func (im *immediate) Point(v *primitive.Vertex, _ primitive.Detail) {
	im.begin(backend.Points)
	im.send(v)
}
