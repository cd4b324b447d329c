package shape

import (
	"image"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/bigtexture"
	"github.com/Faultbox/shapekit/internal/engine/bump"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/nurbs"
	"github.com/Faultbox/shapekit/internal/engine/state"
)

// ActionType is the kind of traversal an Action belongs to.
type ActionType int

const (
	RenderAction ActionType = iota
	GenerateAction
	BoundingBoxAction
	CountAction
)

func (t ActionType) String() string {
	switch t {
	case RenderAction:
		return "render"
	case GenerateAction:
		return "generate"
	case BoundingBoxAction:
		return "bbox"
	case CountAction:
		return "count"
	}
	return "unknown"
}

// Context holds the graphics resources of one backend: the bump renderer,
// the big-texture tiler and the tiled images.
type Context struct {
	Bump  *bump.Renderer
	Tiler *bigtexture.Tiler

	changeLimit int
	big         map[image.Image]*bigtexture.Image
}

// NewContext returns an empty context for the limits in cfg.
func NewContext(cfg config.RenderConfig) *Context {
	return &Context{
		Bump:        bump.NewRenderer(),
		Tiler:       bigtexture.NewTiler(cfg),
		changeLimit: cfg.BigTextureChangeLimit,
		big:         map[image.Image]*bigtexture.Image{},
	}
}

// BigImage returns the tiled image for img, creating it on first use.
func (c *Context) BigImage(img image.Image) *bigtexture.Image {
	bi, ok := c.big[img]
	if !ok {
		bi = bigtexture.NewImage(img, c.changeLimit)
		c.big[img] = bi
	}
	return bi
}

// Release frees every graphics resource held by the context.
func (c *Context) Release(b backend.Backend) {
	c.Bump.Release(b)
	for img, bi := range c.big {
		bi.Release(b)
		delete(c.big, img)
	}
}

// Action is one traversal over shapes. Render actions need Backend and
// Context; the others leave them nil.
type Action struct {
	Type    ActionType
	State   *state.State
	Backend backend.Backend
	Context *Context
	Service *cache.Service
	Nurbs   *nurbs.Tessellator

	// Deferred is set when the caller draws transparent shapes itself in a
	// later pass.
	Deferred bool
	// Offscreen makes a graphics context current for actions without a
	// backend. NURBS generation calls it before tessellating and calls the
	// returned function afterwards.
	Offscreen func() (restore func(), err error)

	// RedrawRequested is set when a big texture could not be drawn at full
	// resolution this frame.
	RedrawRequested bool
}

// NewAction returns an action of type t over s. The NURBS tessellator
// samples as configured in svc.
func NewAction(t ActionType, s *state.State, svc *cache.Service) *Action {
	return &Action{
		Type:    t,
		State:   s,
		Service: svc,
		Nurbs:   nurbs.New(svc.Config().NurbsSamples),
	}
}

// NewRenderAction returns a render action drawing through b with the
// resources of ctx.
func NewRenderAction(s *state.State, svc *cache.Service, b backend.Backend, ctx *Context) *Action {
	a := NewAction(RenderAction, s, svc)
	a.Backend = b
	a.Context = ctx
	return a
}
