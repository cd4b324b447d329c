package shape

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/nurbs"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// beginTessellation checks the tessellator and, for actions without a
// backend, makes an offscreen context current. done must be called when
// ok is true.
func beginTessellation(act *Action, k Kind) (done func(), ok bool) {
	if act.Nurbs == nil {
		return nil, false
	}
	if err := act.Nurbs.Check(); err != nil {
		logger.WarnOnce(k.String()+".version", "NURBS tessellator cannot report primitives",
			zap.Stringer("shape", k), zap.Error(err))
		return nil, false
	}
	if act.Backend != nil || act.Offscreen == nil {
		return func() {}, true
	}
	restore, err := act.Offscreen()
	if err != nil {
		logger.WarnOnce(k.String()+".offscreen", "no offscreen context for NURBS tessellation",
			zap.Stringer("shape", k), zap.Error(err))
		return nil, false
	}
	return restore, true
}

func samplesFor(act *Action) int {
	return act.Nurbs.SamplesFor(state.Get(act.State, state.ComplexityKey).Value)
}

// controlPoints gathers homogeneous control points, through indices when
// they are given.
func controlPoints(coords *state.Coordinates, n int, indices []int) ([]math.Vec4, bool) {
	if indices != nil {
		if len(indices) < n {
			return nil, false
		}
		out := make([]math.Vec4, n)
		for i := range out {
			ci := indices[i]
			if ci < 0 || ci >= coords.Count() {
				return nil, false
			}
			out[i] = coords.Get4(ci)
		}
		return out, true
	}
	if n > coords.Count() {
		return nil, false
	}
	out := make([]math.Vec4, n)
	for i := range out {
		out[i] = coords.Get4(i)
	}
	return out, true
}

// curveBase is shared by the curve kinds.
type curveBase struct {
	Base
	NumControlPoints int
	KnotVector       []float32
}

func (c *curveBase) MaterialBinding(s *state.State) binding.Binding {
	return binding.Nurbs.Material(s)
}

func (c *curveBase) NormalBinding(s *state.State) binding.Binding {
	return binding.Nurbs.Normal(s)
}

func (c *curveBase) DefaultNormals(*state.State) (cache.Normals, bool) {
	return cache.Normals{}, false
}

func (c *curveBase) generate(act *Action, sh Shape, indices []int, sink primitive.Sink) primitive.Status {
	pts, ok := controlPoints(state.Get(act.State, state.CoordinatesKey), c.NumControlPoints, indices)
	if !ok {
		logger.WarnOnce(sh.Kind().String()+".controlPoints", "too few control points, curve skipped",
			zap.Stringer("shape", sh.Kind()), zap.Int("numControlPoints", c.NumControlPoints))
		return primitive.StatusSkipped
	}
	curve := &nurbs.Curve{Knots: c.KnotVector, Points: pts}
	if err := curve.Validate(); err != nil {
		logger.WarnOnce(sh.Kind().String()+".knots", "invalid NURBS curve, skipped",
			zap.Stringer("shape", sh.Kind()), zap.Error(err))
		return primitive.StatusSkipped
	}
	done, ok := beginTessellation(act, sh.Kind())
	if !ok {
		return primitive.StatusSkipped
	}
	defer done()

	kind := primitive.LineStrip
	if state.Get(act.State, state.DrawStyleKey) == state.Points {
		kind = primitive.Points
	}
	g := primitive.NewGenerator(sink)
	g.BeginShape(kind)
	i := 0
	for p := range act.Nurbs.Curve(curve, samplesFor(act)) {
		g.Vertex(primitive.Vertex{
			Point:         p,
			Normal:        math.Vec3{Z: 1},
			TexCoord:      math.Vec4{0, 0, 0, 1},
			CoordIndex:    i,
			TexCoordIndex: -1,
		})
		i++
	}
	return g.EndShape()
}

// renderCurve draws the curve unlit.
func renderCurve(act *Action, sh Shape) {
	b := act.Backend
	if b.IsEnabled(backend.Lighting) {
		b.Disable(backend.Lighting)
		defer b.Enable(backend.Lighting)
	}
	renderGenerated(act, sh)
}

// NurbsCurve is a rational B-spline curve over the first NumControlPoints
// coordinates of the state.
type NurbsCurve struct {
	curveBase
}

// NewNurbsCurve returns an empty curve using svc for its caches.
func NewNurbsCurve(svc *cache.Service) *NurbsCurve {
	return &NurbsCurve{curveBase{Base: newBase(svc)}}
}

func (c *NurbsCurve) Kind() Kind { return KindNurbsCurve }

func (c *NurbsCurve) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxOf(state.Get(s, state.CoordinatesKey), 0, c.NumControlPoints)
}

func (c *NurbsCurve) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	return c.generate(act, c, nil, sink)
}

func (c *NurbsCurve) CountPrimitives(act *Action) primitive.Counter {
	return countByGenerating(act, c)
}

func (c *NurbsCurve) RenderImmediate(act *Action) { renderCurve(act, c) }

// IndexedNurbsCurve is a curve whose control points are addressed through
// CoordIndex.
type IndexedNurbsCurve struct {
	curveBase
	CoordIndex []int
}

// NewIndexedNurbsCurve returns an empty indexed curve using svc for its
// caches.
func NewIndexedNurbsCurve(svc *cache.Service) *IndexedNurbsCurve {
	return &IndexedNurbsCurve{curveBase: curveBase{Base: newBase(svc)}}
}

func (c *IndexedNurbsCurve) Kind() Kind { return KindIndexedNurbsCurve }

func (c *IndexedNurbsCurve) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxIndexed(state.Get(s, state.CoordinatesKey), c.CoordIndex[:min(c.NumControlPoints, len(c.CoordIndex))])
}

func (c *IndexedNurbsCurve) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	cind := c.CoordIndex
	if cind == nil {
		cind = []int{}
	}
	return c.generate(act, c, cind, sink)
}

func (c *IndexedNurbsCurve) CountPrimitives(act *Action) primitive.Counter {
	return countByGenerating(act, c)
}

func (c *IndexedNurbsCurve) RenderImmediate(act *Action) { renderCurve(act, c) }

// surfaceBase is shared by the surface kinds. The S and T fields describe
// an optional texture coordinate surface whose control points come from
// the state's texture coordinates.
type surfaceBase struct {
	Base
	NumUControlPoints, NumVControlPoints int
	UKnotVector, VKnotVector             []float32
	NumSControlPoints, NumTControlPoints int
	SKnotVector, TKnotVector             []float32
}

func (sb *surfaceBase) MaterialBinding(s *state.State) binding.Binding {
	return binding.Nurbs.Material(s)
}

func (sb *surfaceBase) NormalBinding(s *state.State) binding.Binding {
	return binding.Nurbs.Normal(s)
}

// DefaultNormals reports false: surface normals come from the evaluator.
func (sb *surfaceBase) DefaultNormals(*state.State) (cache.Normals, bool) {
	return cache.Normals{}, false
}

func (sb *surfaceBase) numControlPoints() int {
	return max(sb.NumUControlPoints, 0) * max(sb.NumVControlPoints, 0)
}

// texSurface builds the texture coordinate surface, or nil when none is
// described or the texture coordinates are computed by a function.
func (sb *surfaceBase) texSurface(tc *state.TexCoords, indices []int) *nurbs.TexSurface {
	n := max(sb.NumSControlPoints, 0) * max(sb.NumTControlPoints, 0)
	if n == 0 || tc == nil || tc.IsFunction() {
		return nil
	}
	if indices != nil && len(indices) < n {
		return nil
	}
	if indices == nil && len(tc.Coords) < n {
		return nil
	}
	pts := make([]math.Vec2, n)
	for i := range pts {
		ti := i
		if indices != nil {
			ti = indices[i]
		}
		c := tc.Get(ti)
		pts[i] = math.Vec2{X: c[0], Y: c[1]}
	}
	return &nurbs.TexSurface{
		NumS: sb.NumSControlPoints, NumT: sb.NumTControlPoints,
		SKnots: sb.SKnotVector, TKnots: sb.TKnotVector,
		Points: pts,
	}
}

func (sb *surfaceBase) generate(act *Action, sh Shape, cind, tind []int, sink primitive.Sink) primitive.Status {
	s := act.State
	pts, ok := controlPoints(state.Get(s, state.CoordinatesKey), sb.numControlPoints(), cind)
	if !ok || len(pts) == 0 {
		logger.WarnOnce(sh.Kind().String()+".controlPoints", "too few control points, surface skipped",
			zap.Stringer("shape", sh.Kind()), zap.Int("numU", sb.NumUControlPoints), zap.Int("numV", sb.NumVControlPoints))
		return primitive.StatusSkipped
	}
	tc := state.Get(s, state.TexCoordsKey)
	surf := &nurbs.Surface{
		NumU: sb.NumUControlPoints, NumV: sb.NumVControlPoints,
		UKnots: sb.UKnotVector, VKnots: sb.VKnotVector,
		Points: pts,
		Tex:    sb.texSurface(tc, tind),
	}
	if err := surf.Validate(); err != nil {
		logger.WarnOnce(sh.Kind().String()+".knots", "invalid NURBS surface, skipped",
			zap.Stringer("shape", sh.Kind()), zap.Error(err))
		return primitive.StatusSkipped
	}
	done, ok := beginTessellation(act, sh.Kind())
	if !ok {
		return primitive.StatusSkipped
	}
	defer done()

	g := primitive.NewGenerator(sink)
	status := primitive.StatusSkipped
	for strip := range act.Nurbs.Surface(surf, samplesFor(act)) {
		g.SetFace(0)
		g.BeginShape(primitive.TriangleStrip)
		for i, sp := range strip {
			v := primitive.Vertex{
				Point:         sp.Point,
				Normal:        sp.Normal,
				TexCoord:      sp.TexCoord,
				CoordIndex:    -1,
				TexCoordIndex: -1,
			}
			if tc.IsFunction() {
				v.TexCoord = tc.Function(sp.Point, sp.Normal)
			}
			g.Vertex(v)
			if i >= 2 {
				g.IncFace()
			}
		}
		if g.EndShape() == primitive.StatusOK {
			status = primitive.StatusOK
		}
		g.IncPart()
	}
	return status
}

// NurbsSurface is a rational B-spline surface over the first
// NumUControlPoints*NumVControlPoints coordinates of the state.
type NurbsSurface struct {
	surfaceBase
}

// NewNurbsSurface returns an empty surface using svc for its caches.
func NewNurbsSurface(svc *cache.Service) *NurbsSurface {
	return &NurbsSurface{surfaceBase{Base: newBase(svc)}}
}

func (n *NurbsSurface) Kind() Kind { return KindNurbsSurface }

func (n *NurbsSurface) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxOf(state.Get(s, state.CoordinatesKey), 0, n.numControlPoints())
}

func (n *NurbsSurface) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	return n.generate(act, n, nil, nil, sink)
}

func (n *NurbsSurface) CountPrimitives(act *Action) primitive.Counter {
	return countByGenerating(act, n)
}

// IndexedNurbsSurface is a surface whose control points are addressed
// through CoordIndex and whose texture control points are addressed
// through TextureCoordIndex.
type IndexedNurbsSurface struct {
	surfaceBase
	CoordIndex        []int
	TextureCoordIndex []int
}

// NewIndexedNurbsSurface returns an empty indexed surface using svc for its
// caches.
func NewIndexedNurbsSurface(svc *cache.Service) *IndexedNurbsSurface {
	return &IndexedNurbsSurface{surfaceBase: surfaceBase{Base: newBase(svc)}}
}

func (n *IndexedNurbsSurface) Kind() Kind { return KindIndexedNurbsSurface }

func (n *IndexedNurbsSurface) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxIndexed(state.Get(s, state.CoordinatesKey), n.CoordIndex[:min(n.numControlPoints(), len(n.CoordIndex))])
}

func (n *IndexedNurbsSurface) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	cind := n.CoordIndex
	if cind == nil {
		cind = []int{}
	}
	return n.generate(act, n, cind, n.TextureCoordIndex, sink)
}

func (n *IndexedNurbsSurface) CountPrimitives(act *Action) primitive.Counter {
	return countByGenerating(act, n)
}
