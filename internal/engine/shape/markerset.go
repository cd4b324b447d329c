package shape

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// marker is one position to draw a glyph at.
type marker struct {
	coord, material, glyph int
}

// markerGlyph returns the glyph index of marker i. Positions past the end
// of MarkerIndex reuse its last entry.
func markerGlyph(indices []int, i int) int {
	switch {
	case len(indices) == 0:
		return 0
	case i < len(indices):
		return indices[i]
	default:
		return indices[len(indices)-1]
	}
}

func registry(r *MarkerRegistry) *MarkerRegistry {
	if r == nil {
		return DefaultMarkers
	}
	return r
}

// MarkerSet draws a glyph at each of NumPoints consecutive coordinates from
// StartIndex; -1 means every remaining coordinate.
type MarkerSet struct {
	Base
	StartIndex  int
	NumPoints   int
	MarkerIndex []int
	// Markers is the glyph registry, DefaultMarkers when nil.
	Markers *MarkerRegistry
}

// NewMarkerSet returns a marker set over every coordinate drawing the
// small cross.
func NewMarkerSet(svc *cache.Service) *MarkerSet {
	return &MarkerSet{Base: newBase(svc), NumPoints: -1, MarkerIndex: []int{BuiltinMarker(Cross, 5)}}
}

func (m *MarkerSet) Kind() Kind { return KindMarkerSet }

func (m *MarkerSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.MarkerSet.Material(s)
}

func (m *MarkerSet) NormalBinding(s *state.State) binding.Binding {
	return binding.MarkerSet.Normal(s)
}

func (m *MarkerSet) count(coords *state.Coordinates) int {
	if m.NumPoints < 0 {
		return max(coords.Count()-m.StartIndex, 0)
	}
	return m.NumPoints
}

func (m *MarkerSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	return cache.BoxOf(coords, m.StartIndex, m.count(coords))
}

func (m *MarkerSet) DefaultNormals(*state.State) (cache.Normals, bool) {
	return cache.Normals{}, false
}

func (m *MarkerSet) markers(s *state.State) ([]marker, bool) {
	coords := state.Get(s, state.CoordinatesKey)
	n := m.count(coords)
	if !checkRange(m.Kind(), coords, m.StartIndex, n) {
		return nil, false
	}
	perVertex := m.MaterialBinding(s) != binding.Overall
	out := make([]marker, n)
	for i := range out {
		out[i] = marker{coord: m.StartIndex + i, glyph: markerGlyph(m.MarkerIndex, i)}
		if perVertex {
			out[i].material = i
		}
	}
	return out, true
}

func (m *MarkerSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	list, ok := m.markers(act.State)
	if !ok {
		return primitive.StatusSkipped
	}
	return generateMarkers(act, m, list, sink)
}

func (m *MarkerSet) CountPrimitives(act *Action) primitive.Counter {
	list, _ := m.markers(act.State)
	return countMarkers(list)
}

func (m *MarkerSet) RenderImmediate(act *Action) {
	if list, ok := m.markers(act.State); ok {
		drawMarkers(act, m.Kind(), registry(m.Markers), list)
	}
}

func (m *MarkerSet) ownRendering() {}

// IndexedMarkerSet draws a glyph at each coordinate of CoordIndex. Negative
// entries are skipped.
type IndexedMarkerSet struct {
	Base
	CoordIndex    []int
	MaterialIndex []int
	MarkerIndex   []int
	Markers       *MarkerRegistry
}

// NewIndexedMarkerSet returns an empty indexed marker set drawing the small
// cross.
func NewIndexedMarkerSet(svc *cache.Service) *IndexedMarkerSet {
	return &IndexedMarkerSet{Base: newBase(svc), MarkerIndex: []int{BuiltinMarker(Cross, 5)}}
}

func (m *IndexedMarkerSet) Kind() Kind { return KindIndexedMarkerSet }

func (m *IndexedMarkerSet) MaterialBinding(s *state.State) binding.Binding {
	return binding.IndexedMarkerSet.Material(s)
}

func (m *IndexedMarkerSet) NormalBinding(s *state.State) binding.Binding {
	return binding.IndexedMarkerSet.Normal(s)
}

func (m *IndexedMarkerSet) ComputeBBox(s *state.State) (math.Box3, math.Vec3, bool) {
	return cache.BoxIndexed(state.Get(s, state.CoordinatesKey), m.CoordIndex)
}

func (m *IndexedMarkerSet) DefaultNormals(*state.State) (cache.Normals, bool) {
	return cache.Normals{}, false
}

func (m *IndexedMarkerSet) markers(s *state.State) ([]marker, bool) {
	if !checkIndices(m.Kind(), state.Get(s, state.CoordinatesKey), m.CoordIndex) {
		return nil, false
	}
	mb := m.MaterialBinding(s)
	midx := m.MaterialIndex
	if len(midx) == 0 {
		midx = m.CoordIndex
	}
	out := make([]marker, 0, len(m.CoordIndex))
	for i, ci := range m.CoordIndex {
		if ci < 0 {
			continue
		}
		mk := marker{coord: ci, glyph: markerGlyph(m.MarkerIndex, len(out))}
		switch mb {
		case binding.PerVertex:
			mk.material = len(out)
		case binding.PerVertexIndexed:
			if i < len(midx) {
				mk.material = midx[i]
			}
		}
		out = append(out, mk)
	}
	return out, true
}

func (m *IndexedMarkerSet) GeneratePrimitives(act *Action, sink primitive.Sink) primitive.Status {
	list, ok := m.markers(act.State)
	if !ok {
		return primitive.StatusSkipped
	}
	return generateMarkers(act, m, list, sink)
}

func (m *IndexedMarkerSet) CountPrimitives(act *Action) primitive.Counter {
	list, _ := m.markers(act.State)
	return countMarkers(list)
}

func (m *IndexedMarkerSet) RenderImmediate(act *Action) {
	if list, ok := m.markers(act.State); ok {
		drawMarkers(act, m.Kind(), registry(m.Markers), list)
	}
}

func (m *IndexedMarkerSet) ownRendering() {}

// generateMarkers emits one point per marker position.
func generateMarkers(act *Action, sh Shape, list []marker, sink primitive.Sink) primitive.Status {
	if len(list) == 0 {
		return primitive.StatusSkipped
	}
	d := sh.base().vertexData(act.State, sh, false)
	defer d.release()
	g := primitive.NewGenerator(sink)
	g.BeginShape(primitive.Points)
	for i, mk := range list {
		g.Vertex(d.vertex(mk.coord, 0, mk.material, i))
		g.IncPart()
	}
	return g.EndShape()
}

func countMarkers(list []marker) primitive.Counter {
	var c primitive.Counter
	for _, mk := range list {
		if mk.glyph != MarkerNone {
			c.Images++
		}
	}
	return c
}

// drawMarkers projects every marker to window coordinates and draws its
// glyph under an orthographic overlay. Active clip planes are switched off
// while drawing so the raster position of a marker near a plane is not
// rejected; markers outside the view volume are culled instead.
func drawMarkers(act *Action, k Kind, reg *MarkerRegistry, list []marker) {
	s, b := act.State, act.Backend
	coords := state.Get(s, state.CoordinatesKey)
	mat := state.Get(s, state.MaterialKey)
	model := state.Get(s, state.ModelMatrixKey)
	modelView := mgl32.Mat4(state.Get(s, state.ViewMatrixKey).Mul(model))
	proj := mgl32.Mat4(state.Get(s, state.ProjectionMatrixKey))
	vp := state.Get(s, state.ViewportKey)
	planes := state.Get(s, state.CullKey).Planes

	var suspended []backend.Cap
	for i := 0; i < b.Caps().MaxClipPlanes; i++ {
		if c := backend.ClipPlane(i); b.IsEnabled(c) {
			b.Disable(c)
			suspended = append(suspended, c)
		}
	}
	defer func() {
		for _, c := range suspended {
			b.Enable(c)
		}
	}()
	if b.IsEnabled(backend.Lighting) {
		b.Disable(backend.Lighting)
		defer b.Enable(backend.Lighting)
	}

	b.MatrixMode(backend.Projection)
	b.PushMatrix()
	b.LoadMatrix(math.Mat4(mgl32.Ortho(0, float32(vp.Width), 0, float32(vp.Height), -1, 1)))
	b.MatrixMode(backend.ModelView)
	b.PushMatrix()
	b.LoadMatrix(math.Identity())
	defer func() {
		b.MatrixMode(backend.Projection)
		b.PopMatrix()
		b.MatrixMode(backend.ModelView)
		b.PopMatrix()
	}()

	var color uint32
	colorSent := false
	for _, mk := range list {
		if mk.glyph == MarkerNone {
			continue
		}
		img, ok := reg.Marker(mk.glyph)
		if !ok {
			logger.WarnOnce(k.String()+".markerIndex", "marker index out of range, marker skipped",
				zap.Stringer("shape", k), zap.Int("markerIndex", mk.glyph))
			continue
		}
		p := coords.Get3(mk.coord)
		if outsideVolume(planes, model.TransformPoint(p)) {
			continue
		}
		win := mgl32.Project(mgl32.Vec3{p.X, p.Y, p.Z}, modelView, proj, 0, 0, vp.Width, vp.Height)
		if win.Z() < 0 || win.Z() > 1 {
			continue
		}
		if c := mat.RGBA(mk.material); !colorSent || c != color {
			b.Color(c)
			color, colorSent = c, true
		}
		b.RasterPos(win.X(), win.Y())
		b.Bitmap(img.Width, img.Height, float32(img.Width/2), float32(img.Height/2), img.Bits)
	}
}

func outsideVolume(planes []math.Plane, world math.Vec3) bool {
	for _, pl := range planes {
		if !pl.IsInHalfSpace(world) {
			return true
		}
	}
	return false
}
