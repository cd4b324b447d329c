package shape

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/nurbs"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/render"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

func testConfig() config.RenderConfig {
	cfg := config.Default().Render
	cfg.BBoxCalibration = time.Nanosecond
	return cfg
}

func newTestService() *cache.Service {
	return cache.NewService(testConfig())
}

// line returns n points along the x axis.
func line(n int) *state.Coordinates {
	c := &state.Coordinates{Points3: make([]math.Vec3, n)}
	for i := range c.Points3 {
		c.Points3[i] = math.Vec3{X: float32(i)}
	}
	return c
}

// grid returns rows*cols points on the z=0 plane, row by row.
func grid(cols, rows int) *state.Coordinates {
	c := &state.Coordinates{}
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			c.Points3 = append(c.Points3, math.Vec3{X: float32(col), Y: float32(r)})
		}
	}
	return c
}

func stateWith(coords *state.Coordinates) *state.State {
	s := state.New()
	state.Set(s, state.CoordinatesKey, coords)
	return s
}

func generate(t *testing.T, sh Shape, s *state.State) *primitive.Collector {
	t.Helper()
	var col primitive.Collector
	act := NewAction(GenerateAction, s, newTestService())
	require.Equal(t, primitive.StatusOK, GeneratePrimitives(act, sh, &col))
	return &col
}

func materials(col *primitive.Collector) []int {
	out := make([]int, len(col.Triangles))
	for i, tri := range col.Triangles {
		out[i] = tri.V[0].MaterialIndex
	}
	return out
}

func TestFaceSetConvexFaces(t *testing.T) {
	s := stateWith(line(15))
	state.Set(s, state.ShapeHintsKey, state.ShapeHints{Face: state.Convex})
	state.Set(s, state.MaterialBindingKey, state.BindPerFace)

	fs := NewFaceSet(newTestService())
	fs.NumVertices = []int{3, 4, 5, 3}
	col := generate(t, fs, s)

	assert.Equal(t, [][3]int{
		{0, 1, 2},
		{3, 4, 5}, {3, 5, 6},
		{7, 8, 9}, {7, 9, 10}, {7, 10, 11},
		{12, 13, 14},
	}, col.TriangleCoords())
	assert.Equal(t, []int{0, 1, 1, 2, 2, 2, 3}, materials(col))
	for _, tri := range col.Triangles {
		for _, v := range tri.V {
			assert.Equal(t, tri.V[2].MaterialIndex, v.MaterialIndex, "per-face index reaches every corner")
		}
	}

	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, 7, CountPrimitives(act, fs).Triangles)
}

func TestFaceSetSentinelAndRange(t *testing.T) {
	fs := NewFaceSet(newTestService())
	fs.NumVertices = []int{-1}
	col := generate(t, fs, stateWith(line(4)))
	assert.Len(t, col.Triangles, 2)

	logger.ResetOnce()
	fs.NumVertices = []int{3, 3}
	var sink primitive.Collector
	act := NewAction(GenerateAction, stateWith(line(5)), newTestService())
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, fs, &sink))
	assert.Empty(t, sink.Triangles)

	fs.NumVertices = []int{0}
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, fs, &sink))
}

func TestFaceSetVertexProperty(t *testing.T) {
	fs := NewFaceSet(newTestService())
	fs.NumVertices = []int{3}
	fs.VertexProperty = &VertexProperty{Coordinates: line(3)}
	col := generate(t, fs, state.New())
	assert.Equal(t, [][3]int{{0, 1, 2}}, col.TriangleCoords())
}

func TestFaceSetDefaultNormals(t *testing.T) {
	s := stateWith(grid(2, 2))
	fs := NewFaceSet(newTestService())
	fs.NumVertices = []int{4}
	// Coordinates 0 1 3 2 wind counterclockwise around +Z.
	fs.VertexProperty = &VertexProperty{Coordinates: &state.Coordinates{Points3: []math.Vec3{
		{}, {X: 1}, {X: 1, Y: 1}, {Y: 1},
	}}}
	require.True(t, GenerateDefaultNormals(s, fs))
	col := generate(t, fs, s)
	for _, tri := range col.Triangles {
		for _, v := range tri.V {
			assert.InDelta(t, 1, v.Normal.Z, 1e-5)
		}
	}
}

func TestLineSetSegments(t *testing.T) {
	s := stateWith(line(9))
	ls := NewLineSet(newTestService())
	ls.NumVertices = []int{3, 4, 2}

	col := generate(t, ls, s)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {3, 4}, {4, 5}, {5, 6}, {7, 8}}, col.LineCoords())

	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, 6, CountPrimitives(act, ls).Lines)
}

func TestLineSetPerSegmentMaterial(t *testing.T) {
	s := stateWith(line(9))
	state.Set(s, state.MaterialBindingKey, state.BindPerPart)
	ls := NewLineSet(newTestService())
	ls.NumVertices = []int{3, 4, 2}

	col := generate(t, ls, s)
	require.Len(t, col.Lines, 6)
	for i, l := range col.Lines {
		assert.Equal(t, i, l.V[0].MaterialIndex)
		assert.Equal(t, i, l.V[1].MaterialIndex)
		assert.Equal(t, i, l.Detail.Part)
	}
}

func TestTriangleStripSet(t *testing.T) {
	s := stateWith(line(9))
	state.Set(s, state.MaterialBindingKey, state.BindPerFace)
	ts := NewTriangleStripSet(newTestService())
	ts.NumVertices = []int{4, 2, 3}

	col := generate(t, ts, s)
	// The two vertex strip is stepped over.
	assert.Equal(t, [][3]int{{0, 1, 2}, {2, 1, 3}, {6, 7, 8}}, col.TriangleCoords())
	assert.Equal(t, []int{0, 1, 2}, materials(col))

	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, 3, CountPrimitives(act, ts).Triangles)
}

func TestTriangleStripSetGeneratedNormals(t *testing.T) {
	s := stateWith(grid(2, 3))
	ts := NewTriangleStripSet(newTestService())
	// Zig-zag up the grid: 0 1 2 3 4 5 is a counterclockwise strip.
	ts.NumVertices = []int{6}
	col := generate(t, ts, s)
	require.Len(t, col.Triangles, 4)
	for _, tri := range col.Triangles {
		for _, v := range tri.V {
			assert.InDelta(t, 1, math32Abs(v.Normal.Z), 1e-5)
		}
	}
}

func math32Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestIndexedTriangleStripSet(t *testing.T) {
	s := stateWith(line(7))
	state.Set(s, state.MaterialBindingKey, state.BindPerFaceIndexed)
	ts := NewIndexedTriangleStripSet(newTestService())
	ts.CoordIndex = []int{0, 1, 2, 3, -1, 4, 5, 6}
	ts.MaterialIndex = []int{7, 8, 9}

	col := generate(t, ts, s)
	assert.Equal(t, [][3]int{{0, 1, 2}, {2, 1, 3}, {4, 5, 6}}, col.TriangleCoords())
	assert.Equal(t, []int{7, 8, 9}, materials(col))

	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, 3, CountPrimitives(act, ts).Triangles)
}

func TestIndexedTriangleStripSetPerVertexFallsBackToCoordIndex(t *testing.T) {
	s := stateWith(line(5))
	state.Set(s, state.MaterialBindingKey, state.BindPerVertexIndexed)
	ts := NewIndexedTriangleStripSet(newTestService())
	ts.CoordIndex = []int{4, 3, 2}

	col := generate(t, ts, s)
	require.Len(t, col.Triangles, 1)
	tri := col.Triangles[0]
	assert.Equal(t, []int{4, 3, 2}, []int{tri.V[0].MaterialIndex, tri.V[1].MaterialIndex, tri.V[2].MaterialIndex})
}

func TestQuadMesh(t *testing.T) {
	s := stateWith(grid(3, 3))
	state.Set(s, state.MaterialBindingKey, state.BindPerFace)
	qm := NewQuadMesh(newTestService())
	qm.VerticesPerRow, qm.VerticesPerColumn = 3, 3

	col := generate(t, qm, s)
	assert.Len(t, col.Triangles, 8)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2, 3, 3}, materials(col))

	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, 8, CountPrimitives(act, qm).Triangles)

	logger.ResetOnce()
	qm.VerticesPerColumn = 1
	var sink primitive.Collector
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, qm, &sink))
	assert.Zero(t, CountPrimitives(act, qm).Triangles)
}

func TestQuadWeight(t *testing.T) {
	tests := []struct {
		name  string
		ratio float32
		want  float32
	}{
		{"equal", 1, 0.4641016},
		{"zero", 0, 0},
		{"huge", 1e30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, quadWeight(tt.ratio), 1e-5)
		})
	}
}

func TestQuadMeshPreciseLighting(t *testing.T) {
	cfg := testConfig()
	cfg.QuadMeshPreciseLighting = 1
	svc := cache.NewService(cfg)
	s := stateWith(grid(2, 2))
	qm := NewQuadMesh(svc)
	qm.VerticesPerRow, qm.VerticesPerColumn = 2, 2

	act := NewAction(RenderAction, s, svc)
	require.True(t, qm.preciseEligible(act))

	var col primitive.Collector
	pop := qm.enter(s)
	qm.generatePrecise(act, &col)
	pop()
	require.Len(t, col.Triangles, 4)
	for _, tri := range col.Triangles {
		assert.Equal(t, math.Vec3{X: 0.5, Y: 0.5}, tri.V[0].Point)
		assert.InDelta(t, 1, tri.V[0].Normal.Length(), 1e-4)
	}

	state.Set(s, state.MaterialBindingKey, state.BindPerVertex)
	assert.False(t, qm.preciseEligible(act))
}

func TestGLRenderPaths(t *testing.T) {
	newFaceSet := func() *FaceSet {
		fs := NewFaceSet(newTestService())
		fs.NumVertices = []int{3, 3}
		return fs
	}
	tests := []struct {
		name  string
		style state.Style
		want  render.Path
		calls string
	}{
		{"immediate", 0, render.Immediate, "Begin"},
		{"invisible", state.StyleInvisible, render.Invisible, ""},
		{"bbox", state.StyleBBoxCmplx, render.BoundingBoxOnly, "Begin"},
		{"vertex array", state.StyleVertexArray, render.VertexArray, "DrawElements"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stateWith(line(6))
			state.Set(s, state.StyleKey, tt.style)
			rec := backend.NewRecorder()
			svc := newTestService()
			act := NewRenderAction(s, svc, rec, NewContext(svc.Config()))

			assert.Equal(t, tt.want, GLRender(act, newFaceSet()))
			if tt.calls == "" {
				assert.Empty(t, rec.Calls)
			} else {
				assert.NotZero(t, rec.Count(tt.calls))
			}
		})
	}
}

func TestGLRenderArrayPathsSendMaterialColor(t *testing.T) {
	red := state.Material{Diffuse: []math.Vec3{{X: 1}}, Transparency: []float32{0.5}}
	tests := []struct {
		name  string
		style state.Style
		want  render.Path
	}{
		{"vertex array", state.StyleVertexArray, render.VertexArray},
		{"sorted transparent", state.StyleTranspMaterial | state.StyleSortedTriangles, render.SortedTriangles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stateWith(line(6))
			state.Set(s, state.StyleKey, tt.style)
			state.Set(s, state.MaterialKey, red)
			rec := backend.NewRecorder()
			svc := newTestService()
			fs := NewFaceSet(svc)
			fs.NumVertices = []int{3, 3}

			require.Equal(t, tt.want, GLRender(NewRenderAction(s, svc, rec, NewContext(svc.Config())), fs))
			colors := rec.Find("Color")
			require.Len(t, colors, 1, rec.Names())
			assert.Equal(t, red.RGBA(0), colors[0].Args[0])
			assert.Zero(t, rec.Count("ColorPointer"))
		})
	}
}

func TestGLRenderBoundingBoxWireframe(t *testing.T) {
	s := stateWith(line(6))
	state.Set(s, state.StyleKey, state.StyleBBoxCmplx)
	rec := backend.NewRecorder()
	svc := newTestService()
	fs := NewFaceSet(svc)
	fs.NumVertices = []int{6}

	GLRender(NewRenderAction(s, svc, rec, NewContext(svc.Config())), fs)
	assert.Equal(t, 24, rec.Count("Vertex"))
	assert.Equal(t, backend.Lines, rec.Find("Begin")[0].Args[0])
}

func TestGLRenderCulledByCachedBox(t *testing.T) {
	s := stateWith(line(6))
	rec := backend.NewRecorder()
	svc := newTestService()
	fs := NewFaceSet(svc)
	fs.NumVertices = []int{6}
	act := NewRenderAction(s, svc, rec, NewContext(svc.Config()))

	_, _, ok := BoundingBox(act, fs)
	require.True(t, ok)
	state.Set(s, state.CullKey, state.Cull{Planes: []math.Plane{
		math.NewPlane(math.Vec3{Z: 1}, math.Vec3{Z: 10}),
	}})
	assert.Equal(t, render.CulledByBBox, GLRender(act, fs))
	assert.Empty(t, rec.Calls)
}

func TestMarkerGlyphs(t *testing.T) {
	img, ok := DefaultMarkers.Marker(BuiltinMarker(Plus, 5))
	require.True(t, ok)
	assert.Equal(t, ""+
		"         \n"+
		"         \n"+
		"    x    \n"+
		"    x    \n"+
		"  xxxxx  \n"+
		"    x    \n"+
		"    x    \n"+
		"         \n"+
		"         \n", img.String())

	sq, _ := DefaultMarkers.Marker(BuiltinMarker(SquareFilled, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			assert.True(t, sq.IsSet(x, y))
		}
	}
	assert.Equal(t, 9*4, len(sq.Bits), "rows are padded to four bytes")
	assert.Equal(t, BuiltinMarker(Cross, 7), BuiltinMarker(Cross, 8))
}

func TestMarkerRegistry(t *testing.T) {
	r := NewMarkerRegistry()
	assert.Equal(t, NumBuiltinMarkers, r.Len())

	arrow := ParseMarker(
		" x ",
		"xxx",
		" x ",
	)
	assert.True(t, arrow.IsSet(1, 0))
	assert.False(t, arrow.IsSet(0, 0))

	idx := NumBuiltinMarkers + 3
	r.AddMarker(idx, arrow)
	got, ok := r.Marker(idx)
	require.True(t, ok)
	assert.Equal(t, arrow.String(), got.String())
	assert.True(t, r.RemoveMarker(idx))
	assert.False(t, r.RemoveMarker(idx))

	builtin, _ := r.Marker(0)
	r.AddMarker(0, arrow)
	assert.True(t, r.RemoveMarker(0))
	restored, _ := r.Marker(0)
	assert.Equal(t, builtin.String(), restored.String())
}

func TestIndexedMarkerSetRender(t *testing.T) {
	logger.ResetOnce()
	s := stateWith(&state.Coordinates{Points3: []math.Vec3{{}, {}, {}, {X: 5}}})
	state.Set(s, state.CullKey, state.Cull{Planes: []math.Plane{
		math.NewPlane(math.Vec3{X: -1}, math.Vec3{X: 2}),
	}})
	rec := backend.NewRecorder()
	rec.Enable(backend.ClipPlane(0))
	rec.Enable(backend.Lighting)
	rec.Reset()
	svc := newTestService()

	ms := NewIndexedMarkerSet(svc)
	ms.CoordIndex = []int{0, 1, 2, 3}
	ms.MarkerIndex = []int{0, MarkerNone, 999, 0}

	assert.Equal(t, render.Immediate, GLRender(NewRenderAction(s, svc, rec, NewContext(svc.Config())), ms))

	// Marker 1 is NONE, marker 2 is unknown and marker 3 lies outside the
	// view volume.
	require.Equal(t, 1, rec.Count("Bitmap"))
	pos := rec.Find("RasterPos")[0]
	assert.InDelta(t, 320, pos.Args[0].(float32), 1e-3)
	assert.InDelta(t, 240, pos.Args[1].(float32), 1e-3)

	assert.True(t, rec.IsEnabled(backend.ClipPlane(0)))
	assert.True(t, rec.IsEnabled(backend.Lighting))
	assert.Equal(t, 2, rec.Count("PushMatrix"))
	assert.Equal(t, 2, rec.Count("PopMatrix"))
	assert.False(t, logger.WarnOnce("IndexedMarkerSet.markerIndex", "again"))

	act := NewAction(CountAction, s, svc)
	assert.Equal(t, 3, CountPrimitives(act, ms).Images)
}

func TestMarkerSetPoints(t *testing.T) {
	s := stateWith(line(5))
	ms := NewMarkerSet(newTestService())
	ms.StartIndex = 1
	col := generate(t, ms, s)
	assert.Len(t, col.Points, 4)
	assert.Equal(t, 1, col.Points[0].V[0].CoordIndex)
}

func nurbsLine() *NurbsCurve {
	c := NewNurbsCurve(newTestService())
	c.NumControlPoints = 2
	c.KnotVector = []float32{0, 0, 1, 1}
	return c
}

func TestNurbsCurve(t *testing.T) {
	s := stateWith(line(2))
	c := nurbsLine()
	col := generate(t, c, s)
	require.NotEmpty(t, col.Lines)
	assert.Equal(t, math.Vec3{}, col.Lines[0].V[0].Point)
	assert.InDelta(t, 1, col.Lines[len(col.Lines)-1].V[1].Point.X, 1e-5)

	state.Set(s, state.DrawStyleKey, state.Points)
	pts := generate(t, c, s)
	assert.Len(t, pts.Points, len(col.Lines)+1)
}

func TestNurbsOffscreenAndVersion(t *testing.T) {
	logger.ResetOnce()
	s := stateWith(line(2))
	c := nurbsLine()

	act := NewAction(GenerateAction, s, newTestService())
	made, restored := 0, 0
	act.Offscreen = func() (func(), error) {
		made++
		return func() { restored++ }, nil
	}
	var col primitive.Collector
	require.Equal(t, primitive.StatusOK, GeneratePrimitives(act, c, &col))
	assert.Equal(t, 1, made)
	assert.Equal(t, 1, restored)

	act.Offscreen = func() (func(), error) { return nil, errors.New("no display") }
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, c, &col))

	act.Offscreen = nil
	act.Nurbs.Version = nurbs.Version{Major: 1, Minor: 2}
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, c, &col))
}

func TestNurbsSurface(t *testing.T) {
	s := stateWith(grid(2, 2))
	n := NewNurbsSurface(newTestService())
	n.NumUControlPoints, n.NumVControlPoints = 2, 2
	n.UKnotVector = []float32{0, 0, 1, 1}
	n.VKnotVector = []float32{0, 0, 1, 1}

	col := generate(t, n, s)
	require.NotEmpty(t, col.Triangles)
	for _, tri := range col.Triangles {
		assert.InDelta(t, 1, tri.V[0].Normal.Z, 1e-5)
	}
	act := NewAction(CountAction, s, newTestService())
	assert.Equal(t, len(col.Triangles), CountPrimitives(act, n).Triangles)

	box, _, ok := BoundingBox(act, n)
	require.True(t, ok)
	assert.Equal(t, math.Vec3{X: 1, Y: 1}, box.Max)
}

func TestIndexedNurbsCurveNeedsIndices(t *testing.T) {
	logger.ResetOnce()
	c := NewIndexedNurbsCurve(newTestService())
	c.NumControlPoints = 2
	c.KnotVector = []float32{0, 0, 1, 1}
	var col primitive.Collector
	act := NewAction(GenerateAction, stateWith(line(2)), newTestService())
	assert.Equal(t, primitive.StatusSkipped, GeneratePrimitives(act, c, &col))

	c.CoordIndex = []int{1, 0}
	require.Equal(t, primitive.StatusOK, GeneratePrimitives(act, c, &col))
	assert.InDelta(t, 1, col.Lines[0].V[0].Point.X, 1e-5)
}

// Every shape must accept every generic binding without panicking.
func TestBindingTotality(t *testing.T) {
	svc := newTestService()
	fs := NewFaceSet(svc)
	fs.NumVertices = []int{3, 4}
	ls := NewLineSet(svc)
	ls.NumVertices = []int{3, 4}
	ts := NewTriangleStripSet(svc)
	ts.NumVertices = []int{4, 3}
	its := NewIndexedTriangleStripSet(svc)
	its.CoordIndex = []int{0, 1, 2, 3, -1, 4, 5, 6}
	qm := NewQuadMesh(svc)
	qm.VerticesPerRow, qm.VerticesPerColumn = 3, 2
	ims := NewIndexedMarkerSet(svc)
	ims.CoordIndex = []int{0, 1, -1, 2}
	shapes := []Shape{fs, ls, ts, its, qm, NewMarkerSet(svc), ims}

	normals := make([]math.Vec3, 64)
	for i := range normals {
		normals[i] = math.Vec3{Z: 1}
	}
	for _, withNormals := range []bool{false, true} {
		for _, mb := range state.Bindings {
			for _, nb := range state.Bindings {
				s := stateWith(line(7))
				state.Set(s, state.MaterialBindingKey, mb)
				state.Set(s, state.NormalBindingKey, nb)
				if withNormals {
					state.Set(s, state.NormalsKey, normals)
				}
				for _, sh := range shapes {
					act := NewAction(GenerateAction, s, svc)
					assert.NotPanics(t, func() {
						var c primitive.Counter
						GeneratePrimitives(act, sh, &c)
					}, "%s material %s normal %s", sh.Kind(), mb, nb)
				}
			}
		}
	}
}
