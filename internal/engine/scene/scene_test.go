package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/render"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func newTestService() *cache.Service {
	cfg := config.Default().Render
	cfg.BBoxCalibration = time.Nanosecond
	return cache.NewService(cfg)
}

func TestDemoHasEveryKind(t *testing.T) {
	sc := Demo(newTestService(), DemoOptions{})
	kinds := map[shape.Kind]bool{}
	for _, it := range sc.Items {
		kinds[it.Shape.Kind()] = true
	}
	for k := shape.KindFaceSet; k <= shape.KindIndexedNurbsSurface; k++ {
		assert.True(t, kinds[k], "missing %s", k)
	}
	require.NotNil(t, sc.Find("quadmesh"))
	assert.Nil(t, sc.Find("teapot"))
	assert.Equal(t, math.Translate(6, 0, 0), sc.Find("quadmesh").Model)
}

func TestDemoCounts(t *testing.T) {
	svc := newTestService()
	sc := Demo(svc, DemoOptions{})
	act := shape.NewAction(shape.CountAction, state.New(), svc)

	got := map[string]int{}
	for _, c := range sc.Counts(act) {
		n := c.Counter
		got[c.Name] = n.Triangles + n.Lines + n.Points + n.Images
	}
	assert.Equal(t, 7, got["faceset"])
	assert.Equal(t, 8, got["lineset"])
	assert.Equal(t, 128, got["quadmesh"])
	assert.Equal(t, 8, got["tristrip"])
	assert.Equal(t, 8, got["indexedtristrip"])
	assert.Equal(t, 4, got["indexedmarkers"])
	assert.NotZero(t, got["nurbscurve"])
	assert.NotZero(t, got["indexednurbscurve"])
	assert.NotZero(t, got["nurbssurface"])
	assert.NotZero(t, got["indexednurbssurface"])
	assert.Zero(t, act.State.Depth())
}

func TestBounds(t *testing.T) {
	svc := newTestService()
	sc := Demo(svc, DemoOptions{})
	box := sc.Bounds(shape.NewAction(shape.BoundingBoxAction, state.New(), svc))
	require.False(t, box.IsEmpty())
	assert.InDelta(t, 0, box.Min.X, 1e-5)
	assert.InDelta(t, 32, box.Max.X, 1e-5)
}

func TestVisitStyle(t *testing.T) {
	svc := newTestService()
	sc := New()
	clear := NewItem("clear", shape.NewFaceSet(svc))
	glass := NewItem("glass", shape.NewFaceSet(svc),
		Set(state.MaterialKey, state.Material{Transparency: []float32{0.5}}))
	glass.Style = state.StyleSortedTriangles
	sc.Add(clear, glass)
	sc.SetStyle(state.StyleVertexArray)

	s := state.New()
	styles := map[string]state.Style{}
	sc.Visit(s, func(it *Item) { styles[it.Name] = state.Get(s, state.StyleKey) })
	assert.Equal(t, state.StyleVertexArray, styles["clear"])
	assert.Equal(t, state.StyleVertexArray|state.StyleSortedTriangles|state.StyleTranspMaterial, styles["glass"])
	assert.Equal(t, state.Style(0), state.Get(s, state.StyleKey), "state restored")
}

func TestRenderPasses(t *testing.T) {
	svc := newTestService()
	sc := Demo(svc, DemoOptions{})
	glass := sc.Find("faceset")
	glass.Elements = append(glass.Elements,
		Set(state.MaterialKey, state.Material{Transparency: []float32{0.5}}))
	glass.Touch()

	rec := backend.NewRecorder()
	act := shape.NewRenderAction(state.New(), svc, rec, shape.NewContext(svc.Config()))
	act.Deferred = true
	paths := sc.Render(act, nil)
	assert.Len(t, paths, len(sc.Items))
	assert.Equal(t, render.Invisible, paths["faceset"])
	assert.Equal(t, render.Immediate, paths["quadmesh"])
	assert.NotZero(t, rec.Count("Begin"))

	act.Deferred = false
	paths = sc.Render(act, Transparent)
	assert.Equal(t, map[string]render.Path{"faceset": render.Immediate}, paths)
}

func TestItemTouch(t *testing.T) {
	it := NewItem("a", shape.NewLineSet(newTestService()))
	before := it.id
	it.Touch()
	assert.NotEqual(t, before, it.id)
}
