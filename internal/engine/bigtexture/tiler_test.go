package bigtexture

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

func testConfig() config.RenderConfig {
	return config.Default().Render
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

// texVertex places the vertex at ten times its texture coordinate so the
// mapping between the two can be checked after clipping.
func texVertex(s, t float32) *primitive.Vertex {
	return &primitive.Vertex{
		Point:    math.Vec3{X: s * 10, Y: t * 10},
		Normal:   math.Vec3{Z: 1},
		TexCoord: math.Vec4{s, t, 0, 1},
	}
}

func area(verts []primitive.Vertex) float32 {
	var a float32
	for i := range verts {
		p, q := verts[i].TexCoord, verts[(i+1)%len(verts)].TexCoord
		a += p[0]*q[1] - q[0]*p[1]
	}
	return math32.Abs(a) / 2
}

func TestTileCoverage(t *testing.T) {
	img := NewImage(solid(512, 512), 4)
	tiler := NewTiler(testConfig())
	tiler.BeginShape(img, 0.5)
	require.Equal(t, 256, img.TileSize())

	a, b, c := texVertex(0.1, 0.1), texVertex(0.9, 0.2), texVertex(0.3, 0.9)
	tiler.Triangle(a, b, c, primitive.Detail{})
	tiler.Clip(math.Identity(), state.Repeat, state.Repeat, nil)

	frags := tiler.Fragments()
	touched := map[int]bool{}
	var sum float32
	for _, f := range frags {
		start, end := img.Region(f.Tile)
		for _, v := range f.Vertices {
			assert.GreaterOrEqual(t, v.TexCoord[0], start.X-1e-5)
			assert.LessOrEqual(t, v.TexCoord[0], end.X+1e-5)
			assert.GreaterOrEqual(t, v.TexCoord[1], start.Y-1e-5)
			assert.LessOrEqual(t, v.TexCoord[1], end.Y+1e-5)
			assert.InDelta(t, v.TexCoord[0]*10, v.Point.X, 1e-4)
			assert.InDelta(t, v.TexCoord[1]*10, v.Point.Y, 1e-4)
		}
		if a := area(f.Vertices); a > 1e-6 {
			touched[f.Tile] = true
			sum += a
		}
	}
	assert.Len(t, touched, 4)
	whole := area([]primitive.Vertex{*a, *b, *c})
	assert.InDelta(t, whole, sum, 1e-5)
}

func TestRepeatWindows(t *testing.T) {
	img := NewImage(solid(512, 256), 4)
	tiler := NewTiler(testConfig())
	tiler.BeginShape(img, 0)

	// Spans two texture repeats along s.
	tiler.Triangle(texVertex(0.25, 0.1), texVertex(1.75, 0.1), texVertex(1, 0.9), primitive.Detail{})
	tiler.Clip(math.Identity(), state.Repeat, state.Repeat, nil)

	var sum float32
	for _, f := range tiler.Fragments() {
		for _, v := range f.Vertices {
			assert.GreaterOrEqual(t, v.TexCoord[0], float32(-1e-5))
			assert.LessOrEqual(t, v.TexCoord[0], float32(1+1e-5))
		}
		sum += area(f.Vertices)
	}
	assert.InDelta(t, 0.6, sum, 1e-5)
}

func TestClampReassignsTile(t *testing.T) {
	img := NewImage(solid(512, 512), 4)
	tiler := NewTiler(testConfig())
	tiler.BeginShape(img, 0)

	// Entirely right of the image; clamping squeezes it onto s = 1.
	tiler.Triangle(texVertex(1.2, 0.1), texVertex(1.8, 0.1), texVertex(1.5, 0.3), primitive.Detail{})
	tiler.Clip(math.Identity(), state.Clamp, state.Repeat, nil)

	frags := tiler.Fragments()
	require.NotEmpty(t, frags)
	for _, f := range frags {
		assert.Equal(t, 1, f.Tile)
		for _, v := range f.Vertices {
			assert.Equal(t, float32(1), v.TexCoord[0])
		}
	}
}

func TestTileCountLimit(t *testing.T) {
	cfg := testConfig()
	cfg.BigTextureMaxTiles = 4
	img := NewImage(solid(1024, 1024), 4)
	tiler := NewTiler(cfg)
	tiler.BeginShape(img, 0)
	assert.Equal(t, 512, img.TileSize())

	start, end := img.Region(3)
	assert.Equal(t, math.Vec2{X: 0.5, Y: 0.5}, start)
	assert.Equal(t, math.Vec2{X: 1, Y: 1}, end)
}

func TestEndShapeDrawsPerTile(t *testing.T) {
	img := NewImage(solid(512, 512), 4)
	tiler := NewTiler(testConfig())
	s := state.New()
	state.Set(s, state.TextureUnitsKey, []state.TextureUnit{{Enabled: true, Matrix: math.Identity(), Image: img.Source()}})

	rec := backend.NewRecorder()
	tiler.BeginShape(img, 1)
	tiler.Triangle(texVertex(0.1, 0.1), texVertex(0.9, 0.2), texVertex(0.3, 0.9), primitive.Detail{})
	ok := tiler.EndShape(s, rec)

	assert.True(t, ok)
	assert.Equal(t, 4, rec.Count("TexImage"))
	assert.GreaterOrEqual(t, rec.Count("Begin"), 4)
	assert.Equal(t, rec.Count("Begin"), rec.Count("End"))
	assert.Equal(t, 1, rec.Count("PushMatrix"))
	assert.Equal(t, 1, rec.Count("PopMatrix"))

	// A second frame reuses the uploaded tiles.
	rec.Reset()
	tiler.BeginShape(img, 1)
	tiler.Triangle(texVertex(0.1, 0.1), texVertex(0.9, 0.2), texVertex(0.3, 0.9), primitive.Detail{})
	tiler.EndShape(s, rec)
	assert.Zero(t, rec.Count("TexImage"))
	assert.Equal(t, 4, rec.Count("BindTexture"))
}

func TestTileImageReduced(t *testing.T) {
	img := NewImage(solid(300, 300), 4)
	img.InitTiles(256)
	full := img.TileImage(3, 1, 0)
	assert.Equal(t, image.Pt(256, 256), full.Rect.Size())
	// Tile 3 starts at pixel (256, 256); the rest is outside the image.
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 7, A: 255}, full.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, full.RGBAAt(100, 100))

	half := img.TileImage(0, 2, 0)
	assert.Equal(t, image.Pt(128, 128), half.Rect.Size())
	assert.True(t, IsBig(img.Source(), 256))
	assert.False(t, IsBig(img.Source(), 2048))
}
