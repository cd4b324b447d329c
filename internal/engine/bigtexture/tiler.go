package bigtexture

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/engine/clip"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// region is one tile window in texture coordinate space together with the
// clipped polygons that fall in it.
type region struct {
	start, end math.Vec2
	planes     [4]math.Plane
	// faces holds the corner count of every polygon; verts their corners.
	faces []int
	verts []primitive.Vertex
}

func (r *region) bounds() math.Box2 {
	b := math.EmptyBox2()
	b.ExtendBy(r.start)
	b.ExtendBy(r.end)
	return b
}

func (r *region) contains(p math.Vec2) bool {
	return p.X >= r.start.X && p.X <= r.end.X && p.Y >= r.start.Y && p.Y <= r.end.Y
}

// Fragment is one clipped polygon assigned to a tile.
type Fragment struct {
	Tile     int
	Vertices []primitive.Vertex
}

// Tiler collects triangles of one shape and draws them tile by tile. It is
// a primitive.Sink; lines and points are ignored.
type Tiler struct {
	cfg     config.RenderConfig
	img     *Image
	quality float32
	tris    []primitive.Vertex
	regions []region
	clipper *clip.Polygon[primitive.Vertex]
}

// NewTiler returns a tiler using the tile limits in cfg.
func NewTiler(cfg config.RenderConfig) *Tiler {
	t := &Tiler{cfg: cfg}
	t.clipper = clip.New(interpolate)
	return t
}

// interpolate blends point and normal along the clipped edge. The new
// texture coordinate is the clip position itself, which lives in texture
// space.
func interpolate(a, b clip.Vertex[primitive.Vertex], p math.Vec3, _ float32) primitive.Vertex {
	dist := b.Point.Sub(a.Point).Length()
	f := float32(0)
	if dist != 0 {
		f = p.Sub(a.Point).Length() / dist
	}
	v := a.Data
	v.Point = a.Data.Point.Add(b.Data.Point.Sub(a.Data.Point).Scale(f))
	v.Normal = a.Data.Normal.Add(b.Data.Normal.Sub(a.Data.Normal).Scale(f))
	v.TexCoord = math.Vec4{p.X, p.Y, 0, 1}
	return v
}

// BeginShape starts collecting triangles textured with img. The tile size
// grows from the configured minimum until the tile count fits the maximum.
func (t *Tiler) BeginShape(img *Image, quality float32) {
	t.img = img
	t.quality = quality
	t.tris = t.tris[:0]

	size := max(t.cfg.BigTextureMinTile, 1)
	maxTile := max(t.cfg.BigTextureMaxTile, size)
	maxTiles := max(t.cfg.BigTextureMaxTiles, 1)
	num := img.InitTiles(size)
	for num > maxTiles && size < maxTile {
		size <<= 1
		num = img.InitTiles(size)
	}

	if cap(t.regions) < num {
		t.regions = make([]region, num)
	}
	t.regions = t.regions[:num]
	for i := range t.regions {
		r := &t.regions[i]
		r.faces = r.faces[:0]
		r.verts = r.verts[:0]
		r.start, r.end = img.Region(i)
		r.planes = [4]math.Plane{
			{Normal: math.Vec3{X: 1}, Distance: r.start.X},
			{Normal: math.Vec3{Y: 1}, Distance: r.start.Y},
			{Normal: math.Vec3{X: -1}, Distance: -min(r.end.X, 1)},
			{Normal: math.Vec3{Y: -1}, Distance: -min(r.end.Y, 1)},
		}
	}
}

// Triangle implements primitive.Sink.
func (t *Tiler) Triangle(a, b, c *primitive.Vertex, _ primitive.Detail) {
	t.tris = append(t.tris, *a, *b, *c)
}

// Line implements primitive.Sink.
func (t *Tiler) Line(_, _ *primitive.Vertex, _ primitive.Detail) {}

// Point implements primitive.Sink.
func (t *Tiler) Point(*primitive.Vertex, primitive.Detail) {}

// Clip distributes the collected triangles over the tiles. texMatrix
// transforms texture coordinates first. visible, when not nil, rejects
// pieces whose object space box it returns false for.
func (t *Tiler) Clip(texMatrix math.Mat4, wrapS, wrapT state.Wrap, visible func(math.Box3) bool) {
	identity := texMatrix == (math.Mat4{}) || texMatrix.IsIdentity()
	for i := range t.tris {
		tc := t.tris[i].TexCoord
		if !identity {
			tc = texMatrix.MulVec4(tc)
		}
		p := tc.Project()
		t.tris[i].TexCoord = math.Vec4{p.X, p.Y, p.Z, 1}
	}

	var tri [3]primitive.Vertex
	for i := 0; i+2 < len(t.tris); i += 3 {
		box := math.EmptyBox2()
		for k := 0; k < 3; k++ {
			tc := t.tris[i+k].TexCoord
			box.ExtendBy(math.Vec2{X: tc[0], Y: tc[1]})
		}
		x0, y0 := int(math32.Floor(box.Min.X)), int(math32.Floor(box.Min.Y))
		x1, y1 := int(math32.Ceil(box.Max.X)), int(math32.Ceil(box.Max.Y))
		for wy := y0; wy < y1; wy++ {
			for wx := x0; wx < x1; wx++ {
				shift := math.Vec2{X: float32(-wx), Y: float32(-wy)}
				for k := 0; k < 3; k++ {
					tri[k] = t.tris[i+k]
					tri[k].TexCoord[0] += shift.X
					tri[k].TexCoord[1] += shift.Y
				}
				t.handleTriangle(tri, wrapS, wrapT, shift, visible)
			}
		}
	}
}

func (t *Tiler) handleTriangle(tri [3]primitive.Vertex, wrapS, wrapT state.Wrap, shift math.Vec2, visible func(math.Box3) bool) {
	box := math.EmptyBox2()
	for _, v := range tri {
		box.ExtendBy(math.Vec2{X: v.TexCoord[0], Y: v.TexCoord[1]})
	}
	clamp := wrapS == state.Clamp || wrapT == state.Clamp
	for i := range t.regions {
		reg := &t.regions[i]
		if !reg.bounds().Intersects(box) {
			continue
		}
		c := t.clipper
		c.Reset()
		for _, v := range tri {
			c.Add(math.Vec3{X: v.TexCoord[0], Y: v.TexCoord[1]}, v)
		}
		for _, pl := range reg.planes {
			c.Clip(pl)
		}
		verts := c.Vertices()
		if len(verts) < 3 {
			continue
		}
		if visible != nil {
			obox := math.EmptyBox3()
			for _, v := range verts {
				obox.ExtendBy(v.Data.Point)
			}
			if !visible(obox) {
				continue
			}
		}

		dst := reg
		if clamp {
			var mean math.Vec2
			for k := range verts {
				tc := &verts[k].Data.TexCoord
				if wrapS == state.Clamp {
					tc[0] = clampUnit(tc[0] - shift.X)
				}
				if wrapT == state.Clamp {
					tc[1] = clampUnit(tc[1] - shift.Y)
				}
				mean.X += tc[0]
				mean.Y += tc[1]
			}
			mean = mean.Scale(1 / float32(len(verts)))
			// Clamping can move the polygon to another tile.
			for k := range t.regions {
				dst = &t.regions[k]
				if dst.contains(mean) {
					break
				}
			}
		}
		dst.faces = append(dst.faces, len(verts))
		for _, v := range verts {
			dst.verts = append(dst.verts, v.Data)
		}
	}
}

func clampUnit(v float32) float32 {
	return max(0, min(v, 1))
}

// Fragments returns every clipped polygon in tile order.
func (t *Tiler) Fragments() []Fragment {
	var out []Fragment
	for i := range t.regions {
		r := &t.regions[i]
		n := 0
		for _, cnt := range r.faces {
			out = append(out, Fragment{Tile: i, Vertices: r.verts[n : n+cnt]})
			n += cnt
		}
	}
	return out
}

// EndShape clips the collected triangles and draws them with one pass per
// touched tile. It returns false when some tiles could not be brought to
// the wanted resolution this frame, asking the caller to redraw.
func (t *Tiler) EndShape(s *state.State, b backend.Backend) bool {
	unit := state.Texture(s, 0)
	model := state.Get(s, state.ModelMatrixKey)
	cull := state.Get(s, state.CullKey)
	t.Clip(unit.Matrix, unit.WrapS, unit.WrapT, func(box math.Box3) bool {
		outside, _ := cull.CullTest(box, model)
		return !outside
	})

	mat := state.Get(s, state.MaterialKey)
	mvp := state.Get(s, state.ProjectionMatrixKey).
		Mul(state.Get(s, state.ViewMatrixKey)).
		Mul(model)
	vp := state.Get(s, state.ViewportKey)

	b.MatrixMode(backend.TextureMatrix)
	b.PushMatrix()
	b.LoadMatrix(math.Identity())
	b.MatrixMode(backend.ModelView)

	for i := range t.regions {
		r := &t.regions[i]
		if len(r.faces) == 0 {
			continue
		}
		box := math.EmptyBox3()
		for _, v := range r.verts {
			box.ExtendBy(v.Point)
		}
		t.img.Apply(b, i, t.quality, ScreenSize(mvp, vp, box), wrap(unit.WrapS), wrap(unit.WrapT))

		n := 0
		lastColor, sent := uint32(0), false
		for _, cnt := range r.faces {
			b.Begin(backend.TriangleFan)
			for _, v := range r.verts[n : n+cnt] {
				tc := v.TexCoord
				tc[0] = (tc[0] - r.start.X) / (r.end.X - r.start.X)
				tc[1] = (tc[1] - r.start.Y) / (r.end.Y - r.start.Y)
				b.TexCoord(0, tc)
				b.Normal(v.Normal)
				if col := mat.RGBA(v.MaterialIndex); !sent || col != lastColor {
					b.Color(col)
					lastColor, sent = col, true
				}
				b.Vertex(v.Point)
			}
			b.End()
			n += cnt
		}
	}

	b.MatrixMode(backend.TextureMatrix)
	b.PopMatrix()
	b.MatrixMode(backend.ModelView)
	return !t.img.ExceededChangeLimit()
}

func wrap(w state.Wrap) backend.Wrap {
	if w == state.Clamp {
		return backend.WrapClamp
	}
	return backend.WrapRepeat
}

// ScreenSize returns the pixel extent of box projected by mvp into vp.
func ScreenSize(mvp math.Mat4, vp state.Viewport, box math.Box3) image.Point {
	if box.IsEmpty() {
		return image.Point{}
	}
	ndc := math.EmptyBox2()
	for _, c := range box.Corners() {
		h := mvp.MulVec4(c.Vec4(1))
		if h[3] <= 0 {
			// Behind the eye: assume it covers the viewport.
			return image.Point{X: vp.Width, Y: vp.Height}
		}
		ndc.ExtendBy(math.Vec2{X: h[0] / h[3], Y: h[1] / h[3]})
	}
	size := ndc.Size()
	return image.Point{
		X: int(math32.Ceil(size.X * 0.5 * float32(vp.Width))),
		Y: int(math32.Ceil(size.Y * 0.5 * float32(vp.Height))),
	}
}
