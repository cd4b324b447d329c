// Package bigtexture draws shapes textured with images larger than the
// backend can upload in one piece. The image is cut into square tiles,
// triangles are clipped per tile and each tile is drawn with its own
// texture at a resolution matching its size on screen.
package bigtexture

import (
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/shapekit/internal/engine/backend"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// linearLimit is the texture quality from which tiles are scaled with a
// smooth kernel.
const linearLimit = 0.5

type tile struct {
	tex backend.Texture
	// div is the resolution divisor the tile was last uploaded with.
	div int
}

// Image is a tiled oversized image.
type Image struct {
	src    image.Image
	size   image.Point
	tile   int
	dim    image.Point
	tcmul  math.Vec2
	tiles  []tile
	limit  int
	change int
}

// NewImage wraps src. changeLimit bounds how many tiles may be re-uploaded
// at a new resolution per shape.
func NewImage(src image.Image, changeLimit int) *Image {
	if changeLimit <= 0 {
		changeLimit = 1
	}
	return &Image{src: src, size: src.Bounds().Size(), limit: changeLimit}
}

// Source returns the wrapped image.
func (im *Image) Source() image.Image { return im.src }

// IsBig reports whether img does not fit in a maxSize texture.
func IsBig(img image.Image, maxSize int) bool {
	if img == nil || maxSize <= 0 {
		return false
	}
	s := img.Bounds().Size()
	return s.X > maxSize || s.Y > maxSize
}

// InitTiles splits the image into tiles of size pixels and returns the tile
// count. It resets the per-shape change counter.
func (im *Image) InitTiles(size int) int {
	im.change = 0
	if size == im.tile && im.dim.X > 0 {
		return im.dim.X * im.dim.Y
	}
	im.tile = size
	im.dim = image.Point{X: (im.size.X + size - 1) / size, Y: (im.size.Y + size - 1) / size}
	if im.size.X == 0 || im.size.Y == 0 {
		im.dim = image.Point{}
		im.tcmul = math.Vec2{X: 1, Y: 1}
	} else {
		im.tcmul = math.Vec2{
			X: float32(im.dim.X*size) / float32(im.size.X),
			Y: float32(im.dim.Y*size) / float32(im.size.Y),
		}
	}
	return im.dim.X * im.dim.Y
}

// TileSize returns the current tile edge in pixels.
func (im *Image) TileSize() int { return im.tile }

// Region returns the texture coordinate window of tile i. The last row and
// column may reach past 1.
func (im *Image) Region(i int) (start, end math.Vec2) {
	x, y := i%im.dim.X, i/im.dim.X
	fx, fy := float32(im.dim.X), float32(im.dim.Y)
	start = math.Vec2{X: float32(x) / fx * im.tcmul.X, Y: float32(y) / fy * im.tcmul.Y}
	end = math.Vec2{X: float32(x+1) / fx * im.tcmul.X, Y: float32(y+1) / fy * im.tcmul.Y}
	return start, end
}

// divisor returns the largest power of two by which the tile can shrink and
// still cover projected pixels.
func (im *Image) divisor(projected image.Point) int {
	div := 2
	for im.tile/div > projected.X && im.tile/div > projected.Y {
		div <<= 1
	}
	return div >> 1
}

// Apply binds tile i, uploading it first when missing or when its wanted
// resolution changed and the change limit allows it.
func (im *Image) Apply(b backend.Backend, i int, quality float32, projected image.Point, wrapS, wrapT backend.Wrap) {
	if len(im.tiles) != im.dim.X*im.dim.Y {
		im.Release(b)
		im.tiles = make([]tile, im.dim.X*im.dim.Y)
	}
	t := &im.tiles[i]
	div := im.divisor(projected)
	if t.tex == 0 || (t.div != div && im.change < im.limit) {
		if t.tex == 0 {
			t.tex = b.GenTexture()
		} else {
			im.change++
		}
		t.div = div
		b.BindTexture(t.tex)
		b.TexImage(im.TileImage(i, div, quality), wrapS, wrapT)
		logger.Debug("big texture tile uploaded",
			zap.Int("tile", i), zap.Int("divisor", div), zap.Int("changes", im.change))
		return
	}
	b.BindTexture(t.tex)
}

// TileImage returns tile i at 1/div resolution. Pixels beyond the image
// edge stay transparent.
func (im *Image) TileImage(i, div int, quality float32) *image.RGBA {
	if div < 1 {
		div = 1
	}
	side := max(im.tile/div, 1)
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	x, y := i%im.dim.X, i/im.dim.X
	origin := im.src.Bounds().Min
	sr := image.Rect(x*im.tile, y*im.tile, (x+1)*im.tile, (y+1)*im.tile).Add(origin).Intersect(im.src.Bounds())
	if sr.Empty() {
		return dst
	}
	// Part of the destination the clipped source maps to.
	dr := image.Rect(0, 0,
		(sr.Dx()*side+im.tile-1)/im.tile,
		(sr.Dy()*side+im.tile-1)/im.tile)
	switch {
	case div == 1:
		draw.Copy(dst, image.Point{}, im.src, sr, draw.Src, nil)
	case quality >= linearLimit:
		draw.CatmullRom.Scale(dst, dr, im.src, sr, draw.Src, nil)
	default:
		draw.ApproxBiLinear.Scale(dst, dr, im.src, sr, draw.Src, nil)
	}
	return dst
}

// ExceededChangeLimit reports whether tiles were left at a stale
// resolution because too many changed at once.
func (im *Image) ExceededChangeLimit() bool { return im.change >= im.limit }

// Release deletes every tile texture.
func (im *Image) Release(b backend.Backend) {
	for _, t := range im.tiles {
		if t.tex != 0 {
			b.DeleteTexture(t.tex)
		}
	}
	im.tiles = nil
}
