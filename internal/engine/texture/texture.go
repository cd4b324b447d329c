// Package texture loads images used as big textures and bump maps, and
// builds the procedural images of the demo scene.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned for images no registered decoder reads.
var ErrUnsupportedFormat = errors.New("texture: unsupported image format")

// Load reads and decodes the image at path.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	img, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes data. TGA has no signature, so it is selected by the
// extension ext; other formats are sniffed.
func Decode(data []byte, ext string) (image.Image, error) {
	if strings.EqualFold(ext, ".tga") {
		return decodeTGA(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return img, err
}

// ToRGBA returns img as *image.RGBA with its origin at (0, 0), converting
// when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}

// Checker returns a size x size checkerboard with cells x cells squares.
func Checker(size, cells int, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := max(size/max(cells, 1), 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Bumps returns a gray height map of size x size with a raised dot in the
// middle of every cell.
func Bumps(size, cells int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	cell := max(size/max(cells, 1), 1)
	r := float32(cell) / 3
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float32(x%cell) - float32(cell)/2
			dy := float32(y%cell) - float32(cell)/2
			h := 1 - (dx*dx+dy*dy)/(r*r)
			if h < 0 {
				h = 0
			}
			img.SetGray(x, y, color.Gray{Y: uint8(h * 255)})
		}
	}
	return img
}

// NormalMap converts a height map to a tangent space normal map. Heights are
// read from the red channel; strength scales the slopes. Edges clamp.
func NormalMap(height image.Image, strength float32) *image.RGBA {
	b := height.Bounds()
	w, h := b.Dx(), b.Dy()
	at := func(x, y int) float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		r, _, _, _ := height.At(b.Min.X+x, b.Min.Y+y).RGBA()
		return float32(r) / 0xffff
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	enc := func(v float32) uint8 { return uint8((v*0.5+0.5)*255 + 0.5) }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y) - at(x-1, y)) * strength
			dy := (at(x, y+1) - at(x, y-1)) * strength
			l := math32.Sqrt(dx*dx + dy*dy + 1)
			out.SetRGBA(x, y, color.RGBA{R: enc(-dx / l), G: enc(-dy / l), B: enc(1 / l), A: 0xff})
		}
	}
	return out
}
