package shape

import (
	"strings"
	"sync"

	"github.com/chewxy/math32"
)

// MarkerNone draws nothing at a marker position.
const MarkerNone = -1

// MarkerShape is one of the built-in marker glyphs.
type MarkerShape int

const (
	Cross MarkerShape = iota
	Plus
	Minus
	Slash
	Backslash
	Bar
	Star
	Y
	Lightning
	Well
	CircleLine
	SquareLine
	DiamondLine
	TriangleLine
	CircleFilled
	SquareFilled
	DiamondFilled
	TriangleFilled
	numMarkerShapes
)

// markerSizes are the glyph sizes of every built-in shape, in index order.
var markerSizes = [...]int{5, 7, 9}

// NumBuiltinMarkers is the number of built-in marker indices.
const NumBuiltinMarkers = int(numMarkerShapes) * len(markerSizes)

// BuiltinMarker returns the marker index of shape at size 5, 7 or 9. Other
// sizes use the nearest smaller one, with 5 as the floor.
func BuiltinMarker(shape MarkerShape, size int) int {
	k := 0
	for i, s := range markerSizes {
		if size >= s {
			k = i
		}
	}
	return int(shape)*len(markerSizes) + k
}

// MarkerImage is a one bit per pixel glyph in the layout the bitmap draw
// call expects: rows from bottom to top, most significant bit first, each
// row padded to four bytes.
type MarkerImage struct {
	Width, Height int
	Bits          []byte
}

func markerStride(width int) int { return (width + 31) / 32 * 4 }

// NewMarkerImage returns an empty glyph.
func NewMarkerImage(width, height int) MarkerImage {
	return MarkerImage{Width: width, Height: height, Bits: make([]byte, markerStride(width)*height)}
}

// ParseMarker builds a glyph from rows written top to bottom where 'x'
// marks a set pixel.
func ParseMarker(rows ...string) MarkerImage {
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	img := NewMarkerImage(w, len(rows))
	for y, r := range rows {
		for x, c := range r {
			if c == 'x' {
				img.Set(x, y)
			}
		}
	}
	return img
}

// Set turns on pixel (x, y), with y counted from the top.
func (m MarkerImage) Set(x, y int) {
	row := m.Height - 1 - y
	m.Bits[row*markerStride(m.Width)+x/8] |= 0x80 >> (x % 8)
}

// IsSet reports whether pixel (x, y) is on, with y counted from the top.
func (m MarkerImage) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	row := m.Height - 1 - y
	return m.Bits[row*markerStride(m.Width)+x/8]&(0x80>>(x%8)) != 0
}

// String renders the glyph as 'x' and ' ' rows, top first.
func (m MarkerImage) String() string {
	var sb strings.Builder
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.IsSet(x, y) {
				sb.WriteByte('x')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

const glyphSize = 9

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// covers reports whether the glyph of shape with radius r covers the
// offset (dx, dy) from its center, dy pointing up.
func (shape MarkerShape) covers(dx, dy, r int) bool {
	ax, ay := iabs(dx), iabs(dy)
	if ax > r || ay > r {
		return false
	}
	switch shape {
	case Cross:
		return ax == ay
	case Plus:
		return dx == 0 || dy == 0
	case Minus:
		return dy == 0
	case Slash:
		return dx == dy
	case Backslash:
		return dx == -dy
	case Bar:
		return dx == 0
	case Star:
		return ax == ay || dx == 0 || dy == 0
	case Y:
		return (dy >= 0 && ax == dy) || (dx == 0 && dy <= 0)
	case Lightning:
		return (dy >= 0 && dx == floorDiv(2*dy-r, 2)) ||
			(dy == 0 && ax <= r/2) ||
			(dy <= 0 && dx == floorDiv(2*dy+r, 2))
	case Well:
		h := (r + 1) / 2
		return ax == h || ay == h
	case CircleLine:
		return int(math32.Round(math32.Sqrt(float32(dx*dx+dy*dy)))) == r
	case CircleFilled:
		return dx*dx+dy*dy <= r*r+r
	case SquareLine:
		return max(ax, ay) == r
	case SquareFilled:
		return true
	case DiamondLine:
		return ax+ay == r
	case DiamondFilled:
		return ax+ay <= r
	case TriangleLine:
		half := floorDiv(r-dy, 2)
		return dy == -r || ax == half
	case TriangleFilled:
		return ax <= floorDiv(r-dy, 2)
	}
	return false
}

// rasterize draws shape at size into a glyphSize square glyph.
func (shape MarkerShape) rasterize(size int) MarkerImage {
	img := NewMarkerImage(glyphSize, glyphSize)
	c, r := glyphSize/2, (size-1)/2
	for y := 0; y < glyphSize; y++ {
		for x := 0; x < glyphSize; x++ {
			if shape.covers(x-c, c-y, r) {
				img.Set(x, y)
			}
		}
	}
	return img
}

// MarkerRegistry maps marker indices to glyphs. Indices below
// NumBuiltinMarkers start out as the built-in glyphs.
type MarkerRegistry struct {
	mu     sync.RWMutex
	images map[int]MarkerImage
}

// NewMarkerRegistry returns a registry holding the built-in glyphs.
func NewMarkerRegistry() *MarkerRegistry {
	r := &MarkerRegistry{images: make(map[int]MarkerImage, NumBuiltinMarkers)}
	for shape := MarkerShape(0); shape < numMarkerShapes; shape++ {
		for _, size := range markerSizes {
			r.images[BuiltinMarker(shape, size)] = shape.rasterize(size)
		}
	}
	return r
}

// DefaultMarkers is the registry used by marker sets without their own.
var DefaultMarkers = NewMarkerRegistry()

// AddMarker installs img at index, replacing any glyph already there.
func (r *MarkerRegistry) AddMarker(index int, img MarkerImage) {
	if index < 0 {
		return
	}
	r.mu.Lock()
	r.images[index] = img
	r.mu.Unlock()
}

// RemoveMarker deletes a glyph added with AddMarker. Built-in indices are
// restored to their original glyph. It reports whether index was known.
func (r *MarkerRegistry) RemoveMarker(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[index]; !ok {
		return false
	}
	if index < NumBuiltinMarkers {
		shape := MarkerShape(index / len(markerSizes))
		r.images[index] = shape.rasterize(markerSizes[index%len(markerSizes)])
		return true
	}
	delete(r.images, index)
	return true
}

// Marker returns the glyph at index.
func (r *MarkerRegistry) Marker(index int) (MarkerImage, bool) {
	r.mu.RLock()
	img, ok := r.images[index]
	r.mu.RUnlock()
	return img, ok
}

// Len returns the number of registered glyphs.
func (r *MarkerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.images)
}
