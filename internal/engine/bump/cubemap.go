package bump

import (
	"image"
	"image/color"

	"github.com/Faultbox/shapekit/pkg/math"
)

// cubeSize is the edge length of each normalization cube map face.
const cubeSize = 32

// cubeDirection returns the direction through pixel (x, y) of a cube map
// face, in the +X, -X, +Y, -Y, +Z, -Z face order.
func cubeDirection(face, x, y int) math.Vec3 {
	s := (float32(x)+0.5)/cubeSize*2 - 1
	t := (float32(y)+0.5)/cubeSize*2 - 1
	switch face {
	case 0:
		return math.Vec3{X: 1, Y: -t, Z: -s}
	case 1:
		return math.Vec3{X: -1, Y: -t, Z: s}
	case 2:
		return math.Vec3{X: s, Y: 1, Z: t}
	case 3:
		return math.Vec3{X: s, Y: -1, Z: -t}
	case 4:
		return math.Vec3{X: s, Y: -t, Z: 1}
	default:
		return math.Vec3{X: -s, Y: -t, Z: -1}
	}
}

// NormalizationFace returns one face of a cube map whose texels hold the
// normalized lookup direction, biased into [0, 255].
func NormalizationFace(face int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cubeSize, cubeSize))
	for y := 0; y < cubeSize; y++ {
		for x := 0; x < cubeSize; x++ {
			d := cubeDirection(face, x, y).Normalize()
			img.SetRGBA(x, y, color.RGBA{
				R: encode(d.X),
				G: encode(d.Y),
				B: encode(d.Z),
				A: 255,
			})
		}
	}
	return img
}

func encode(v float32) uint8 {
	return uint8((v*0.5+0.5)*255 + 0.5)
}
