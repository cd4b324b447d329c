package debug

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/shapekit/pkg/math"
)

func TestBoxWireframe(t *testing.T) {
	box := math.Box3{Min: math.Vec3{}, Max: math.Vec3{X: 1, Y: 2, Z: 3}}
	lines := BoxWireframe(box, 0)
	require.Len(t, lines, BoxEdgeVertexCount)
	for i := 0; i < len(lines); i += 2 {
		d := lines[i+1].Sub(lines[i])
		axes := 0
		for _, c := range d.Array() {
			if c != 0 {
				axes++
			}
		}
		assert.Equal(t, 1, axes, "edge %d is axis aligned", i/2)
	}

	padded := BoxWireframe(box, 1)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, padded[0])

	assert.Nil(t, BoxWireframe(math.EmptyBox3(), 0))
}

func TestFromPixelsFlipsRows(t *testing.T) {
	// Two rows: bottom red, top green.
	pixels := []byte{
		255, 0, 0, 255,
		0, 255, 0, 255,
	}
	img, err := FromPixels(pixels, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).G)
	assert.Equal(t, uint8(255), img.RGBAAt(0, 1).R)

	_, err = FromPixels(pixels, 2, 2)
	assert.Error(t, err)
}

func TestScreenshotsSave(t *testing.T) {
	dir := t.TempDir()
	s := NewScreenshots(dir, "frame")
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	img, err := FromPixels(make([]byte, 16), 2, 2)
	require.NoError(t, err)
	name, err := s.Save(img)
	require.NoError(t, err)
	assert.Contains(t, name, "frame_2024-01-02_03-04-05.png")
	_, err = os.Stat(name)
	assert.NoError(t, err)
}
