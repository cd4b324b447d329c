package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tgaFile(imageType, depth, desc byte, w, h int, pixels []byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = depth
	hdr[17] = desc
	return append(hdr, pixels...)
}

func TestDecodeTGA(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want [4]color.RGBA // (0,0) (1,0) (0,1) (1,1)
	}{
		{
			name: "bottom-up bgr",
			data: tgaFile(tgaTrueColor, 24, 0, 2, 2, []byte{
				0, 0, 255, 0, 255, 0, // bottom row: red, green
				255, 0, 0, 255, 255, 255, // top row: blue, white
			}),
			want: [4]color.RGBA{
				{B: 255, A: 255}, {R: 255, G: 255, B: 255, A: 255},
				{R: 255, A: 255}, {G: 255, A: 255},
			},
		},
		{
			name: "top-down bgra",
			data: tgaFile(tgaTrueColor, 32, 0x20, 2, 1, []byte{
				1, 2, 3, 4, 5, 6, 7, 8,
			}),
			want: [4]color.RGBA{{R: 3, G: 2, B: 1, A: 4}, {R: 7, G: 6, B: 5, A: 8}},
		},
		{
			name: "rle gray",
			data: tgaFile(tgaGrayRLE, 8, 0x20, 2, 2, []byte{
				0x81, 10, // run of two
				0x01, 20, 30, // two raw
			}),
			want: [4]color.RGBA{
				{R: 10, G: 10, B: 10, A: 255}, {R: 10, G: 10, B: 10, A: 255},
				{R: 20, G: 20, B: 20, A: 255}, {R: 30, G: 30, B: 30, A: 255},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data, ".TGA")
			require.NoError(t, err)
			rgba := ToRGBA(img)
			w := rgba.Rect.Dx()
			for i, want := range tt.want {
				x, y := i%2, i/2
				if x >= w || y >= rgba.Rect.Dy() {
					continue
				}
				assert.Equal(t, want, rgba.RGBAAt(x, y), "pixel %d,%d", x, y)
			}
		})
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3}, ".tga")
	assert.Error(t, err)

	_, err = Decode(tgaFile(1, 8, 0, 1, 1, []byte{0}), ".tga")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode(tgaFile(tgaTrueColor, 24, 0, 4, 4, []byte{1, 2, 3}), ".tga")
	assert.Error(t, err)

	_, err = Decode(tgaFile(tgaTrueColorRLE, 24, 0, 4, 4, []byte{0x83, 1, 2, 3}), ".tga")
	assert.Error(t, err)
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, err := Decode([]byte("not an image"), ".xyz")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, Checker(8, 2, color.RGBA{A: 255}, color.RGBA{R: 255, A: 255})))
	path := filepath.Join(t.TempDir(), "checker.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	rgba := ToRGBA(img)
	assert.Equal(t, uint8(0), rgba.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), rgba.RGBAAt(4, 0).R)

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestToRGBAOffsetOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(2, 2, color.RGBA{G: 9, A: 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))
	rgba := ToRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 2, 2), rgba.Rect)
	assert.Equal(t, uint8(9), rgba.RGBAAt(0, 0).G)
}

func TestBumps(t *testing.T) {
	img := Bumps(16, 2)
	assert.Equal(t, uint8(255), img.GrayAt(4, 4).Y)
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
}

func TestNormalMap(t *testing.T) {
	flat := NormalMap(image.NewGray(image.Rect(0, 0, 4, 4)), 1)
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 255, A: 255}, flat.RGBAAt(1, 1))

	ramp := image.NewGray(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		ramp.SetGray(x, 0, color.Gray{Y: uint8(x * 80)})
	}
	n := NormalMap(ramp, 4)
	assert.Less(t, n.RGBAAt(1, 0).R, uint8(128), "normal tilts against the slope")
	assert.Equal(t, uint8(128), n.RGBAAt(1, 0).G)
}
