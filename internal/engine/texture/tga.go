package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

const (
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10
	tgaGray         = 3
	tgaGrayRLE      = 11

	tgaHeaderSize = 18
)

type tgaHeader struct {
	idLength  int
	colorMap  byte
	imageType byte
	width     int
	height    int
	depth     int
	topDown   bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("tga: header truncated (%d bytes)", len(data))
	}
	return tgaHeader{
		idLength:  int(data[0]),
		colorMap:  data[1],
		imageType: data[2],
		width:     int(binary.LittleEndian.Uint16(data[12:])),
		height:    int(binary.LittleEndian.Uint16(data[14:])),
		depth:     int(data[16]),
		topDown:   data[17]&0x20 != 0,
	}, nil
}

func (h tgaHeader) rle() bool { return h.imageType == tgaTrueColorRLE || h.imageType == tgaGrayRLE }

func (h tgaHeader) check() error {
	if h.colorMap != 0 {
		return fmt.Errorf("%w: color-mapped tga", ErrUnsupportedFormat)
	}
	switch h.imageType {
	case tgaTrueColor, tgaTrueColorRLE:
		if h.depth != 24 && h.depth != 32 {
			return fmt.Errorf("%w: tga depth %d", ErrUnsupportedFormat, h.depth)
		}
	case tgaGray, tgaGrayRLE:
		if h.depth != 8 {
			return fmt.Errorf("%w: grayscale tga depth %d", ErrUnsupportedFormat, h.depth)
		}
	default:
		return fmt.Errorf("%w: tga type %d", ErrUnsupportedFormat, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return fmt.Errorf("tga: empty image %dx%d", h.width, h.height)
	}
	return nil
}

// decodeTGA decodes true-color and grayscale TGA images, raw or run-length
// encoded. Height maps for bump mapping are commonly stored as 8-bit
// grayscale TGA.
func decodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.check(); err != nil {
		return nil, err
	}
	off := tgaHeaderSize + h.idLength
	if off > len(data) {
		return nil, fmt.Errorf("tga: id field truncated")
	}
	src := data[off:]
	bpp := h.depth / 8

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	n := h.width * h.height
	put := func(i int, px []byte) {
		x, y := i%h.width, i/h.width
		if !h.topDown {
			y = h.height - 1 - y
		}
		img.SetRGBA(x, y, tgaPixel(px, bpp))
	}

	if !h.rle() {
		if len(src) < n*bpp {
			return nil, fmt.Errorf("tga: pixel data truncated (%d of %d bytes)", len(src), n*bpp)
		}
		for i := 0; i < n; i++ {
			put(i, src[i*bpp:])
		}
		return img, nil
	}

	i, p := 0, 0
	for i < n {
		if p >= len(src) {
			return nil, fmt.Errorf("tga: rle data truncated at pixel %d", i)
		}
		hdr := src[p]
		p++
		run := int(hdr&0x7f) + 1
		if hdr&0x80 != 0 {
			if p+bpp > len(src) {
				return nil, fmt.Errorf("tga: rle data truncated at pixel %d", i)
			}
			for ; run > 0 && i < n; run-- {
				put(i, src[p:])
				i++
			}
			p += bpp
			continue
		}
		for ; run > 0 && i < n; run-- {
			if p+bpp > len(src) {
				return nil, fmt.Errorf("tga: rle data truncated at pixel %d", i)
			}
			put(i, src[p:])
			p += bpp
			i++
		}
	}
	return img, nil
}

// tgaPixel converts one stored pixel of bpp bytes (BGR or BGRA order, or a
// single gray byte).
func tgaPixel(px []byte, bpp int) color.RGBA {
	switch bpp {
	case 1:
		return color.RGBA{R: px[0], G: px[0], B: px[0], A: 0xff}
	case 4:
		return color.RGBA{R: px[2], G: px[1], B: px[0], A: px[3]}
	}
	return color.RGBA{R: px[2], G: px[1], B: px[0], A: 0xff}
}
