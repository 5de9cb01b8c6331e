package texture

import (
	"errors"
	"fmt"
	"image"
)

// MaxPixels bounds the area of any decoded image, checked before pixels are
// allocated.
const MaxPixels = 8192 * 8192

const (
	tgaHeaderSize       = 18
	tgaTypeUncompressed = 2
	tgaTypeRLE          = 10
	tgaMaxRun           = 128
	tgaTopToBottom      = 0x20
)

var (
	// ErrNotTGA means the header does not describe a true-color TGA image.
	ErrNotTGA = fmt.Errorf("%w: not a supported TGA image", ErrTextureDecodeFailed)
	// ErrTGATruncated means the pixel data ends before the image is complete.
	ErrTGATruncated = fmt.Errorf("%w: TGA pixel data truncated", ErrTextureDecodeFailed)
	// ErrImageTooLarge means the declared dimensions exceed MaxPixels.
	ErrImageTooLarge = fmt.Errorf("%w: image too large", ErrTextureDecodeFailed)
)

type tgaHeader struct {
	width, height int
	pixelSize     int // bytes per pixel, 3 or 4
	rle           bool
	topToBottom   bool
	dataOffset    int
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, ErrNotTGA
	}
	imageType := data[2]
	bpp := int(data[16])
	switch {
	case data[1] != 0:
		return tgaHeader{}, fmt.Errorf("%w: color-mapped", ErrNotTGA)
	case imageType != tgaTypeUncompressed && imageType != tgaTypeRLE:
		return tgaHeader{}, fmt.Errorf("%w: image type %d", ErrNotTGA, imageType)
	case bpp != 24 && bpp != 32:
		return tgaHeader{}, fmt.Errorf("%w: %d bits per pixel", ErrNotTGA, bpp)
	}

	h := tgaHeader{
		width:       int(data[12]) | int(data[13])<<8,
		height:      int(data[14]) | int(data[15])<<8,
		pixelSize:   bpp / 8,
		rle:         imageType == tgaTypeRLE,
		topToBottom: data[17]&tgaTopToBottom != 0,
		dataOffset:  tgaHeaderSize + int(data[0]),
	}
	if h.width == 0 || h.height == 0 {
		return tgaHeader{}, fmt.Errorf("%w: zero size", ErrNotTGA)
	}
	if h.width*h.height > MaxPixels {
		return tgaHeader{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, h.width, h.height)
	}
	if h.dataOffset > len(data) {
		return tgaHeader{}, ErrTGATruncated
	}
	return h, nil
}

// minDataSize is the fewest pixel bytes that can describe the whole image.
func (h tgaHeader) minDataSize() int {
	pixels := h.width * h.height
	if !h.rle {
		return pixels * h.pixelSize
	}
	packets := (pixels + tgaMaxRun - 1) / tgaMaxRun
	return packets * (1 + h.pixelSize)
}

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color TGA
// image with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	src := data[h.dataOffset:]
	if len(src) < h.minDataSize() {
		return nil, ErrTGATruncated
	}

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	total := h.width * h.height
	put := func(n int, bgra []byte) {
		x, y := n%h.width, n/h.width
		if !h.topToBottom {
			y = h.height - 1 - y
		}
		px := img.Pix[y*img.Stride+x*4:]
		px[0], px[1], px[2], px[3] = bgra[2], bgra[1], bgra[0], 255
		if h.pixelSize == 4 {
			px[3] = bgra[3]
		}
	}

	if !h.rle {
		for n := range total {
			put(n, src[n*h.pixelSize:])
		}
		return img, nil
	}

	n, pos := 0, 0
	for n < total {
		if pos >= len(src) {
			return nil, ErrTGATruncated
		}
		packet := src[pos]
		pos++
		run := min(int(packet&0x7F)+1, total-n)
		repeat := packet&0x80 != 0

		need := h.pixelSize
		if !repeat {
			need *= run
		}
		if pos+need > len(src) {
			return nil, ErrTGATruncated
		}
		for i := range run {
			if repeat {
				put(n+i, src[pos:])
			} else {
				put(n+i, src[pos+i*h.pixelSize:])
			}
		}
		pos += need
		n += run
	}
	return img, nil
}

// isTGA reports whether err came from a header that did describe a TGA image.
func isTGA(err error) bool {
	return err == nil || !errors.Is(err, ErrNotTGA)
}
