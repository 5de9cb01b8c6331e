// Package texture decodes user-supplied images into RGBA pixels ready for
// upload, off the render thread.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrTextureDecodeFailed is returned when image bytes cannot be decoded.
var ErrTextureDecodeFailed = errors.New("texture decode failed")

// DefaultMaxSize is the largest texture edge kept; bigger images are scaled down.
const DefaultMaxSize = 2048

// Decode decodes PNG, JPEG, GIF, BMP, TIFF, WebP or TGA data into a
// tightly packed RGBA image with its origin at (0, 0). Images with an edge
// longer than maxSize are scaled down preserving aspect; maxSize <= 0 disables it.
func Decode(data []byte, maxSize int) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrTextureDecodeFailed)
	}

	var img image.Image
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		if cfg.Width*cfg.Height > MaxPixels {
			return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
		}
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		// TGA has no magic number, so it is only tried once the registered
		// formats have declined.
		tga, tgaErr := DecodeTGA(data)
		switch {
		case tgaErr == nil:
			img = tga
		case isTGA(tgaErr):
			return nil, tgaErr
		default:
			return nil, fmt.Errorf("%w: %w", ErrTextureDecodeFailed, err)
		}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrTextureDecodeFailed)
	}

	w, h := fitSize(b.Dx(), b.Dy(), maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	return dst, nil
}

// fitSize scales w x h down so neither edge exceeds maxSize.
func fitSize(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}

// Placeholder returns the 1x1 opaque white image objects use until a real
// texture has loaded.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []uint8{255, 255, 255, 255})
	return img
}
