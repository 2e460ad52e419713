// Package imagex prepares avatar images: any supported input is scaled to
// fit a square canvas, centered, padded with transparency and encoded as PNG.
package imagex

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// DefaultAvatarSize is the edge of the square avatar canvas in pixels.
const DefaultAvatarSize = 250

// DefaultMaxPixels caps the decoded source at 4096×4096.
const DefaultMaxPixels = 4096 * 4096

// ErrUnsupportedImage is returned when the input cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Pad decodes an image from r, scales it so that it fits inside a size×size
// square while keeping its aspect ratio, centers it and writes the result to
// w as PNG. Areas not covered by the image stay transparent.
//
// The header is read first and a source larger than maxPixels is rejected
// before any pixel buffer is allocated. maxPixels <= 0 disables the check.
func Pad(r io.Reader, w io.Writer, size, maxPixels int) error {
	if size <= 0 {
		return fmt.Errorf("invalid canvas size %d", size)
	}

	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, FitRect(src.Bounds(), size), src, src.Bounds(), draw.Over, nil)

	if err := png.Encode(w, dst); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// FitRect returns the rectangle inside a size×size canvas that an image with
// bounds b occupies after aspect-preserving scaling and centering.
func FitRect(b image.Rectangle, size int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}

	tw, th := size, size
	if w >= h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}

	x0 := (size - tw) / 2
	y0 := (size - th) / 2
	return image.Rect(x0, y0, x0+tw, y0+th)
}
