// Package frame holds the pixel buffer exchanged between composition stages.
//
// A frame is an *image.NRGBA anchored at the origin: four 8-bit channels with
// straight (non-premultiplied) alpha. Every decoded asset is alpha-extended
// into this layout before it reaches the composition graph.
package frame

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// New returns a fully transparent frame of the given size.
func New(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// White returns an opaque all-white frame.
func White(w, h int) *image.NRGBA {
	f := New(w, h)
	draw.Draw(f, f.Bounds(), &image.Uniform{C: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}, image.Point{}, draw.Src)
	return f
}

// FromImage converts any decoded image into a frame. Images without an alpha
// channel come out fully opaque. A frame that is already tightly packed at the
// origin is returned as is.
func FromImage(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && isPacked(n) {
		return n
	}
	b := img.Bounds()
	dst := New(b.Dx(), b.Dy())
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Resize scales img to w×h with the given interpolator and returns a new frame.
func Resize(img image.Image, w, h int, interp draw.Interpolator) *image.NRGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return Clone(FromImage(img))
	}
	dst := New(w, h)
	interp.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Clone returns a deep copy of f.
func Clone(f *image.NRGBA) *image.NRGBA {
	dst := New(f.Rect.Dx(), f.Rect.Dy())
	CopyInto(dst, f)
	return dst
}

// CopyInto copies the pixels of src into dst. Both frames must have the same size.
func CopyInto(dst, src *image.NRGBA) {
	if isPacked(src) && isPacked(dst) {
		copy(dst.Pix, src.Pix)
		return
	}
	draw.Draw(dst, dst.Bounds(), src, src.Rect.Min, draw.Src)
}

// SameSize reports whether a and b have identical dimensions.
func SameSize(a, b *image.NRGBA) bool {
	return a.Rect.Dx() == b.Rect.Dx() && a.Rect.Dy() == b.Rect.Dy()
}

func isPacked(f *image.NRGBA) bool {
	return f.Rect.Min == (image.Point{}) && f.Stride == 4*f.Rect.Dx()
}

// Blit copies the r-sized block of src whose top-left corner is sp into dst at
// r. Pixels are copied byte for byte, so straight alpha is preserved exactly.
// r must lie inside dst and the block inside src.
func Blit(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point) {
	n := r.Dx() * 4
	if n <= 0 {
		return
	}
	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		copy(dst.Pix[di:di+n], src.Pix[si:si+n])
	}
}
