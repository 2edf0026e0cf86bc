package compose

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	keyRange   = 10
	dilateSize = 3
	medianSize = 5
)

// keyer holds the per-frame buffers of the chroma key so a Combinator can
// reuse them from one pull to the next.
type keyer struct {
	sat     []uint8
	mask    []uint8
	grown   []uint8
	smooth  []uint8
	scratch []uint8
}

// apply copies the foreground pixels that do not belong to the key color.
// The key is the most frequent saturation in the foreground region; pixels
// within keyRange of it are treated as background after the mask has been
// dilated and median filtered.
func (k *keyer) apply(dst *image.NRGBA, dr image.Rectangle, fg *image.NRGBA, sp image.Point) {
	w, h := dr.Dx(), dr.Dy()
	n := w * h

	k.sat = saturations(grow(k.sat, n), fg, image.Rectangle{Min: sp, Max: sp.Add(dr.Size())})
	key := mostFrequent(k.sat)

	k.mask = grow(k.mask, n)
	for i, s := range k.sat {
		if int(s) >= key-keyRange && int(s) <= key+keyRange {
			k.mask[i] = 255
		} else {
			k.mask[i] = 0
		}
	}
	k.scratch = grow(k.scratch, n)
	k.grown = grow(k.grown, n)
	k.smooth = grow(k.smooth, n)
	dilate(k.grown, k.mask, k.scratch, w, h, dilateSize)
	median(k.smooth, k.grown, k.scratch, w, h, medianSize)

	for y := 0; y < h; y++ {
		di := dst.PixOffset(dr.Min.X, dr.Min.Y+y)
		si := fg.PixOffset(sp.X, sp.Y+y)
		row := k.smooth[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			// Inverted mask: zero marks a foreground pixel.
			if row[x] == 0 {
				copy(dst.Pix[di:di+4], fg.Pix[si:si+4])
			}
			di += 4
			si += 4
		}
	}
}

func grow(b []uint8, n int) []uint8 {
	if cap(b) < n {
		return make([]uint8, n)
	}
	return b[:n]
}

// saturations fills dst with the HSV saturation of every pixel of r on a
// 0-255 scale. dst must hold r.Dx()*r.Dy() values.
func saturations(dst []uint8, img *image.NRGBA, r image.Rectangle) []uint8 {
	var (
		prev [3]uint8
		last uint8
		seen bool
	)
	j := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			px := [3]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
			// Runs of one color are the common case on a key screen.
			if !seen || px != prev {
				c := colorful.Color{
					R: float64(px[0]) / 255,
					G: float64(px[1]) / 255,
					B: float64(px[2]) / 255,
				}
				_, s, _ := c.Hsv()
				prev, last, seen = px, uint8(math.Round(s*255)), true
			}
			dst[j] = last
			j++
			i += 4
		}
	}
	return dst
}

// mostFrequent returns the value with the highest count, the lowest one on ties.
func mostFrequent(values []uint8) int {
	var hist [256]int
	for _, v := range values {
		hist[v]++
	}
	best := 0
	for v := 1; v < len(hist); v++ {
		if hist[v] > hist[best] {
			best = v
		}
	}
	return best
}

// dilate writes to dst the maximum of every size×size neighborhood of the
// w×h image src. Pixels outside the image are ignored. The filter is
// separable, so it runs as a row pass into scratch and a column pass.
func dilate(dst, src, scratch []uint8, w, h, size int) {
	half := size / 2
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			v := uint8(0)
			for kx := max(0, x-half); kx <= min(w-1, x+half); kx++ {
				v = max(v, src[row+kx])
			}
			scratch[row+x] = v
		}
	}
	for y := 0; y < h; y++ {
		lo, hi := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			v := uint8(0)
			for ky := lo; ky <= hi; ky++ {
				v = max(v, scratch[ky*w+x])
			}
			dst[y*w+x] = v
		}
	}
}

// median writes to dst the median of every size×size neighborhood of the
// binary (0 or 255) w×h image src, replicating edge pixels past the border.
// On a binary image the median is set exactly when more than half of the
// window is set, so the filter counts set pixels instead of sorting.
func median(dst, src, scratch []uint8, w, h, size int) {
	half := size / 2
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			n := uint8(0)
			for kx := x - half; kx <= x+half; kx++ {
				if src[row+max(0, min(w-1, kx))] != 0 {
					n++
				}
			}
			scratch[row+x] = n
		}
	}
	quorum := size*size/2 + 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for ky := y - half; ky <= y+half; ky++ {
				n += int(scratch[max(0, min(h-1, ky))*w+x])
			}
			if n >= quorum {
				dst[y*w+x] = 255
			} else {
				dst[y*w+x] = 0
			}
		}
	}
}
