package compose

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"sort"
	"testing"

	"github.com/ivlev/product2video/internal/source"
)

func TestChromaKeyDropsKeyColor(t *testing.T) {
	screen := color.NRGBA{G: 255, A: 255}
	subject := color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	fg := solid(12, 12, screen)
	for y := 2; y < 10; y++ {
		for x := 2; x < 10; x++ {
			fg.SetNRGBA(x, y, subject)
		}
	}
	bg := solid(12, 12, bgColor)

	Composite(bg, fg, 0, 0, source.BlendChromaKey)

	for _, p := range []image.Point{{5, 5}, {6, 6}, {4, 6}} {
		if got := bg.NRGBAAt(p.X, p.Y); got != subject {
			t.Errorf("Pixel %v: expected subject color, got %v", p, got)
		}
	}
	// Key pixels, plus the subject rim eaten by dilation and the rounded corner.
	for _, p := range []image.Point{{0, 0}, {11, 11}, {2, 2}, {3, 3}} {
		if got := bg.NRGBAAt(p.X, p.Y); got != bgColor {
			t.Errorf("Pixel %v: expected background, got %v", p, got)
		}
	}
}

func TestMostFrequentPrefersLowestOnTie(t *testing.T) {
	if got := mostFrequent([]uint8{9, 3, 9, 3, 200}); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
}

func TestSaturationsScale(t *testing.T) {
	img := solid(2, 1, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 100, A: 255})

	s := saturations(make([]uint8, 2), img, img.Rect)
	if s[0] != 255 {
		t.Errorf("Expected pure red saturation 255, got %d", s[0])
	}
	// (200-100)/200 = 0.5 -> 128
	if s[1] != 128 {
		t.Errorf("Expected 128, got %d", s[1])
	}
}

func TestDilateAndMedian(t *testing.T) {
	src := make([]uint8, 25)
	src[2*5+2] = 255
	scratch := make([]uint8, 25)

	d := make([]uint8, 25)
	dilate(d, src, scratch, 5, 5, 3)
	count := 0
	for _, v := range d {
		if v == 255 {
			count++
		}
	}
	if count != 9 {
		t.Errorf("Expected a 3x3 block after dilation, got %d pixels", count)
	}

	m := make([]uint8, 25)
	median(m, d, scratch, 5, 5, 5)
	for i, v := range m {
		if v != 0 {
			t.Errorf("Median should remove a 3x3 speck, pixel %d is %d", i, v)
		}
	}
}

// referenceDilate takes the maximum of each clipped window pixel by pixel.
func referenceDilate(src []uint8, w, h, size int) []uint8 {
	out := make([]uint8, w*h)
	half := size / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			for ky := max(0, y-half); ky <= min(h-1, y+half); ky++ {
				for kx := max(0, x-half); kx <= min(w-1, x+half); kx++ {
					v = max(v, src[ky*w+kx])
				}
			}
			out[y*w+x] = v
		}
	}
	return out
}

// referenceMedian sorts each window with edge pixels replicated.
func referenceMedian(src []uint8, w, h, size int) []uint8 {
	out := make([]uint8, w*h)
	half := size / 2
	window := make([]uint8, 0, size*size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for ky := y - half; ky <= y+half; ky++ {
				for kx := x - half; kx <= x+half; kx++ {
					cx := max(0, min(w-1, kx))
					cy := max(0, min(h-1, ky))
					window = append(window, src[cy*w+cx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out[y*w+x] = window[len(window)/2]
		}
	}
	return out
}

func TestFiltersMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sizes := []image.Point{{1, 1}, {2, 3}, {4, 4}, {17, 9}, {40, 31}}

	for _, sz := range sizes {
		w, h := sz.X, sz.Y
		for _, density := range []int{10, 50, 85} {
			src := make([]uint8, w*h)
			for i := range src {
				if rng.Intn(100) < density {
					src[i] = 255
				}
			}
			scratch := make([]uint8, w*h)

			d := make([]uint8, w*h)
			dilate(d, src, scratch, w, h, dilateSize)
			if want := referenceDilate(src, w, h, dilateSize); !bytes.Equal(d, want) {
				t.Errorf("%dx%d at %d%%: dilate differs from reference", w, h, density)
			}

			m := make([]uint8, w*h)
			median(m, src, scratch, w, h, medianSize)
			if want := referenceMedian(src, w, h, medianSize); !bytes.Equal(m, want) {
				t.Errorf("%dx%d at %d%%: median differs from reference", w, h, density)
			}
		}
	}
}

func TestCombinatorReusesKeyBuffers(t *testing.T) {
	screen := color.NRGBA{G: 255, A: 255}
	fg := solid(12, 12, screen)
	for y := 3; y < 9; y++ {
		for x := 3; x < 9; x++ {
			fg.SetNRGBA(x, y, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	want := solid(12, 12, bgColor)
	Composite(want, fg, 0, 0, source.BlendChromaKey)

	c := NewCombinator(
		&stubSource{frames: []*image.NRGBA{solid(12, 12, bgColor)}},
		&stubSource{frames: []*image.NRGBA{fg}, blending: source.BlendChromaKey},
		0, 0,
	)
	for i := 0; i < 3; i++ {
		got, err := c.NextFrame()
		if err != nil {
			t.Fatalf("Pull %d: %v", i, err)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Fatalf("Pull %d differs from a standalone composite", i)
		}
	}
	if cap(c.key.mask) < 144 {
		t.Errorf("Expected the mask buffer to be kept, cap %d", cap(c.key.mask))
	}
}
