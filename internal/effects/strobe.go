// Package effects holds animated decorators over frame sources.
package effects

import (
	"image"
	"log"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/product2video/internal/frame"
	"github.com/ivlev/product2video/internal/source"
)

// StrobeOptions configure the scale oscillation. Out of range values are
// clamped by NewStrobe.
type StrobeOptions struct {
	MinScale   float64 // clamped to [0.01, 1]
	StartScale float64 // used when in [0, 1), otherwise 1
	Speed      float64 // scale change per tick, |speed| clamped to [0.001, 0.1]
	Direction  int     // <0 shrinks first, otherwise grows first
	Centered   bool
	Loop       bool
}

// Strobe periodically rescales the frames of another source, drawing them on
// a transparent canvas of the source frame size. Without Loop the oscillation
// stops at the first bound and the last frame is repeated.
type Strobe struct {
	src source.Source

	minScale   float64
	startScale float64
	speed      float64
	startDir   int
	centered   bool
	loop       bool

	scale     float64
	direction int
	last      *image.NRGBA
}

func NewStrobe(src source.Source, opts StrobeOptions) *Strobe {
	if b := src.Blending(); b != source.BlendAlpha && b != source.BlendNone {
		log.Printf("[!] Strobe поверх смешивания %s: поля прозрачны только при alpha-смешивании", b)
	}

	s := &Strobe{
		src:        src,
		minScale:   math.Max(0.01, math.Min(opts.MinScale, 1)),
		startScale: 1,
		speed:      math.Max(0.001, math.Min(math.Abs(opts.Speed), 0.1)),
		startDir:   1,
		centered:   opts.Centered,
		loop:       opts.Loop,
	}
	if opts.StartScale >= 0 && opts.StartScale < 1 {
		s.startScale = opts.StartScale
	}
	if opts.Direction < 0 {
		s.startDir = -1
	}
	s.rewind()
	return s
}

func (s *Strobe) rewind() {
	s.scale = s.startScale
	s.direction = s.startDir
	s.last = nil
}

func (s *Strobe) NextFrame() (*image.NRGBA, error) {
	if s.direction == 0 {
		return s.last, nil
	}

	// The state only advances once the child has produced a frame, so a
	// halted strobe always has one to repeat.
	f, err := s.src.NextFrame()
	if err != nil {
		return nil, err
	}

	if (s.direction == -1 && s.scale == s.minScale) || (s.direction == 1 && s.scale == 1) {
		if s.loop {
			s.direction = -s.direction
		} else {
			s.direction = 0
		}
	}
	s.scale = math.Max(s.minScale, math.Min(s.scale+float64(s.direction)*s.speed, 1))

	w, h := f.Rect.Dx(), f.Rect.Dy()
	rw := max(1, int(math.Round(float64(w)*s.scale)))
	rh := max(1, int(math.Round(float64(h)*s.scale)))
	reduced := frame.Resize(f, rw, rh, draw.BiLinear)

	var at image.Point
	if s.centered {
		at = image.Pt((w-rw)/2, (h-rh)/2)
	}
	canvas := frame.New(w, h)
	frame.Blit(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(rw, rh))}, reduced, image.Point{})

	if s.direction == 0 {
		s.last = canvas
	}
	return canvas, nil
}

// Blending is always alpha: the padding around the scaled frame is transparent.
func (s *Strobe) Blending() source.Blending {
	return source.BlendAlpha
}

func (s *Strobe) Reset(assets []string) error {
	s.rewind()
	return s.src.Reset(assets)
}

// Scale is the factor applied to the last frame.
func (s *Strobe) Scale() float64 {
	return s.scale
}

// Halted reports whether the oscillation has stopped.
func (s *Strobe) Halted() bool {
	return s.direction == 0
}
