// Package compose merges two frame sources into one.
package compose

import (
	"image"

	"github.com/ivlev/product2video/internal/frame"
	"github.com/ivlev/product2video/internal/source"
	"github.com/ivlev/product2video/internal/system"
)

// Combinator draws a foreground source over a background source at a fixed
// offset, blending with the foreground's strategy. The offset may be negative
// or push the foreground past the background: only the overlap is drawn.
type Combinator struct {
	bg   source.Source
	fg   source.Source
	left int
	top  int

	// out is the buffer handed out by the previous pull; it goes back to the
	// pool on the next one.
	out *image.NRGBA
	key keyer
}

func NewCombinator(bg, fg source.Source, left, top int) *Combinator {
	return &Combinator{bg: bg, fg: fg, left: left, top: top}
}

// NextFrame pulls both children and returns the background copy with the
// foreground blended in.
func (c *Combinator) NextFrame() (*image.NRGBA, error) {
	bgFrame, err := c.bg.NextFrame()
	if err != nil {
		return nil, err
	}

	if c.out != nil {
		system.PutFrame(c.out)
		c.out = nil
	}
	out := system.GetFrame(bgFrame.Rect.Dx(), bgFrame.Rect.Dy())
	frame.CopyInto(out, bgFrame)

	fgFrame, err := c.fg.NextFrame()
	if err != nil {
		system.PutFrame(out)
		return nil, err
	}

	composite(out, fgFrame, c.left, c.top, c.fg.Blending(), &c.key)
	c.out = out
	return out, nil
}

// Blending adopts the strategy of the foreground.
func (c *Combinator) Blending() source.Blending {
	return c.fg.Blending()
}

func (c *Combinator) Reset(assets []string) error {
	c.out = nil
	if err := c.bg.Reset(assets); err != nil {
		return err
	}
	return c.fg.Reset(assets)
}

// Composite blends fg into bg in place with fg's top-left corner at
// (left, top). Nothing happens when the two do not overlap.
func Composite(bg, fg *image.NRGBA, left, top int, mode source.Blending) {
	composite(bg, fg, left, top, mode, &keyer{})
}

func composite(bg, fg *image.NRGBA, left, top int, mode source.Blending, k *keyer) {
	dr, sp := clip(bg.Rect, fg.Rect.Size(), left, top)
	if dr.Empty() {
		return
	}

	switch mode {
	case source.BlendAlpha:
		alphaBlend(bg, dr, fg, sp)
	case source.BlendChromaKey:
		k.apply(bg, dr, fg, sp)
	default:
		frame.Blit(bg, dr, fg, sp)
	}
}

// clip intersects the placed foreground with the background bounds and
// returns the destination rectangle and the matching source origin.
func clip(bounds image.Rectangle, size image.Point, left, top int) (image.Rectangle, image.Point) {
	placed := image.Rectangle{Min: image.Pt(left, top), Max: image.Pt(left+size.X, top+size.Y)}
	dr := placed.Intersect(bounds)
	if dr.Empty() {
		return image.Rectangle{}, image.Point{}
	}
	return dr, dr.Min.Sub(placed.Min)
}
