package template

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Length is a pixel count or a share of the canvas.
type Length struct {
	Value   float64 // pixels, or a fraction when Percent is set
	Percent bool
}

func parseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Length{}, nil
	}
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Length{}, fmt.Errorf("%w: %q", ErrUnknownToken, s)
		}
		return Length{Value: v / 100, Percent: true}, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Length{}, fmt.Errorf("%w: %q", ErrUnknownToken, s)
	}
	return Length{Value: float64(v)}, nil
}

// Resolve converts the length to pixels against total.
func (l Length) Resolve(total int) int {
	if l.Percent {
		return int(l.Value * float64(total))
	}
	return int(l.Value)
}

// IsZero reports an empty cell.
func (l Length) IsZero() bool {
	return l.Value == 0
}

// Size resolves the element size on canvas. Missing dimensions take the
// canvas dimension.
func (el Element) Size(canvas image.Point) image.Point {
	size := canvas
	if !el.Width.IsZero() {
		size.X = el.Width.Resolve(canvas.X)
	}
	if !el.Height.IsZero() {
		size.Y = el.Height.Resolve(canvas.Y)
	}
	return image.Pt(max(size.X, 1), max(size.Y, 1))
}

// Offset places an element of the given size on canvas. Centered axes ignore
// their margin; right and bottom margins are measured from the far edge.
func (el Element) Offset(canvas, size image.Point) image.Point {
	var at image.Point

	switch el.HAlign {
	case AlignHCenter:
		at.X = (canvas.X - size.X) / 2
	case AlignRight:
		at.X = canvas.X - size.X - el.HMargin.Resolve(canvas.X)
	default:
		at.X = el.HMargin.Resolve(canvas.X)
	}

	switch el.VAlign {
	case AlignVCenter:
		at.Y = (canvas.Y - size.Y) / 2
	case AlignBottom:
		at.Y = canvas.Y - size.Y - el.VMargin.Resolve(canvas.Y)
	default:
		at.Y = el.VMargin.Resolve(canvas.Y)
	}
	return at
}
