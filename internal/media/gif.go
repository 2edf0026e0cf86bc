package media

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/ivlev/product2video/internal/frame"
)

const defaultGIFFPS = 10

// GIFDecoder decodes every frame of an animated GIF. Frames are accumulated on
// a canvas so partial frames render the way browsers show them.
type GIFDecoder struct{}

func (d *GIFDecoder) Decode(ctx context.Context, path string, size image.Point) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode gif %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewNRGBA(bounds)

	frames := make([]*image.NRGBA, 0, len(g.Image))
	totalDelay := 0
	for i, pal := range g.Image {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		draw.Draw(canvas, pal.Bounds(), pal, pal.Bounds().Min, draw.Over)
		snap := fit(canvas, size)
		if snap == canvas {
			snap = frame.Clone(canvas)
		}
		frames = append(frames, snap)

		if i < len(g.Delay) {
			totalDelay += g.Delay[i]
		}
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, pal.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}

	return &Clip{Frames: frames, FPS: gifFPS(totalDelay, len(frames))}, nil
}

// gifFPS derives a frame rate from the summed delays (hundredths of a second).
func gifFPS(totalDelay, count int) int {
	if count <= 1 {
		return 0
	}
	if totalDelay <= 0 {
		return defaultGIFFPS
	}
	avg := float64(totalDelay) / float64(count)
	fps := int(math.Round(100 / avg))
	if fps < 1 {
		fps = 1
	}
	return fps
}
