package media

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/product2video/internal/frame"
)

// ImageDecoder decodes still images through the registered image codecs.
type ImageDecoder struct{}

func (d *ImageDecoder) Decode(ctx context.Context, path string, size image.Point) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &Clip{Frames: []*image.NRGBA{fit(img, size)}}, nil
}

// fit alpha-extends img and scales it to size unless size is zero.
func fit(img image.Image, size image.Point) *image.NRGBA {
	if size.X <= 0 || size.Y <= 0 {
		return frame.FromImage(img)
	}
	return frame.Resize(img, size.X, size.Y, draw.CatmullRom)
}
