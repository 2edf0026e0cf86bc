package media

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

const defaultDPI = 150

// PDFDecoder renders the first page of a PDF as a still graphic.
type PDFDecoder struct {
	DPI int
}

func (d *PDFDecoder) Decode(ctx context.Context, path string, size image.Point) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}

	dpi := d.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	img, err := doc.ImageDPI(0, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	return &Clip{Frames: []*image.NRGBA{fit(img, size)}}, nil
}
