package media

import (
	"image"

	"github.com/skip2/go-qrcode"
)

// QRCode renders content as a still QR code graphic of the given size.
func QRCode(content string, size image.Point) (*Clip, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	side := size.X
	if size.Y > 0 && (side <= 0 || size.Y < side) {
		side = size.Y
	}
	if side <= 0 {
		side = 256
	}

	return &Clip{Frames: []*image.NRGBA{fit(q.Image(side), size)}}, nil
}
