// Package media decodes image, animation, PDF and video assets into frames.
package media

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
)

var (
	ErrNoFrames     = errors.New("media: no frames decoded")
	ErrBadFPS       = errors.New("media: invalid frame rate")
	ErrEmptyContent = errors.New("media: empty QR code content")
)

// Clip is a decoded asset. Stills carry a single frame and FPS 0.
// Frames are shared read-only between every source built from the same clip.
type Clip struct {
	Frames []*image.NRGBA
	FPS    int
}

// IsStill reports whether the clip should be shown as a static image.
func (c *Clip) IsStill() bool {
	return c.FPS == 0 || len(c.Frames) == 1
}

// Size returns the dimensions of the clip frames.
func (c *Clip) Size() image.Point {
	if len(c.Frames) == 0 {
		return image.Point{}
	}
	return c.Frames[0].Rect.Size()
}

// Resample returns the frame sequence played at targetFPS. The native rate is
// adapted with an integer factor: frames are duplicated when the target is
// faster and skipped when it is slower.
func (c *Clip) Resample(targetFPS int) []*image.NRGBA {
	if c.IsStill() || targetFPS <= 0 || targetFPS == c.FPS {
		return c.Frames
	}

	if targetFPS > c.FPS {
		factor := targetFPS / c.FPS
		if factor <= 1 {
			return c.Frames
		}
		out := make([]*image.NRGBA, 0, len(c.Frames)*factor)
		for _, f := range c.Frames {
			for i := 0; i < factor; i++ {
				out = append(out, f)
			}
		}
		return out
	}

	step := c.FPS / targetFPS
	if step <= 1 {
		return c.Frames
	}
	out := make([]*image.NRGBA, 0, len(c.Frames)/step+1)
	for i := 0; i < len(c.Frames); i += step {
		out = append(out, c.Frames[i])
	}
	return out
}

// Decoder turns an asset file into a clip whose frames are resized to size.
// A zero size keeps the native dimensions.
type Decoder interface {
	Decode(ctx context.Context, path string, size image.Point) (*Clip, error)
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true,
}

// Open selects a decoder for path by its extension. Anything that is not a
// known image, GIF or PDF is handed to ffmpeg.
func Open(path string, dpi int) Decoder {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return &ImageDecoder{}
	case ext == ".gif":
		return &GIFDecoder{}
	case ext == ".pdf":
		return &PDFDecoder{DPI: dpi}
	default:
		return &FFmpegDecoder{}
	}
}

// Load decodes path with the decoder Open picks.
func Load(ctx context.Context, path string, size image.Point, dpi int) (*Clip, error) {
	return Open(path, dpi).Decode(ctx, path, size)
}

// LoadImage decodes the first frame of path at the given size.
func LoadImage(ctx context.Context, path string, size image.Point) (*image.NRGBA, error) {
	clip, err := Load(ctx, path, size, defaultDPI)
	if err != nil {
		return nil, err
	}
	return clip.Frames[0], nil
}
