// Package source defines the pull-based frame source contract of the
// composition graph together with its leaf and slideshow nodes.
package source

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	ErrShapeMismatch = errors.New("source: images have different dimensions")
	ErrImagesNotSet  = errors.New("source: slideshow pulled before images were set")
	ErrTooFewImages  = errors.New("source: slideshow needs at least two images")
	ErrNoFrames      = errors.New("source: clip has no frames")
	ErrInvalidFPS    = errors.New("source: target fps must be positive")
)

// Source produces one frame per logical tick. Implementations are not safe for
// concurrent use; a returned frame belongs to the caller until the next pull.
type Source interface {
	// NextFrame advances the source by one tick and returns its frame.
	NextFrame() (*image.NRGBA, error)
	// Blending is the strategy a parent uses to draw this source over another.
	Blending() Blending
	// Reset rebinds per-product assets and rewinds every counter, children included.
	Reset(assets []string) error
}

// Blending selects how a foreground frame is drawn over a background.
type Blending int

const (
	BlendNone Blending = iota
	BlendAlpha
	BlendChromaKey
)

func (b Blending) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendChromaKey:
		return "chroma-key"
	default:
		return fmt.Sprintf("Blending(%d)", int(b))
	}
}

// ParseBlending maps a strategy name back to its value.
func ParseBlending(s string) (Blending, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "solid":
		return BlendNone, nil
	case "alpha":
		return BlendAlpha, nil
	case "chroma-key", "chroma":
		return BlendChromaKey, nil
	}
	return BlendNone, fmt.Errorf("unknown blending %q", s)
}
