package source

import (
	"image"

	"github.com/ivlev/product2video/internal/media"
)

// MediaSource plays a decoded clip: a still forever, a video frame by frame.
type MediaSource struct {
	frames   []*image.NRGBA
	blending Blending
	loop     bool
	cursor   int
}

// MediaOptions configure a MediaSource. TargetFPS is optional; when set the
// clip is resampled to it once, at construction.
type MediaOptions struct {
	TargetFPS *int
	Loop      bool
	Blending  Blending
}

func NewMediaSource(clip *media.Clip, opts MediaOptions) (*MediaSource, error) {
	if clip == nil || len(clip.Frames) == 0 {
		return nil, ErrNoFrames
	}

	frames := clip.Frames
	if opts.TargetFPS != nil {
		if *opts.TargetFPS <= 0 {
			return nil, ErrInvalidFPS
		}
		frames = clip.Resample(*opts.TargetFPS)
	}

	return &MediaSource{
		frames:   frames,
		blending: opts.Blending,
		loop:     opts.Loop,
	}, nil
}

// NextFrame returns the next frame, looping to the first one or freezing on
// the last one once the clip is exhausted.
func (s *MediaSource) NextFrame() (*image.NRGBA, error) {
	if s.cursor >= len(s.frames) {
		if !s.loop {
			return s.frames[len(s.frames)-1], nil
		}
		s.cursor = 0
	}
	f := s.frames[s.cursor]
	s.cursor++
	return f, nil
}

func (s *MediaSource) Blending() Blending {
	return s.blending
}

// Reset rewinds the clip. Graphics are not per-product, so assets are ignored.
func (s *MediaSource) Reset(assets []string) error {
	s.cursor = 0
	return nil
}

// Len is the number of frames played before the clip loops or freezes.
func (s *MediaSource) Len() int {
	return len(s.frames)
}
