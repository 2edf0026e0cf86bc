package source

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/product2video/internal/frame"
	"github.com/ivlev/product2video/internal/media"
)

// ImageLoader decodes one slideshow asset at the requested size.
type ImageLoader func(ctx context.Context, path string, size image.Point) (*image.NRGBA, error)

// SlideshowOptions configure a Slideshow. Times are in seconds.
type SlideshowOptions struct {
	Size            image.Point
	StandbyTime     float64
	TransitionTime  float64
	TargetFPS       int
	LeftBoundWhite  bool
	RightBoundWhite bool
	MinTime         float64
	Blending        Blending
	Loop            bool
	Workers         int
	Loader          ImageLoader
	// Context bounds the decoding done by Reset. Nil means no deadline.
	Context context.Context
}

// DefaultSlideshowOptions returns 3s standby, 1s transitions at 60 fps, at
// least 15s of images and a white image leading the show.
func DefaultSlideshowOptions(size image.Point) SlideshowOptions {
	return SlideshowOptions{
		Size:           size,
		StandbyTime:    3,
		TransitionTime: 1,
		TargetFPS:      60,
		LeftBoundWhite: true,
		MinTime:        15,
	}
}

// Slideshow cycles through per-product images, alternating between showing
// one image (standby) and wiping it left to reveal the next (transition).
type Slideshow struct {
	opts            SlideshowOptions
	standbyTicks    int
	transitionTicks int

	images        []*image.NRGBA
	transitioning bool
	stateCount    int
	count         int
	index         int
}

// NewSlideshow validates opts and, when assets is non-nil, loads them. A
// slideshow built without assets must be Reset before it is pulled.
func NewSlideshow(assets []string, opts SlideshowOptions) (*Slideshow, error) {
	if opts.Size.X <= 0 || opts.Size.Y <= 0 {
		return nil, fmt.Errorf("slideshow size %v must be positive", opts.Size)
	}
	if opts.TargetFPS <= 0 {
		return nil, ErrInvalidFPS
	}
	if opts.StandbyTime < 0 || opts.MinTime < 0 {
		return nil, fmt.Errorf("slideshow times must not be negative")
	}
	if opts.Loader == nil {
		opts.Loader = media.LoadImage
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	s := &Slideshow{
		opts:            opts,
		standbyTicks:    int(math.Round(opts.StandbyTime * float64(opts.TargetFPS))),
		transitionTicks: int(math.Round(opts.TransitionTime * float64(opts.TargetFPS))),
	}
	if s.transitionTicks < 1 {
		return nil, fmt.Errorf("slideshow transition of %.3fs is shorter than one frame", opts.TransitionTime)
	}

	if assets != nil {
		if err := s.Reset(assets); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Reset loads the assets of the next product and restarts the show with a
// transition out of the first image.
func (s *Slideshow) Reset(assets []string) error {
	if len(assets) == 0 {
		return fmt.Errorf("%w: no assets", ErrTooFewImages)
	}

	loaded, err := s.load(assets)
	if err != nil {
		return err
	}

	expected := 1 + int(math.Ceil(s.opts.MinTime/(s.opts.StandbyTime+s.opts.TransitionTime)))
	if !s.opts.Loop && len(loaded) < expected {
		expected = len(loaded)
	}

	images := make([]*image.NRGBA, 0, expected+2)
	if s.opts.LeftBoundWhite {
		images = append(images, frame.White(s.opts.Size.X, s.opts.Size.Y))
	}
	for i := 0; i < expected; i++ {
		images = append(images, loaded[i%len(loaded)])
	}
	if s.opts.RightBoundWhite {
		images = append(images, frame.White(s.opts.Size.X, s.opts.Size.Y))
	}
	if len(images) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewImages, len(images))
	}

	s.images = images
	s.transitioning = true
	s.stateCount = 0
	s.count = 0
	s.index = 0
	return nil
}

// load decodes assets concurrently, keeping their order.
func (s *Slideshow) load(assets []string) ([]*image.NRGBA, error) {
	loaded := make([]*image.NRGBA, len(assets))

	g, ctx := errgroup.WithContext(s.opts.Context)
	g.SetLimit(s.opts.Workers)
	for i, path := range assets {
		g.Go(func() error {
			img, err := s.opts.Loader(ctx, path, s.opts.Size)
			if err != nil {
				return fmt.Errorf("slideshow asset %s: %w", path, err)
			}
			loaded[i] = frame.FromImage(img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

// NextFrame advances the state machine by one tick.
func (s *Slideshow) NextFrame() (*image.NRGBA, error) {
	if s.images == nil {
		return nil, ErrImagesNotSet
	}

	last := len(s.images) - 1
	if s.transitioning && s.stateCount == s.transitionTicks {
		s.stateCount = 0
		s.transitioning = false
		s.index = min(s.index+1, last)
	}
	if !s.transitioning && s.stateCount == s.standbyTicks {
		s.stateCount = 0
		s.transitioning = true
	}

	s.count++
	s.stateCount++

	if s.transitioning && s.index < last {
		fraction := float64(s.stateCount) / float64(s.transitionTicks)
		return leftWipe(s.images[s.index], s.images[s.index+1], fraction)
	}
	return s.images[s.index], nil
}

func (s *Slideshow) Blending() Blending {
	return s.opts.Blending
}

// Ticks is the nominal length of the show: every image gets one standby and
// one transition.
func (s *Slideshow) Ticks() int {
	return len(s.images) * (s.standbyTicks + s.transitionTicks)
}

// Len is the number of images including white bounds.
func (s *Slideshow) Len() int {
	return len(s.images)
}

// Transitioning reports whether the next image is being wiped in.
func (s *Slideshow) Transitioning() bool {
	return s.transitioning
}

// Index is the position of the image currently on screen.
func (s *Slideshow) Index() int {
	return s.index
}

// leftWipe slides a out to the left while b enters from the right. fraction
// is the share of the width already taken by b.
func leftWipe(a, b *image.NRGBA, fraction float64) (*image.NRGBA, error) {
	if !frame.SameSize(a, b) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a.Rect.Size(), b.Rect.Size())
	}

	w, h := a.Rect.Dx(), a.Rect.Dy()
	cut := int(fraction * float64(w))
	cut = max(0, min(cut, w))

	res := frame.New(w, h)
	frame.Blit(res, image.Rect(0, 0, w-cut, h), a, image.Pt(cut, 0))
	frame.Blit(res, image.Rect(w-cut, 0, w, h), b, image.Point{})
	return res, nil
}
