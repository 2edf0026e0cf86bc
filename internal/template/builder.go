package template

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/product2video/internal/compose"
	"github.com/ivlev/product2video/internal/effects"
	"github.com/ivlev/product2video/internal/engine"
	"github.com/ivlev/product2video/internal/media"
	"github.com/ivlev/product2video/internal/source"
)

// DecodeFunc decodes a graphics file at the given size.
type DecodeFunc func(ctx context.Context, path string, size image.Point) (*media.Clip, error)

// Builder turns a template into a Controller. Decoded graphics are cached and
// shared read-only between the nodes that use them.
type Builder struct {
	FPS     int
	DPI     int
	Workers int
	Canvas  image.Point // overrides the template output size when set
	Decode  DecodeFunc
	Loader  source.ImageLoader // slideshow images

	mu    sync.Mutex
	clips map[clipKey]*media.Clip
}

type clipKey struct {
	path string
	size image.Point
}

// PhaseInfo describes a built phase.
type PhaseInfo struct {
	Number   int
	Seconds  float64
	Elements int
}

func NewBuilder(fps, dpi, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	b := &Builder{FPS: fps, DPI: dpi, Workers: workers, clips: make(map[clipKey]*media.Clip)}
	b.Decode = func(ctx context.Context, path string, size image.Point) (*media.Clip, error) {
		return media.Load(ctx, path, size, b.DPI)
	}
	b.Loader = func(ctx context.Context, path string, size image.Point) (*image.NRGBA, error) {
		clip, err := media.Load(ctx, path, size, b.DPI)
		if err != nil {
			return nil, err
		}
		return clip.Frames[0], nil
	}
	return b
}

// CanvasSize is the output size used for t.
func (b *Builder) CanvasSize(t *Template) (image.Point, error) {
	canvas := image.Pt(t.Width, t.Height)
	if b.Canvas.X > 0 && b.Canvas.Y > 0 {
		canvas = b.Canvas
	}
	if canvas.X <= 0 || canvas.Y <= 0 {
		return image.Point{}, ErrNoCanvas
	}
	return canvas, nil
}

// Build composes every phase of t over its own copy of the phase 0 base layer.
func (b *Builder) Build(ctx context.Context, t *Template) (*engine.Controller, []PhaseInfo, error) {
	if b.FPS <= 0 {
		return nil, nil, source.ErrInvalidFPS
	}
	canvas, err := b.CanvasSize(t)
	if err != nil {
		return nil, nil, err
	}
	if err := b.preload(ctx, t, canvas); err != nil {
		return nil, nil, err
	}

	groups := make(map[int][]Element)
	for _, el := range t.Elements {
		groups[el.Phase] = append(groups[el.Phase], el)
	}
	var numbers []int
	for n := range groups {
		if n > 0 {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil, nil, ErrNoPhases
	}
	sort.Ints(numbers)

	var (
		phases []engine.Phase
		infos  []PhaseInfo
	)
	for _, n := range numbers {
		var base source.Source
		if els := groups[0]; len(els) > 0 {
			if base, _, err = b.layer(ctx, t, nil, els, canvas); err != nil {
				return nil, nil, fmt.Errorf("phase 0: %w", err)
			}
		}
		src, seconds, err := b.layer(ctx, t, base, groups[n], canvas)
		if err != nil {
			return nil, nil, fmt.Errorf("phase %d: %w", n, err)
		}
		phases = append(phases, engine.Phase{Source: src, Duration: int(math.Round(seconds * float64(b.FPS)))})
		infos = append(infos, PhaseInfo{Number: n, Seconds: seconds, Elements: len(groups[n])})
	}

	c, err := engine.NewController(phases)
	if err != nil {
		return nil, nil, err
	}
	return c, infos, nil
}

// layer stacks elements over bg. Without bg the first element becomes the
// background and its margins are ignored. It returns the longest element
// duration.
func (b *Builder) layer(ctx context.Context, t *Template, bg source.Source, elements []Element, canvas image.Point) (source.Source, float64, error) {
	var seconds float64
	for _, el := range elements {
		node, size, err := b.node(ctx, t, el, canvas)
		if err != nil {
			return nil, 0, err
		}
		seconds = max(seconds, el.Duration)
		if bg == nil {
			bg = node
			continue
		}
		at := el.Offset(canvas, size)
		bg = compose.NewCombinator(bg, node, at.X, at.Y)
	}
	return bg, seconds, nil
}

func (b *Builder) node(ctx context.Context, t *Template, el Element, canvas image.Point) (source.Source, image.Point, error) {
	size := el.Size(canvas)

	var (
		src source.Source
		err error
	)
	switch el.Type {
	case TypeGraphics:
		var clip *media.Clip
		if clip, err = b.clip(ctx, t.path(el.Source), size); err != nil {
			return nil, size, err
		}
		src, err = source.NewMediaSource(clip, source.MediaOptions{TargetFPS: &b.FPS, Loop: el.Loop, Blending: el.Blending})
	case TypeQRCode:
		var clip *media.Clip
		if clip, err = media.QRCode(el.Source, size); err != nil {
			return nil, size, err
		}
		src, err = source.NewMediaSource(clip, source.MediaOptions{Blending: el.Blending})
	case TypeSlideshow:
		opts := source.DefaultSlideshowOptions(size)
		opts.TargetFPS = b.FPS
		opts.MinTime = el.Duration
		opts.Blending = el.Blending
		opts.Loop = el.Loop
		opts.Workers = b.Workers
		opts.Loader = b.Loader
		opts.Context = ctx
		if el.Standby > 0 {
			opts.StandbyTime = el.Standby
		}
		if el.Transition > 0 {
			opts.TransitionTime = el.Transition
		}
		src, err = source.NewSlideshow(nil, opts)
	default:
		err = fmt.Errorf("%w: type %q", ErrUnknownToken, el.Type)
	}
	if err != nil {
		return nil, size, err
	}

	if z := el.Zoom; z != nil {
		src = effects.NewStrobe(src, effects.StrobeOptions{
			MinScale:   z.MinSize,
			StartScale: z.StartSize,
			Speed:      z.Speed,
			Direction:  z.Direction,
			Centered:   true,
			Loop:       z.Loop,
		})
	}
	return src, size, nil
}

// clip returns the cached decode of path at size.
func (b *Builder) clip(ctx context.Context, path string, size image.Point) (*media.Clip, error) {
	key := clipKey{path, size}
	b.mu.Lock()
	if b.clips == nil {
		b.clips = make(map[clipKey]*media.Clip)
	}
	c, ok := b.clips[key]
	b.mu.Unlock()
	if ok {
		return c, nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingAsset)
		}
		return nil, err
	}
	c, err := b.Decode(ctx, path, size)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	b.mu.Lock()
	b.clips[key] = c
	b.mu.Unlock()
	return c, nil
}

// preload decodes every graphics file of t in parallel.
func (b *Builder) preload(ctx context.Context, t *Template, canvas image.Point) error {
	seen := make(map[clipKey]bool)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.Workers)
	for _, el := range t.Elements {
		if el.Type != TypeGraphics {
			continue
		}
		key := clipKey{t.path(el.Source), el.Size(canvas)}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.Go(func() error {
			_, err := b.clip(ctx, key.path, key.size)
			return err
		})
	}
	return g.Wait()
}
