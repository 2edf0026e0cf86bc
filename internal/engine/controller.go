package engine

import (
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/product2video/internal/source"
)

// ErrEmptySequence is returned when a controller without any ticks is pulled.
var ErrEmptySequence = errors.New("sequence produced no frame")

// Phase plays Source for Duration ticks.
type Phase struct {
	Source   source.Source
	Duration int
}

// Controller plays its phases one after another. Once every phase is
// exhausted the last frame is repeated.
type Controller struct {
	phases []Phase
	total  int

	tick   int
	active int // -1 before the first pull
	count  int
	last   *image.NRGBA
}

func NewController(phases []Phase) (*Controller, error) {
	c := &Controller{phases: make([]Phase, len(phases)), active: -1}
	for i, p := range phases {
		if p.Source == nil {
			return nil, fmt.Errorf("phase %d: %w", i, source.ErrNoFrames)
		}
		c.phases[i] = Phase{Source: p.Source, Duration: max(0, p.Duration)}
		c.total += c.phases[i].Duration
	}
	return c, nil
}

func (c *Controller) NextFrame() (*image.NRGBA, error) {
	if c.tick == c.total {
		if c.last == nil {
			return nil, ErrEmptySequence
		}
		return c.last, nil
	}

	if c.active < 0 || c.count == c.phases[c.active].Duration {
		c.active++
		for c.phases[c.active].Duration == 0 {
			c.active++
		}
		c.count = 0
	}

	f, err := c.phases[c.active].Source.NextFrame()
	if err != nil {
		return nil, fmt.Errorf("phase %d tick %d: %w", c.active, c.count, err)
	}
	c.tick++
	c.count++
	c.last = f
	return f, nil
}

// Blending reports the blending of the active phase, or of the first phase
// before anything was pulled.
func (c *Controller) Blending() source.Blending {
	switch {
	case c.active >= 0:
		return c.phases[c.active].Source.Blending()
	case len(c.phases) > 0:
		return c.phases[0].Source.Blending()
	default:
		return source.BlendNone
	}
}

func (c *Controller) Reset(assets []string) error {
	for i, p := range c.phases {
		if err := p.Source.Reset(assets); err != nil {
			return fmt.Errorf("phase %d: %w", i, err)
		}
	}
	c.tick, c.count, c.active = 0, 0, -1
	c.last = nil
	return nil
}

// Duration is the number of ticks until the sequence freezes.
func (c *Controller) Duration() int {
	return c.total
}

// Phase reports the index of the phase that produced the last frame.
func (c *Controller) Phase() int {
	return c.active
}
