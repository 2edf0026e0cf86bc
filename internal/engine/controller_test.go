package engine

import (
	"crypto/sha256"
	"errors"
	"image"
	"testing"

	"github.com/ivlev/product2video/internal/source"
)

// counterSource returns frames whose first byte counts the pulls since Reset.
type counterSource struct {
	id       uint8
	pulls    int
	resets   int
	blending source.Blending
	fail     error
}

func (s *counterSource) NextFrame() (*image.NRGBA, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.pulls++
	f := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	f.Pix[0] = s.id
	f.Pix[1] = uint8(s.pulls)
	return f, nil
}

func (s *counterSource) Blending() source.Blending { return s.blending }

func (s *counterSource) Reset(assets []string) error {
	s.resets++
	s.pulls = 0
	return nil
}

func TestControllerSequencesPhases(t *testing.T) {
	a, b := &counterSource{id: 1}, &counterSource{id: 2}
	c, err := NewController([]Phase{{a, 2}, {b, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if c.Duration() != 5 {
		t.Fatalf("Expected duration 5, got %d", c.Duration())
	}

	want := [][2]uint8{{1, 1}, {1, 2}, {2, 1}, {2, 2}, {2, 3}}
	for i, w := range want {
		f, err := c.NextFrame()
		if err != nil {
			t.Fatal(err)
		}
		if f.Pix[0] != w[0] || f.Pix[1] != w[1] {
			t.Errorf("Tick %d: got phase %d frame %d, want %v", i, f.Pix[0], f.Pix[1], w)
		}
	}
}

func TestControllerFreezesAfterDuration(t *testing.T) {
	a, b := &counterSource{id: 1}, &counterSource{id: 2}
	c, _ := NewController([]Phase{{a, 2}, {b, 3}})

	var last *image.NRGBA
	for i := 0; i < 5; i++ {
		last, _ = c.NextFrame()
	}
	for i := 0; i < 4; i++ {
		f, err := c.NextFrame()
		if err != nil {
			t.Fatal(err)
		}
		if f != last {
			t.Errorf("Pull %d past the end returned a new frame", i)
		}
	}
	if a.pulls != 2 || b.pulls != 3 {
		t.Errorf("Expected 2 and 3 pulls, got %d and %d", a.pulls, b.pulls)
	}
}

func TestControllerSkipsEmptyPhases(t *testing.T) {
	a, b, d := &counterSource{id: 1}, &counterSource{id: 2}, &counterSource{id: 3}
	c, _ := NewController([]Phase{{a, 0}, {b, -4}, {d, 2}})
	if c.Duration() != 2 {
		t.Fatalf("Expected negative durations to clamp to 0, got %d", c.Duration())
	}
	f, err := c.NextFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.Pix[0] != 3 || c.Phase() != 2 {
		t.Errorf("Expected the third phase to play first, got source %d phase %d", f.Pix[0], c.Phase())
	}
	if a.pulls+b.pulls != 0 {
		t.Error("Zero-length phases were pulled")
	}
}

func TestControllerEmptySequence(t *testing.T) {
	c, _ := NewController([]Phase{{&counterSource{}, 0}})
	if _, err := c.NextFrame(); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("Expected ErrEmptySequence, got %v", err)
	}
	c, _ = NewController(nil)
	if _, err := c.NextFrame(); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("Expected ErrEmptySequence, got %v", err)
	}
}

func TestControllerRejectsNilSource(t *testing.T) {
	if _, err := NewController([]Phase{{nil, 1}}); err == nil {
		t.Error("Expected an error for a phase without source")
	}
}

func TestControllerPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c, _ := NewController([]Phase{{&counterSource{fail: boom}, 1}})
	if _, err := c.NextFrame(); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped source error, got %v", err)
	}
}

func TestControllerResetReproducesSequence(t *testing.T) {
	a, b := &counterSource{id: 1}, &counterSource{id: 2, blending: source.BlendAlpha}
	c, _ := NewController([]Phase{{a, 3}, {b, 4}})

	run := func() [][32]byte {
		var sums [][32]byte
		for i := 0; i < c.Duration()+2; i++ {
			f, err := c.NextFrame()
			if err != nil {
				t.Fatal(err)
			}
			sums = append(sums, sha256.Sum256(f.Pix))
		}
		return sums
	}

	first := run()
	if c.Blending() != source.BlendAlpha {
		t.Errorf("Expected blending of the active phase, got %v", c.Blending())
	}
	if err := c.Reset([]string{"x"}); err != nil {
		t.Fatal(err)
	}
	if a.resets != 1 || b.resets != 1 {
		t.Errorf("Reset was not propagated: %d %d", a.resets, b.resets)
	}
	if c.Blending() != source.BlendNone {
		t.Errorf("Expected blending of the first phase after reset, got %v", c.Blending())
	}
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Tick %d differs after reset", i)
		}
	}
}
