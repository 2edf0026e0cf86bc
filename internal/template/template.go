// Package template reads the video template of a target directory and turns
// it into a composition graph.
package template

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/product2video/internal/source"
)

var (
	ErrUnknownToken = errors.New("unknown template value")
	ErrMissingAsset = errors.New("template asset does not exist")
	ErrOutputPhase  = errors.New("OUTPUT is only allowed in phase 0")
	ErrNoCanvas     = errors.New("template has no output size")
	ErrNoPhases     = errors.New("template has no timed phases")
)

type ElementType string

const (
	TypeOutput    ElementType = "OUTPUT"
	TypeGraphics  ElementType = "GRAPHICS"
	TypeSlideshow ElementType = "SLIDESHOW"
	TypeQRCode    ElementType = "QRCODE"
)

type HAlign int

const (
	AlignLeft HAlign = iota
	AlignHCenter
	AlignRight
)

type VAlign int

const (
	AlignTop VAlign = iota
	AlignVCenter
	AlignBottom
)

// Effect sizes and speeds accepted in the Min Size, Start Size and Speed
// columns.
var (
	sizes = map[string]float64{
		"full":       1.0,
		"big":        0.95,
		"medium":     0.85,
		"small":      0.60,
		"very small": 0.45,
		"tiny":       0.30,
	}
	speeds = map[string]float64{
		"very fast": 0.0020,
		"fast":      0.0015,
		"average":   0.0010,
		"slow":      0.0005,
		"very slow": 0.0001,
	}
)

// Row is one template line with its cells kept as text. CSV headers and YAML
// keys map onto the same fields.
type Row struct {
	Phase        string `yaml:"phase"`
	Type         string `yaml:"type"`
	Source       string `yaml:"source,omitempty"`
	Width        string `yaml:"width,omitempty"`
	Height       string `yaml:"height,omitempty"`
	HMargin      string `yaml:"h_margin,omitempty"`
	VMargin      string `yaml:"v_margin,omitempty"`
	HAlignment   string `yaml:"h_alignment,omitempty"`
	VAlignment   string `yaml:"v_alignment,omitempty"`
	Transparency string `yaml:"transparency,omitempty"`
	Duration     string `yaml:"duration,omitempty"`
	Loop         string `yaml:"loop,omitempty"`
	Effect       string `yaml:"effect,omitempty"`
	Direction    string `yaml:"direction,omitempty"`
	MinSize      string `yaml:"min_size,omitempty"`
	StartSize    string `yaml:"start_size,omitempty"`
	Speed        string `yaml:"speed,omitempty"`
	EffectLoop   string `yaml:"effect_loop,omitempty"`
	Standby      string `yaml:"standby,omitempty"`
	Transition   string `yaml:"transition,omitempty"`
}

// Zoom is a scale oscillation applied on top of an element.
type Zoom struct {
	Direction int
	MinSize   float64
	StartSize float64
	Speed     float64
	Loop      bool
}

// Element is a parsed, non-OUTPUT row.
type Element struct {
	Phase      int
	Type       ElementType
	Source     string
	Width      Length
	Height     Length
	HMargin    Length
	VMargin    Length
	HAlign     HAlign
	VAlign     VAlign
	Blending   source.Blending
	Duration   float64 // seconds
	Loop       bool
	Zoom       *Zoom
	Standby    float64 // seconds, 0 keeps the slideshow default
	Transition float64
}

// Template is a parsed template file.
type Template struct {
	AssetDir string
	Audio    string
	Width    int
	Height   int
	Elements []Element
}

// Parse validates rows. Relative Source paths are resolved against assetDir.
func Parse(rows []Row, assetDir string) (*Template, error) {
	t := &Template{AssetDir: assetDir}
	for i, r := range rows {
		line := i + 1
		phase, err := strconv.Atoi(strings.TrimSpace(r.Phase))
		if err != nil {
			log.Printf("[!] Строка шаблона %d: пустая фаза, пропускаем", line)
			continue
		}

		typ, err := parseType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		if typ == TypeOutput {
			if err := t.parseOutput(phase, r); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			continue
		}

		el, err := parseElement(phase, typ, r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		t.Elements = append(t.Elements, el)
	}
	return t, nil
}

func (t *Template) parseOutput(phase int, r Row) error {
	if phase != 0 {
		return fmt.Errorf("%w: got phase %d", ErrOutputPhase, phase)
	}
	w, err := parseLength(r.Width)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	h, err := parseLength(r.Height)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	if w.Percent || h.Percent {
		return fmt.Errorf("%w: output size must be in pixels", ErrUnknownToken)
	}
	t.Width, t.Height = int(w.Value), int(h.Value)
	if src := strings.TrimSpace(r.Source); src != "" {
		t.Audio = t.path(src)
	}
	return nil
}

// path resolves a template asset.
func (t *Template) path(name string) string {
	if filepath.IsAbs(name) || t.AssetDir == "" {
		return name
	}
	return filepath.Join(t.AssetDir, name)
}

func parseElement(phase int, typ ElementType, r Row) (Element, error) {
	el := Element{Phase: phase, Type: typ, Source: strings.TrimSpace(r.Source)}

	var err error
	lengths := []struct {
		cell string
		dst  *Length
		name string
	}{
		{r.Width, &el.Width, "width"},
		{r.Height, &el.Height, "height"},
		{r.HMargin, &el.HMargin, "h margin"},
		{r.VMargin, &el.VMargin, "v margin"},
	}
	for _, l := range lengths {
		if *l.dst, err = parseLength(l.cell); err != nil {
			return el, fmt.Errorf("%s: %w", l.name, err)
		}
	}

	if el.HAlign, err = parseHAlign(r.HAlignment); err != nil {
		return el, err
	}
	if el.VAlign, err = parseVAlign(r.VAlignment); err != nil {
		return el, err
	}
	el.Blending = parseTransparency(r.Transparency)
	if el.Duration, err = parseSeconds(r.Duration); err != nil {
		return el, fmt.Errorf("duration: %w", err)
	}
	if el.Standby, err = parseSeconds(r.Standby); err != nil {
		return el, fmt.Errorf("standby: %w", err)
	}
	if el.Transition, err = parseSeconds(r.Transition); err != nil {
		return el, fmt.Errorf("transition: %w", err)
	}
	el.Loop = parseBool(r.Loop)

	if el.Zoom, err = parseEffect(r); err != nil {
		return el, err
	}
	return el, nil
}

func parseType(s string) (ElementType, error) {
	switch t := ElementType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeOutput, TypeGraphics, TypeSlideshow, TypeQRCode:
		return t, nil
	}
	return "", fmt.Errorf("%w: type %q", ErrUnknownToken, s)
}

func parseHAlign(s string) (HAlign, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LEFT":
		return AlignLeft, nil
	case "CENTERED":
		return AlignHCenter, nil
	case "RIGHT":
		return AlignRight, nil
	}
	return AlignLeft, fmt.Errorf("%w: h alignment %q", ErrUnknownToken, s)
}

func parseVAlign(s string) (VAlign, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TOP":
		return AlignTop, nil
	case "CENTERED":
		return AlignVCenter, nil
	case "BOTTOM":
		return AlignBottom, nil
	}
	return AlignTop, fmt.Errorf("%w: v alignment %q", ErrUnknownToken, s)
}

func parseTransparency(s string) source.Blending {
	switch strings.TrimSpace(s) {
	case "", "Solid":
		return source.BlendNone
	case "Alpha Blending":
		return source.BlendAlpha
	case "Chroma Keying":
		return source.BlendChromaKey
	}
	if b, err := source.ParseBlending(s); err == nil {
		return b
	}
	log.Printf("[!] Неизвестная прозрачность %q, используем alpha-смешивание", s)
	return source.BlendAlpha
}

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, s)
	}
	return max(v, 0), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return true
	}
	return false
}

func parseEffect(r Row) (*Zoom, error) {
	switch strings.ToLower(strings.TrimSpace(r.Effect)) {
	case "", "none":
		return nil, nil
	case "zoom":
	default:
		return nil, fmt.Errorf("%w: effect %q", ErrUnknownToken, r.Effect)
	}

	z := &Zoom{Direction: 1, Loop: parseBool(r.EffectLoop)}
	if strings.EqualFold(strings.TrimSpace(r.Direction), "out") {
		z.Direction = -1
	}

	var err error
	if z.MinSize, err = lookup(sizes, r.MinSize, "full", "min size"); err != nil {
		return nil, err
	}
	if z.StartSize, err = lookup(sizes, r.StartSize, "full", "start size"); err != nil {
		return nil, err
	}
	if z.Speed, err = lookup(speeds, r.Speed, "average", "speed"); err != nil {
		return nil, err
	}
	return z, nil
}

func lookup(table map[string]float64, s, fallback, name string) (float64, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if key == "" {
		key = fallback
	}
	v, ok := table[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrUnknownToken, name, s)
	}
	return v, nil
}
