package template

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/product2video/internal/source"
)

const sampleCSV = `Phase,Type,Source,Width,Height,H Margin,V Margin,H Alignment,V Alignment,Transparency,Duration,Loop,Effect,Direction,Min Size,Start Size,Speed,Effect Loop
0,OUTPUT,music.mp3,720,1280,,,,,,,,,,,,,
0,GRAPHICS,background.png,,,,,,,,,,,,,,,
,,comment row,,,,,,,,,,,,,,,
1,GRAPHICS,logo.png,50%,200,10%,20,RIGHT,BOTTOM,Alpha Blending,2.5,yes,zoom,out,small,full,fast,TRUE
2,SLIDESHOW,,80%,40%,,,CENTERED,CENTERED,Chroma Keying,15,,none,,,,,
`

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}
	if rows[3].HMargin != "10%" || rows[3].MinSize != "small" || rows[3].EffectLoop != "TRUE" {
		t.Errorf("Unexpected row: %+v", rows[3])
	}
}

func TestParseTemplate(t *testing.T) {
	rows, _ := ReadCSV(strings.NewReader(sampleCSV))
	tpl, err := Parse(rows, "/target/template")
	if err != nil {
		t.Fatal(err)
	}

	if tpl.Width != 720 || tpl.Height != 1280 {
		t.Errorf("Expected 720x1280 canvas, got %dx%d", tpl.Width, tpl.Height)
	}
	if tpl.Audio != filepath.Join("/target/template", "music.mp3") {
		t.Errorf("Unexpected audio path %q", tpl.Audio)
	}
	if len(tpl.Elements) != 3 {
		t.Fatalf("Expected 3 elements (comment row skipped), got %d", len(tpl.Elements))
	}

	logo := tpl.Elements[1]
	if logo.Type != TypeGraphics || logo.Phase != 1 || !logo.Loop {
		t.Errorf("Unexpected logo element %+v", logo)
	}
	if logo.Width != (Length{Value: 0.5, Percent: true}) || logo.Height != (Length{Value: 200}) {
		t.Errorf("Unexpected logo size %+v %+v", logo.Width, logo.Height)
	}
	if logo.HAlign != AlignRight || logo.VAlign != AlignBottom || logo.Blending != source.BlendAlpha {
		t.Errorf("Unexpected logo layout %+v", logo)
	}
	if logo.Duration != 2.5 {
		t.Errorf("Expected 2.5s, got %v", logo.Duration)
	}
	want := &Zoom{Direction: -1, MinSize: 0.60, StartSize: 1.0, Speed: 0.0015, Loop: true}
	if logo.Zoom == nil || *logo.Zoom != *want {
		t.Errorf("Expected zoom %+v, got %+v", want, logo.Zoom)
	}

	show := tpl.Elements[2]
	if show.Type != TypeSlideshow || show.Blending != source.BlendChromaKey || show.Zoom != nil {
		t.Errorf("Unexpected slideshow element %+v", show)
	}
	if show.HAlign != AlignHCenter || show.VAlign != AlignVCenter {
		t.Errorf("Expected centered slideshow, got %v %v", show.HAlign, show.VAlign)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want error
	}{
		{"unknown type", Row{Phase: "1", Type: "VIDEO"}, ErrUnknownToken},
		{"output outside phase 0", Row{Phase: "2", Type: "OUTPUT", Width: "10", Height: "10"}, ErrOutputPhase},
		{"percent output", Row{Phase: "0", Type: "OUTPUT", Width: "50%", Height: "10"}, ErrUnknownToken},
		{"bad alignment", Row{Phase: "1", Type: "GRAPHICS", HAlignment: "MIDDLE"}, ErrUnknownToken},
		{"bad width", Row{Phase: "1", Type: "GRAPHICS", Width: "wide"}, ErrUnknownToken},
		{"bad duration", Row{Phase: "1", Type: "GRAPHICS", Duration: "long"}, ErrUnknownToken},
		{"unknown effect", Row{Phase: "1", Type: "GRAPHICS", Effect: "spin"}, ErrUnknownToken},
		{"unknown size", Row{Phase: "1", Type: "GRAPHICS", Effect: "zoom", MinSize: "huge"}, ErrUnknownToken},
		{"unknown speed", Row{Phase: "1", Type: "GRAPHICS", Effect: "zoom", Speed: "warp"}, ErrUnknownToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]Row{tt.row}, ""); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseTokens(t *testing.T) {
	if b := parseTransparency("Glass"); b != source.BlendAlpha {
		t.Errorf("Expected unknown transparency to fall back to alpha, got %v", b)
	}
	if b := parseTransparency("Solid"); b != source.BlendNone {
		t.Errorf("Expected Solid to be NONE, got %v", b)
	}
	if b := parseTransparency("chroma-key"); b != source.BlendChromaKey {
		t.Errorf("Expected the short name to select chroma keying, got %v", b)
	}
	if v, err := lookup(sizes, "  Very   Small ", "full", "size"); err != nil || v != 0.45 {
		t.Errorf("Expected 0.45, got %v (%v)", v, err)
	}
	if v, _ := lookup(speeds, "", "average", "speed"); v != 0.001 {
		t.Errorf("Expected average speed by default, got %v", v)
	}
	z, _ := parseEffect(Row{Effect: "Zoom", Direction: "sideways"})
	if z.Direction != 1 {
		t.Errorf("Expected zoom in by default, got %d", z.Direction)
	}
	for in, want := range map[string]bool{"yes": true, "True": true, "no": false, "": false, "1": false} {
		if parseBool(in) != want {
			t.Errorf("parseBool(%q) != %v", in, want)
		}
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		in    string
		total int
		want  int
	}{
		{"", 100, 0},
		{"25", 100, 25},
		{"25%", 720, 180},
		{"12.5 %", 80, 10},
		{"-10", 100, -10},
	}
	for _, tt := range tests {
		l, err := parseLength(tt.in)
		if err != nil {
			t.Fatalf("parseLength(%q): %v", tt.in, err)
		}
		if got := l.Resolve(tt.total); got != tt.want {
			t.Errorf("parseLength(%q).Resolve(%d) = %d, want %d", tt.in, tt.total, got, tt.want)
		}
	}
}

func TestElementOffset(t *testing.T) {
	canvas := image.Pt(720, 1280)
	size := image.Pt(100, 200)
	tests := []struct {
		name string
		el   Element
		want image.Point
	}{
		{"top left", Element{HMargin: Length{Value: 10}, VMargin: Length{Value: 20}}, image.Pt(10, 20)},
		{"percent margins", Element{HMargin: Length{Value: 0.1, Percent: true}, VMargin: Length{Value: 0.05, Percent: true}}, image.Pt(72, 64)},
		{"right bottom", Element{HAlign: AlignRight, VAlign: AlignBottom, HMargin: Length{Value: 10}, VMargin: Length{Value: 20}}, image.Pt(610, 1060)},
		{"centered ignores margins", Element{HAlign: AlignHCenter, VAlign: AlignVCenter, HMargin: Length{Value: 99}, VMargin: Length{Value: 99}}, image.Pt(310, 540)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.el.Offset(canvas, size); got != tt.want {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElementSize(t *testing.T) {
	canvas := image.Pt(400, 300)
	el := Element{Width: Length{Value: 0.5, Percent: true}}
	if got := el.Size(canvas); got != image.Pt(200, 300) {
		t.Errorf("Expected missing height to take the canvas height, got %v", got)
	}
}
