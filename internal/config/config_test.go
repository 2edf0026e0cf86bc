package config

import "testing"

func TestDefaultQuality(t *testing.T) {
	tests := map[string]int{
		"h264_videotoolbox": 75,
		"h264_nvenc":        28,
		"libx264":           23,
		"":                  23,
	}
	for enc, want := range tests {
		if got := DefaultQuality(enc); got != want {
			t.Errorf("DefaultQuality(%q) = %d, want %d", enc, got, want)
		}
	}
}

func TestPresetSize(t *testing.T) {
	w, h, ok := PresetSize("9:16")
	if !ok || w != 720 || h != 1280 {
		t.Errorf("Got %dx%d ok=%v", w, h, ok)
	}
	if _, _, ok := PresetSize("21:9"); ok {
		t.Error("Expected unknown preset to be rejected")
	}
}

func TestOutputDuration(t *testing.T) {
	p := OutputParams{FPS: 30, Frames: 45}
	if p.Duration() != 1.5 {
		t.Errorf("Expected 1.5s, got %v", p.Duration())
	}
	if (OutputParams{Frames: 10}).Duration() != 0 {
		t.Error("Expected 0 for missing fps")
	}
}
