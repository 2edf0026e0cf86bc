package system

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var ErrInvalidAudio = errors.New("invalid audio file")

// AudioDuration returns the soundtrack length in seconds. WAV and MP3 are read
// natively, other containers are probed with ffprobe.
func AudioDuration(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wavDuration(path)
	case ".mp3":
		return mp3Duration(path)
	default:
		return probeDuration(path)
	}
}

func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s: %w", path, ErrInvalidAudio)
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return dur.Seconds(), nil
}

func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	// Decoded stream is 16 bit stereo: 4 bytes per sample.
	if d.Length() <= 0 || d.SampleRate() <= 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrInvalidAudio)
	}
	return float64(d.Length()) / 4 / float64(d.SampleRate()), nil
}

func probeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return duration, nil
}
