package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ivlev/product2video/internal/frame"
)

// VideoInfo describes the first video stream of a file.
type VideoInfo struct {
	Width  int
	Height int
	FPS    int
}

// FFmpegDecoder decodes any container ffmpeg understands by streaming raw
// RGBA frames from its stdout.
type FFmpegDecoder struct{}

func (d *FFmpegDecoder) Decode(ctx context.Context, path string, size image.Point) (*Clip, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	w, h := info.Width, info.Height
	if size.X > 0 && size.Y > 0 {
		w, h = size.X, size.Y
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", decodeArgs(path, w, h)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	frames, readErr := readFrames(stdout, w, h)
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode error: %v, output: %s", err, stderr.String())
	}
	if readErr != nil {
		return nil, readErr
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}

	return &Clip{Frames: frames, FPS: info.FPS}, nil
}

func decodeArgs(path string, w, h int) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", w, h),
		"-",
	}
}

// readFrames splits a raw RGBA stream into w×h frames. A trailing partial
// frame is dropped.
func readFrames(r io.Reader, w, h int) ([]*image.NRGBA, error) {
	var frames []*image.NRGBA
	for {
		f := frame.New(w, h)
		_, err := io.ReadFull(r, f.Pix)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read raw error: %w", err)
		}
		frames = append(frames, f)
	}
}

// Probe reads the size and frame rate of the first video stream with ffprobe.
func Probe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe error: %v, output: %s", err, string(out))
	}
	return parseProbe(string(out))
}

// parseProbe parses "width,height,num/den".
func parseProbe(out string) (VideoInfo, error) {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return VideoInfo{}, fmt.Errorf("unexpected ffprobe output %q", out)
	}

	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return VideoInfo{}, fmt.Errorf("width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return VideoInfo{}, fmt.Errorf("height: %w", err)
	}
	fps, err := parseRate(parts[2])
	if err != nil {
		return VideoInfo{}, err
	}
	return VideoInfo{Width: w, Height: h, FPS: fps}, nil
}

// parseRate converts an ffprobe rational such as "30000/1001" to whole frames per second.
func parseRate(s string) (int, error) {
	s = strings.TrimSpace(s)
	num, den := s, "1"
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, den = s[:i], s[i+1:]
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadFPS, s)
	}
	dv, err := strconv.ParseFloat(den, 64)
	if err != nil || dv == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadFPS, s)
	}
	fps := int(math.Round(n / dv))
	if fps <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadFPS, s)
	}
	return fps, nil
}
