package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/product2video/internal/config"
	"github.com/ivlev/product2video/internal/source"
	"github.com/ivlev/product2video/internal/system"
)

var (
	ErrUnsupportedCodec = errors.New("codec not supported by ffmpeg")
	ErrNoFrames         = errors.New("nothing to encode")
	ErrFrameSize        = errors.New("frame size changed during encoding")
)

// Encoder drains a source into a video file.
type Encoder interface {
	Encode(ctx context.Context, src source.Source, params config.OutputParams) error
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	cfg config.SinkConfig
}

func NewFFmpegEncoder(cfg config.SinkConfig) *FFmpegEncoder {
	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder = "libx264"
	}
	if cfg.Quality <= 0 {
		cfg.Quality = config.DefaultQuality(cfg.VideoEncoder)
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &FFmpegEncoder{cfg: cfg}
}

// Validate checks that the local ffmpeg knows the configured codec.
func (e *FFmpegEncoder) Validate() error {
	encoders, err := system.ListEncoders()
	if err != nil {
		return err
	}
	if !encoders[e.cfg.VideoEncoder] {
		return fmt.Errorf("%s: %w", e.cfg.VideoEncoder, ErrUnsupportedCodec)
	}
	return nil
}

func (e *FFmpegEncoder) Encode(ctx context.Context, src source.Source, params config.OutputParams) error {
	if params.Frames <= 0 || params.FPS <= 0 {
		return fmt.Errorf("%s: %w", params.OutputPath, ErrNoFrames)
	}
	if err := os.MkdirAll(filepath.Dir(params.OutputPath), 0755); err != nil {
		return err
	}

	first, err := src.NextFrame()
	if err != nil {
		return fmt.Errorf("first frame: %w", err)
	}
	size := first.Rect.Size()

	videoPath := params.OutputPath
	if params.AudioPath != "" {
		videoPath = filepath.Join(e.cfg.TempDir, "video_"+filepath.Base(params.OutputPath))
		defer os.Remove(videoPath)
	}

	args := e.buildFFmpegArgs(size.X, size.Y, params.FPS, videoPath)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	werr := e.writeFrames(ctx, stdin, src, first, params.Frames)
	stdin.Close()
	if err := cmd.Wait(); err != nil {
		if werr != nil {
			return werr
		}
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, out.String())
	}
	if werr != nil {
		return werr
	}

	if params.AudioPath != "" {
		return e.mux(ctx, videoPath, params.AudioPath, params.OutputPath)
	}
	return nil
}

func (e *FFmpegEncoder) writeFrames(ctx context.Context, w io.Writer, src source.Source, first *image.NRGBA, frames int) error {
	size := first.Rect.Size()
	f := first
	for i := 0; i < frames; i++ {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			if f, err = src.NextFrame(); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if f.Rect.Size() != size {
				return fmt.Errorf("frame %d is %v, expected %v: %w", i, f.Rect.Size(), size, ErrFrameSize)
			}
		}
		if err := writeRaw(w, f); err != nil {
			return fmt.Errorf("write raw error: %w", err)
		}
	}
	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(w, h, fps int, videoPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", e.cfg.VideoEncoder,
	}
	args = append(args, qualityArgs(e.cfg.VideoEncoder, e.cfg.Quality)...)
	return append(args, videoPath)
}

func (e *FFmpegEncoder) buildMuxArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	}
}

func (e *FFmpegEncoder) mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", e.buildMuxArgs(videoPath, audioPath, outputPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some builds, bitrate is reliable.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// writeRaw writes the frame rows without padding.
func writeRaw(w io.Writer, f *image.NRGBA) error {
	rowLen := f.Rect.Dx() * 4
	if f.Stride == rowLen {
		_, err := w.Write(f.Pix[:rowLen*f.Rect.Dy()])
		return err
	}
	for y := 0; y < f.Rect.Dy(); y++ {
		off := y * f.Stride
		if _, err := w.Write(f.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}
