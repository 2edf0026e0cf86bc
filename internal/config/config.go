package config

// Config holds the run settings collected from the command line.
type Config struct {
	TargetDir    string
	TemplatePath string
	ProductDir   string
	OutputDir    string

	FPS          int
	Workers      int
	DPI          int
	Preset       string
	Width        int // overrides the template canvas when > 0
	Height       int
	VideoEncoder string
	Quality      int
	TempDir      string
	ShowStats    bool
	BuildVersion string
}

// OutputParams describe one rendered product.
type OutputParams struct {
	OutputPath string
	FPS        int
	Frames     int    // number of frames pulled from the source
	AudioPath  string // muxed after the video is written, optional
}

// Duration is the video length in seconds.
func (p OutputParams) Duration() float64 {
	if p.FPS <= 0 {
		return 0
	}
	return float64(p.Frames) / float64(p.FPS)
}

// SinkConfig configures the encoder.
type SinkConfig struct {
	TempDir      string
	VideoEncoder string
	Quality      int
}

// DefaultQuality picks the quality for an encoder when none was requested.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}

// PresetSize maps a preset name to a canvas size. ok is false for an unknown
// or empty preset.
func PresetSize(preset string) (w, h int, ok bool) {
	switch preset {
	case "16:9":
		return 1280, 720, true
	case "9:16":
		return 720, 1280, true
	case "4:5":
		return 1080, 1350, true
	}
	return 0, 0, false
}
