package system

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
	"syscall"
)

// InitResourceLimits пытается увеличить лимит открытых файлов: каждое
// декодированное видео и pipe ffmpeg держат дескрипторы.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// ListEncoders returns the encoder names known to the local ffmpeg.
func ListEncoders() (map[string]bool, error) {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg -encoders: %w", err)
	}
	return parseEncoders(string(out)), nil
}

// parseEncoders reads the table printed by "ffmpeg -encoders":
//
//	V....D libx264              libx264 H.264 / AVC ...
func parseEncoders(out string) map[string]bool {
	names := make(map[string]bool)
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if strings.HasPrefix(fields[0], "---") {
			inTable = true
			continue
		}
		if !inTable || len(fields) < 2 || strings.Trim(fields[0], "VASFXBD.") != "" {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// GetBestH264Encoder выбирает аппаратный энкодер, иначе libx264.
func GetBestH264Encoder() string {
	// 1. macOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. software
	encoders, err := ListEncoders()
	if err != nil {
		return "libx264"
	}
	return pickH264(encoders)
}

func pickH264(encoders map[string]bool) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if encoders[name] {
			return name
		}
	}
	return "libx264"
}
