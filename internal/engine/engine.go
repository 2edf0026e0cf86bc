package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/product2video/internal/assets"
	"github.com/ivlev/product2video/internal/config"
	"github.com/ivlev/product2video/internal/source"
	"github.com/ivlev/product2video/internal/system"
	"github.com/ivlev/product2video/internal/video"
)

var ErrNoFrames = errors.New("project renders no frames")

// VideoProject renders one video per product from a single composition graph.
type VideoProject struct {
	Config  *config.Config
	Source  source.Source
	Encoder video.Encoder
	Frames  int    // frames per video
	Audio   string // optional soundtrack
}

func NewVideoProject(cfg *config.Config, src source.Source, enc video.Encoder, frames int, audio string) *VideoProject {
	return &VideoProject{
		Config:  cfg,
		Source:  src,
		Encoder: enc,
		Frames:  frames,
		Audio:   audio,
	}
}

// Result is the outcome of one product.
type Result struct {
	Product assets.Product
	Elapsed time.Duration
	Err     error
}

// Run рендерит товары по очереди: сброс графа, затем кодирование.
// Упавший товар логируется и пропускается; первая ошибка возвращается
// после обработки всех товаров.
func (p *VideoProject) Run(ctx context.Context, products []assets.Product) ([]Result, error) {
	if p.Frames <= 0 {
		return nil, ErrNoFrames
	}
	startTime := time.Now()
	seconds := float64(p.Frames) / float64(p.Config.FPS)

	if p.Audio != "" {
		p.checkSoundtrack(seconds)
	}

	results := make([]Result, 0, len(products))
	var firstErr error
	for i, prod := range products {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fmt.Printf("[>] %d/%d: %s\n", i+1, len(products), prod.Name)

		res := Result{Product: prod}
		start := time.Now()
		res.Err = p.render(ctx, prod)
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			log.Printf("[!] %s: %v", prod.Name, res.Err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", prod.Name, res.Err)
			}
		}
		results = append(results, res)
	}

	if p.Config.ShowStats {
		p.report(results, time.Since(startTime))
	}
	return results, firstErr
}

func (p *VideoProject) render(ctx context.Context, prod assets.Product) error {
	if err := p.Source.Reset(prod.Assets); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return p.Encoder.Encode(ctx, p.Source, config.OutputParams{
		OutputPath: prod.Output,
		FPS:        p.Config.FPS,
		Frames:     p.Frames,
		AudioPath:  p.Audio,
	})
}

func (p *VideoProject) checkSoundtrack(seconds float64) {
	audioDur, err := system.AudioDuration(p.Audio)
	if err != nil {
		log.Printf("[!] Не удалось определить длину саундтрека: %v", err)
		return
	}
	if soundtrackShort(audioDur, seconds) {
		log.Printf("[!] Саундтрек (%.2fs) короче видео (%.2fs), видео будут обрезаны", audioDur, seconds)
	}
}

func soundtrackShort(audio, video float64) bool {
	return audio+0.001 < video
}

func (p *VideoProject) report(results []Result, total time.Duration) {
	var failed int
	var frames int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		frames += p.Frames
	}
	fps := float64(frames) / total.Seconds()

	stats, err := system.CollectStats()
	statsLine := stats.String()
	if err != nil {
		statsLine = fmt.Sprintf("unavailable (%v)", err)
	}

	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Products: %d (failed: %d)\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Resources: %s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, len(results), failed, total.Seconds(), fps, statsLine,
	)

	logEntry := fmt.Sprintf("[%s] Build: %s | Target: %s | Products: %d | Failed: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.TargetDir),
		len(results),
		failed,
		total.Seconds(),
		fps,
	)
	path := filepath.Join(p.Config.OutputDir, "benchmark.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("[!] Не удалось записать %s: %v", path, err)
		return
	}
	f.WriteString(logEntry)
	f.Close()
}
