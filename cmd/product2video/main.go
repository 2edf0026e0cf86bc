package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ivlev/product2video/internal/assets"
	"github.com/ivlev/product2video/internal/config"
	"github.com/ivlev/product2video/internal/engine"
	"github.com/ivlev/product2video/internal/system"
	"github.com/ivlev/product2video/internal/template"
	"github.com/ivlev/product2video/internal/video"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	system.InitResourceLimits()

	fpsPtr := flag.Int("fps", 60, "FPS")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Parallel asset decoders")
	dpiPtr := flag.Int("dpi", 150, "DPI for PDF graphics")
	presetPtr := flag.String("preset", "", "Canvas preset overriding the template: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	encoderPtr := flag.String("encoder", "", "Video encoder (default: best available H.264 encoder)")
	statsPtr := flag.Bool("stats", false, "Print a performance report and append it to output/benchmark.log")
	onlyPtr := flag.String("only", "", "Render a single product")
	exportPtr := flag.String("export-yaml", "", "Write the parsed template as YAML to this path and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <target-directory>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	target := flag.Arg(0)
	if fi, err := os.Stat(target); err != nil {
		log.Fatalf("[-] Целевая директория: %v", err)
	} else if !fi.IsDir() {
		log.Fatalf("[-] %s не является директорией", target)
	}
	layout := assets.NewLayout(target)

	tplPath, err := template.Find(target)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	fmt.Printf("[*] Шаблон: %s\n", tplPath)
	rows, err := template.ReadRows(tplPath)
	if err != nil {
		log.Fatalf("[-] Не удалось прочитать шаблон: %v", err)
	}
	if *exportPtr != "" {
		if err := template.WriteYAML(rows, *exportPtr); err != nil {
			log.Fatalf("[-] Ошибка экспорта: %v", err)
		}
		fmt.Printf("[+++] Шаблон экспортирован: %s\n", *exportPtr)
		return
	}
	tpl, err := template.Parse(rows, layout.Template)
	if err != nil {
		log.Fatalf("[-] Ошибка шаблона: %v", err)
	}

	products, err := assets.FindProducts(layout.Products, layout.Output)
	if err != nil {
		log.Fatalf("[-] %v. Положите по одной директории с изображениями на товар в %s", err, layout.Products)
	}
	if products, err = assets.Filter(products, *onlyPtr); err != nil {
		log.Fatalf("[-] %v", err)
	}
	fmt.Printf("[*] Найдено товаров: %d\n", len(products))

	encoderName := *encoderPtr
	if encoderName == "" {
		encoderName = system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}
	quality := *qualityPtr
	if quality == 0 {
		quality = config.DefaultQuality(encoderName)
	}

	tmpDir, err := os.MkdirTemp("", "product2video_")
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := &config.Config{
		TargetDir:    target,
		TemplatePath: tplPath,
		ProductDir:   layout.Products,
		OutputDir:    layout.Output,
		FPS:          *fpsPtr,
		Workers:      *workersPtr,
		DPI:          *dpiPtr,
		Preset:       *presetPtr,
		VideoEncoder: encoderName,
		Quality:      quality,
		TempDir:      tmpDir,
		ShowStats:    *statsPtr,
		BuildVersion: version,
	}
	if w, h, ok := config.PresetSize(cfg.Preset); ok {
		cfg.Width, cfg.Height = w, h
	} else if cfg.Preset != "" {
		log.Fatalf("[-] Неизвестный пресет %q", cfg.Preset)
	}

	if err := run(cfg, tpl, products); err != nil {
		log.Printf("[-] %v", err)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}
}

func run(cfg *config.Config, tpl *template.Template, products []assets.Product) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := video.NewFFmpegEncoder(config.SinkConfig{
		TempDir:      cfg.TempDir,
		VideoEncoder: cfg.VideoEncoder,
		Quality:      cfg.Quality,
	})
	if err := enc.Validate(); err != nil {
		return err
	}

	b := template.NewBuilder(cfg.FPS, cfg.DPI, cfg.Workers)
	b.Canvas = image.Pt(cfg.Width, cfg.Height)
	ctrl, phases, err := b.Build(ctx, tpl)
	if err != nil {
		return fmt.Errorf("composing phases: %w", err)
	}
	for _, ph := range phases {
		fmt.Printf("[*] Фаза %d: %.2fs, элементов: %d\n", ph.Number, ph.Seconds, ph.Elements)
	}
	if tpl.Audio != "" {
		fmt.Printf("[*] Саундтрек: %s\n", tpl.Audio)
	}

	project := engine.NewVideoProject(cfg, ctrl, enc, ctrl.Duration(), tpl.Audio)
	results, err := project.Run(ctx, products)

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
			fmt.Printf("[+] %s (%.1fs)\n", r.Product.Output, r.Elapsed.Seconds())
		}
	}
	fmt.Printf("[+++] Готово: %d/%d видео\n", ok, len(products))
	return err
}
