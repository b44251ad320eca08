package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/ivlev/videocrop/internal/compositor"
	"github.com/ivlev/videocrop/internal/engine"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/session"
	"github.com/ivlev/videocrop/internal/system"
	"github.com/ivlev/videocrop/internal/video"
)

func runRender(ctx context.Context, args []string) error {
	var sessionPath, outPath, audioPath *string
	cfg, err := loadConfig("render", args, func(fs *pflag.FlagSet) {
		sessionPath = fs.String("session", "", "Файл сессии (по умолчанию: <output-dir>/video_edit_data.json)")
		outPath = fs.String("out", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
		audioPath = fs.String("audio", "", "Аудиодорожка для итогового клипа")
	})
	if err != nil {
		return err
	}

	if *sessionPath == "" {
		*sessionPath = filepath.Join(cfg.OutputDir, session.FileName)
	}
	samples, err := session.ReadFile(*sessionPath)
	if err != nil {
		return fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	fmt.Printf("[*] Сессия: %s (%d записей)\n", *sessionPath, len(samples))

	src, input, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	out := *outPath
	if out == "" {
		out = defaultOutput(cfg.OutputDir, input, ".mp4")
	}

	encoderName := cfg.Encoder
	if encoderName == "" {
		if strings.EqualFold(filepath.Ext(out), ".webm") {
			encoderName = system.GetBestWebMEncoder()
		} else {
			encoderName = system.GetBestH264Encoder()
		}
		if encoderName != "libx264" && encoderName != "libvpx-vp9" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = video.DefaultQuality(encoderName)
	}

	scaler, err := compositor.ParseScaler(cfg.Scaler)
	if err != nil {
		return err
	}

	report, err := engine.RenderSession(ctx, src, samples, &video.FFmpegEncoder{}, engine.RenderOptions{
		Output:    out,
		Display:   geometry.Size{Width: float64(cfg.DisplayWidth), Height: float64(cfg.DisplayHeight)},
		FPS:       cfg.FPS,
		Encoder:   encoderName,
		Quality:   quality,
		AudioPath: *audioPath,
		Smooth:    cfg.Smooth,
		Scaler:    scaler,
		ShowStats: cfg.ShowStats,
	})
	if err != nil {
		return fmt.Errorf("ошибка рендера: %w", err)
	}
	if report.Skipped > 0 {
		fmt.Printf("[!] Пропущено кадров: %d\n", report.Skipped)
	}

	fmt.Print(formatReport(report))
	return nil
}

// formatReport renders the console summary of a finished render.
func formatReport(r *engine.RenderReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[+++] Успех! Результат: %s\n", r.Output)
	fmt.Fprintf(&b, "    Кадров: %d (%dx%d) | Размер: %s | Длительность: %.2fs | Время: %v\n",
		r.Frames, r.Width, r.Height, humanize.Bytes(uint64(r.Bytes)), r.Duration, r.Elapsed.Round(time.Millisecond))
	if r.Stats != nil {
		fmt.Fprintf(&b, "    Ресурсы: %s\n", r.Stats)
	}
	return b.String()
}
