package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ivlev/videocrop/internal/analyzer"
	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/director"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/session"
)

func runAuto(ctx context.Context, args []string) error {
	var interval, dwell *float64
	cfg, err := loadConfig("auto", args, func(fs *pflag.FlagSet) {
		interval = fs.Float64("interval", 0.5, "Шаг анализа кадров (сек)")
		dwell = fs.Float64("dwell", 1.0, "Минимальное время удержания рамки после сдвига (сек)")
	})
	if err != nil {
		return err
	}

	src, input, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	det, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return err
	}
	ratio, err := cropper.ParseAspectRatio(cfg.Aspect)
	if err != nil {
		return err
	}
	format, err := session.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}

	d := director.NewDirector(det, ratio, geometry.Size{Width: float64(cfg.DisplayWidth), Height: float64(cfg.DisplayHeight)})
	d.Interval = *interval
	d.MinDwell = *dwell
	d.Volume = cfg.Volume
	d.PlaybackRate = cfg.PlaybackRate

	fmt.Printf("[*] Анализ %s (рамка %s)...\n", input, ratio)
	samples, err := d.Direct(ctx, src)
	if err != nil {
		return fmt.Errorf("ошибка анализа: %w", err)
	}

	path, err := session.WriteFile(cfg.OutputDir, samples, format)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сессии: %w", err)
	}
	fmt.Printf("[+++] Сессия сохранена: %s (%d записей)\n", path, len(samples))
	return nil
}
