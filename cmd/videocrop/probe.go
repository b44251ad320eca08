package main

import (
	"context"
	"fmt"

	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/player"
	"github.com/ivlev/videocrop/internal/source"
)

// runProbe prints stream details and where the initial crop would land.
func runProbe(ctx context.Context, args []string) error {
	cfg, err := loadConfig("probe", args, nil)
	if err != nil {
		return err
	}
	input, err := resolveInput(cfg)
	if err != nil {
		return err
	}

	res, err := source.Probe(ctx, input)
	if err != nil {
		return err
	}

	audio := "нет"
	if res.HasAudio {
		audio = "есть"
	}
	fmt.Printf("[*] %s\n", input)
	fmt.Printf("    Формат: %s | Кодек: %s | Аудио: %s\n", res.FormatName, res.VideoCodec, audio)
	fmt.Printf("    Разрешение: %dx%d @ %.3f FPS | Длительность: %s\n", res.Width, res.Height, res.FPS, player.FormatTime(res.Duration))

	display := geometry.Size{Width: float64(cfg.DisplayWidth), Height: float64(cfg.DisplayHeight)}
	native := geometry.Size{Width: float64(res.Width), Height: float64(res.Height)}
	for _, ratio := range cropper.Ratios {
		rect := cropper.Fit(display, ratio)
		nr, ok := geometry.MapToNative(display, native, rect)
		if !ok {
			continue
		}
		w, h := geometry.SurfaceSize(nr)
		marker := " "
		if string(ratio) == cfg.Aspect {
			marker = "*"
		}
		fmt.Printf("  %s %-5s рамка x=%.1f w=%.1f -> %dx%d\n", marker, ratio, rect.X, rect.Width, w, h)
	}
	return nil
}
