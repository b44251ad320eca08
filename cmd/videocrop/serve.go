package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ivlev/videocrop/internal/analyzer"
	"github.com/ivlev/videocrop/internal/capture"
	"github.com/ivlev/videocrop/internal/compositor"
	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/engine"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/player"
	"github.com/ivlev/videocrop/internal/server"
	"github.com/ivlev/videocrop/internal/session"
	"github.com/ivlev/videocrop/internal/system"
	"github.com/ivlev/videocrop/internal/video"
)

func runServe(ctx context.Context, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := loadConfig("serve", args, nil)
	if err != nil {
		return err
	}

	src, input, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	aspect, err := cropper.ParseAspectRatio(cfg.Aspect)
	if err != nil {
		return err
	}
	format, err := session.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return err
	}
	scaler, err := compositor.ParseScaler(cfg.Scaler)
	if err != nil {
		return err
	}
	detector, err := analyzer.NewDetector(cfg.Detector)
	if err != nil {
		return err
	}

	encoderName := cfg.Encoder
	if encoderName == "" {
		encoderName = system.GetBestWebMEncoder()
	}

	logger := slog.Default()
	p := player.New(src, geometry.Size{Width: float64(cfg.DisplayWidth), Height: float64(cfg.DisplayHeight)})
	p.SetVolume(cfg.Volume)
	if err := p.SetPlaybackRate(cfg.PlaybackRate); err != nil {
		return err
	}

	comp := compositor.New(p, scaler, logger)
	stream := capture.NewStream(&video.FFmpegEncoder{}, capture.Options{
		FPS:     cfg.FPS,
		Encoder: encoderName,
		Quality: cfg.Quality,
		Logger:  logger,
	})
	editor := engine.NewEditor(p, comp, stream, engine.Options{
		OutputDir: cfg.OutputDir,
		Format:    format,
		Aspect:    aspect,
		Detector:  detector,
		Logger:    logger,
	})
	defer editor.Close()

	info := src.Info()
	fmt.Println("--- [VIDEOCROP: EDITOR] ---")
	fmt.Printf("[*] Источник: %s | %dx%d @ %.2f FPS | %s\n", input, info.Width, info.Height, info.FPS, player.FormatTime(info.Duration))
	fmt.Printf("[*] Окно: %dx%d | Обновление: %.0f Гц | Запись: %s @ %d FPS\n", cfg.DisplayWidth, cfg.DisplayHeight, cfg.RefreshRate, encoderName, cfg.FPS)
	fmt.Printf("[*] HTTP: %s | Экспорт: %s\n", cfg.Listen, cfg.OutputDir)
	fmt.Println("-----------------------------")

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		editor.Run(ctx, compositor.NewTickerClock(cfg.RefreshRate))
	}()

	srv := server.New(editor, logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err = srv.Start(cfg.Listen)
	cancel()
	<-runDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	fmt.Println("[*] Сервер остановлен")
	return nil
}
