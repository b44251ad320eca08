package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ivlev/videocrop/internal/config"
	"github.com/ivlev/videocrop/internal/source"
	"github.com/ivlev/videocrop/internal/system"
)

const usage = `videocrop - обрезка видео под вертикальный формат

Команды:
  serve   HTTP сервер редактора (превью, запись сессии, экспорт)
  render  рендер клипа по сохранённой сессии
  auto    автоматическая сессия по самой контрастной области кадра
  probe   информация о видео и рамке обрезки

Запустите "videocrop <команда> --help" для списка флагов.
`

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(ctx, args)
	case "render":
		err = runRender(ctx, args)
	case "probe":
		err = runProbe(ctx, args)
	case "auto":
		err = runAuto(ctx, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Print(usage)
		log.Fatalf("[-] Неизвестная команда: %s", cmd)
	}

	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		log.Fatalf("[-] Ошибка: %v", err)
	}
}

// loadConfig parses args for a command. extra registers command-specific
// flags on the same set.
func loadConfig(name string, args []string, extra func(fs *pflag.FlagSet)) (*config.Config, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		for _, f := range config.FieldErrors(err) {
			fmt.Printf("[!] Неверный параметр: %s\n", f)
		}
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveInput falls back to the newest video in the input directory.
func resolveInput(cfg *config.Config) (string, error) {
	if cfg.Input != "" {
		return cfg.Input, nil
	}
	latest, err := system.FindLatestVideo(cfg.InputDir)
	if err != nil {
		fmt.Printf("[!] Положите видео в %s/ или укажите --input\n", cfg.InputDir)
		return "", err
	}
	fmt.Printf("[*] Выбран файл: %s\n", latest)
	return latest, nil
}

func openSource(ctx context.Context, cfg *config.Config) (source.FrameSource, string, error) {
	input, err := resolveInput(cfg)
	if err != nil {
		return nil, "", err
	}
	src, err := source.Open(ctx, input, source.Options{
		FPS:          float64(cfg.FPS),
		DPI:          cfg.DPI,
		PageDuration: cfg.PageDuration,
		Logger:       slog.Default(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("ошибка инициализации источника: %w", err)
	}
	return src, input, nil
}

// defaultOutput builds output/<name>_cropped_<timestamp><ext>.
func defaultOutput(dir, input, ext string) string {
	base := filepath.Base(input)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_cropped_%s%s", name, timestamp, ext))
}
