// Package config loads runtime settings from flags, VIDEOCROP_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VIDEOCROP"

type Config struct {
	// Input
	Input        string  `mapstructure:"input"`
	InputDir     string  `mapstructure:"input-dir"`
	DPI          int     `mapstructure:"dpi" validate:"gte=36,lte=1200"`
	PageDuration float64 `mapstructure:"page-duration" validate:"gt=0"`

	// Display and playback
	DisplayWidth  int     `mapstructure:"display-width" validate:"gte=1"`
	DisplayHeight int     `mapstructure:"display-height" validate:"gte=1"`
	RefreshRate   float64 `mapstructure:"refresh-rate" validate:"gt=0,lte=240"`
	Aspect        string  `mapstructure:"aspect" validate:"oneof=9:18 9:16 4:3 3:4 1:1 4:5"`
	Volume        float64 `mapstructure:"volume" validate:"gte=0,lte=1"`
	PlaybackRate  float64 `mapstructure:"rate" validate:"gt=0,lte=4"`
	Scaler        string  `mapstructure:"scaler" validate:"oneof=nearest approx-bilinear bilinear catmull-rom"`
	Detector      string  `mapstructure:"detector" validate:"oneof=contrast"`

	// Capture and export
	FPS          int    `mapstructure:"fps" validate:"gte=1,lte=120"`
	Encoder      string `mapstructure:"encoder"`
	Quality      int    `mapstructure:"quality" validate:"gte=0"`
	OutputDir    string `mapstructure:"output-dir" validate:"required"`
	ExportFormat string `mapstructure:"export-format" validate:"oneof=json yaml"`

	// Offline rendering
	Smooth    bool `mapstructure:"smooth"`
	ShowStats bool `mapstructure:"stats"`

	// Server
	Listen   string `mapstructure:"listen" validate:"required"`
	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
}

var defaults = map[string]any{
	"input":          "",
	"input-dir":      "input",
	"dpi":            150,
	"page-duration":  3.0,
	"display-width":  1280,
	"display-height": 720,
	"refresh-rate":   60.0,
	"aspect":         "9:16",
	"volume":         0.8,
	"rate":           1.0,
	"scaler":         "approx-bilinear",
	"detector":       "contrast",
	"fps":            30,
	"encoder":        "",
	"quality":        0,
	"output-dir":     "output",
	"export-format":  "json",
	"smooth":         false,
	"stats":          false,
	"listen":         ":8080",
	"log-level":      "info",
}

// RegisterFlags adds the shared flags to fs. Flag names match config keys.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Путь к файлу конфигурации (yaml, json, toml)")
	fs.StringP("input", "i", "", "Видео, PDF или папка с изображениями (по умолчанию: самый свежий файл в --input-dir)")
	fs.String("input-dir", "input", "Папка для поиска последнего видео")
	fs.Int("dpi", 150, "DPI для PDF")
	fs.Float64("page-duration", 3, "Длительность показа одной страницы PDF/изображения в секундах")
	fs.Int("display-width", 1280, "Ширина области показа видео")
	fs.Int("display-height", 720, "Высота области показа видео")
	fs.Float64("refresh-rate", 60, "Частота обновления превью (Гц)")
	fs.String("aspect", "9:16", "Соотношение сторон обрезки: 9:18, 9:16, 4:3, 3:4, 1:1, 4:5")
	fs.Float64("volume", 0.8, "Громкость (0..1)")
	fs.Float64("rate", 1, "Скорость воспроизведения")
	fs.String("scaler", "approx-bilinear", "Масштабирование: nearest, approx-bilinear, bilinear, catmull-rom")
	fs.String("detector", "contrast", "Детектор для автопозиционирования")
	fs.Int("fps", 30, "FPS записи")
	fs.String("encoder", "", "Видеокодек ffmpeg (по умолчанию: автоопределение)")
	fs.Int("quality", 0, "Качество видео (0 - авто)")
	fs.StringP("output-dir", "o", "output", "Папка для экспорта")
	fs.String("export-format", "json", "Формат сессии: json, yaml")
	fs.Bool("smooth", false, "Плавная интерполяция между кадрами сессии при рендере")
	fs.Bool("stats", false, "Показать статистику CPU/памяти после рендера")
	fs.String("listen", ":8080", "Адрес HTTP сервера")
	fs.String("log-level", "info", "Уровень логов: debug, info, warn, error")
}

// Load merges defaults, config file, environment and flags (in increasing
// priority) and validates the result. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if fs != nil {
		if err := viper.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	slog.Debug("Loaded configuration", "config", cfg)
	return &cfg, nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// FieldErrors lists the keys that failed validation, for user-facing output.
func FieldErrors(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
	}
	return out
}
