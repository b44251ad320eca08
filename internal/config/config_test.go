package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	reset(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.FPS)
	require.Equal(t, 60.0, cfg.RefreshRate)
	require.Equal(t, 1280, cfg.DisplayWidth)
	require.Equal(t, 720, cfg.DisplayHeight)
	require.Equal(t, "9:16", cfg.Aspect)
	require.Equal(t, 0.8, cfg.Volume)
	require.Equal(t, 1.0, cfg.PlaybackRate)
	require.Equal(t, ":8080", cfg.Listen)
	require.Equal(t, "output", cfg.OutputDir)
}

func TestLoad_Env(t *testing.T) {
	reset(t)
	t.Setenv("VIDEOCROP_ASPECT", "1:1")
	t.Setenv("VIDEOCROP_OUTPUT_DIR", "/tmp/clips")
	t.Setenv("VIDEOCROP_FPS", "25")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "1:1", cfg.Aspect)
	require.Equal(t, "/tmp/clips", cfg.OutputDir)
	require.Equal(t, 25, cfg.FPS)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	reset(t)
	t.Setenv("VIDEOCROP_LISTEN", ":9000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--listen", ":7000", "--volume", "0.5"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Listen)
	require.Equal(t, 0.5, cfg.Volume)
}

func TestLoad_UnsetFlagKeepsEnv(t *testing.T) {
	reset(t)
	t.Setenv("VIDEOCROP_LISTEN", ":9000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Listen)
}

func TestLoad_ConfigFile(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "videocrop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aspect: \"4:5\"\nrefresh-rate: 30\n"), 0644))
	t.Setenv("VIDEOCROP_CONFIG", path)

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "4:5", cfg.Aspect)
	require.Equal(t, 30.0, cfg.RefreshRate)
}

func TestLoad_ValidationError(t *testing.T) {
	reset(t)
	t.Setenv("VIDEOCROP_ASPECT", "16:9")

	cfg, err := Load(nil)
	require.Error(t, err)
	require.Nil(t, cfg)
	require.Len(t, FieldErrors(err), 1)
}

func TestLevel(t *testing.T) {
	require.Equal(t, "DEBUG", (&Config{LogLevel: "debug"}).Level().String())
	require.Equal(t, "INFO", (&Config{LogLevel: "bogus"}).Level().String())
}
