package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageSource(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%02d.png", i)), 8, 4, color.RGBA{R: uint8(i * 100), A: 255})
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))

	src, err := Open(context.Background(), dir, Options{FPS: 2})
	require.NoError(t, err)
	defer src.Close()

	info := src.Info()
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 4, info.Height)
	assert.Equal(t, 1.5, info.Duration)

	cases := []struct {
		t   float64
		red uint32
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 100},
		{1.2, 200},
		{99, 200},
		{-1, 0},
	}
	for _, tc := range cases {
		img, err := src.FrameAt(tc.t)
		require.NoError(t, err)
		r, _, _, _ := img.At(0, 0).RGBA()
		assert.Equal(t, tc.red, r>>8, "t=%v", tc.t)
	}
}

func TestImageSourceEmptyDir(t *testing.T) {
	_, err := NewImageSource(t.TempDir(), 30)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestFrameIndex(t *testing.T) {
	assert.Equal(t, 0, frameIndex(0, 30, 10))
	assert.Equal(t, 3, frameIndex(0.1, 30, 10))
	assert.Equal(t, 9, frameIndex(5, 30, 10))
	assert.Equal(t, 0, frameIndex(1, 30, 0))
}

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"}
		],
		"format": {"format_name": "mov,mp4", "duration": "12.5"}
	}`)

	res, err := parseProbe(raw)
	require.NoError(t, err)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 1080, res.Height)
	assert.InDelta(t, 29.97, res.FPS, 0.01)
	assert.Equal(t, 12.5, res.Duration)
	assert.True(t, res.HasAudio)

	_, err = parseProbe([]byte(`{"streams": [], "format": {}}`))
	assert.Error(t, err)
}

func TestDecodeArgs(t *testing.T) {
	args := decodeArgs("in.mp4", 2.5, 30)
	assert.Contains(t, args, "rawvideo")
	assert.Contains(t, args, "rgba")
	assert.Equal(t, "2.500000", args[4])
	assert.Equal(t, "-", args[len(args)-1])
}
