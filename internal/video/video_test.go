package video

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgsCapture(t *testing.T) {
	args := BuildArgs(Params{
		Width: 608, Height: 1080, FPS: 30,
		Encoder: "libvpx-vp9", Quality: 32, Container: "webm", Realtime: true,
	})
	line := strings.Join(args, " ")

	assert.Contains(t, line, "-f rawvideo -pixel_format rgba -video_size 608x1080 -framerate 30 -i -")
	assert.Contains(t, line, "-c:v libvpx-vp9 -pix_fmt yuv420p -crf 32 -b:v 0 -deadline realtime")
	assert.True(t, strings.HasSuffix(line, "-f webm pipe:1"))
	assert.NotContains(t, line, "-shortest")
}

func TestBuildArgsFile(t *testing.T) {
	args := BuildArgs(Params{
		Width: 720, Height: 1280, FPS: 30,
		Encoder: "libx264", Quality: 23, Container: "mp4",
		Output: "out.mp4", AudioPath: "in.mp4",
	})
	line := strings.Join(args, " ")

	assert.Contains(t, line, "-i in.mp4 -map 0:v -map 1:a -shortest")
	assert.Contains(t, line, "-crf 23 -preset medium")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestQualityArgsPerEncoder(t *testing.T) {
	assert.Equal(t, []string{"-b:v", "7500k"}, qualityArgs(Params{Encoder: "h264_videotoolbox", Quality: 75}))
	assert.Equal(t, []string{"-cq", "28"}, qualityArgs(Params{Encoder: "h264_nvenc", Quality: 28}))
	assert.Equal(t, "webm", ContainerFor("libvpx"))
	assert.Equal(t, "mp4", ContainerFor("libx264"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestEvenSize(t *testing.T) {
	w, h := EvenSize(607, 1081)
	assert.Equal(t, 606, w)
	assert.Equal(t, 1080, h)

	w, h = EvenSize(1, 0)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
}

func TestWriteRawRGBA(t *testing.T) {
	var scratch *image.RGBA

	tight := image.NewRGBA(image.Rect(0, 0, 2, 1))
	tight.Set(1, 0, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	var buf bytes.Buffer
	require.NoError(t, writeRawRGBA(&buf, tight, &scratch))
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, buf.Bytes())
	assert.Nil(t, scratch, "tight images are written directly")

	// A sub-image has a wider stride and must be repacked.
	big := image.NewRGBA(image.Rect(0, 0, 4, 4))
	big.Set(2, 2, color.RGBA{R: 9, A: 255})
	sub := big.SubImage(image.Rect(2, 2, 3, 3))
	buf.Reset()
	require.NoError(t, writeRawRGBA(&buf, sub, &scratch))
	assert.Equal(t, []byte{9, 0, 0, 255}, buf.Bytes())
	require.NotNil(t, scratch)
}
