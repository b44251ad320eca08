package analyzer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareOnBlack(w, h int, r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if image.Pt(x, y).In(r) {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestContrastDetector(t *testing.T) {
	img := squareOnBlack(200, 200, image.Rect(50, 50, 150, 150))

	blocks, err := NewContrastDetector().Detect(img)
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	block, ok := Largest(blocks)
	require.True(t, ok)
	assert.GreaterOrEqual(t, block.Rect.Dx(), 80)
	assert.GreaterOrEqual(t, block.Rect.Dy(), 80)

	cx, cy := Center(block.Rect)
	assert.InDelta(t, 100, cx, 8)
	assert.InDelta(t, 100, cy, 8)
}

func TestContrastDetectorDownscales(t *testing.T) {
	img := squareOnBlack(1600, 400, image.Rect(1100, 100, 1400, 300))

	d := NewContrastDetector()
	d.MaxSide = 400
	blocks, err := d.Detect(img)
	require.NoError(t, err)

	block, ok := Largest(blocks)
	require.True(t, ok)
	cx, _ := Center(block.Rect)
	assert.InDelta(t, 1250, cx, 40, "rectangles are mapped back to frame coordinates")
}

func TestContrastDetectorFlatFrame(t *testing.T) {
	img := squareOnBlack(64, 64, image.Rectangle{})
	blocks, err := NewContrastDetector().Detect(img)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	_, ok := Largest(blocks)
	assert.False(t, ok)
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false}, // default
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, detector)
		})
	}
}
