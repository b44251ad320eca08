package geometry

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScaleFactors(t *testing.T) {
	sf, ok := NewScaleFactors(Size{Width: 640, Height: 360}, Size{Width: 1920, Height: 1080})
	require.True(t, ok)
	assert.InDelta(t, 3.0, sf.X, 1e-12)
	assert.InDelta(t, 3.0, sf.Y, 1e-12)

	_, ok = NewScaleFactors(Size{Width: 0, Height: 360}, Size{Width: 1920, Height: 1080})
	assert.False(t, ok, "zero displayed width must not produce factors")

	_, ok = NewScaleFactors(Size{Width: 640, Height: 360}, Size{})
	assert.False(t, ok, "unknown native size must not produce factors")
}

func TestToNative(t *testing.T) {
	native, ok := MapToNative(
		Size{Width: 400, Height: 300},
		Size{Width: 1280, Height: 720},
		Rect{X: 50, Y: 0, Width: 300, Height: 300},
	)
	require.True(t, ok)
	assert.InDelta(t, 160.0, native.X, 1e-9)
	assert.InDelta(t, 0.0, native.Y, 1e-9)
	assert.InDelta(t, 960.0, native.Width, 1e-9)
	assert.InDelta(t, 720.0, native.Height, 1e-9)
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		displayed := Size{Width: 1 + r.Float64()*2000, Height: 1 + r.Float64()*2000}
		native := Size{Width: 1 + r.Float64()*4000, Height: 1 + r.Float64()*4000}
		rect := Rect{
			X:      r.Float64() * displayed.Width,
			Y:      r.Float64() * displayed.Height,
			Width:  r.Float64() * displayed.Width,
			Height: r.Float64() * displayed.Height,
		}

		sf, ok := NewScaleFactors(displayed, native)
		require.True(t, ok)
		back := sf.ToLayout(sf.ToNative(rect))

		assert.InDelta(t, rect.X, back.X, 1e-9)
		assert.InDelta(t, rect.Y, back.Y, 1e-9)
		assert.InDelta(t, rect.Width, back.Width, 1e-9)
		assert.InDelta(t, rect.Height, back.Height, 1e-9)
	}
}

func TestNativeBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 1920, 1080)

	got := NativeBounds(Rect{X: 10.4, Y: 0, Width: 100.2, Height: 50}, bounds)
	assert.Equal(t, image.Rect(10, 0, 111, 50), got)

	got = NativeBounds(Rect{X: 1900, Y: 0, Width: 100, Height: 1080}, bounds)
	assert.Equal(t, image.Rect(1900, 0, 1920, 1080), got, "rect is clipped to the frame")

	got = NativeBounds(Rect{X: 5000, Y: 0, Width: 10, Height: 10}, bounds)
	assert.True(t, got.Empty())
}

func TestSurfaceSize(t *testing.T) {
	w, h := SurfaceSize(Rect{Width: 607.5, Height: 1080})
	assert.Equal(t, 608, w)
	assert.Equal(t, 1080, h)

	w, h = SurfaceSize(Rect{Width: 0.2, Height: 0.1})
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestCoordinates(t *testing.T) {
	r := Rect{X: 1, Y: 2, Width: 3, Height: 4}
	assert.Equal(t, [4]float64{1, 2, 3, 4}, r.Coordinates())
	assert.Equal(t, r, RectFromCoordinates(r.Coordinates()))
	assert.True(t, Rect{}.IsZero())
}
