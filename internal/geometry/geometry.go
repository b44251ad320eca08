package geometry

import (
	"image"
	"math"
)

// Size is a width/height pair in either layout or native pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is unusable.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect is a crop rectangle. X/Y are the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the rectangle has not been initialized yet.
func (r Rect) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Coordinates returns the rectangle as [x, y, width, height].
func (r Rect) Coordinates() [4]float64 {
	return [4]float64{r.X, r.Y, r.Width, r.Height}
}

// RectFromCoordinates is the inverse of Rect.Coordinates.
func RectFromCoordinates(c [4]float64) Rect {
	return Rect{X: c[0], Y: c[1], Width: c[2], Height: c[3]}
}

// ScaleFactors converts layout pixels into native pixels.
type ScaleFactors struct {
	X float64
	Y float64
}

// NewScaleFactors computes native/displayed ratios for both axes.
// ok is false while the video is not laid out or its resolution is unknown;
// the mapping is undefined in that case.
func NewScaleFactors(displayed, native Size) (ScaleFactors, bool) {
	if displayed.IsZero() || native.IsZero() {
		return ScaleFactors{}, false
	}
	return ScaleFactors{
		X: native.Width / displayed.Width,
		Y: native.Height / displayed.Height,
	}, true
}

// ToNative maps a layout rectangle into native pixels.
func (s ScaleFactors) ToNative(r Rect) Rect {
	return Rect{
		X:      r.X * s.X,
		Y:      r.Y * s.Y,
		Width:  r.Width * s.X,
		Height: r.Height * s.Y,
	}
}

// ToLayout maps a native rectangle back into layout pixels.
func (s ScaleFactors) ToLayout(r Rect) Rect {
	if s.X == 0 || s.Y == 0 {
		return Rect{}
	}
	return Rect{
		X:      r.X / s.X,
		Y:      r.Y / s.Y,
		Width:  r.Width / s.X,
		Height: r.Height / s.Y,
	}
}

// MapToNative is a convenience wrapper around NewScaleFactors + ToNative.
func MapToNative(displayed, native Size, r Rect) (Rect, bool) {
	sf, ok := NewScaleFactors(displayed, native)
	if !ok {
		return Rect{}, false
	}
	return sf.ToNative(r), true
}

// NativeBounds rounds a native rectangle to whole pixels and clips it to the
// frame bounds. The result is empty when nothing of r lies inside bounds.
func NativeBounds(r Rect, bounds image.Rectangle) image.Rectangle {
	minX := int(math.Round(r.X))
	minY := int(math.Round(r.Y))
	maxX := int(math.Round(r.X + r.Width))
	maxY := int(math.Round(r.Y + r.Height))
	return image.Rect(minX, minY, maxX, maxY).Add(bounds.Min).Intersect(bounds)
}

// SurfaceSize returns the integer surface dimensions for a native rectangle,
// never smaller than 1x1.
func SurfaceSize(r Rect) (int, int) {
	w := int(math.Round(r.Width))
	h := int(math.Round(r.Height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Clamp limits v to [lo, hi]. When hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
