// Package source provides decoded video frames addressed by playback time.
package source

import (
	"errors"
	"image"
	"math"
)

// ErrNoFrames is returned by sources that have nothing to show.
var ErrNoFrames = errors.New("source has no frames")

// Info describes the native stream of a source.
type Info struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64 // seconds
}

// FrameSource yields the frame visible at a playback time.
type FrameSource interface {
	Info() Info
	// FrameAt returns the frame shown at t seconds. t is clamped to the
	// source duration. The returned image must not be modified by the caller
	// and may be reused by the next call.
	FrameAt(t float64) (image.Image, error)
	Close() error
}

// frameIndex converts a time to a frame number within [0, count-1].
func frameIndex(t, fps float64, count int) int {
	if count <= 0 {
		return 0
	}
	idx := int(math.Floor(t*fps + 1e-9))
	if idx < 0 {
		idx = 0
	}
	if idx >= count {
		idx = count - 1
	}
	return idx
}
