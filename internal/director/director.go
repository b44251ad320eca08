// Package director builds crop sessions without a human at the controls by
// following the largest high-contrast region through the video.
package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/ivlev/videocrop/internal/analyzer"
	"github.com/ivlev/videocrop/internal/cropper"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/player"
	"github.com/ivlev/videocrop/internal/session"
	"github.com/ivlev/videocrop/internal/source"
)

var ErrNoLayout = errors.New("display or source size is unknown")

// Director generates a crop path from detected regions
type Director struct {
	Detector analyzer.Detector
	Ratio    cropper.AspectRatio
	Display  geometry.Size // layout size the samples are expressed in

	Interval float64 // Seconds between analysed frames
	MinDwell float64 // Minimum time the crop holds after a move (seconds)
	MinShift float64 // Moves shorter than this many layout pixels are ignored

	// Playback parameters stamped on every sample
	Volume       float64
	PlaybackRate float64

	Logger *slog.Logger
}

// NewDirector creates a new Director with default settings
func NewDirector(det analyzer.Detector, ratio cropper.AspectRatio, display geometry.Size) *Director {
	return &Director{
		Detector: det,
		Ratio:    ratio,
		Display:  display,
		Interval: 0.5,
		MinDwell: 1.0,
		MinShift: 8,

		Volume:       player.DefaultVolume,
		PlaybackRate: player.DefaultPlaybackRate,

		Logger: slog.Default(),
	}
}

// Direct walks src from start to end and returns the samples a user would
// have recorded by dragging the crop over the dominant region. The first
// sample is always at t=0 and the last one at the final analysed frame, so
// the session covers the whole source.
func (d *Director) Direct(ctx context.Context, src source.FrameSource) ([]session.Sample, error) {
	info := src.Info()
	native := geometry.Size{Width: float64(info.Width), Height: float64(info.Height)}
	sf, ok := geometry.NewScaleFactors(d.Display, native)
	if !ok {
		return nil, ErrNoLayout
	}
	base := cropper.Fit(d.Display, d.Ratio)
	if base.IsZero() {
		return nil, ErrNoLayout
	}

	step := d.Interval
	if step <= 0 {
		step = 0.5
	}
	steps := int(math.Floor(info.Duration/step + 1e-9))

	var samples []session.Sample
	lastX, lastMove := base.X, math.Inf(-1)
	var lastT float64

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := float64(i) * step
		lastT = t

		x, found, err := d.targetX(src, t, sf, base)
		if err != nil {
			return nil, fmt.Errorf("frame at %.2fs: %w", t, err)
		}
		if !found {
			x = lastX
		}

		switch {
		case i == 0:
		case math.Abs(x-lastX) < d.MinShift:
			continue
		case t-lastMove < d.MinDwell:
			continue
		}

		lastX, lastMove = x, t
		samples = append(samples, d.sample(t, base, x))
		d.Logger.Debug("crop moved", "time", t, "x", x, "region", found)
	}

	if n := len(samples); n > 0 && samples[n-1].TimeStamp < lastT {
		samples = append(samples, d.sample(lastT, base, lastX))
	}

	d.Logger.Info("session directed", "samples", len(samples), "duration", info.Duration)
	return samples, nil
}

// targetX returns the clamped layout x that centres the crop on the largest
// region of the frame at t.
func (d *Director) targetX(src source.FrameSource, t float64, sf geometry.ScaleFactors, base geometry.Rect) (float64, bool, error) {
	frame, err := src.FrameAt(t)
	if err != nil {
		return 0, false, err
	}
	blocks, err := d.Detector.Detect(frame)
	if err != nil {
		return 0, false, err
	}
	block, ok := analyzer.Largest(blocks)
	if !ok {
		return 0, false, nil
	}
	cx, cy := analyzer.Center(block.Rect.Sub(frame.Bounds().Min))
	center := sf.ToLayout(geometry.Rect{X: cx, Y: cy})
	return geometry.Clamp(center.X-base.Width/2, 0, d.Display.Width-base.Width), true, nil
}

func (d *Director) sample(t float64, base geometry.Rect, x float64) session.Sample {
	r := base
	r.X = x
	return session.Sample{
		TimeStamp:    t,
		Coordinates:  r.Coordinates(),
		Volume:       d.Volume,
		PlaybackRate: d.PlaybackRate,
	}
}
