package session

import (
	"sort"

	"github.com/ivlev/videocrop/internal/geometry"
)

// Timeline answers "which rectangle was active at time t" for a recorded
// session. Samples are ordered by timestamp; equal timestamps keep recording
// order so the last change at a given instant wins.
type Timeline struct {
	samples []Sample
	smooth  bool
}

// NewTimeline builds a timeline. With smooth set, rectangles are eased between
// consecutive samples instead of held until the next change.
func NewTimeline(samples []Sample, smooth bool) *Timeline {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeStamp < sorted[j].TimeStamp
	})
	return &Timeline{samples: sorted, smooth: smooth}
}

func (tl *Timeline) Len() int {
	return len(tl.samples)
}

// Start and End bound the recorded range.
func (tl *Timeline) Start() float64 {
	if len(tl.samples) == 0 {
		return 0
	}
	return tl.samples[0].TimeStamp
}

func (tl *Timeline) End() float64 {
	if len(tl.samples) == 0 {
		return 0
	}
	return tl.samples[len(tl.samples)-1].TimeStamp
}

// RectAt returns the rectangle at t. Before the first sample the first
// rectangle is used. ok is false for an empty timeline.
func (tl *Timeline) RectAt(t float64) (geometry.Rect, bool) {
	n := len(tl.samples)
	if n == 0 {
		return geometry.Rect{}, false
	}

	// Index of the first sample strictly after t.
	next := sort.Search(n, func(i int) bool { return tl.samples[i].TimeStamp > t })
	if next == 0 {
		return tl.samples[0].Rect(), true
	}
	prev := tl.samples[next-1]
	if !tl.smooth || next == n {
		return prev.Rect(), true
	}

	following := tl.samples[next]
	span := following.TimeStamp - prev.TimeStamp
	if span <= 0 {
		return following.Rect(), true
	}
	k := easeInOutCubic((t - prev.TimeStamp) / span)
	a, b := prev.Rect(), following.Rect()
	return geometry.Rect{
		X:      lerp(a.X, b.X, k),
		Y:      lerp(a.Y, b.Y, k),
		Width:  lerp(a.Width, b.Width, k),
		Height: lerp(a.Height, b.Height, k),
	}, true
}

// SampleAt returns the last sample at or before t (the first one if t precedes
// the recording).
func (tl *Timeline) SampleAt(t float64) (Sample, bool) {
	n := len(tl.samples)
	if n == 0 {
		return Sample{}, false
	}
	next := sort.Search(n, func(i int) bool { return tl.samples[i].TimeStamp > t })
	if next == 0 {
		return tl.samples[0], true
	}
	return tl.samples[next-1], true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
