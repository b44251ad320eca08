// Package session records crop rectangles over playback time.
package session

import (
	"sync"

	"github.com/ivlev/videocrop/internal/geometry"
)

// Sample is one crop rectangle change captured while recording.
type Sample struct {
	TimeStamp    float64    `json:"timeStamp" yaml:"timeStamp"`     // playback position, seconds
	Coordinates  [4]float64 `json:"coordinates" yaml:"coordinates"` // x, y, width, height in layout pixels
	Volume       float64    `json:"volume" yaml:"volume"`
	PlaybackRate float64    `json:"playbackRate" yaml:"playbackRate"`
}

func (s Sample) Rect() geometry.Rect {
	return geometry.RectFromCoordinates(s.Coordinates)
}

// Recorder accumulates samples while active. Samples are append-only between
// clears.
type Recorder struct {
	mu      sync.Mutex
	active  bool
	samples []Sample
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start clears previous samples and begins recording. Returns false if a
// recording was already active, in which case nothing changes.
func (r *Recorder) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return false
	}
	r.active = true
	r.samples = nil
	return true
}

// Stop ends recording. Returns false if nothing was being recorded.
func (r *Recorder) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	r.active = false
	return true
}

// Reset stops recording and drops all samples.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.samples = nil
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Record appends a sample if recording is active and reports whether it did.
func (r *Recorder) Record(rect geometry.Rect, t, volume, rate float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return false
	}
	r.samples = append(r.samples, Sample{
		TimeStamp:    t,
		Coordinates:  rect.Coordinates(),
		Volume:       volume,
		PlaybackRate: rate,
	})
	return true
}

// Samples returns a copy of the recorded samples in insertion order.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
