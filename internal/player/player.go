// Package player models the video element: playback position, transport
// state, and the size at which the video is displayed.
package player

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/source"
)

const (
	DefaultVolume       = 0.8
	DefaultPlaybackRate = 1.0
)

// PlaybackRates are the rates offered to the user.
var PlaybackRates = []float64{0.5, 1, 1.5, 2}

// Player tracks playback over a FrameSource. Time only advances through
// Advance, which the refresh loop calls with the wall-clock delta.
type Player struct {
	src source.FrameSource

	mu       sync.RWMutex
	position float64
	playing  bool
	volume   float64
	rate     float64
	display  geometry.Size
}

func New(src source.FrameSource, display geometry.Size) *Player {
	return &Player{
		src:     src,
		volume:  DefaultVolume,
		rate:    DefaultPlaybackRate,
		display: display,
	}
}

func (p *Player) Source() source.FrameSource {
	return p.src
}

// CurrentTime is the playback position in seconds.
func (p *Player) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position
}

func (p *Player) Duration() float64 {
	return p.src.Info().Duration
}

func (p *Player) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

func (p *Player) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

func (p *Player) PlaybackRate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate
}

// NativeSize is the intrinsic resolution of the video.
func (p *Player) NativeSize() geometry.Size {
	info := p.src.Info()
	return geometry.Size{Width: float64(info.Width), Height: float64(info.Height)}
}

// DisplaySize is the rendered size of the video element in layout pixels.
func (p *Player) DisplaySize() geometry.Size {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.display
}

func (p *Player) SetDisplaySize(s geometry.Size) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.display = s
}

// Frame returns the frame at the current position.
func (p *Player) Frame() (image.Image, error) {
	return p.src.FrameAt(p.CurrentTime())
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
}

func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	return p.playing
}

// Seek moves the position, clamped to [0, duration].
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = geometry.Clamp(t, 0, p.src.Info().Duration)
}

// SetVolume clamps v to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = geometry.Clamp(v, 0, 1)
}

func (p *Player) SetPlaybackRate(r float64) error {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("invalid playback rate %v", r)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = r
	return nil
}

// Advance moves the position forward by dt seconds scaled by the playback
// rate while playing. Playback pauses at the end of the video.
func (p *Player) Advance(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || dt <= 0 {
		return
	}
	duration := p.src.Info().Duration
	p.position += dt * p.rate
	if p.position >= duration {
		p.position = duration
		p.playing = false
	}
}

// Reset restores the transport defaults and seeks to the start.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.volume = DefaultVolume
	p.rate = DefaultPlaybackRate
	p.position = 0
}

// FormatTime renders seconds as MM:SS.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
