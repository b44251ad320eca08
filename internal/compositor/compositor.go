// Package compositor draws the cropped region of the current video frame onto
// a surface sized to the crop's native resolution.
package compositor

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/system"
)

// Video is what the compositor reads from the video element.
type Video interface {
	Frame() (image.Image, error)
	NativeSize() geometry.Size
	DisplaySize() geometry.Size
}

// Sink receives the composited surface after every successful draw. The
// surface is only valid for the duration of the call.
type Sink interface {
	Offer(surface *image.RGBA)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(*image.RGBA)

func (f SinkFunc) Offer(s *image.RGBA) { f(s) }

// Scalers maps config names to x/image interpolators.
var Scalers = map[string]xdraw.Interpolator{
	"nearest":         xdraw.NearestNeighbor,
	"approx-bilinear": xdraw.ApproxBiLinear,
	"bilinear":        xdraw.BiLinear,
	"catmull-rom":     xdraw.CatmullRom,
}

func ParseScaler(name string) (xdraw.Interpolator, error) {
	if name == "" {
		return xdraw.ApproxBiLinear, nil
	}
	s, ok := Scalers[name]
	if !ok {
		return nil, fmt.Errorf("unknown scaler %q", name)
	}
	return s, nil
}

type Compositor struct {
	video  Video
	scaler xdraw.Interpolator
	pool   *system.ImagePool
	logger *slog.Logger

	mu      sync.Mutex
	rect    geometry.Rect
	surface *image.RGBA
	drawn   uint64
	skipped uint64
	sinks   map[int]Sink
	nextID  int
}

func New(video Video, scaler xdraw.Interpolator, logger *slog.Logger) *Compositor {
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{
		video:  video,
		scaler: scaler,
		pool:   system.NewImagePool(),
		logger: logger,
		sinks:  make(map[int]Sink),
	}
}

// SetRect replaces the crop rectangle used by the next tick. It is meant to be
// subscribed to the crop controller.
func (c *Compositor) SetRect(r geometry.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rect = r
}

func (c *Compositor) Rect() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rect
}

// AddSink attaches s and returns a function detaching it.
func (c *Compositor) AddSink(s Sink) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.sinks[id] = s
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.sinks, id)
	}
}

// Tick composites one frame. It returns false when the tick was skipped
// because the rectangle, the layout or the frame is not ready yet.
func (c *Compositor) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.drawLocked() {
		c.skipped++
		return false
	}
	c.drawn++

	for id := 0; id < c.nextID; id++ {
		if s, ok := c.sinks[id]; ok {
			s.Offer(c.surface)
		}
	}
	return true
}

func (c *Compositor) drawLocked() bool {
	if c.rect.IsZero() {
		return false
	}
	sf, ok := geometry.NewScaleFactors(c.video.DisplaySize(), c.video.NativeSize())
	if !ok {
		return false
	}
	frame, err := c.video.Frame()
	if err != nil || frame == nil {
		if err != nil {
			c.logger.Debug("frame not ready", "error", err)
		}
		return false
	}

	native := sf.ToNative(c.rect)
	src := geometry.NativeBounds(native, frame.Bounds())
	if src.Empty() {
		return false
	}

	w, h := geometry.SurfaceSize(native)
	c.resizeLocked(w, h)
	c.scaler.Scale(c.surface, c.surface.Bounds(), frame, src, xdraw.Src, nil)
	return true
}

func (c *Compositor) resizeLocked(w, h int) {
	bounds := image.Rect(0, 0, w, h)
	if c.surface != nil && c.surface.Rect == bounds {
		return
	}
	if c.surface != nil {
		c.pool.Put(c.surface)
	}
	c.surface = c.pool.Get(bounds)
}

// Snapshot returns a copy of the last composited surface, or nil.
func (c *Compositor) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil || c.drawn == 0 {
		return nil
	}
	cp := image.NewRGBA(c.surface.Rect)
	copy(cp.Pix, c.surface.Pix)
	return cp
}

// Stats returns how many ticks drew and how many were skipped.
func (c *Compositor) Stats() (drawn, skipped uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawn, c.skipped
}

// Release drops the surface. Called when the owning view is torn down.
func (c *Compositor) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		c.pool.Put(c.surface)
		c.surface = nil
	}
	c.drawn = 0
}

// Run composites on every clock tick until ctx is done, then releases the
// surface. before, when non-nil, runs ahead of each tick with the time since
// the previous one.
func (c *Compositor) Run(ctx context.Context, clock Clock, before func(dt time.Duration)) {
	var last time.Time
	loop := NewLoop(clock, func(now time.Time) {
		if before != nil {
			var dt time.Duration
			if !last.IsZero() {
				dt = now.Sub(last)
			}
			before(dt)
		}
		last = now
		c.Tick()
	})
	loop.Start(ctx)
	<-loop.Done()
	c.Release()
}

// FitInto scales src into dst preserving aspect ratio, centred on black.
func FitInto(dst *image.RGBA, src *image.RGBA) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		draw.Draw(dst, db, src, sb.Min, draw.Src)
		return
	}

	scale := float64(db.Dx()) / float64(sb.Dx())
	if s := float64(db.Dy()) / float64(sb.Dy()); s < scale {
		scale = s
	}
	w := int(float64(sb.Dx())*scale + 0.5)
	h := int(float64(sb.Dy())*scale + 0.5)
	x := db.Min.X + (db.Dx()-w)/2
	y := db.Min.Y + (db.Dy()-h)/2
	target := image.Rect(x, y, x+w, y+h)

	if target != db {
		draw.Draw(dst, db, image.Black, image.Point{}, draw.Src)
	}
	xdraw.ApproxBiLinear.Scale(dst, target, src, sb, xdraw.Src, nil)
}
