package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/videocrop/internal/geometry"
)

type fakeVideo struct {
	mu      sync.Mutex
	frame   image.Image
	err     error
	native  geometry.Size
	display geometry.Size
}

func (v *fakeVideo) Frame() (image.Image, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame, v.err
}
func (v *fakeVideo) NativeSize() geometry.Size  { return v.native }
func (v *fakeVideo) DisplaySize() geometry.Size { return v.display }

// striped returns a frame whose left half is red and right half is blue.
func striped(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func newVideo() *fakeVideo {
	return &fakeVideo{
		frame:   striped(800, 600),
		native:  geometry.Size{Width: 800, Height: 600},
		display: geometry.Size{Width: 400, Height: 300},
	}
}

func TestTickSkipsUntilReady(t *testing.T) {
	v := newVideo()
	c := New(v, nil, nil)

	assert.False(t, c.Tick(), "zero rect")

	c.SetRect(geometry.Rect{X: 50, Y: 0, Width: 300, Height: 300})
	v.display = geometry.Size{}
	assert.False(t, c.Tick(), "video not laid out")

	v.display = geometry.Size{Width: 400, Height: 300}
	v.err = errors.New("not decoded")
	assert.False(t, c.Tick(), "frame unavailable")
	assert.Nil(t, c.Snapshot())

	v.err = nil
	assert.True(t, c.Tick(), "self-heals once ready")

	drawn, skipped := c.Stats()
	assert.Equal(t, uint64(1), drawn)
	assert.Equal(t, uint64(3), skipped)
}

func TestSurfaceUsesNativeCropSize(t *testing.T) {
	v := newVideo()
	c := New(v, Scalers["nearest"], nil)

	c.SetRect(geometry.Rect{X: 0, Y: 0, Width: 100, Height: 300})
	require.True(t, c.Tick())

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, image.Rect(0, 0, 200, 600), snap.Rect)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, snap.RGBAAt(100, 300))

	c.SetRect(geometry.Rect{X: 300, Y: 0, Width: 100, Height: 300})
	require.True(t, c.Tick())
	snap = c.Snapshot()
	assert.Equal(t, color.RGBA{B: 255, A: 255}, snap.RGBAAt(100, 300))
}

func TestSinksReceiveSurface(t *testing.T) {
	v := newVideo()
	c := New(v, nil, nil)
	c.SetRect(geometry.Rect{X: 50, Y: 0, Width: 300, Height: 300})

	var sizes []image.Rectangle
	detach := c.AddSink(SinkFunc(func(s *image.RGBA) {
		sizes = append(sizes, s.Rect)
	}))

	c.Tick()
	c.Tick()
	detach()
	c.Tick()

	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 600, 600), image.Rect(0, 0, 600, 600)}, sizes)
}

func TestRunStopsOnCancel(t *testing.T) {
	v := newVideo()
	c := New(v, nil, nil)
	c.SetRect(geometry.Rect{X: 50, Y: 0, Width: 300, Height: 300})

	clock := NewManualClock()
	ctx, cancel := context.WithCancel(context.Background())

	var dts []time.Duration
	ticked := make(chan struct{}, 2)
	done := make(chan struct{})
	go func() {
		c.Run(ctx, clock, func(dt time.Duration) {
			dts = append(dts, dt)
			ticked <- struct{}{}
		})
		close(done)
	}()

	start := time.Unix(0, 0)
	require.True(t, clock.Tick(start))
	<-ticked
	require.True(t, clock.Tick(start.Add(16*time.Millisecond)))
	<-ticked

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("compositor did not stop")
	}

	assert.False(t, clock.Tick(start), "clock is stopped with the loop")
	assert.Nil(t, c.Snapshot(), "surface released on teardown")
	assert.Equal(t, []time.Duration{0, 16 * time.Millisecond}, dts)
}

func TestLoopStartIsIdempotent(t *testing.T) {
	clock := NewManualClock()
	calls := make(chan struct{}, 4)
	l := NewLoop(clock, func(time.Time) { calls <- struct{}{} })

	l.Start(context.Background())
	l.Start(context.Background())
	require.True(t, clock.Tick(time.Now()))
	<-calls
	l.Cancel()
	l.Cancel()

	<-l.Done()
	assert.Len(t, calls, 0, "a second Start must not spawn another loop")
}

func TestParseScaler(t *testing.T) {
	s, err := ParseScaler("")
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = ParseScaler("lanczos")
	assert.Error(t, err)
}

func TestFitIntoLetterboxes(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{G: 255, A: 255}), image.Point{}, draw.Src)
	src := image.NewRGBA(image.Rect(0, 0, 10, 5))
	draw.Draw(src, src.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)

	FitInto(dst, src)

	assert.Equal(t, color.RGBA{A: 255}, dst.RGBAAt(5, 0), "bar above")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{A: 255}, dst.RGBAAt(5, 9), "bar below")
}

func TestFitIntoSameSizeCopies(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(1, 2, color.RGBA{B: 200, A: 255})

	FitInto(dst, src)
	assert.Equal(t, src.Pix, dst.Pix)
}
