package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/videocrop/internal/compositor"
	"github.com/ivlev/videocrop/internal/geometry"
	"github.com/ivlev/videocrop/internal/player"
	"github.com/ivlev/videocrop/internal/session"
	"github.com/ivlev/videocrop/internal/source"
	"github.com/ivlev/videocrop/internal/system"
	"github.com/ivlev/videocrop/internal/video"
)

var ErrEmptySession = errors.New("session has no samples")

// RenderOptions describes an offline replay of a recorded session.
type RenderOptions struct {
	Output    string
	Display   geometry.Size // layout size the session was recorded at
	FPS       int
	Encoder   string
	Quality   int
	AudioPath string
	Smooth    bool // interpolate between samples instead of holding each one
	Scaler    xdraw.Interpolator
	ShowStats bool
	Logger    *slog.Logger
}

// RenderReport summarises a finished render.
type RenderReport struct {
	Output   string
	Frames   int
	Width    int
	Height   int
	Bytes    int64
	Elapsed  time.Duration
	Skipped  uint64
	Stats    *system.Stats
	Duration float64 // seconds of source covered
}

func (r RenderReport) String() string {
	s := fmt.Sprintf("%s: %d frames %dx%d, %s, %.2fs in %v",
		r.Output, r.Frames, r.Width, r.Height, humanize.Bytes(uint64(r.Bytes)), r.Duration, r.Elapsed.Round(time.Millisecond))
	if r.Stats != nil {
		s += " | " + r.Stats.String()
	}
	return s
}

type renderedFrame struct {
	index int
	img   *image.RGBA
}

// RenderSession replays samples over src and encodes the cropped frames to
// opts.Output. Frames span the first to the last sample timestamp. Frames are
// composited on one goroutine and encoded on another.
func RenderSession(ctx context.Context, src source.FrameSource, samples []session.Sample, enc video.Encoder, opts RenderOptions) (*RenderReport, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySession
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.Encoder == "" {
		opts.Encoder = system.GetBestH264Encoder()
	}

	tl := session.NewTimeline(samples, opts.Smooth)
	p := player.New(src, opts.Display)
	native := p.NativeSize()

	first, _ := tl.RectAt(tl.Start())
	nr, ok := geometry.MapToNative(opts.Display, native, first)
	if !ok || first.IsZero() {
		return nil, ErrNotReady
	}
	w, h := video.EvenSize(geometry.SurfaceSize(nr))

	frameDur := 1 / float64(opts.FPS)
	count := int(math.Floor((tl.End()-tl.Start())/frameDur)) + 1

	writer, err := enc.Open(ctx, video.Params{
		Width:     w,
		Height:    h,
		FPS:       opts.FPS,
		Encoder:   opts.Encoder,
		Quality:   opts.Quality,
		Container: video.ContainerFor(opts.Encoder),
		Output:    opts.Output,
		AudioPath: opts.AudioPath,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("open encoder: %w", err)
	}

	opts.Logger.Info("render started",
		"output", opts.Output,
		"size", fmt.Sprintf("%dx%d", w, h),
		"frames", count,
		"encoder", opts.Encoder,
	)
	start := time.Now()

	comp := compositor.New(p, opts.Scaler, opts.Logger)
	defer comp.Release()

	bounds := image.Rect(0, 0, w, h)
	var out *image.RGBA
	comp.AddSink(compositor.SinkFunc(func(surface *image.RGBA) {
		out = system.GetImage(bounds)
		compositor.FitInto(out, surface)
	}))

	frames := make(chan renderedFrame, 4)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frames)
		var last *image.RGBA
		for i := 0; i < count; i++ {
			t := tl.Start() + float64(i)*frameDur
			rect, _ := tl.RectAt(t)
			p.Seek(t)
			comp.SetRect(rect)

			out = nil
			if comp.Tick() {
				if last != nil {
					system.PutImage(last)
				}
				last = out
			}
			if last == nil {
				continue
			}

			// The encoder owns what it receives; last stays with us.
			img := system.GetImage(bounds)
			copy(img.Pix, last.Pix)
			select {
			case frames <- renderedFrame{index: i, img: img}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if last != nil {
			system.PutImage(last)
		}
		return nil
	})

	written := 0
	g.Go(func() error {
		for f := range frames {
			if err := writer.WriteFrame(f.img); err != nil {
				return fmt.Errorf("frame %d: %w", f.index, err)
			}
			system.PutImage(f.img)
			written++
		}
		return nil
	})

	err = g.Wait()
	if cerr := writer.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close encoder: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	_, skipped := comp.Stats()
	report := &RenderReport{
		Output:   opts.Output,
		Frames:   written,
		Width:    w,
		Height:   h,
		Elapsed:  time.Since(start),
		Skipped:  skipped,
		Duration: tl.End() - tl.Start(),
	}
	if fi, err := os.Stat(opts.Output); err == nil {
		report.Bytes = fi.Size()
	}
	if opts.ShowStats {
		stats := system.CollectStats(200 * time.Millisecond)
		report.Stats = &stats
	}

	opts.Logger.Info("render finished", "frames", written, "elapsed", report.Elapsed)
	return report, nil
}
