package engine

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/ivlev/videocrop/internal/source"
	"github.com/ivlev/videocrop/internal/video"
)

// frameSource serves one still frame: black with an optional white block.
type frameSource struct {
	info  source.Info
	frame *image.RGBA
}

func newFrameSource(w, h int, block image.Rectangle) *frameSource {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{A: 255}), image.Point{}, draw.Src)
	draw.Draw(img, block, image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)
	return &frameSource{
		info:  source.Info{Width: w, Height: h, FPS: 30, Duration: 10},
		frame: img,
	}
}

func (s *frameSource) Info() source.Info                    { return s.info }
func (s *frameSource) FrameAt(float64) (image.Image, error) { return s.frame, nil }
func (s *frameSource) Close() error                         { return nil }

type fakeEncoder struct {
	mu     sync.Mutex
	params []video.Params
	frames []*image.RGBA
}

type fakeWriter struct {
	enc *fakeEncoder
	out io.Writer
}

func (e *fakeEncoder) Open(_ context.Context, p video.Params, out io.Writer) (video.FrameWriter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = append(e.params, p)
	return &fakeWriter{enc: e, out: out}, nil
}

func (e *fakeEncoder) opened() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.params)
}

func (w *fakeWriter) WriteFrame(img image.Image) error {
	cp := image.NewRGBA(img.Bounds())
	draw.Draw(cp, cp.Bounds(), img, img.Bounds().Min, draw.Src)
	w.enc.mu.Lock()
	w.enc.frames = append(w.enc.frames, cp)
	w.enc.mu.Unlock()
	if w.out != nil {
		_, err := w.out.Write([]byte{0x1a, 0x45, 0xdf, 0xa3})
		return err
	}
	return nil
}

func (w *fakeWriter) Close() error {
	if w.out != nil {
		_, err := w.out.Write([]byte("end"))
		return err
	}
	return nil
}
