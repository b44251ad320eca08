// Package capture turns composited surfaces into a recorded clip: frames are
// sampled at a fixed rate, encoded, and collected as data chunks.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ivlev/videocrop/internal/compositor"
	"github.com/ivlev/videocrop/internal/video"
)

const (
	// FileName is the deterministic name of the saved clip.
	FileName = "cropped_video.webm"
	// DefaultFPS is the capture stream rate.
	DefaultFPS = 30
)

// ErrNoRecording is returned when saving without any recorded data.
var ErrNoRecording = errors.New("no recorded data")

// Options configures the encoder used for every recording.
type Options struct {
	FPS     int
	Encoder string
	Quality int
	Logger  *slog.Logger
	// NewClock builds the pacing clock; defaults to a ticker at FPS.
	NewClock func(fps int) compositor.Clock
}

// Stream is the recording sink. It implements compositor.Sink.
type Stream struct {
	enc  video.Encoder
	opts Options

	mu      sync.Mutex
	active  bool
	id      uuid.UUID
	writer  video.FrameWriter
	loop    *compositor.Loop
	frame   *image.RGBA
	fresh   bool
	written int
	failed  error

	chunkMu sync.Mutex
	chunkID uuid.UUID
	chunks  [][]byte
}

func NewStream(enc video.Encoder, opts Options) *Stream {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Encoder == "" {
		opts.Encoder = "libvpx-vp9"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewClock == nil {
		opts.NewClock = func(fps int) compositor.Clock {
			return compositor.NewTickerClock(float64(fps))
		}
	}
	return &Stream{enc: enc, opts: opts}
}

// Start opens the encoder for frames of width x height (rounded down to even
// sizes) and starts pacing. Starting an active stream is a no-op and returns
// false. Previously collected chunks are discarded.
func (s *Stream) Start(ctx context.Context, width, height int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false, nil
	}

	w, h := video.EvenSize(width, height)
	id := uuid.New()

	s.chunkMu.Lock()
	s.chunkID = id
	s.chunks = nil
	s.chunkMu.Unlock()

	writer, err := s.enc.Open(ctx, video.Params{
		Width:     w,
		Height:    h,
		FPS:       s.opts.FPS,
		Encoder:   s.opts.Encoder,
		Quality:   s.opts.Quality,
		Container: "webm",
		Realtime:  true,
	}, &chunkWriter{s: s, id: id})
	if err != nil {
		return false, fmt.Errorf("open capture encoder: %w", err)
	}

	s.active = true
	s.id = id
	s.writer = writer
	s.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	s.fresh = false
	s.written = 0
	s.failed = nil
	s.loop = compositor.NewLoop(s.opts.NewClock(s.opts.FPS), s.pace)
	s.loop.Start(ctx)

	s.opts.Logger.Info("recording started", "id", id, "size", fmt.Sprintf("%dx%d", w, h), "fps", s.opts.FPS)
	return true, nil
}

// Offer copies the composited surface into the capture frame, letterboxed if
// the crop changed shape since Start. Ignored while inactive.
func (s *Stream) Offer(surface *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || surface == nil {
		return
	}
	compositor.FitInto(s.frame, surface)
	s.fresh = true
}

// pace runs at the capture rate and forwards the latest frame. Before the
// first composited frame arrives nothing is written.
func (s *Stream) pace(time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.fresh || s.failed != nil {
		return
	}
	if err := s.writer.WriteFrame(s.frame); err != nil {
		s.failed = err
		s.opts.Logger.Error("capture write failed", "id", s.id, "error", err)
		return
	}
	s.written++
}

// Stop flushes the encoder. Stopping an inactive stream is a no-op.
func (s *Stream) Stop() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	loop, writer, id, written, failed := s.loop, s.writer, s.id, s.written, s.failed
	s.loop = nil
	s.writer = nil
	s.mu.Unlock()

	loop.Cancel()
	err := writer.Close()

	s.opts.Logger.Info("recording stopped",
		"id", id,
		"frames", written,
		"size", humanize.IBytes(uint64(s.Size())),
	)

	if failed != nil {
		return failed
	}
	return err
}

func (s *Stream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// FramesWritten is the number of frames handed to the encoder in the current
// or last recording.
func (s *Stream) FramesWritten() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// HasData reports whether there is anything to save.
func (s *Stream) HasData() bool {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	return len(s.chunks) > 0
}

// Size is the total number of recorded bytes.
func (s *Stream) Size() int {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	n := 0
	for _, c := range s.chunks {
		n += len(c)
	}
	return n
}

// Bytes concatenates the recorded chunks in arrival order.
func (s *Stream) Bytes() []byte {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	return bytes.Join(s.chunks, nil)
}

// Clear drops recorded chunks.
func (s *Stream) Clear() {
	s.chunkMu.Lock()
	defer s.chunkMu.Unlock()
	s.chunks = nil
}

// SaveClip writes the recorded chunks to dir/cropped_video.webm and clears
// them. Returns ErrNoRecording when there is nothing to save.
func (s *Stream) SaveClip(dir string) (string, error) {
	data := s.Bytes()
	if len(data) == 0 {
		return "", ErrNoRecording
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	s.Clear()
	s.opts.Logger.Info("clip saved", "path", path, "size", humanize.IBytes(uint64(len(data))))
	return path, nil
}

// chunkWriter appends encoder output to the stream it was opened for. Output
// arriving after a newer recording started is dropped.
type chunkWriter struct {
	s  *Stream
	id uuid.UUID
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.s.chunkMu.Lock()
	defer w.s.chunkMu.Unlock()
	if w.s.chunkID == w.id {
		chunk := make([]byte, len(p))
		copy(chunk, p)
		w.s.chunks = append(w.s.chunks, chunk)
	}
	return len(p), nil
}
