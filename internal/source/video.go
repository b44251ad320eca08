package source

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"sync"
)

// seekWindow is how far ahead (in frames) a sequential read is preferred over
// restarting the decoder at the requested position.
const seekWindow = 60

// VideoSource decodes a video file with ffmpeg into raw RGBA frames. Frames are
// read sequentially while playback moves forward; backward seeks and large
// jumps restart the decoder at the target time.
type VideoSource struct {
	path   string
	info   Info
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	reader  *bufio.Reader
	next    int // index of the frame the decoder will produce next
	current *image.RGBA
	curIdx  int
}

func NewVideoSource(ctx context.Context, path string, logger *slog.Logger) (*VideoSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	probe, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	fps := probe.FPS
	if fps <= 0 {
		fps = 30
	}
	return &VideoSource{
		path:   path,
		logger: logger,
		curIdx: -1,
		info: Info{
			Width:    probe.Width,
			Height:   probe.Height,
			FPS:      fps,
			Duration: probe.Duration,
		},
	}, nil
}

func (s *VideoSource) Info() Info {
	return s.info
}

func (s *VideoSource) frameCount() int {
	n := int(s.info.Duration * s.info.FPS)
	if n < 1 {
		n = 1
	}
	return n
}

func (s *VideoSource) FrameAt(t float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := frameIndex(t, s.info.FPS, s.frameCount())
	if s.current != nil && idx == s.curIdx {
		return s.current, nil
	}

	if s.reader == nil || idx < s.next || idx > s.next+seekWindow {
		if err := s.restartLocked(idx); err != nil {
			return nil, err
		}
	}

	for s.next <= idx {
		if err := s.readFrameLocked(); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// Decoder ran short of the probed duration; hold the last frame.
				if s.current != nil {
					return s.current, nil
				}
				return nil, ErrNoFrames
			}
			return nil, err
		}
	}
	return s.current, nil
}

func (s *VideoSource) readFrameLocked() error {
	frameSize := s.info.Width * s.info.Height * 4
	img := image.NewRGBA(image.Rect(0, 0, s.info.Width, s.info.Height))
	if _, err := io.ReadFull(s.reader, img.Pix[:frameSize]); err != nil {
		return err
	}
	s.current = img
	s.curIdx = s.next
	s.next++
	return nil
}

func (s *VideoSource) restartLocked(idx int) error {
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "ffmpeg", decodeArgs(s.path, float64(idx)/s.info.FPS, s.info.FPS)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	s.logger.Debug("decoder started", "path", s.path, "frame", idx)

	s.cmd = cmd
	s.cancel = cancel
	s.reader = bufio.NewReaderSize(stdout, s.info.Width*s.info.Height*4)
	s.next = idx
	return nil
}

func decodeArgs(path string, start, fps float64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%f", start),
		"-i", path,
		"-an",
		"-vf", fmt.Sprintf("fps=%f", fps),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

func (s *VideoSource) stopLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cmd != nil {
		_ = s.cmd.Wait()
	}
	s.cmd = nil
	s.cancel = nil
	s.reader = nil
}

func (s *VideoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}
