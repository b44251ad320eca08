package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// ChunkSize is the read size for encoded output streamed from ffmpeg; each
// read becomes one data chunk for the consumer.
const ChunkSize = 64 * 1024

// Params describes one encoding session.
type Params struct {
	Width, Height int
	FPS           int
	Encoder       string // ffmpeg encoder name, e.g. libvpx-vp9
	Quality       int    // encoder-specific, see qualityArgs; 0 = encoder default
	Container     string // ffmpeg muxer, e.g. webm or mp4
	Output        string // file path; empty streams to the writer passed to Open
	AudioPath     string // optional audio track muxed into file outputs
	Realtime      bool   // favour speed over compression (live capture)
}

// FrameWriter accepts raw frames of exactly Params.Width x Params.Height.
type FrameWriter interface {
	WriteFrame(img image.Image) error
	// Close flushes the encoder and waits for it to exit.
	Close() error
}

// Encoder opens frame writers. out receives the encoded stream when
// Params.Output is empty.
type Encoder interface {
	Open(ctx context.Context, p Params, out io.Writer) (FrameWriter, error)
}

type FFmpegEncoder struct{}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	g      *errgroup.Group
	width  int
	height int
	buf    *image.RGBA
}

func (e *FFmpegEncoder) Open(ctx context.Context, p Params, out io.Writer) (FrameWriter, error) {
	if p.Output == "" && out == nil {
		return nil, fmt.Errorf("ffmpeg: no output configured")
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", BuildArgs(p)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}

	var stdout io.ReadCloser
	if p.Output == "" {
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe error: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	w := &ffmpegWriter{
		cmd:    cmd,
		stdin:  stdin,
		g:      &errgroup.Group{},
		width:  p.Width,
		height: p.Height,
	}

	if stdout != nil {
		w.g.Go(func() error {
			buf := make([]byte, ChunkSize)
			for {
				n, err := stdout.Read(buf)
				if n > 0 {
					chunk := make([]byte, n)
					copy(chunk, buf[:n])
					if _, werr := out.Write(chunk); werr != nil {
						return werr
					}
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
			}
		})
	}

	return w, nil
}

func (w *ffmpegWriter) WriteFrame(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("frame %dx%d does not match encoder %dx%d", b.Dx(), b.Dy(), w.width, w.height)
	}
	return writeRawRGBA(w.stdin, img, &w.buf)
}

func (w *ffmpegWriter) Close() error {
	w.stdin.Close()
	readErr := w.g.Wait()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	return readErr
}

// BuildArgs assembles the ffmpeg command line for raw RGBA input on stdin.
func BuildArgs(p Params) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}

	if p.AudioPath != "" && p.Output != "" {
		args = append(args, "-i", p.AudioPath, "-map", "0:v", "-map", "1:a", "-shortest")
	}

	args = append(args, "-c:v", p.Encoder, "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(p)...)

	if p.Container != "" {
		args = append(args, "-f", p.Container)
	}
	if p.Output == "" {
		args = append(args, "pipe:1")
	} else {
		args = append(args, p.Output)
	}
	return args
}

func qualityArgs(p Params) []string {
	var args []string
	switch p.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not take -q:v reliably; use bitrate instead.
		if p.Quality > 0 {
			args = append(args, "-b:v", fmt.Sprintf("%dk", p.Quality*100))
		}
	case "h264_nvenc":
		if p.Quality > 0 {
			args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
		}
	case "libvpx-vp9", "libvpx":
		if p.Quality > 0 {
			args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-b:v", "0")
		}
		if p.Realtime {
			args = append(args, "-deadline", "realtime", "-cpu-used", "8")
		}
	default: // libx264
		if p.Quality > 0 {
			args = append(args, "-crf", fmt.Sprintf("%d", p.Quality))
		}
		if p.Realtime {
			args = append(args, "-preset", "ultrafast")
		} else {
			args = append(args, "-preset", "medium")
		}
	}
	return args
}

// DefaultQuality returns a sensible quality value per encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	case "libvpx-vp9", "libvpx":
		return 32
	default:
		return 23
	}
}

// ContainerFor maps an encoder to the muxer it is normally paired with.
func ContainerFor(encoder string) string {
	switch encoder {
	case "libvpx-vp9", "libvpx":
		return "webm"
	default:
		return "mp4"
	}
}

// EvenSize rounds dimensions down to even numbers (yuv420p requirement),
// keeping at least 2x2.
func EvenSize(w, h int) (int, int) {
	w -= w % 2
	h -= h % 2
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return w, h
}

// writeRawRGBA writes img as tightly packed RGBA. Images that are not already
// tight *image.RGBA at the origin are converted through scratch.
func writeRawRGBA(w io.Writer, img image.Image, scratch **image.RGBA) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		target := image.Rect(0, 0, bounds.Dx(), bounds.Dy())
		if *scratch == nil || (*scratch).Rect != target {
			*scratch = image.NewRGBA(target)
		}
		rgba = *scratch
		draw.Draw(rgba, target, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
