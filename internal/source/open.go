package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options tunes sources that have no native frame rate.
type Options struct {
	FPS          float64
	DPI          int
	PageDuration float64
	Logger       *slog.Logger
}

// Open picks a source implementation by looking at path: directories and
// still images become an ImageSource, PDFs a PDFSource, anything else is
// decoded with ffmpeg.
func Open(ctx context.Context, path string, opts Options) (FrameSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return NewImageSource(path, opts.FPS)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDFSource(path, opts.DPI, opts.PageDuration, opts.FPS)
	case ".png", ".jpg", ".jpeg":
		return NewImageSource(path, opts.FPS)
	default:
		return NewVideoSource(ctx, path, opts.Logger)
	}
}
