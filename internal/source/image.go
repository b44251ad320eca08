package source

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ImageSource plays a directory of still images as a video at a fixed rate,
// one image per frame in lexical order.
type ImageSource struct {
	paths []string
	info  Info

	mu      sync.Mutex
	cached  image.Image
	lastIdx int
}

func NewImageSource(path string, fps float64) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				ext := strings.ToLower(filepath.Ext(entry.Name()))
				if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
					paths = append(paths, filepath.Join(path, entry.Name()))
				}
			}
		}
		sort.Strings(paths)
	} else {
		paths = []string{path}
	}

	if len(paths) == 0 {
		return nil, ErrNoFrames
	}
	if fps <= 0 {
		fps = 30
	}

	w, h, err := imageDimensions(paths[0])
	if err != nil {
		return nil, err
	}

	return &ImageSource{
		paths:   paths,
		lastIdx: -1,
		info: Info{
			Width:    w,
			Height:   h,
			FPS:      fps,
			Duration: float64(len(paths)) / fps,
		},
	}, nil
}

func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) Info() Info {
	return s.info
}

func (s *ImageSource) FrameAt(t float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := frameIndex(t, s.info.FPS, len(s.paths))
	if idx == s.lastIdx && s.cached != nil {
		return s.cached, nil
	}

	f, err := os.Open(s.paths[idx])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	s.cached = img
	s.lastIdx = idx
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
