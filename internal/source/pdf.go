package source

import (
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// PDFSource shows each page of a document for a fixed duration, so slide
// decks can be cropped into vertical clips like any other video.
type PDFSource struct {
	doc          *fitz.Document
	dpi          int
	pageDuration float64
	info         Info

	mu      sync.Mutex
	cached  image.Image
	lastIdx int
}

func NewPDFSource(path string, dpi int, pageDuration, fps float64) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, ErrNoFrames
	}
	if dpi <= 0 {
		dpi = 150
	}
	if pageDuration <= 0 {
		pageDuration = 3
	}
	if fps <= 0 {
		fps = 30
	}

	// Page bounds are in points (1/72 inch); rendered size depends on DPI.
	rect, err := doc.Bound(0)
	if err != nil {
		doc.Close()
		return nil, err
	}
	scale := float64(dpi) / 72.0

	return &PDFSource{
		doc:          doc,
		dpi:          dpi,
		pageDuration: pageDuration,
		lastIdx:      -1,
		info: Info{
			Width:    int(float64(rect.Dx()) * scale),
			Height:   int(float64(rect.Dy()) * scale),
			FPS:      fps,
			Duration: float64(doc.NumPage()) * pageDuration,
		},
	}, nil
}

func (s *PDFSource) Info() Info {
	return s.info
}

func (s *PDFSource) FrameAt(t float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := frameIndex(t, 1/s.pageDuration, s.doc.NumPage())
	if idx == s.lastIdx && s.cached != nil {
		return s.cached, nil
	}

	img, err := s.doc.ImageDPI(idx, float64(s.dpi))
	if err != nil {
		return nil, err
	}
	s.cached = img
	s.lastIdx = idx
	return img, nil
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
