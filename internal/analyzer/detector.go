// Package analyzer locates regions of interest in video frames. The editor
// uses it to place the crop over the most prominent content.
package analyzer

import "image"

// Block represents a detected region of interest in a frame
type Block struct {
	Rect       image.Rectangle
	Type       string
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for frame analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// Largest returns the block with the biggest area.
func Largest(blocks []Block) (Block, bool) {
	var best Block
	found := false
	for _, b := range blocks {
		if !found || area(b.Rect) > area(best.Rect) {
			best, found = b, true
		}
	}
	return best, found
}

// Center returns the midpoint of r.
func Center(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X+r.Max.X) / 2, float64(r.Min.Y+r.Max.Y) / 2
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
