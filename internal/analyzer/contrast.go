package analyzer

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	xdraw "golang.org/x/image/draw"
)

// ContrastDetector finds high-contrast regions using edge detection
type ContrastDetector struct {
	MinBlockArea  int     // Minimum area in pixels² of the analysed image
	EdgeThreshold uint8   // Gradient magnitude threshold
	DilateRadius  float64 // Joins nearby edges into one region
	MaxSide       int     // Frames are downscaled to this size before analysis
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30,
		DilateRadius:  4,
		MaxSide:       640,
	}
}

// Detect returns regions of interest in img coordinates.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil
	}

	work, scale := d.downscale(img)

	edges := effect.Sobel(effect.Grayscale(work))
	mask := segment.Threshold(edges, d.EdgeThreshold)
	if d.DilateRadius > 0 {
		mask = segment.Threshold(effect.Dilate(mask, d.DilateRadius), 128)
	}

	blocks := []Block{}
	for _, rect := range findContours(mask) {
		if rect.Dx()*rect.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{
			Rect:       scaleRect(rect, scale).Add(bounds.Min).Intersect(bounds),
			Type:       "region",
			Confidence: 0.7,
		})
	}
	return blocks, nil
}

// downscale returns a copy of img at the origin whose longest side is at most
// MaxSide, and the factor mapping it back to img.
func (d *ContrastDetector) downscale(img image.Image) (image.Image, float64) {
	b := img.Bounds()
	side := max(b.Dx(), b.Dy())
	if d.MaxSide <= 0 || side <= d.MaxSide {
		return img, 1
	}
	scale := float64(side) / float64(d.MaxSide)
	w := max(1, int(float64(b.Dx())/scale))
	h := max(1, int(float64(b.Dy())/scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst, scale
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(float64(r.Min.X)*scale),
		int(float64(r.Min.Y)*scale),
		int(float64(r.Max.X)*scale+0.5),
		int(float64(r.Max.Y)*scale+0.5),
	)
}

// findContours finds bounding rectangles of connected white regions
func findContours(img *image.Gray) []image.Rectangle {
	bounds := img.Bounds()
	visited := make([][]bool, bounds.Dy())
	for i := range visited {
		visited[i] = make([]bool, bounds.Dx())
	}

	contours := []image.Rectangle{}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !visited[y-bounds.Min.Y][x-bounds.Min.X] {
				contours = append(contours, floodFill(img, visited, x, y))
			}
		}
	}

	return contours
}

// floodFill marks the component containing (startX, startY) and returns its
// bounding rectangle.
func floodFill(img *image.Gray, visited [][]bool, startX, startY int) image.Rectangle {
	bounds := img.Bounds()
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := p.X, p.Y
		if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		if visited[y-bounds.Min.Y][x-bounds.Min.X] || img.GrayAt(x, y).Y <= 128 {
			continue
		}
		visited[y-bounds.Min.Y][x-bounds.Min.X] = true

		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		stack = append(stack,
			image.Point{X: x + 1, Y: y},
			image.Point{X: x - 1, Y: y},
			image.Point{X: x, Y: y + 1},
			image.Point{X: x, Y: y - 1},
		)
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}
