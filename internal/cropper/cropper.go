// Package cropper owns the crop rectangle and keeps it inside its container.
package cropper

import (
	"sync"

	"github.com/ivlev/videocrop/internal/geometry"
)

// Listener receives the rectangle after every geometry change.
type Listener func(geometry.Rect)

// Controller maintains a crop rectangle that always spans the full container
// height and can only be dragged horizontally.
type Controller struct {
	// publishMu is taken before mu by every publishing mutation and held
	// until the listeners return, so listeners observe changes in order.
	publishMu sync.Mutex

	mu         sync.Mutex
	container  geometry.Size
	ratio      AspectRatio
	rect       geometry.Rect
	dragging   bool
	dragOffset struct{ X, Y float64 }

	listeners    map[int]Listener
	nextListener int
}

func NewController(ratio AspectRatio) *Controller {
	if ratio.Value() == 0 {
		ratio = DefaultRatio
	}
	return &Controller{
		ratio:     ratio,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function removing it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) Rect() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rect
}

func (c *Controller) AspectRatio() AspectRatio {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ratio
}

func (c *Controller) Container() geometry.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.container
}

func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// SetAspectRatio re-fits the rectangle to the new ratio and re-centres it.
// Unknown ratios are ignored.
func (c *Controller) SetAspectRatio(ratio AspectRatio) {
	if ratio.Value() == 0 {
		return
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	c.ratio = ratio
	c.fitLocked()
	c.publishLocked()
}

// SetContainer re-fits the rectangle after the container was resized.
func (c *Controller) SetContainer(size geometry.Size) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	c.container = size
	c.fitLocked()
	c.publishLocked()
}

// Fit recomputes the rectangle for the current container and ratio, as if the
// cropper was just shown.
func (c *Controller) Fit() {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	c.fitLocked()
	c.publishLocked()
}

// DragStart records the pointer offset from the rectangle's top-left corner.
func (c *Controller) DragStart(px, py float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = true
	c.dragOffset.X = px - c.rect.X
	c.dragOffset.Y = py - c.rect.Y
}

// DragMove moves the rectangle horizontally. Ignored when not dragging.
func (c *Controller) DragMove(px, py float64) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}
	c.rect.X = c.clampXLocked(px - c.dragOffset.X)
	c.publishLocked()
}

func (c *Controller) DragEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = false
}

// CenterOn moves the rectangle so its centre sits at layout x.
func (c *Controller) CenterOn(x float64) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	if c.rect.IsZero() {
		c.mu.Unlock()
		return
	}
	c.rect.X = c.clampXLocked(x - c.rect.Width/2)
	c.publishLocked()
}

// Reset clears the rectangle and restores the given ratio. It waits for any
// publication in flight, so nothing older than the reset reaches listeners
// afterwards. An unknown ratio keeps the current one.
func (c *Controller) Reset(ratio AspectRatio) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if ratio.Value() != 0 {
		c.ratio = ratio
	}
	c.rect = geometry.Rect{}
	c.dragging = false
}

func (c *Controller) fitLocked() {
	c.rect = Fit(c.container, c.ratio)
}

func (c *Controller) clampXLocked(x float64) float64 {
	return geometry.Clamp(x, 0, c.container.Width-c.rect.Width)
}

// publishLocked releases c.mu before calling listeners so that they may read
// the controller back. Listeners run on the mutating goroutine with publishMu
// held and must not mutate the controller.
func (c *Controller) publishLocked() {
	rect := c.rect
	listeners := make([]Listener, 0, len(c.listeners))
	for id := 0; id < c.nextListener; id++ {
		if l, ok := c.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(rect)
	}
}

// Fit returns the full-height, horizontally centred rectangle for a ratio.
func Fit(container geometry.Size, ratio AspectRatio) geometry.Rect {
	if container.IsZero() {
		return geometry.Rect{}
	}
	width := container.Height * ratio.Value()
	if width > container.Width {
		width = container.Width
	}
	if width <= 0 {
		return geometry.Rect{}
	}
	return geometry.Rect{
		X:      (container.Width - width) / 2,
		Y:      0,
		Width:  width,
		Height: container.Height,
	}
}
