// Package preview draws the stroke being captured as a chain of straight
// segments, rebuilt every frame.
package preview

import (
	"image/color"
	"sync"

	"FreehandBoard/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// Projector maps drawing space to the device position the segment is drawn at.
type Projector func(state.Point) fyne.Position

// Renderer keeps a pool of line slots. Each frame the first len(points)-1
// slots are rewritten from the session's points; the rest stay in the pool
// unused. The pool grows with the longest stroke seen and never shrinks.
type Renderer struct {
	mu      sync.Mutex
	pool    []*canvas.Line
	visible int
	color   color.Color
	width   float32
}

func NewRenderer(c color.Color, width float32) *Renderer {
	return &Renderer{color: c, width: width}
}

// Rebuild discards the previous frame's segments and lays out one segment per
// consecutive pair of points, in capture order.
func (r *Renderer) Rebuild(points []state.Point, project Projector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visible = 0
	if len(points) < 2 {
		return
	}

	n := len(points) - 1
	for len(r.pool) < n {
		r.pool = append(r.pool, canvas.NewLine(r.color))
	}

	from := project(points[0])
	for i := 0; i < n; i++ {
		to := project(points[i+1])
		line := r.pool[i]
		line.StrokeColor = r.color
		line.StrokeWidth = r.width
		line.Position1 = from
		line.Position2 = to
		from = to
	}
	r.visible = n
}

// Objects returns the segments of the current frame.
func (r *Renderer) Objects() []fyne.CanvasObject {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fyne.CanvasObject, r.visible)
	for i := 0; i < r.visible; i++ {
		out[i] = r.pool[i]
	}
	return out
}

// Len is the number of segments drawn this frame.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// PoolSize is the number of allocated slots.
func (r *Renderer) PoolSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// SetStyle changes colour and width for the following frames.
func (r *Renderer) SetStyle(c color.Color, width float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.color = c
	r.width = width
}
