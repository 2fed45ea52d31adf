package view

import (
	"FreehandBoard/internal/state"

	"golang.org/x/image/math/f64"
)

// Camera looks at Position in drawing space. Zoom > 1 magnifies.
type Camera struct {
	Position state.Point
	Zoom     float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1}
}

func (c *Camera) zoom() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// ViewToWorld maps centred view coordinates (y-up) to drawing space. This is
// the inverse view transform the resolver consumes.
func (c *Camera) ViewToWorld() f64.Aff3 {
	s := 1 / c.zoom()
	return f64.Aff3{
		s, 0, c.Position.X,
		0, s, c.Position.Y,
	}
}

// WorldToView maps drawing space to centred view coordinates.
func (c *Camera) WorldToView() f64.Aff3 {
	z := c.zoom()
	return f64.Aff3{
		z, 0, -z * c.Position.X,
		0, z, -z * c.Position.Y,
	}
}

// Direction is a pan direction; each component is -1, 0 or 1.
type Direction struct{ X, Y float64 }

// Pan moves the camera along dir at speed world units per second for dt
// seconds.
func (c *Camera) Pan(dir Direction, speed, dt float64) {
	c.Position = c.Position.Add(state.Point{X: dir.X, Y: dir.Y}.Mul(speed * dt))
}
