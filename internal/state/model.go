package state

import "math"

// Point is a coordinate in drawing space (y-up, origin at the world centre).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Mul(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Len returns the euclidean length of p seen as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Normalize returns p scaled to unit length. The zero vector stays zero.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Box is an axis-aligned bounding box in drawing space.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Bounds computes the bounding box of points. It returns ErrEmptyStroke when
// there is nothing to bound.
func Bounds(points []Point) (Box, error) {
	if len(points) == 0 {
		return Box{}, ErrEmptyStroke
	}

	b := Box{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, nil
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center is where a graphic anchored at its own centre must be placed to
// cover the box.
func (b Box) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Local maps p into box-local document space: origin at the top-left corner
// of the box, y pointing down.
func (b Box) Local(p Point) Point {
	return Point{X: p.X - b.MinX, Y: b.MaxY - p.Y}
}
