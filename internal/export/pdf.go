package export

import (
	"fmt"
	"io"
	"math"

	"FreehandBoard/internal/state"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 210.0 // A4, mm
	pageHeight = 297.0
	pageMargin = 10.0
)

// WritePDF draws every placed stroke onto one A4 page, scaled to fit and with
// drawing space's y-up flipped to the page's y-down.
func WritePDF(w io.Writer, strokes []state.PlacedStroke) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.AddPage()
	p.SetLineWidth(0.5)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	var all []state.Point
	for _, s := range strokes {
		all = append(all, s.Points...)
	}
	if len(all) > 0 {
		box, _ := state.Bounds(all)
		scale := math.Inf(1)
		if box.Width() > 0 {
			scale = (pageWidth - 2*pageMargin) / box.Width()
		}
		if box.Height() > 0 {
			scale = math.Min(scale, (pageHeight-2*pageMargin)/box.Height())
		}
		if math.IsInf(scale, 1) {
			scale = 1
		}
		toPage := func(pt state.Point) (float64, float64) {
			l := box.Local(pt)
			return pageMargin + l.X*scale, pageMargin + l.Y*scale
		}

		for _, s := range strokes {
			c, err := ParseColor(s.Color)
			if err != nil {
				c, _ = ParseColor("black")
			}
			p.SetDrawColor(int(c.R), int(c.G), int(c.B))
			p.SetFillColor(int(c.R), int(c.G), int(c.B))

			if len(s.Points) == 1 {
				x, y := toPage(s.Points[0])
				p.Circle(x, y, 0.25, "F")
				continue
			}
			for i := 1; i < len(s.Points); i++ {
				x1, y1 := toPage(s.Points[i-1])
				x2, y2 := toPage(s.Points[i])
				p.Line(x1, y1, x2, y2)
			}
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
