package view

import (
	"FreehandBoard/internal/state"

	"fyne.io/fyne/v2"
	"golang.org/x/image/math/f64"
)

// Resolve maps a device pointer position (origin top-left, y down) inside a
// viewport of the given size to drawing space, using the inverse view
// transform of the active camera.
//
// A nil pointer means the pointer is outside the viewport. Resolve then
// returns the zero point with ok false; callers must not treat it as drawn.
func Resolve(pointer *fyne.Position, viewport fyne.Size, viewToWorld f64.Aff3) (p state.Point, ok bool) {
	if pointer == nil {
		return state.Point{}, false
	}
	w, h := float64(viewport.Width), float64(viewport.Height)
	centred := state.Point{
		X: float64(pointer.X) - w/2,
		Y: (h - float64(pointer.Y)) - h/2,
	}
	return Apply(viewToWorld, centred), true
}

// Project is the inverse of Resolve: it maps a drawing-space point to a device
// position in the viewport.
func Project(p state.Point, viewport fyne.Size, worldToView f64.Aff3) fyne.Position {
	v := Apply(worldToView, p)
	w, h := float64(viewport.Width), float64(viewport.Height)
	return fyne.NewPos(float32(v.X+w/2), float32(h-(v.Y+h/2)))
}
