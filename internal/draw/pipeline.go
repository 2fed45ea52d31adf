// Package draw runs the per-frame capture pipeline: resolve the pointer,
// commit a followed point while the button is held, redraw the preview, and
// finalize the stroke when the button is released.
package draw

import (
	"errors"

	"FreehandBoard/internal/preview"
	"FreehandBoard/internal/state"
	"FreehandBoard/internal/view"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog"
	"golang.org/x/image/math/f64"
)

// Frame is the host input sampled once per simulation step.
type Frame struct {
	Pressed  bool // drawing button held this frame
	Released bool // drawing button released since the previous frame

	Pointer     *fyne.Position // nil when the pointer is outside the viewport
	Viewport    fyne.Size
	ViewToWorld f64.Aff3
}

// Pipeline owns the stroke session and drives it from frames. It is not safe
// for concurrent use; the host calls Tick from its update loop only.
type Pipeline struct {
	session   *state.StrokeSession
	finalizer *Finalizer
	preview   *preview.Renderer
	log       zerolog.Logger

	// pending is set while a stroke failed to finalize. New strokes are not
	// started until it succeeds, so two strokes never share points.
	pending bool
}

func NewPipeline(session *state.StrokeSession, finalizer *Finalizer, renderer *preview.Renderer, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		session:   session,
		finalizer: finalizer,
		preview:   renderer,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Tick advances the pipeline by one frame. It returns the finalized stroke
// when this frame completed one.
func (p *Pipeline) Tick(f Frame) (*FinalizedStroke, error) {
	var (
		done *FinalizedStroke
		err  error
	)

	switch {
	case f.Pressed && !p.pending:
		p.capture(f)
	case f.Released && p.session.HasActiveStroke():
		done, err = p.finalize()
	}

	p.redraw(f)
	return done, err
}

// Pending reports whether a stroke is waiting for a finalize retry.
func (p *Pipeline) Pending() bool { return p.pending }

// Retry finalizes a stroke whose previous finalize failed.
func (p *Pipeline) Retry() (*FinalizedStroke, error) {
	if !p.session.HasActiveStroke() {
		p.pending = false
		return nil, state.ErrEmptyStroke
	}
	return p.finalize()
}

func (p *Pipeline) Session() *state.StrokeSession { return p.session }

func (p *Pipeline) capture(f Frame) {
	target, ok := view.Resolve(f.Pointer, f.Viewport, f.ViewToWorld)
	if !ok {
		p.log.Debug().Msg("pointer unavailable, sample skipped")
		return
	}
	p.session.AppendTarget(target)
}

func (p *Pipeline) finalize() (*FinalizedStroke, error) {
	fs, err := p.finalizer.Finalize()
	if err != nil {
		// a stale stroke was already reset elsewhere, there is nothing to retry
		p.pending = !errors.Is(err, state.ErrStaleStroke)
		return nil, err
	}
	p.pending = false
	return &fs, nil
}

func (p *Pipeline) redraw(f Frame) {
	worldToView, ok := view.Invert(f.ViewToWorld)
	if !ok {
		p.preview.Rebuild(nil, nil)
		return
	}
	p.preview.Rebuild(p.session.Points(), func(pt state.Point) fyne.Position {
		return view.Project(pt, f.Viewport, worldToView)
	})
}
