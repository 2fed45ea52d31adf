package draw

import (
	"fmt"
	"io"
	"sync"

	"FreehandBoard/internal/export"
	"FreehandBoard/internal/state"

	"github.com/rs/zerolog"
)

// Placement asks the host to show a saved document. The graphic is anchored
// at its own centre and positioned at Center in drawing space.
type Placement struct {
	ID       string
	Index    uint64
	Document string
	Center   state.Point
	Width    float64
	Height   float64
}

// Placer is the host capability that loads a saved document and displays it.
type Placer interface {
	Place(Placement) error
}

// DocumentStore persists documents. export.DirStore is the production store.
type DocumentStore interface {
	Save(name string, doc io.WriterTo) (string, error)
	Remove(path string) error
}

// FinalizedStroke describes a stroke that was saved, placed and cleared from
// the session.
type FinalizedStroke struct {
	ID       string
	Index    uint64
	Box      state.Box
	Document *export.Document
	Path     string
	Points   []state.Point
	Color    string
}

// Finalizer turns the session's stroke into a saved document plus a placed
// graphic. Either both happen and the session is reset, or neither is visible
// and the session keeps its points for another attempt.
type Finalizer struct {
	session *state.StrokeSession
	store   DocumentStore
	placer  Placer
	site    string
	log     zerolog.Logger

	mu      sync.Mutex
	stroke  string
	onFinal []func(FinalizedStroke)
}

func NewFinalizer(session *state.StrokeSession, store DocumentStore, placer Placer, stroke string, log zerolog.Logger) *Finalizer {
	return &Finalizer{
		session: session,
		store:   store,
		placer:  placer,
		site:    state.SiteID(),
		stroke:  stroke,
		log:     log.With().Str("component", "finalizer").Logger(),
	}
}

// SetStrokeColor sets the outline colour of the following documents.
func (f *Finalizer) SetStrokeColor(c string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stroke = c
}

func (f *Finalizer) StrokeColor() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stroke
}

// OnFinalized registers fn to run after every successful finalize, once the
// session has been reset.
func (f *Finalizer) OnFinalized(fn func(FinalizedStroke)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onFinal = append(f.onFinal, fn)
}

// Finalize saves and places the current stroke. It returns state.ErrEmptyStroke
// when there is nothing to finalize.
func (f *Finalizer) Finalize() (FinalizedStroke, error) {
	points, index, err := f.session.Snapshot()
	if err != nil {
		return FinalizedStroke{}, err
	}
	color := f.StrokeColor()

	doc, box, err := export.NewPathDocument(points, color)
	if err != nil {
		return FinalizedStroke{}, fmt.Errorf("build document for stroke %d: %w", index, err)
	}

	path, err := f.store.Save(export.DocumentName(index), doc)
	if err != nil {
		f.log.Error().Err(err).Uint64("index", index).Int("points", len(points)).Msg("saving stroke failed, keeping points")
		return FinalizedStroke{}, fmt.Errorf("save stroke %d: %w", index, err)
	}

	id := state.StrokeID(f.site, index)
	placement := Placement{
		ID:       id,
		Index:    index,
		Document: path,
		Center:   box.Center(),
		Width:    box.Width(),
		Height:   box.Height(),
	}
	if err := f.placer.Place(placement); err != nil {
		if rmErr := f.store.Remove(path); rmErr != nil {
			f.log.Warn().Err(rmErr).Str("path", path).Msg("could not roll back saved document")
		}
		f.log.Error().Err(err).Uint64("index", index).Msg("placing stroke failed, keeping points")
		return FinalizedStroke{}, fmt.Errorf("place stroke %d: %w", index, err)
	}

	if !f.session.Reset(index) {
		f.log.Warn().Uint64("index", index).Uint64("counter", f.session.Counter()).Str("path", path).Msg("session moved on while finalizing, stroke not recorded")
		return FinalizedStroke{}, fmt.Errorf("reset stroke %d: %w", index, state.ErrStaleStroke)
	}

	fs := FinalizedStroke{
		ID:       id,
		Index:    index,
		Box:      box,
		Document: doc,
		Path:     path,
		Points:   points,
		Color:    color,
	}
	f.log.Info().
		Uint64("index", index).
		Str("path", path).
		Int("points", len(points)).
		Float64("cx", placement.Center.X).
		Float64("cy", placement.Center.Y).
		Msg("stroke finalized")

	f.mu.Lock()
	hooks := make([]func(FinalizedStroke), len(f.onFinal))
	copy(hooks, f.onFinal)
	f.mu.Unlock()
	for _, fn := range hooks {
		fn(fs)
	}
	return fs, nil
}
