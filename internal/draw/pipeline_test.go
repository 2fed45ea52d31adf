package draw

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"FreehandBoard/internal/export"
	"FreehandBoard/internal/preview"
	"FreehandBoard/internal/state"
	"FreehandBoard/internal/view"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPlacer struct {
	placed  []Placement
	err     error
	onPlace func()
}

func (r *recordingPlacer) Place(p Placement) error {
	if r.err != nil {
		return r.err
	}
	if r.onPlace != nil {
		r.onPlace()
	}
	r.placed = append(r.placed, p)
	return nil
}

type flakyStore struct {
	*export.DirStore
	fail error
}

func (s *flakyStore) Save(name string, doc io.WriterTo) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return s.DirStore.Save(name, doc)
}

type fixture struct {
	dir      string
	session  *state.StrokeSession
	store    *flakyStore
	placer   *recordingPlacer
	preview  *preview.Renderer
	pipeline *Pipeline
	final    *Finalizer
}

func newFixture(t *testing.T, speed float64) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "svgs")
	session, err := state.NewStrokeSession(state.FollowConfig{Speed: speed}, 0)
	require.NoError(t, err)

	fx := &fixture{
		dir:     dir,
		session: session,
		store:   &flakyStore{DirStore: export.NewDirStore(dir)},
		placer:  &recordingPlacer{},
		preview: preview.NewRenderer(color.White, 2),
	}
	fx.final = NewFinalizer(session, fx.store, fx.placer, "black", zerolog.Nop())
	fx.pipeline = NewPipeline(session, fx.final, fx.preview, zerolog.Nop())
	return fx
}

// viewport of 200x200 with the identity camera: device (100+x, 100-y) is
// drawing point (x, y).
var viewport = fyne.NewSize(200, 200)

func at(x, y float64) *fyne.Position {
	p := fyne.NewPos(float32(100+x), float32(100-y))
	return &p
}

func held(p *fyne.Position) Frame {
	return Frame{Pressed: true, Pointer: p, Viewport: viewport, ViewToWorld: view.Identity}
}

func released() Frame {
	return Frame{Released: true, Viewport: viewport, ViewToWorld: view.Identity}
}

func idle() Frame {
	return Frame{Viewport: viewport, ViewToWorld: view.Identity}
}

func (fx *fixture) tick(t *testing.T, f Frame) *FinalizedStroke {
	t.Helper()
	done, err := fx.pipeline.Tick(f)
	require.NoError(t, err)
	return done
}

func TestPipeline_ConstantStepCapture(t *testing.T) {
	fx := newFixture(t, 5)
	fx.tick(t, held(at(0, 0)))
	fx.tick(t, held(at(3, 0)))

	pts := fx.session.Points()
	require.Len(t, pts, 2)
	assert.Equal(t, state.Pt(0, 0), pts[0])
	assert.InDelta(t, 5.0, pts[1].X, 1e-6)
	assert.InDelta(t, 0.0, pts[1].Y, 1e-6)
	assert.Equal(t, 1, fx.preview.Len())
}

func TestPipeline_FinalizeSquareStroke(t *testing.T) {
	fx := newFixture(t, 10)
	fx.tick(t, held(at(0, 0)))
	fx.tick(t, held(at(10, 0)))
	fx.tick(t, held(at(10, 10)))
	require.Equal(t, 2, fx.preview.Len())

	done := fx.tick(t, released())
	require.NotNil(t, done)

	assert.Equal(t, state.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, done.Box)
	assert.Equal(t, "M 0 10 L 10 10 L 10 0", done.Document.Path.D)
	assert.Equal(t, filepath.Join(fx.dir, "drawing0.svg"), done.Path)

	require.Len(t, fx.placer.placed, 1)
	placed := fx.placer.placed[0]
	assert.Equal(t, state.Pt(5, 5), placed.Center)
	assert.Equal(t, done.Path, placed.Document)
	assert.Equal(t, 10.0, placed.Width)
	assert.Equal(t, 10.0, placed.Height)

	raw, err := os.ReadFile(done.Path)
	require.NoError(t, err)
	assert.Equal(t, done.Document.String(), string(raw))

	assert.False(t, fx.session.HasActiveStroke())
	_, ok := fx.session.Last()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), fx.session.Counter())
	assert.Zero(t, fx.preview.Len())
}

func TestPipeline_SinglePointStroke(t *testing.T) {
	fx := newFixture(t, 1.5)
	fx.tick(t, held(at(2, 2)))
	assert.Zero(t, fx.preview.Len())

	done := fx.tick(t, released())
	require.NotNil(t, done)
	assert.Zero(t, done.Box.Width())
	assert.Zero(t, done.Box.Height())
	assert.Equal(t, "M 0 0", done.Document.Path.D)
	assert.Equal(t, "0", done.Document.Width)
	assert.Equal(t, state.Pt(2, 2), fx.placer.placed[0].Center)
}

func TestPipeline_ReleaseWithoutStrokeDoesNothing(t *testing.T) {
	fx := newFixture(t, 1.5)
	assert.Nil(t, fx.tick(t, released()))
	assert.Nil(t, fx.tick(t, idle()))
	assert.Empty(t, fx.placer.placed)
	assert.Equal(t, uint64(0), fx.session.Counter())

	_, err := os.Stat(fx.dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPipeline_UnavailablePointerIsSkipped(t *testing.T) {
	fx := newFixture(t, 1)
	fx.tick(t, held(at(20, 20)))
	fx.tick(t, held(nil))
	fx.tick(t, held(at(21, 20)))

	pts := fx.session.Points()
	require.Len(t, pts, 2)
	for _, p := range pts {
		assert.NotEqual(t, state.Point{}, p)
	}
}

func TestPipeline_CounterAcrossStrokes(t *testing.T) {
	fx := newFixture(t, 1)
	var names []string
	for i := 0; i < 4; i++ {
		fx.tick(t, held(at(float64(i), 0)))
		fx.tick(t, held(at(float64(i), 9)))
		done := fx.tick(t, released())
		require.NotNil(t, done)
		assert.Equal(t, uint64(i), done.Index)
		names = append(names, filepath.Base(done.Path))
	}
	assert.Equal(t, []string{"drawing0.svg", "drawing1.svg", "drawing2.svg", "drawing3.svg"}, names)
}

func TestPipeline_StorageFailureKeepsStrokeForRetry(t *testing.T) {
	fx := newFixture(t, 1)
	fx.store.fail = errors.New("read-only file system")

	fx.tick(t, held(at(0, 0)))
	fx.tick(t, held(at(5, 0)))
	before := fx.session.Points()

	done, err := fx.pipeline.Tick(released())
	require.Error(t, err)
	assert.Nil(t, done)
	assert.Contains(t, err.Error(), "read-only file system")
	assert.True(t, fx.pipeline.Pending())
	assert.Equal(t, before, fx.session.Points())
	assert.Equal(t, uint64(0), fx.session.Counter())
	assert.Empty(t, fx.placer.placed)
	assert.Equal(t, 1, fx.preview.Len(), "the kept stroke stays visible")

	// presses while pending do not extend the failed stroke
	fx.pipeline.Tick(held(at(50, 50)))
	assert.Equal(t, before, fx.session.Points())

	fx.store.fail = nil
	done = fx.tick(t, released())
	require.NotNil(t, done)
	assert.False(t, fx.pipeline.Pending())
	assert.Equal(t, before, done.Points)
	assert.Equal(t, uint64(1), fx.session.Counter())
}

func TestPipeline_PlacementFailureRollsBackDocument(t *testing.T) {
	fx := newFixture(t, 1)
	fx.placer.err = errors.New("renderer gone")

	fx.tick(t, held(at(0, 0)))
	fx.tick(t, held(at(0, 3)))
	_, err := fx.pipeline.Tick(released())
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(fx.dir, "drawing0.svg"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	assert.True(t, fx.session.HasActiveStroke())

	fx.placer.err = nil
	done, err := fx.pipeline.Retry()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), done.Index)
	assert.FileExists(t, done.Path)
}

func TestPipeline_RetryWithoutStroke(t *testing.T) {
	fx := newFixture(t, 1)
	_, err := fx.pipeline.Retry()
	assert.ErrorIs(t, err, state.ErrEmptyStroke)
}

func TestPipeline_PreviewProjectsThroughCamera(t *testing.T) {
	fx := newFixture(t, 100)
	cam := view.NewCamera()
	cam.Position = state.Pt(30, 40)

	p1 := fyne.NewPos(100, 100)
	p2 := fyne.NewPos(150, 100)
	for _, p := range []*fyne.Position{&p1, &p2} {
		fx.tick(t, Frame{Pressed: true, Pointer: p, Viewport: viewport, ViewToWorld: cam.ViewToWorld()})
	}
	assert.Equal(t, state.Pt(30, 40), fx.session.Points()[0])

	objs := fx.preview.Objects()
	require.Len(t, objs, 1)
}

func TestFinalizer_HooksRunAfterReset(t *testing.T) {
	fx := newFixture(t, 1)
	var seen []FinalizedStroke
	fx.final.OnFinalized(func(fs FinalizedStroke) {
		assert.False(t, fx.session.HasActiveStroke())
		seen = append(seen, fs)
	})
	fx.final.SetStrokeColor("red")

	fx.tick(t, held(at(1, 1)))
	fx.tick(t, released())

	require.Len(t, seen, 1)
	assert.Equal(t, "red", seen[0].Color)
	assert.Equal(t, "red", seen[0].Document.Path.Stroke)
	assert.Equal(t, state.StrokeID(state.SiteID(), 0), seen[0].ID)
}

func TestFinalizer_StaleIndexIsReported(t *testing.T) {
	fx := newFixture(t, 1)
	hooks := 0
	fx.final.OnFinalized(func(FinalizedStroke) { hooks++ })
	fx.placer.onPlace = func() { fx.session.Reset(0) }

	fx.tick(t, held(at(1, 1)))
	done, err := fx.pipeline.Tick(released())
	assert.ErrorIs(t, err, state.ErrStaleStroke)
	assert.Nil(t, done)
	assert.Zero(t, hooks)
	assert.False(t, fx.pipeline.Pending())
	assert.Equal(t, uint64(1), fx.session.Counter())

	fx.placer.onPlace = nil
	fx.tick(t, held(at(2, 2)))
	assert.True(t, fx.session.HasActiveStroke())
}
