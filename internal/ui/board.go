package ui

import (
	"fmt"
	"image/color"
	"os"
	"sort"
	"sync"
	"time"

	"FreehandBoard/internal/draw"
	"FreehandBoard/internal/preview"
	"FreehandBoard/internal/state"
	"FreehandBoard/internal/view"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

type edge int

const (
	edgeDown edge = iota
	edgeUp
)

// placedImage is a saved stroke document shown at its drawing-space centre.
type placedImage struct {
	img    *canvas.Image
	center state.Point
	width  float64
	height float64
	seq    int
}

// BoardOptions configures a BoardWidget.
type BoardOptions struct {
	Preview          *preview.Renderer
	Background       color.Color
	TranslationSpeed float64
	FrameRate        int
	Log              zerolog.Logger
}

// BoardWidget is the drawing surface. It samples mouse and keyboard input,
// feeds one frame per tick into the pipeline and displays the preview and the
// placed strokes.
type BoardWidget struct {
	widget.BaseWidget

	opts     BoardOptions
	pipeline *draw.Pipeline
	camera   *view.Camera
	log      zerolog.Logger

	mu      sync.Mutex
	pointer *fyne.Position
	edges   []edge
	held    bool
	keys    map[fyne.KeyName]bool
	placed  map[string]*placedImage
	nextSeq int

	stop     chan struct{}
	statusFn func(string)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ draw.Placer = (*BoardWidget)(nil)

func NewBoardWidget(opts BoardOptions) *BoardWidget {
	if opts.Background == nil {
		opts.Background = color.NRGBA{R: 30, G: 30, B: 34, A: 255}
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	b := &BoardWidget{
		opts:   opts,
		camera: view.NewCamera(),
		log:    opts.Log.With().Str("component", "board").Logger(),
		keys:   make(map[fyne.KeyName]bool),
		placed: make(map[string]*placedImage),
	}
	b.ExtendBaseWidget(b)
	return b
}

// SetPipeline attaches the pipeline driven by Start.
func (b *BoardWidget) SetPipeline(p *draw.Pipeline) {
	b.pipeline = p
}

// Start runs the frame loop until Stop.
func (b *BoardWidget) Start() {
	if b.stop != nil {
		return
	}
	b.stop = make(chan struct{})
	interval := time.Second / time.Duration(b.opts.FrameRate)
	go func(stop <-chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				fyne.Do(func() { b.step(dt) })
			}
		}
	}(b.stop)
}

func (b *BoardWidget) Stop() {
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
}

// frame builds the pipeline input for this tick. At most one button edge is
// consumed per frame, so a press and release landing between two ticks still
// capture a point before finalizing.
func (b *BoardWidget) frame() draw.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := draw.Frame{
		Viewport:    b.Size(),
		ViewToWorld: b.camera.ViewToWorld(),
	}
	if b.pointer != nil {
		p := *b.pointer
		f.Pointer = &p
	}

	if len(b.edges) > 0 {
		e := b.edges[0]
		b.edges = b.edges[1:]
		switch e {
		case edgeDown:
			b.held = true
		case edgeUp:
			b.held = false
			f.Released = true
		}
	}
	f.Pressed = b.held
	return f
}

func (b *BoardWidget) step(dt float64) {
	if b.pipeline == nil {
		return
	}
	b.pan(dt)

	done, err := b.pipeline.Tick(b.frame())
	switch {
	case err != nil:
		b.status(fmt.Sprintf("Could not save stroke, release again to retry: %v", err))
	case done != nil:
		b.status(fmt.Sprintf("Saved %s", done.Path))
	}
	b.Refresh()
}

func (b *BoardWidget) pan(dt float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var dir view.Direction
	if b.keys[fyne.KeyW] {
		dir.Y++
	}
	if b.keys[fyne.KeyS] {
		dir.Y--
	}
	if b.keys[fyne.KeyA] {
		dir.X--
	}
	if b.keys[fyne.KeyD] {
		dir.X++
	}
	if dir != (view.Direction{}) {
		b.camera.Pan(dir, b.opts.TranslationSpeed, dt)
	}
}

// SetStatusHandler sets where status messages go.
func (b *BoardWidget) SetStatusHandler(fn func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusFn = fn
}

// SetStatus reports text to the user. Safe from any goroutine.
func (b *BoardWidget) SetStatus(text string) {
	b.mu.Lock()
	fn := b.statusFn
	b.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

func (b *BoardWidget) status(text string) { b.SetStatus(text) }

// Place shows the document at p.Document centred on p.Center. It is safe to
// call from any goroutine.
func (b *BoardWidget) Place(p draw.Placement) error {
	if _, err := os.Stat(p.Document); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	img := canvas.NewImageFromFile(p.Document)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleSmooth

	b.mu.Lock()
	b.placed[p.ID] = &placedImage{img: img, center: p.Center, width: p.Width, height: p.Height, seq: b.nextSeq}
	b.nextSeq++
	b.mu.Unlock()

	fyne.Do(b.Refresh)
	return nil
}

// Unplace removes placed documents from the board.
func (b *BoardWidget) Unplace(ids ...string) {
	b.mu.Lock()
	for _, id := range ids {
		delete(b.placed, id)
	}
	b.mu.Unlock()
	fyne.Do(b.Refresh)
}

// Placed returns the number of documents on the board.
func (b *BoardWidget) Placed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.placed)
}

// ResetView moves the camera back to the origin at zoom 1.
func (b *BoardWidget) ResetView() {
	b.mu.Lock()
	b.camera.Position = state.Point{}
	b.camera.Zoom = 1
	b.mu.Unlock()
	b.Refresh()
}

// Retry re-runs a finalize that failed.
func (b *BoardWidget) Retry() {
	if b.pipeline == nil || !b.pipeline.Pending() {
		return
	}
	if done, err := b.pipeline.Retry(); err != nil {
		b.status(fmt.Sprintf("Retry failed: %v", err))
	} else if done != nil {
		b.status(fmt.Sprintf("Saved %s", done.Path))
	}
	b.Refresh()
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	pos := e.Position
	b.pointer = &pos
	b.edges = append(b.edges, edgeDown)
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.release()
}

func (b *BoardWidget) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	// already released, or a drag end following MouseUp
	if n := len(b.edges); (n == 0 && !b.held) || (n > 0 && b.edges[n-1] == edgeUp) {
		return
	}
	b.edges = append(b.edges, edgeUp)
}

func (b *BoardWidget) MouseIn(e *desktop.MouseEvent) { b.setPointer(&e.Position) }

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) { b.setPointer(&e.Position) }

func (b *BoardWidget) MouseOut() { b.setPointer(nil) }

func (b *BoardWidget) Dragged(e *fyne.DragEvent) { b.setPointer(&e.Position) }

func (b *BoardWidget) DragEnd() { b.release() }

func (b *BoardWidget) setPointer(p *fyne.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		b.pointer = nil
		return
	}
	pos := *p
	b.pointer = &pos
}

// Scrolled zooms the camera.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.mu.Lock()
	if e.Scrolled.DY > 0 {
		b.camera.Zoom *= 1.2
	} else if e.Scrolled.DY < 0 {
		b.camera.Zoom /= 1.2
	}
	if b.camera.Zoom > 3 {
		b.camera.Zoom = 3
	}
	if b.camera.Zoom < 0.3 {
		b.camera.Zoom = 0.3
	}
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) KeyDown(e *fyne.KeyEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[e.Name] = true
}

func (b *BoardWidget) KeyUp(e *fyne.KeyEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.keys, e.Name)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{
		board:      b,
		background: canvas.NewRectangle(b.opts.Background),
	}
}

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

// layoutPlaced positions every placed document for the current camera and
// returns them in placement order.
func (r *boardRenderer) layoutPlaced() []fyne.CanvasObject {
	b := r.board
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.Size()
	worldToView := b.camera.WorldToView()
	zoom := b.camera.Zoom

	images := make([]*placedImage, 0, len(b.placed))
	for _, p := range b.placed {
		images = append(images, p)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].seq < images[j].seq })

	objects := make([]fyne.CanvasObject, 0, len(images))
	for _, p := range images {
		c := view.Project(p.center, size, worldToView)
		s := fyne.NewSize(float32(p.width*zoom), float32(p.height*zoom))
		p.img.Resize(s)
		p.img.Move(fyne.NewPos(c.X-s.Width/2, c.Y-s.Height/2))
		objects = append(objects, p.img)
	}
	return objects
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	objects := []fyne.CanvasObject{r.background}
	objects = append(objects, r.layoutPlaced()...)
	if r.board.opts.Preview != nil {
		objects = append(objects, r.board.opts.Preview.Objects()...)
	}
	return objects
}

func (r *boardRenderer) Refresh() {
	r.layoutPlaced()
	canvas.Refresh(r.board)
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.layoutPlaced()
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Destroy() {}
