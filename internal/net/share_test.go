package net

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"FreehandBoard/internal/draw"
	"FreehandBoard/internal/export"
	"FreehandBoard/internal/state"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	mu        sync.Mutex
	placed    map[string]draw.Placement
	unplaced  []string
	failPlace error
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{placed: make(map[string]draw.Placement)}
}

func (d *fakeDisplay) Place(p draw.Placement) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPlace != nil {
		return d.failPlace
	}
	d.placed[p.ID] = p
	return nil
}

func (d *fakeDisplay) Unplace(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.placed, id)
	}
	d.unplaced = append(d.unplaced, ids...)
}

func finalized(t *testing.T, site string, index uint64, pts ...state.Point) draw.FinalizedStroke {
	t.Helper()
	doc, box, err := export.NewPathDocument(pts, "red")
	require.NoError(t, err)
	return draw.FinalizedStroke{
		ID:       state.StrokeID(site, index),
		Index:    index,
		Box:      box,
		Document: doc,
		Path:     "local/drawing.svg",
		Points:   pts,
		Color:    "red",
	}
}

func TestSharer_PublishRecordsAndSends(t *testing.T) {
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(t.TempDir()), newFakeDisplay(), zerolog.Nop())

	var sent []Message
	s.SetSender(func(m Message) error { sent = append(sent, m); return nil })

	fs := finalized(t, state.SiteID(), 0, state.Pt(0, 0), state.Pt(10, 0), state.Pt(10, 10))
	s.Publish(fs)

	require.Equal(t, 1, board.Len())
	assert.Equal(t, HostID, board.Strokes()[0].OwnerID)
	assert.Equal(t, state.Pt(5, 5), board.Strokes()[0].Center)

	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Stroke)
	assert.Equal(t, TypeStroke, sent[0].Type)
	assert.Equal(t, fs.Document.String(), sent[0].Stroke.Document)
	assert.Equal(t, state.Pt(5, 5), sent[0].Stroke.Center)
}

func TestSharer_PublishOffline(t *testing.T) {
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(t.TempDir()), newFakeDisplay(), zerolog.Nop())
	s.Publish(finalized(t, state.SiteID(), 0, state.Pt(1, 1)))
	assert.Equal(t, 1, board.Len())
}

func TestSharer_ReceivePlacesRemoteStroke(t *testing.T) {
	dir := t.TempDir()
	display := newFakeDisplay()
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(dir), display, zerolog.Nop())

	// a peer publishes; its payload is fed to our receiver
	peerBoard := state.NewBoard(zerolog.Nop())
	peer := NewSharer("10.0.0.2:5555", peerBoard, export.NewDirStore(t.TempDir()), newFakeDisplay(), zerolog.Nop())
	var wire []Message
	peer.SetSender(func(m Message) error { wire = append(wire, m); return nil })
	peerSite := "0b7c9d2e-31a4-4f7b-9a55-000000000001"
	peer.Publish(finalized(t, peerSite, 3, state.Pt(-4, 2), state.Pt(6, 8)))
	require.Len(t, wire, 1)

	s.Receive(wire[0])
	s.Receive(wire[0]) // duplicate delivery

	require.Equal(t, 1, board.Len())
	id := state.StrokeID(peerSite, 3)
	p, ok := display.placed[id]
	require.True(t, ok)
	assert.Equal(t, state.Pt(1, 5), p.Center)
	assert.Equal(t, 10.0, p.Width)
	assert.Equal(t, 6.0, p.Height)
	assert.Equal(t, filepath.Join(dir, id+".svg"), p.Document)

	raw, err := os.ReadFile(p.Document)
	require.NoError(t, err)
	assert.Equal(t, wire[0].Stroke.Document, string(raw))
}

func TestSharer_IgnoresOwnAndInvalidStrokes(t *testing.T) {
	display := newFakeDisplay()
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(t.TempDir()), display, zerolog.Nop())

	own := finalized(t, state.SiteID(), 0, state.Pt(0, 0), state.Pt(1, 1))
	s.Receive(Message{Type: TypeStroke, Stroke: &StrokePayload{ID: own.ID, OwnerID: HostID, Document: own.Document.String()}})
	s.Receive(Message{Type: TypeStroke, Stroke: &StrokePayload{ID: "../../etc/passwd", OwnerID: "peer", Document: own.Document.String()}})
	s.Receive(Message{Type: TypeStroke, Stroke: &StrokePayload{ID: own.ID, OwnerID: "peer", Document: "<svg"}})
	s.Receive(Message{Type: TypeStroke})
	s.Receive(Message{Type: "bogus"})

	assert.Zero(t, board.Len())
	assert.Empty(t, display.placed)
}

func TestSharer_FailedPlacementIsRolledBack(t *testing.T) {
	dir := t.TempDir()
	display := newFakeDisplay()
	display.failPlace = errors.New("no window")
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(dir), display, zerolog.Nop())

	fs := finalized(t, "0b7c9d2e-31a4-4f7b-9a55-000000000002", 1, state.Pt(0, 0), state.Pt(2, 2))
	s.Receive(Message{Type: TypeStroke, Stroke: &StrokePayload{ID: fs.ID, OwnerID: "peer", Document: fs.Document.String()}})

	assert.Zero(t, board.Len())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSharer_Clear(t *testing.T) {
	display := newFakeDisplay()
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(t.TempDir()), display, zerolog.Nop())
	var sent []Message
	s.SetSender(func(m Message) error { sent = append(sent, m); return nil })

	board.Add(state.PlacedStroke{ID: "mine", OwnerID: HostID})
	board.Add(state.PlacedStroke{ID: "theirs", OwnerID: "peer"})

	s.Receive(Message{Type: TypeClear, OwnerID: "peer"})
	assert.Equal(t, []string{"theirs"}, display.unplaced)
	assert.Equal(t, 1, board.Len())

	s.Clear()
	assert.Zero(t, board.Len())
	require.Len(t, sent, 1)
	assert.Equal(t, Message{Type: TypeClear, OwnerID: HostID}, sent[0])
}

func TestSharer_ClearReachesStrokesDrawnBeforeConnecting(t *testing.T) {
	display := newFakeDisplay()
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer("local", board, export.NewDirStore(t.TempDir()), display, zerolog.Nop())

	s.Publish(finalized(t, state.SiteID(), 0, state.Pt(0, 0), state.Pt(4, 4)))
	require.Equal(t, 1, board.Len())

	var sent []Message
	s.SetOwner("10.0.0.2:5555")
	s.SetSender(func(m Message) error { sent = append(sent, m); return nil })
	assert.Equal(t, "10.0.0.2:5555", board.Strokes()[0].OwnerID)

	s.Clear()
	assert.Zero(t, board.Len())
	assert.Len(t, display.unplaced, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "10.0.0.2:5555", sent[0].OwnerID)
}

func TestSharer_PublishSkipsUnencodableDocument(t *testing.T) {
	board := state.NewBoard(zerolog.Nop())
	s := NewSharer(HostID, board, export.NewDirStore(t.TempDir()), newFakeDisplay(), zerolog.Nop())
	var sent []Message
	s.SetSender(func(m Message) error { sent = append(sent, m); return nil })

	fs := finalized(t, state.SiteID(), 0, state.Pt(1, 1))
	fs.Document = nil
	s.Publish(fs)

	assert.Equal(t, 1, board.Len())
	assert.Empty(t, sent)
}
