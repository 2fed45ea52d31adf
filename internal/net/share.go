package net

import (
	"fmt"
	"strings"
	"sync"

	"FreehandBoard/internal/draw"
	"FreehandBoard/internal/export"
	"FreehandBoard/internal/state"

	"github.com/rs/zerolog"
)

// Display is the host capability to show and hide placed documents.
type Display interface {
	draw.Placer
	Unplace(ids ...string)
}

// Sharer keeps the board registry in step with local and remote strokes.
// Local strokes arrive through Publish (wired to the finalizer), remote ones
// through Receive (wired to the hub or client).
type Sharer struct {
	owner   string
	board   *state.Board
	remote  draw.DocumentStore
	display Display
	log     zerolog.Logger

	mu   sync.RWMutex
	send func(Message) error
}

// NewSharer creates a sharer for owner. Remote documents are written to
// remote; send may be nil while offline.
func NewSharer(owner string, board *state.Board, remote draw.DocumentStore, display Display, log zerolog.Logger) *Sharer {
	return &Sharer{
		owner:   owner,
		board:   board,
		remote:  remote,
		display: display,
		log:     log.With().Str("component", "share").Logger(),
	}
}

// SetSender sets how messages reach the other peers.
func (s *Sharer) SetSender(send func(Message) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

// SetOwner changes the owner ID, used by clients once they know their
// address. Strokes already recorded under the old ID move to the new one so
// Clear still reaches them.
func (s *Sharer) SetOwner(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner == s.owner {
		return
	}
	if n := s.board.Reassign(s.owner, owner); n > 0 {
		s.log.Info().Str("from", s.owner).Str("to", owner).Int("strokes", n).Msg("strokes reassigned")
	}
	s.owner = owner
}

func (s *Sharer) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Publish records a locally finalized stroke and sends it to the peers.
func (s *Sharer) Publish(fs draw.FinalizedStroke) {
	owner := s.Owner()
	s.board.Add(state.PlacedStroke{
		ID:       fs.ID,
		OwnerID:  owner,
		Index:    fs.Index,
		Document: fs.Path,
		Center:   fs.Box.Center(),
		Width:    fs.Box.Width(),
		Height:   fs.Box.Height(),
		Points:   fs.Points,
		Color:    fs.Color,
	})

	text, err := fs.Document.Encode()
	if err != nil {
		s.log.Error().Err(err).Str("id", fs.ID).Msg("stroke not shared")
		return
	}
	s.emit(Message{
		Type: TypeStroke,
		Stroke: &StrokePayload{
			ID:       fs.ID,
			OwnerID:  owner,
			Index:    fs.Index,
			Center:   fs.Box.Center(),
			Width:    fs.Box.Width(),
			Height:   fs.Box.Height(),
			Color:    fs.Color,
			Points:   fs.Points,
			Document: text,
		},
	})
}

// Clear removes this peer's strokes everywhere.
func (s *Sharer) Clear() {
	owner := s.Owner()
	s.clear(owner)
	s.emit(Message{Type: TypeClear, OwnerID: owner})
}

// Receive applies a message from another peer.
func (s *Sharer) Receive(msg Message) {
	switch msg.Type {
	case TypeStroke:
		if msg.Stroke == nil {
			s.log.Warn().Msg("stroke message without payload")
			return
		}
		if err := s.placeRemote(*msg.Stroke); err != nil {
			s.log.Warn().Err(err).Str("id", msg.Stroke.ID).Msg("could not place remote stroke")
		}
	case TypeClear:
		s.clear(msg.OwnerID)
	default:
		s.log.Warn().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (s *Sharer) placeRemote(p StrokePayload) error {
	if p.OwnerID == s.Owner() {
		return nil
	}
	if _, _, err := state.ParseStrokeID(p.ID); err != nil {
		return err
	}
	doc, err := export.ParseDocument(strings.NewReader(p.Document))
	if err != nil {
		return err
	}
	w, h, err := doc.Size()
	if err != nil {
		return err
	}

	placed := state.PlacedStroke{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		Index:   p.Index,
		Center:  p.Center,
		Width:   w,
		Height:  h,
		Points:  p.Points,
		Color:   p.Color,
	}
	if !s.board.Add(placed) {
		return nil
	}

	path, err := s.remote.Save(p.ID+".svg", doc)
	if err != nil {
		s.board.Remove(p.ID)
		return fmt.Errorf("save remote document: %w", err)
	}
	err = s.display.Place(draw.Placement{
		ID:       p.ID,
		Index:    p.Index,
		Document: path,
		Center:   p.Center,
		Width:    w,
		Height:   h,
	})
	if err != nil {
		s.board.Remove(p.ID)
		_ = s.remote.Remove(path)
		return fmt.Errorf("place remote document: %w", err)
	}
	s.log.Info().Str("id", p.ID).Str("owner", p.OwnerID).Msg("remote stroke placed")
	return nil
}

func (s *Sharer) clear(owner string) {
	removed := s.board.ClearOwner(owner)
	if len(removed) > 0 {
		s.display.Unplace(removed...)
	}
	s.log.Info().Str("owner", owner).Int("removed", len(removed)).Msg("strokes cleared")
}

func (s *Sharer) emit(msg Message) {
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()
	if send == nil {
		return
	}
	if err := send(msg); err != nil {
		s.log.Warn().Err(err).Str("type", msg.Type).Msg("failed to share")
	}
}
