package state

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PlacedStroke is a finalized stroke whose document is shown on the board.
type PlacedStroke struct {
	ID       string
	OwnerID  string
	Index    uint64
	Document string // path of the SVG file on disk
	Center   Point
	Width    float64
	Height   float64
	Points   []Point
	Color    string
	PlacedAt time.Time
}

// Board is the set of placed strokes, local and remote, keyed by stroke ID.
// Insertion order is kept so exports stack strokes the way they were drawn.
type Board struct {
	mu      sync.RWMutex
	strokes map[string]PlacedStroke
	order   []string
	log     zerolog.Logger
}

func NewBoard(log zerolog.Logger) *Board {
	return &Board{
		strokes: make(map[string]PlacedStroke),
		log:     log.With().Str("component", "board").Logger(),
	}
}

// Add records s and reports whether it was new. Duplicates (a peer echoing
// our own stroke back, or a rebroadcast) are ignored.
func (b *Board) Add(s PlacedStroke) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.strokes[s.ID]; exists {
		b.log.Debug().Str("id", s.ID).Msg("stroke already placed, ignoring")
		return false
	}
	if s.PlacedAt.IsZero() {
		s.PlacedAt = time.Now()
	}
	b.strokes[s.ID] = s
	b.order = append(b.order, s.ID)
	b.log.Debug().Str("id", s.ID).Str("owner", s.OwnerID).Msg("stroke placed")
	return true
}

// Remove drops one stroke.
func (b *Board) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.strokes[id]; !exists {
		return false
	}
	delete(b.strokes, id)
	b.order = deleteID(b.order, id)
	return true
}

// ClearAll is the owner ID that clears every owner's strokes.
const ClearAll = "all"

// ClearOwner removes every stroke owned by ownerID, or all strokes when
// ownerID is ClearAll. It returns the removed IDs.
func (b *Board) ClearOwner(ownerID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var removed []string
	kept := b.order[:0]
	for _, id := range b.order {
		if ownerID == ClearAll || b.strokes[id].OwnerID == ownerID {
			removed = append(removed, id)
			delete(b.strokes, id)
			continue
		}
		kept = append(kept, id)
	}
	b.order = kept
	return removed
}

// Reassign moves every stroke owned by from over to to and returns how many
// moved.
func (b *Board) Reassign(from, to string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for id, s := range b.strokes {
		if s.OwnerID != from {
			continue
		}
		s.OwnerID = to
		b.strokes[id] = s
		n++
	}
	return n
}

// Strokes returns the placed strokes in placement order.
func (b *Board) Strokes() []PlacedStroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]PlacedStroke, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.strokes[id])
	}
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

func deleteID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
