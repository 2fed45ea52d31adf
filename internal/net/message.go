package net

import "FreehandBoard/internal/state"

const (
	TypeStroke = "stroke"
	TypeClear  = "clear"

	// HostID is the owner ID the hosting process draws under.
	HostID = "host"
)

// Message is the wire format shared between host and clients.
type Message struct {
	Type    string         `json:"type"`
	Stroke  *StrokePayload `json:"stroke,omitempty"`
	OwnerID string         `json:"owner_id,omitempty"` // used for "clear"
}

// StrokePayload carries one finalized stroke: its placement and the SVG
// document text, so the receiver can display it without re-finalizing.
type StrokePayload struct {
	ID       string        `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Index    uint64        `json:"index"`
	Center   state.Point   `json:"center"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Color    string        `json:"color"`
	Points   []state.Point `json:"points"`
	Document string        `json:"document"`
}
