package state

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// siteID identifies this process among the peers sharing a board.
var siteID = uuid.NewString()

func SiteID() string { return siteID }

// StrokeID names a finalized stroke so that peers never collide: two processes
// both reaching stroke index 3 still produce distinct IDs.
func StrokeID(site string, index uint64) string {
	return fmt.Sprintf("stroke-%s-%d", site, index)
}

// ParseStrokeID splits an ID produced by StrokeID. Site IDs are UUIDs and
// never contain the final dash-separated segment.
func ParseStrokeID(id string) (site string, index uint64, err error) {
	const prefix = "stroke-"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return "", 0, fmt.Errorf("malformed stroke id %q", id)
	}
	rest := id[len(prefix):]
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '-' {
			if _, err := uuid.Parse(rest[:i]); err != nil {
				return "", 0, fmt.Errorf("malformed stroke id %q: %w", id, err)
			}
			index, err = strconv.ParseUint(rest[i+1:], 10, 64)
			if err != nil {
				return "", 0, fmt.Errorf("malformed stroke id %q: %w", id, err)
			}
			return rest[:i], index, nil
		}
	}
	return "", 0, fmt.Errorf("malformed stroke id %q", id)
}
