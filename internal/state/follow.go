package state

import (
	"errors"
	"fmt"
)

var ErrInvalidSpeed = errors.New("follow speed must be positive")

// FollowConfig controls how fast committed points chase the pointer.
type FollowConfig struct {
	// Speed is the distance, in world units, covered by every committed step.
	Speed float64 `mapstructure:"speed"`
}

func (c FollowConfig) Validate() error {
	if !(c.Speed > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, c.Speed)
	}
	return nil
}

// Follow returns the next committed point for a stroke whose previous
// committed point is last and whose pointer currently sits at target.
//
// The first point of a stroke (last == nil) is taken as is. After that every
// call advances exactly speed units toward target, even when target is closer
// than that, so fast motion lags behind the cursor and tiny motion overshoots.
// A stationary pointer produces no movement.
func Follow(last *Point, target Point, speed float64) Point {
	if last == nil {
		return target
	}
	dir := target.Sub(*last)
	if dir.Len() == 0 {
		return *last
	}
	return last.Add(dir.Normalize().Mul(speed))
}
