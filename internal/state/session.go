package state

import (
	"errors"
	"sync"
)

var ErrEmptyStroke = errors.New("stroke has no points")

// ErrStaleStroke is returned when a stroke index no longer matches the
// session counter.
var ErrStaleStroke = errors.New("stroke index is stale")

// StrokeSession is the record of the stroke currently being drawn. It lives
// for the whole process and is reused across strokes.
type StrokeSession struct {
	mu      sync.RWMutex
	points  []Point
	last    *Point
	counter uint64
	follow  FollowConfig
}

// NewStrokeSession creates an empty session whose first finalized stroke is
// numbered start.
func NewStrokeSession(cfg FollowConfig, start uint64) (*StrokeSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StrokeSession{follow: cfg, counter: start}, nil
}

// AppendTarget runs target through the follow filter and commits the result.
func (s *StrokeSession) AppendTarget(target Point) Point {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Follow(s.last, target, s.follow.Speed)
	s.points = append(s.points, next)
	s.last = &next
	return next
}

func (s *StrokeSession) HasActiveStroke() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points) > 0
}

// Points returns a copy of the committed points in capture order.
func (s *StrokeSession) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Last returns the most recently committed point, if any.
func (s *StrokeSession) Last() (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Point{}, false
	}
	return *s.last, true
}

// Counter is the index the next finalized stroke will be saved under.
func (s *StrokeSession) Counter() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter
}

// Snapshot returns the points and stroke index of the current stroke in one
// consistent read.
func (s *StrokeSession) Snapshot() ([]Point, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.points) == 0 {
		return nil, s.counter, ErrEmptyStroke
	}
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out, s.counter, nil
}

// Reset clears the stroke and moves the counter on to the next index. It is
// only called once the stroke identified by index has been fully finalized;
// a stale index leaves the session untouched.
func (s *StrokeSession) Reset(index uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index != s.counter {
		return false
	}
	s.points = nil
	s.last = nil
	s.counter++
	return true
}
