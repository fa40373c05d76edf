package tui

import (
	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

// Selector tracks which perspective of a result bundle is on screen. It is
// local UI state and never touches the controller.
type Selector struct {
	available []hats.Perspective
	cur       int
}

// NewSelector selects the first present perspective in canonical order.
func NewSelector(b *session.ResultBundle) Selector {
	return Selector{available: b.Available()}
}

// Available returns the selectable perspectives in canonical order.
func (s Selector) Available() []hats.Perspective { return s.available }

// Degraded reports that the bundle has no perspective to show.
func (s Selector) Degraded() bool { return len(s.available) == 0 }

// Selected returns the current perspective, or false when degraded.
func (s Selector) Selected() (hats.Perspective, bool) {
	if s.Degraded() {
		return "", false
	}
	return s.available[s.cur], true
}

// Next moves to the following perspective, wrapping around.
func (s *Selector) Next() {
	if n := len(s.available); n > 0 {
		s.cur = (s.cur + 1) % n
	}
}

// Prev moves to the preceding perspective, wrapping around.
func (s *Selector) Prev() {
	if n := len(s.available); n > 0 {
		s.cur = (s.cur - 1 + n) % n
	}
}

// Select jumps to p. It reports false and keeps the selection when p is not
// present.
func (s *Selector) Select(p hats.Perspective) bool {
	for i, a := range s.available {
		if a == p {
			s.cur = i
			return true
		}
	}
	return false
}

// SelectIndex jumps to the i-th present perspective (zero-based).
func (s *Selector) SelectIndex(i int) bool {
	if i < 0 || i >= len(s.available) {
		return false
	}
	s.cur = i
	return true
}
