package state

import (
	"log/slog"
	"sync"
)

// Board holds the committed strokes of the resident page in recording order.
type Board struct {
	strokes []Stroke
	ids     map[string]struct{}
	mu      sync.RWMutex
}

func NewBoard() *Board {
	return &Board{ids: make(map[string]struct{})}
}

// Commit appends s and returns false if a stroke with the same ID, or with
// too few points, was offered.
func (b *Board) Commit(s Stroke) bool {
	if len(s.Points) < MinStrokePoints {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.ids[s.ID]; exists {
		slog.Debug("stroke already committed, ignoring", "stroke", s.ID)
		return false
	}
	pts := make([]Point, len(s.Points))
	copy(pts, s.Points)
	s.Points = pts

	b.strokes = append(b.strokes, s)
	b.ids[s.ID] = struct{}{}
	return true
}

// Strokes returns a copy of the committed strokes.
func (b *Board) Strokes() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Stroke, len(b.strokes))
	copy(out, b.strokes)
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.strokes)
}

func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strokes = nil
	b.ids = make(map[string]struct{})
}
