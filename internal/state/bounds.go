package state

import "math"

// Rect is an axis-aligned area on the canvas.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Clamp restricts r to a w x h surface.
func (r Rect) Clamp(w, h int) Rect {
	minX := math.Max(r.X, 0)
	minY := math.Max(r.Y, 0)
	maxX := math.Min(r.X+r.Width, float64(w))
	maxY := math.Min(r.Y+r.Height, float64(h))
	if maxX <= minX || maxY <= minY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Bounds returns the bounding box of all points in strokes grown by padding
// on every side. It is empty when strokes carry no points.
func Bounds(strokes []Stroke, padding float64) Rect {
	var out Rect
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		minX, minY := s.Points[0].X, s.Points[0].Y
		maxX, maxY := minX, minY
		for _, p := range s.Points[1:] {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
		out = out.Union(Rect{
			X:      minX - padding,
			Y:      minY - padding,
			Width:  maxX - minX + 2*padding,
			Height: maxY - minY + 2*padding,
		})
	}
	return out
}
