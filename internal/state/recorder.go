package state

import (
	"time"

	"github.com/google/uuid"
)

// Viewport is the on-screen rectangle the drawing surface is displayed in.
type Viewport struct {
	Left, Top     float64
	Width, Height float64
}

// PointerEvent is one pointer sample in viewport coordinates.
type PointerEvent struct {
	PointerID int
	X, Y      float64
}

// ToCanvas converts a viewport position to surface pixels. The surface may
// be displayed scaled, so the ratio of pixel size to displayed size is applied.
func (v Viewport) ToCanvas(x, y float64, surfaceW, surfaceH int) Point {
	sx, sy := 1.0, 1.0
	if v.Width > 0 {
		sx = float64(surfaceW) / v.Width
	}
	if v.Height > 0 {
		sy = float64(surfaceH) / v.Height
	}
	return Point{X: (x - v.Left) * sx, Y: (y - v.Top) * sy}
}

// Recorder turns pointer events into strokes. One sequence is active at a time.
type Recorder struct {
	tool    Tool
	active  bool
	pointer int
	points  []Point
	now     func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{tool: ToolPen, now: time.Now}
}

func (r *Recorder) SetTool(t Tool) { r.tool = t }

func (r *Recorder) Tool() Tool { return r.tool }

// Active reports whether a sequence is in progress.
func (r *Recorder) Active() bool { return r.active }

// Down starts a sequence seeded with the down position. It is ignored while
// another pointer already owns the active sequence.
func (r *Recorder) Down(ev PointerEvent, vp Viewport, surfaceW, surfaceH int) {
	if r.active {
		return
	}
	r.active = true
	r.pointer = ev.PointerID
	r.points = []Point{vp.ToCanvas(ev.X, ev.Y, surfaceW, surfaceH)}
}

// Move appends a sample to the active sequence.
func (r *Recorder) Move(ev PointerEvent, vp Viewport, surfaceW, surfaceH int) bool {
	if !r.active || ev.PointerID != r.pointer {
		return false
	}
	r.points = append(r.points, vp.ToCanvas(ev.X, ev.Y, surfaceW, surfaceH))
	return true
}

// Up ends the active sequence. A sequence with fewer than MinStrokePoints
// samples is a tap and returns ok=false.
func (r *Recorder) Up(ev PointerEvent) (Stroke, bool) {
	if !r.active || ev.PointerID != r.pointer {
		return Stroke{}, false
	}
	points := r.points
	r.reset()
	if len(points) < MinStrokePoints {
		return Stroke{}, false
	}
	return Stroke{
		ID:        uuid.NewString(),
		Tool:      r.tool,
		Points:    points,
		CreatedAt: r.now(),
	}, true
}

// Leave and Cancel end the sequence exactly like Up.
func (r *Recorder) Leave(ev PointerEvent) (Stroke, bool)  { return r.Up(ev) }
func (r *Recorder) Cancel(ev PointerEvent) (Stroke, bool) { return r.Up(ev) }

// Current returns a copy of the in-progress samples, or nil when idle.
func (r *Recorder) Current() []Point {
	if !r.active {
		return nil
	}
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// Discard drops the in-progress sequence without committing it.
func (r *Recorder) Discard() { r.reset() }

func (r *Recorder) reset() {
	r.active = false
	r.pointer = 0
	r.points = nil
}
