package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unit = Viewport{Width: 100, Height: 100}

func record(r *Recorder, pts ...Point) (Stroke, bool) {
	r.Down(PointerEvent{X: pts[0].X, Y: pts[0].Y}, unit, 100, 100)
	for _, p := range pts[1:] {
		r.Move(PointerEvent{X: p.X, Y: p.Y}, unit, 100, 100)
	}
	return r.Up(PointerEvent{})
}

func TestRecorderCommitsInSamplingOrder(t *testing.T) {
	r := NewRecorder()
	pts := []Point{{10, 10}, {20, 20}, {30, 10}}

	s, ok := record(r, pts...)
	require.True(t, ok)
	assert.Equal(t, pts, s.Points)
	assert.Equal(t, ToolPen, s.Tool)
	assert.NotEmpty(t, s.ID)
	assert.False(t, r.Active())
	assert.Nil(t, r.Current())
}

func TestRecorderDropsTaps(t *testing.T) {
	r := NewRecorder()
	r.Down(PointerEvent{X: 5, Y: 5}, unit, 100, 100)
	_, ok := r.Up(PointerEvent{})
	assert.False(t, ok)

	r.Down(PointerEvent{X: 5, Y: 5}, unit, 100, 100)
	_, ok = r.Leave(PointerEvent{})
	assert.False(t, ok)

	r.Down(PointerEvent{X: 5, Y: 5}, unit, 100, 100)
	_, ok = r.Cancel(PointerEvent{})
	assert.False(t, ok)
}

func TestRecorderEndsOnLeaveAndCancel(t *testing.T) {
	r := NewRecorder()
	r.Down(PointerEvent{X: 1, Y: 1}, unit, 100, 100)
	r.Move(PointerEvent{X: 2, Y: 2}, unit, 100, 100)
	s, ok := r.Leave(PointerEvent{})
	require.True(t, ok)
	assert.Len(t, s.Points, 2)

	r.Down(PointerEvent{X: 1, Y: 1}, unit, 100, 100)
	r.Move(PointerEvent{X: 3, Y: 3}, unit, 100, 100)
	_, ok = r.Cancel(PointerEvent{})
	assert.True(t, ok)
}

func TestRecorderSamplesFirstPointerOnly(t *testing.T) {
	r := NewRecorder()
	r.Down(PointerEvent{PointerID: 1, X: 0, Y: 0}, unit, 100, 100)
	r.Down(PointerEvent{PointerID: 2, X: 50, Y: 50}, unit, 100, 100)
	assert.False(t, r.Move(PointerEvent{PointerID: 2, X: 60, Y: 60}, unit, 100, 100))
	assert.True(t, r.Move(PointerEvent{PointerID: 1, X: 10, Y: 0}, unit, 100, 100))

	_, ok := r.Up(PointerEvent{PointerID: 2})
	assert.False(t, ok)
	assert.True(t, r.Active())

	s, ok := r.Up(PointerEvent{PointerID: 1})
	require.True(t, ok)
	assert.Equal(t, []Point{{0, 0}, {10, 0}}, s.Points)
}

func TestRecorderMoveWithoutDownIsIgnored(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.Move(PointerEvent{X: 1, Y: 1}, unit, 100, 100))
	assert.Nil(t, r.Current())
}

func TestRecorderCarriesTool(t *testing.T) {
	r := NewRecorder()
	r.SetTool(ToolEraser)
	s, ok := record(r, Point{0, 0}, Point{5, 5})
	require.True(t, ok)
	assert.Equal(t, ToolEraser, s.Tool)
}

func TestViewportToCanvas(t *testing.T) {
	tests := []struct {
		name string
		vp   Viewport
		x, y float64
		w, h int
		want Point
	}{
		{"identity", Viewport{Width: 200, Height: 100}, 20, 10, 200, 100, Point{20, 10}},
		{"offset", Viewport{Left: 10, Top: 5, Width: 200, Height: 100}, 20, 10, 200, 100, Point{10, 5}},
		{"css scaled down", Viewport{Width: 100, Height: 50}, 20, 10, 200, 100, Point{40, 20}},
		{"hidpi", Viewport{Width: 400, Height: 200}, 40, 20, 200, 100, Point{20, 10}},
		{"zero rect", Viewport{}, 7, 9, 200, 100, Point{7, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.vp.ToCanvas(tt.x, tt.y, tt.w, tt.h))
		})
	}
}

func TestBoardCommitOrderAndClear(t *testing.T) {
	b := NewBoard()
	assert.True(t, b.Commit(Stroke{ID: "a", Points: []Point{{0, 0}, {1, 1}}}))
	assert.True(t, b.Commit(Stroke{ID: "b", Points: []Point{{2, 2}, {3, 3}}}))
	assert.False(t, b.Commit(Stroke{ID: "a", Points: []Point{{0, 0}, {1, 1}}}))
	assert.False(t, b.Commit(Stroke{ID: "c", Points: []Point{{0, 0}}}))

	got := b.Strokes()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	got[0].Points[0] = Point{99, 99}
	assert.Equal(t, Point{0, 0}, b.Strokes()[0].Points[0])

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.Commit(Stroke{ID: "a", Points: []Point{{0, 0}, {1, 1}}}))
}

func TestBounds(t *testing.T) {
	assert.True(t, Bounds(nil, 10).Empty())

	r := Bounds([]Stroke{
		{Points: []Point{{10, 10}, {20, 30}}},
		{Points: []Point{{50, 5}, {40, 15}}},
	}, 5)
	assert.Equal(t, Rect{X: 5, Y: 0, Width: 50, Height: 35}, r)

	assert.Equal(t, Rect{X: 0, Y: 0, Width: 30, Height: 20}, Rect{X: -10, Y: -10, Width: 40, Height: 30}.Clamp(100, 100))
	assert.True(t, Rect{X: 200, Y: 200, Width: 10, Height: 10}.Clamp(100, 100).Empty())
}

func TestPageStore(t *testing.T) {
	ps := NewPageStore()
	require.Equal(t, 1, ps.Len())
	assert.Equal(t, Page{ID: 1, Label: "Page 1"}, ps.Active())

	p2 := ps.Add()
	p3 := ps.Add()
	assert.Equal(t, 3, p3.ID)
	assert.Equal(t, p3, ps.Active())
	assert.Equal(t, 3, ps.Number())

	require.NoError(t, ps.Switch(p2.ID))
	assert.Equal(t, 2, ps.Number())
	assert.ErrorIs(t, ps.Switch(42), ErrPageNotFound)

	removed, ok := ps.Delete()
	require.True(t, ok)
	assert.Equal(t, p2, removed)
	assert.Equal(t, 1, ps.Active().ID)

	p4 := ps.Add()
	assert.Equal(t, 4, p4.ID, "ids are never reused")
}

func TestPageStoreDeleteFirstAndLast(t *testing.T) {
	ps := NewPageStore()
	ps.Add()
	require.NoError(t, ps.Switch(1))
	_, ok := ps.Delete()
	require.True(t, ok)
	assert.Equal(t, 2, ps.Active().ID)
	assert.Equal(t, 1, ps.Number())

	_, ok = ps.Delete()
	assert.False(t, ok)
	assert.Equal(t, 1, ps.Len())
}

func TestParseTool(t *testing.T) {
	tool, err := ParseTool(" Eraser ")
	require.NoError(t, err)
	assert.Equal(t, ToolEraser, tool)
	_, err = ParseTool("brush")
	assert.Error(t, err)
}

func TestEmitterStampsAndUnsubscribes(t *testing.T) {
	e := NewEmitter()
	var got []Op
	cancel := e.Subscribe(func(op Op) { got = append(got, op) })

	e.Emit(Op{Type: OpClear})
	e.Emit(Op{Type: OpPage, PageID: 2})
	cancel()
	e.Emit(Op{Type: OpClear})

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Lamport)
	assert.Equal(t, uint64(2), got[1].Lamport)
	assert.Equal(t, e.Site(), got[0].Site)
}
