package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/notebook"
	"InkBoard/internal/state"
)

// BoardWidget shows the session's drawing surface and feeds it pointer input.
// The surface follows the widget's pixel size; stroke coordinates are scaled
// from widget units to surface pixels by the session's viewport.
type BoardWidget struct {
	widget.BaseWidget
	session  *notebook.Session
	raster   *canvas.Raster
	readOnly bool
	drawing  bool

	// OnStroke runs after a stroke gesture ends.
	OnStroke func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(s *notebook.Session, readOnly bool) *BoardWidget {
	b := &BoardWidget{session: s, readOnly: readOnly}
	b.raster = canvas.NewRaster(b.generate)
	b.ExtendBaseWidget(b)
	return b
}

// generate runs on the render goroutine with the raster's pixel size.
func (b *BoardWidget) generate(w, h int) image.Image {
	if w > 0 && h > 0 {
		if err := b.session.Resize(w, h); err != nil {
			fyne.LogError("resize surface", err)
		}
	}
	return b.session.Frame()
}

func (b *BoardWidget) syncViewport() {
	size := b.Size()
	b.session.SetViewport(state.Viewport{Width: float64(size.Width), Height: float64(size.Height)})
}

func pointer(pos fyne.Position) state.PointerEvent {
	return state.PointerEvent{X: float64(pos.X), Y: float64(pos.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if b.readOnly || e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.syncViewport()
	b.drawing = true
	b.session.PointerDown(pointer(e.Position))
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.drawing {
		return
	}
	b.session.PointerMove(pointer(e.Position))
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	b.end(func() { b.session.PointerUp(pointer(e.Position)) })
}

func (b *BoardWidget) DragEnd() {
	b.end(func() { b.session.PointerUp(state.PointerEvent{}) })
}

// MouseOut commits the stroke in progress, like lifting the pen.
func (b *BoardWidget) MouseOut() {
	b.end(func() { b.session.PointerLeave(state.PointerEvent{}) })
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) end(finish func()) {
	if !b.drawing {
		return
	}
	b.drawing = false
	finish()
	b.Refresh()
	if b.OnStroke != nil {
		b.OnStroke()
	}
}

func (b *BoardWidget) Refresh() {
	b.raster.Refresh()
	b.BaseWidget.Refresh()
}

func (b *BoardWidget) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.raster)
}
