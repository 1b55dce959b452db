package ui

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/notebook"
)

type Options struct {
	ExportDir string
	// ShareLink is shown in the title bar when the notebook is shared.
	ShareLink string
	// ReadOnly builds a viewer that mirrors a share host.
	ReadOnly bool
	Logger   *slog.Logger
}

// App is the desktop window around one notebook session.
type App struct {
	fyne     fyne.App
	window   fyne.Window
	board    *BoardWidget
	controls *Controls
}

func NewApp(s *notebook.Session, opts Options) *App {
	a := app.NewWithID("io.inkboard")
	title := "InkBoard"
	if opts.ReadOnly {
		title = "InkBoard (viewer)"
	}
	if opts.ShareLink != "" {
		title += " - " + opts.ShareLink
	}
	w := a.NewWindow(title)
	w.Resize(fyne.NewSize(1024, 768))

	board := NewBoardWidget(s, opts.ReadOnly)
	controls := NewControls(s, board, opts.ExportDir, opts.Logger)
	board.OnStroke = controls.Sync

	var top fyne.CanvasObject = controls.Toolbar()
	if opts.ReadOnly {
		top = widget.NewLabel("Following " + opts.ShareLink)
	}
	w.SetContent(container.NewBorder(top, controls.StatusBar(), nil, nil, board))
	return &App{fyne: a, window: w, board: board, controls: controls}
}

// Refresh redraws the board and controls. Safe from any goroutine.
func (a *App) Refresh() {
	fyne.Do(func() {
		a.board.Refresh()
		a.controls.Sync()
	})
}

// Run blocks until the window closes.
func (a *App) Run() {
	a.window.ShowAndRun()
}
