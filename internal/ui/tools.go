package ui

import (
	"context"
	"errors"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/notebook"
	"InkBoard/internal/recognize"
	"InkBoard/internal/state"
)

var toolNames = []string{string(state.ToolPen), string(state.ToolHighlighter), string(state.ToolEraser)}

// Controls holds the toolbar widgets and keeps them in step with the session.
type Controls struct {
	session   *notebook.Session
	board     *BoardWidget
	exportDir string
	log       *slog.Logger

	mode    *widget.Select
	tool    *widget.Select
	pages   *widget.Select
	convert *widget.Button
	status  *widget.Label
	result  *widget.Label

	pageIDs map[string]int
	syncing bool
}

func NewControls(s *notebook.Session, board *BoardWidget, exportDir string, logger *slog.Logger) *Controls {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controls{
		session:   s,
		board:     board,
		exportDir: exportDir,
		log:       logger,
		pageIDs:   make(map[string]int),
		status:    widget.NewLabel(""),
		result:    widget.NewLabel(""),
	}
	c.result.Wrapping = fyne.TextWrapWord

	modes := make([]string, 0, len(recognize.Modes))
	for _, m := range recognize.Modes {
		modes = append(modes, string(m))
	}
	c.mode = widget.NewSelect(modes, func(v string) {
		if c.syncing {
			return
		}
		if m, err := recognize.ParseMode(v); err == nil {
			c.session.SetMode(m)
			c.Sync()
		}
	})
	c.tool = widget.NewSelect(toolNames, func(v string) {
		if t, err := state.ParseTool(v); err == nil {
			c.session.SetTool(t)
			c.board.Refresh()
		}
	})
	c.pages = widget.NewSelect(nil, func(label string) {
		if c.syncing {
			return
		}
		id, ok := c.pageIDs[label]
		if !ok || id == c.session.ActivePage().ID {
			return
		}
		if err := c.session.SwitchPage(id); err != nil {
			c.log.Warn("switch page", "page", id, "error", err)
		}
		c.afterPageChange()
	})
	c.convert = widget.NewButtonWithIcon("Convert", theme.ConfirmIcon(), c.Recognize)

	c.syncing = true
	c.mode.SetSelected(string(s.Mode()))
	c.tool.SetSelected(string(s.Tool()))
	c.syncing = false
	c.Sync()
	return c
}

// Recognize runs the conversion off the UI goroutine and applies the result
// through fyne.Do.
func (c *Controls) Recognize() {
	c.convert.Disable()
	c.status.SetText(notebook.StatusRecognizing)
	go func() {
		_, err := c.session.Recognize(context.Background())
		if err != nil && !errors.Is(err, recognize.ErrNoStrokes) {
			c.log.Debug("recognition not applied", "error", err)
		}
		fyne.Do(func() {
			c.convert.Enable()
			c.Sync()
		})
	}()
}

func (c *Controls) afterPageChange() {
	c.board.Refresh()
	c.Sync()
}

// Sync copies the session's status, result, mode and pages into the widgets.
// It must run on the UI goroutine.
func (c *Controls) Sync() {
	c.syncing = true
	defer func() { c.syncing = false }()

	c.status.SetText(c.session.Status())
	c.result.SetText(c.session.Result().Text)
	if mode := string(c.session.Mode()); c.mode.Selected != mode {
		c.mode.SetSelected(mode)
	}

	pages := c.session.Pages()
	labels := make([]string, 0, len(pages))
	clear(c.pageIDs)
	for _, p := range pages {
		labels = append(labels, p.Label)
		c.pageIDs[p.Label] = p.ID
	}
	c.pages.Options = labels
	c.pages.SetSelected(c.session.ActivePage().Label)
}

// Toolbar lays out the editing controls.
func (c *Controls) Toolbar() fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			c.session.AddPage()
			c.afterPageChange()
		}),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() {
			c.session.DeletePage()
			c.afterPageChange()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			c.session.Clear()
			c.afterPageChange()
		}),
		widget.NewToolbarAction(theme.FileImageIcon(), func() {
			_, _ = c.session.ExportPNG(c.exportDir)
			c.Sync()
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			_, _ = c.session.ExportPDF(c.exportDir)
			c.Sync()
		}),
	)

	return container.NewHBox(
		widget.NewLabel("Mode:"),
		c.mode,
		widget.NewLabel("Tool:"),
		c.tool,
		widget.NewSeparator(),
		c.convert,
		widget.NewSeparator(),
		widget.NewLabel("Page:"),
		c.pages,
		tb,
		layout.NewSpacer(),
	)
}

// StatusBar shows the status line above the converted text.
func (c *Controls) StatusBar() fyne.CanvasObject {
	return container.NewVBox(widget.NewSeparator(), c.status, c.result)
}
