// Package render replays recorded strokes onto a raster surface.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/gogpu/gg"

	"InkBoard/internal/state"
)

// Style is the fixed paint used for one tool.
type Style struct {
	Color color.NRGBA
	Width float64
}

var Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

var styles = map[state.Tool]Style{
	state.ToolPen:         {Color: color.NRGBA{R: 17, G: 24, B: 39, A: 255}, Width: 3},
	state.ToolHighlighter: {Color: color.NRGBA{R: 250, G: 204, B: 21, A: 96}, Width: 14},
	state.ToolEraser:      {Color: Background, Width: 20},
}

// StyleFor returns the style for t, falling back to the pen.
func StyleFor(t state.Tool) Style {
	if s, ok := styles[t]; ok {
		return s
	}
	return styles[state.ToolPen]
}

// Compositor exclusively owns the drawing surface. Its output depends only on
// the arguments of the last Render call and the surface dimensions.
type Compositor struct {
	mu sync.Mutex
	dc *gg.Context
}

func NewCompositor(width, height int) *Compositor {
	c := &Compositor{dc: gg.NewContext(width, height)}
	c.dc.ClearWithColor(gg.FromColor(Background))
	return c
}

func (c *Compositor) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Width(), c.dc.Height()
}

// Resize resets the surface. The caller must Render again afterwards.
func (c *Compositor) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dc.Resize(width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	c.dc.ClearWithColor(gg.FromColor(Background))
	return nil
}

// Render clears the surface and replays committed strokes in recording order,
// then the in-progress points with the active tool's style.
func (c *Compositor) Render(committed []state.Stroke, current []state.Point, tool state.Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dc.ClearPath()
	c.dc.ClearWithColor(gg.FromColor(Background))
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)

	for _, s := range committed {
		if err := c.strokePath(s.Points, StyleFor(s.Tool)); err != nil {
			return fmt.Errorf("stroke %s: %w", s.ID, err)
		}
	}
	if err := c.strokePath(current, StyleFor(tool)); err != nil {
		return fmt.Errorf("current stroke: %w", err)
	}
	return nil
}

func (c *Compositor) strokePath(points []state.Point, st Style) error {
	if len(points) < state.MinStrokePoints {
		return nil
	}
	c.dc.SetColor(st.Color)
	c.dc.SetLineWidth(st.Width)
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	return c.dc.Stroke()
}

// Frame returns a copy of the surface.
func (c *Compositor) Frame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toRGBA(c.dc.Image())
}

func (c *Compositor) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.EncodePNG(w)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
