package export

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"InkBoard/internal/render"
	"InkBoard/internal/state"
)

const pageMargin = 10.0 // mm

// WritePDF draws strokes as vector lines on one A4 page, scaled to fit a
// width x height surface inside the margins.
func WritePDF(path string, strokes []state.Stroke, width, height int) error {
	orientation := "P"
	if width > height {
		orientation = "L"
	}
	p := gofpdf.New(orientation, "mm", "A4", "")
	p.AddPage()

	pageW, pageH := p.GetPageSize()
	scale := min((pageW-2*pageMargin)/float64(width), (pageH-2*pageMargin)/float64(height))

	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	for _, st := range strokes {
		if len(st.Points) < state.MinStrokePoints {
			continue
		}
		style := render.StyleFor(st.Tool)
		p.SetDrawColor(int(style.Color.R), int(style.Color.G), int(style.Color.B))
		p.SetAlpha(float64(style.Color.A)/255, "Normal")
		p.SetLineWidth(style.Width * scale)
		for i := 1; i < len(st.Points); i++ {
			p.Line(
				pageMargin+st.Points[i-1].X*scale, pageMargin+st.Points[i-1].Y*scale,
				pageMargin+st.Points[i].X*scale, pageMargin+st.Points[i].Y*scale,
			)
		}
	}
	p.SetAlpha(1, "Normal")

	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
