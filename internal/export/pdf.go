// Package export renders a drawing history to files.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"LiveBoard/internal/canvas"
	"LiveBoard/internal/state"
)

const pageMargin = 10.0 // mm

// visible replays cmds and returns the strokes left after the last clear.
func visible(cmds []state.Command) []state.Stroke {
	h := state.NewHistory()
	h.Replace(cmds)
	return h.Strokes()
}

// PDF writes cmds as vector lines on one A4 landscape page, scaled to fit
// the logical extent inside the margins.
func PDF(w io.Writer, extent state.Extent, cmds []state.Command) error {
	if extent.Width <= 0 || extent.Height <= 0 {
		return fmt.Errorf("export pdf: invalid extent %vx%v", extent.Width, extent.Height)
	}
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetCreator("LiveBoard", true)
	p.SetTitle("LiveBoard drawing", true)
	p.AddPage()

	pw, ph := p.GetPageSize()
	scale := math.Min((pw-2*pageMargin)/extent.Width, (ph-2*pageMargin)/extent.Height)
	ox := (pw - extent.Width*scale) / 2
	oy := (ph - extent.Height*scale) / 2

	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	p.SetDrawColor(200, 200, 200)
	p.SetLineWidth(0.2)
	p.Rect(ox, oy, extent.Width*scale, extent.Height*scale, "D")

	for _, s := range visible(cmds) {
		if !s.Drawable() {
			continue
		}
		c := canvas.ParseColor(s.Color)
		p.SetDrawColor(channel(c.R), channel(c.G), channel(c.B))
		p.SetLineWidth(math.Max(s.Width*scale, 0.1))
		p.MoveTo(ox+s.Path[0].X*scale, oy+s.Path[0].Y*scale)
		for _, pt := range s.Path[1:] {
			p.LineTo(ox+pt.X*scale, oy+pt.Y*scale)
		}
		p.DrawPath("D")
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	return nil
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
