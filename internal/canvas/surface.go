// Package canvas holds the raster surface and the stateless drawing and
// replay primitives of the whiteboard.
package canvas

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gg"

	"LiveBoard/internal/state"
)

// Surface is a raster of the fixed logical canvas. Points are given in
// logical coordinates and scaled to the pixel size of the backing store, so
// strokes are portable between differently sized viewports.
//
// The owning engine is the only writer; the mutex exists so a presentation
// layer can read frames from another goroutine.
type Surface struct {
	mu     sync.RWMutex
	dc     *gg.Context
	extent state.Extent
	sx, sy float64
}

// NewSurface creates a blank surface. A non-positive pixel size falls back
// to one pixel per logical unit.
func NewSurface(extent state.Extent, pixelW, pixelH int) *Surface {
	if pixelW <= 0 || pixelH <= 0 {
		pixelW, pixelH = int(extent.Width), int(extent.Height)
	}
	s := &Surface{dc: gg.NewContext(pixelW, pixelH), extent: extent}
	s.rescale()
	s.dc.ClearWithColor(Background)
	return s
}

func (s *Surface) rescale() {
	s.sx = float64(s.dc.Width()) / s.extent.Width
	s.sy = float64(s.dc.Height()) / s.extent.Height
}

func (s *Surface) Extent() state.Extent {
	return s.extent
}

// Size returns the pixel size of the backing store.
func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.Width(), s.dc.Height()
}

// Resize reallocates the backing store. The surface is blank afterwards;
// callers repaint it from history.
func (s *Surface) Resize(pixelW, pixelH int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dc.Resize(pixelW, pixelH); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	s.rescale()
	s.dc.ClearWithColor(Background)
	return nil
}

// Clear blanks the whole surface.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.ClearWithColor(Background)
}

// DrawPolyline strokes path as one connected line. Paths with fewer than two
// points draw nothing.
func (s *Surface) DrawPolyline(path []state.Point, color string, width float64) error {
	if len(path) < 2 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen(color, width)
	s.dc.MoveTo(path[0].X*s.sx, path[0].Y*s.sy)
	for _, p := range path[1:] {
		s.dc.LineTo(p.X*s.sx, p.Y*s.sy)
	}
	return s.dc.Stroke()
}

// DrawSegment strokes the single segment a-b.
func (s *Surface) DrawSegment(a, b state.Point, color string, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pen(color, width)
	s.dc.DrawLine(a.X*s.sx, a.Y*s.sy, b.X*s.sx, b.Y*s.sy)
	return s.dc.Stroke()
}

func (s *Surface) pen(color string, width float64) {
	if width <= 0 {
		width = 1
	}
	c := ParseColor(color)
	s.dc.SetRGBA(c.R, c.G, c.B, c.A)
	s.dc.SetLineWidth(width * (s.sx + s.sy) / 2)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
}

// ToLogical maps a pixel position of the backing store to canvas coordinates.
func (s *Surface) ToLogical(px, py float64) state.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return state.Point{X: px / s.sx, Y: py / s.sy}
}

// Image returns a copy of the current frame.
func (s *Surface) Image() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.ResizeTarget().ToImage()
}

// EncodePNG writes the current frame to w as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Pixel returns the color of one pixel of the backing store.
func (s *Surface) Pixel(x, y int) gg.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dc.ResizeTarget().GetPixel(x, y)
}
