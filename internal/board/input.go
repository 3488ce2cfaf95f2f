package board

import (
	"LiveBoard/internal/protocol"
	"LiveBoard/internal/state"
)

func (b *Board) pointerDown(p state.Point) {
	p = b.surface.Extent().Clamp(p)
	b.local.Begin(p, b.color, b.width)
	b.emit(protocol.EventDrawStart, protocol.DrawStart{X: p.X, Y: p.Y, Color: b.color, Width: b.width})
}

func (b *Board) pointerMove(p state.Point) {
	p = b.surface.Extent().Clamp(p)
	b.cursors.Push(protocol.CursorMove{X: p.X, Y: p.Y})
	if !b.local.Active() {
		return
	}
	prev, ok := b.local.Append(p)
	if !ok {
		return
	}
	if err := b.surface.DrawSegment(prev, p, b.color, b.width); err != nil {
		b.log.Warnw("draw segment", "error", err)
	}
	b.moves.Push(protocol.DrawMove{X: p.X, Y: p.Y, Color: b.color, Width: b.width})
}

// finishStroke seals the local stroke. A pending throttled move is dropped
// because draw-end carries the whole path.
func (b *Board) finishStroke() {
	s, ok := b.local.Seal()
	if !ok {
		return
	}
	b.history.AppendStroke(s)
	b.moves.Cancel()
	b.emit(protocol.EventDrawEnd, protocol.DrawEnd{Path: s.Path, Color: s.Color, Width: s.Width})
	b.redraw()
}

func (b *Board) clearLocal() {
	b.history.Reset()
	b.redraw()
	b.emit(protocol.EventClearCanvas, nil)
}

func (b *Board) setColor(color string) {
	if color == "" {
		return
	}
	if color != EraserColor {
		b.brushColor = color
		if b.tool == Eraser {
			b.tool = Brush
			b.width = b.brushWidth
		}
	}
	b.color = color
}

func (b *Board) setWidth(w float64) {
	if w < MinWidth {
		w = MinWidth
	}
	if w > MaxWidth {
		w = MaxWidth
	}
	b.width = w
	if b.tool == Brush {
		b.brushWidth = w
	}
}

func (b *Board) setTool(t Tool) {
	if t == b.tool {
		return
	}
	b.tool = t
	switch t {
	case Eraser:
		b.color, b.width = EraserColor, EraserWidth
	default:
		b.color, b.width = b.brushColor, b.brushWidth
	}
}
