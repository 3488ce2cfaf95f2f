package ui

import (
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
	lbcanvas "LiveBoard/internal/canvas"
	"LiveBoard/internal/presence"
	"LiveBoard/internal/state"
)

// Engine is the part of board.Board the widget talks to.
type Engine interface {
	Post(cmd any) error
	Surface() *lbcanvas.Surface
}

// BoardWidget shows the engine's raster stretched over the widget with a
// name tag at every remote cursor, and turns mouse and touch input into
// pointer commands in logical coordinates.
type BoardWidget struct {
	widget.BaseWidget

	mu     sync.RWMutex
	engine Engine
	raster *canvas.Raster
	down   bool
	pixels fyne.Size
	view   board.View
}

var (
	_ fyne.Widget       = (*BoardWidget)(nil)
	_ fyne.Draggable    = (*BoardWidget)(nil)
	_ desktop.Mouseable = (*BoardWidget)(nil)
	_ desktop.Hoverable = (*BoardWidget)(nil)
	_ mobile.Touchable  = (*BoardWidget)(nil)
)

var blank = func() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return img
}()

func NewBoardWidget() *BoardWidget {
	b := &BoardWidget{}
	b.raster = canvas.NewRaster(b.frame)
	b.ExtendBaseWidget(b)
	return b
}

// Attach points the widget at a running engine. Until then it renders blank
// and ignores input.
func (b *BoardWidget) Attach(e Engine) {
	b.mu.Lock()
	b.engine = e
	b.pixels = fyne.Size{}
	b.mu.Unlock()
	fyne.Do(func() {
		b.syncPixels(b.Size())
		b.raster.Refresh()
	})
}

func (b *BoardWidget) current() Engine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.engine
}

func (b *BoardWidget) frame(w, h int) image.Image {
	e := b.current()
	if e == nil {
		return blank
	}
	return e.Surface().Image()
}

// Changed is the engine's change hook. It may run on any goroutine.
func (b *BoardWidget) Changed(v board.View) {
	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
	fyne.Do(b.Refresh)
}

func (b *BoardWidget) lastView() board.View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

func (b *BoardWidget) post(cmd any) {
	if e := b.current(); e != nil {
		_ = e.Post(cmd)
	}
}

// toLogical maps a widget position onto the fixed canvas extent, through
// the pixel grid of the engine's backing store.
func (b *BoardWidget) toLogical(pos fyne.Position) state.Point {
	e := b.current()
	size := b.Size()
	if e == nil || size.Width <= 0 || size.Height <= 0 {
		return state.Point{}
	}
	surface := e.Surface()
	pw, ph := surface.Size()
	return surface.ToLogical(
		float64(pos.X)*float64(pw)/float64(size.Width),
		float64(pos.Y)*float64(ph)/float64(size.Height),
	)
}

// toWidget is the inverse of toLogical.
func toWidget(p state.Point, ext state.Extent, size fyne.Size) fyne.Position {
	if ext.Width <= 0 || ext.Height <= 0 {
		return fyne.Position{}
	}
	return fyne.NewPos(
		float32(p.X/ext.Width)*size.Width,
		float32(p.Y/ext.Height)*size.Height,
	)
}

func (b *BoardWidget) pointerDown(pos fyne.Position) {
	b.mu.Lock()
	b.down = true
	b.mu.Unlock()
	p := b.toLogical(pos)
	b.post(board.PointerDown{X: p.X, Y: p.Y})
}

func (b *BoardWidget) pointerMove(pos fyne.Position) {
	p := b.toLogical(pos)
	b.post(board.PointerMove{X: p.X, Y: p.Y})
}

func (b *BoardWidget) pointerUp(cmd any) {
	b.mu.Lock()
	wasDown := b.down
	b.down = false
	b.mu.Unlock()
	if wasDown {
		b.post(cmd)
	}
}

// Blur seals a stroke in progress when the window loses focus. The release
// that follows, if any, is not forwarded again.
func (b *BoardWidget) Blur() {
	b.mu.Lock()
	b.down = false
	b.mu.Unlock()
	b.post(board.Blur{})
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.pointerDown(e.Position)
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.pointerUp(board.PointerUp{})
	}
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) { b.pointerMove(e.Position) }

func (b *BoardWidget) MouseOut() { b.pointerUp(board.PointerLeave{}) }

func (b *BoardWidget) Dragged(e *fyne.DragEvent) { b.pointerMove(e.Position) }

func (b *BoardWidget) DragEnd() { b.pointerUp(board.PointerUp{}) }

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) { b.pointerDown(e.Position) }

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) { b.pointerUp(board.PointerUp{}) }

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) { b.pointerUp(board.PointerLeave{}) }

// syncPixels resizes the engine's backing store to the on-screen pixel size.
func (b *BoardWidget) syncPixels(size fyne.Size) {
	e := b.current()
	if e == nil || size.Width <= 0 || size.Height <= 0 {
		return
	}
	scale := float32(1)
	if a := fyne.CurrentApp(); a != nil {
		if c := a.Driver().CanvasForObject(b); c != nil && c.Scale() > 0 {
			scale = c.Scale()
		}
	}
	px := fyne.NewSize(float32(math.Ceil(float64(size.Width*scale))), float32(math.Ceil(float64(size.Height*scale))))
	b.mu.Lock()
	same := px == b.pixels
	b.pixels = px
	b.mu.Unlock()
	if !same {
		_ = e.Post(board.Resize{Width: int(px.Width), Height: int(px.Height)})
	}
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardRenderer{board: b}
}

const tagPadding = 4

// peerTag is the colored name label drawn at a remote cursor.
type peerTag struct {
	box   *canvas.Rectangle
	label *canvas.Text
}

func newPeerTag() *peerTag {
	label := canvas.NewText("", color.White)
	label.TextSize = theme.CaptionTextSize()
	return &peerTag{box: canvas.NewRectangle(color.Black), label: label}
}

func (t *peerTag) set(p presence.Peer) {
	name := p.Name
	if name == "" {
		name = shortID(p.ID)
	}
	t.label.Text = name
	t.box.FillColor = lbcanvas.ParseColor(p.Color).Color()
	t.box.CornerRadius = tagPadding
}

func (t *peerTag) place(pos fyne.Position) {
	text := t.label.MinSize()
	t.box.Move(pos)
	t.box.Resize(text.AddWidthHeight(2*tagPadding, 2*tagPadding))
	t.label.Move(pos.AddXY(tagPadding, tagPadding))
	t.label.Resize(text)
}

type boardRenderer struct {
	board *BoardWidget
	tags  []*peerTag
	size  fyne.Size
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.size = size
	r.board.raster.Resize(size)
	r.board.syncPixels(size)
	r.layoutTags(r.board.lastView())
}

func (r *boardRenderer) layoutTags(v board.View) {
	others := make([]presence.Peer, 0, len(v.Peers))
	for _, p := range v.Peers {
		if !p.Self && p.ID != v.Self {
			others = append(others, p)
		}
	}
	for len(r.tags) < len(others) {
		r.tags = append(r.tags, newPeerTag())
	}
	r.tags = r.tags[:len(others)]
	for i, p := range others {
		r.tags[i].set(p)
		r.tags[i].place(toWidget(state.Point{X: p.X, Y: p.Y}, v.Extent, r.size))
	}
}

func (r *boardRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *boardRenderer) Refresh() {
	r.layoutTags(r.board.lastView())
	r.board.raster.Refresh()
	for _, t := range r.tags {
		t.box.Refresh()
		t.label.Refresh()
	}
}

func (r *boardRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, 1+2*len(r.tags))
	objs = append(objs, r.board.raster)
	for _, t := range r.tags {
		objs = append(objs, t.box, t.label)
	}
	return objs
}

func (r *boardRenderer) Destroy() {}
