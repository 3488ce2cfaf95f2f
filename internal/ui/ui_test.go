package ui

import (
	"errors"
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiveBoard/internal/board"
	lbcanvas "LiveBoard/internal/canvas"
	"LiveBoard/internal/presence"
	"LiveBoard/internal/session"
	"LiveBoard/internal/state"
)

type fakeEngine struct {
	mu      sync.Mutex
	surface *lbcanvas.Surface
	posted  []any
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{surface: lbcanvas.NewSurface(state.Extent{Width: 4000, Height: 3000}, 40, 30)}
}

func (f *fakeEngine) Post(cmd any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, cmd)
	return nil
}

func (f *fakeEngine) Surface() *lbcanvas.Surface { return f.surface }

// pointer returns the posted commands without resizes.
func (f *fakeEngine) pointer() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, c := range f.posted {
		if _, ok := c.(board.Resize); ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func primary(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func TestBoardWidgetMapsInputToLogicalCoordinates(t *testing.T) {
	test.NewTempApp(t)
	engine := newFakeEngine()
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	w.Attach(engine)

	w.MouseDown(primary(100, 150))
	w.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(200, 300)}})
	w.MouseUp(primary(200, 300))
	w.DragEnd()

	assert.Equal(t, []any{
		board.PointerDown{X: 1000, Y: 1500},
		board.PointerMove{X: 2000, Y: 3000},
		board.PointerUp{},
	}, engine.pointer(), "one release per press")
}

func TestBoardWidgetHoverAndLeave(t *testing.T) {
	test.NewTempApp(t)
	engine := newFakeEngine()
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	w.Attach(engine)

	w.MouseMoved(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 30)}})
	w.MouseOut()
	w.MouseDown(primary(0, 0))
	w.MouseOut()

	assert.Equal(t, []any{
		board.PointerMove{X: 400, Y: 300},
		board.PointerDown{X: 0, Y: 0},
		board.PointerLeave{},
	}, engine.pointer())
}

func TestBoardWidgetIgnoresInputWithoutEngine(t *testing.T) {
	test.NewTempApp(t)
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	assert.NotPanics(t, func() {
		w.MouseDown(primary(1, 1))
		w.MouseUp(primary(1, 1))
	})
	img := w.frame(10, 10)
	assert.Equal(t, 1, img.Bounds().Dx())
}

func TestBoardWidgetResizesBackingStore(t *testing.T) {
	test.NewTempApp(t)
	engine := newFakeEngine()
	w := NewBoardWidget()
	w.Attach(engine)
	w.Resize(fyne.NewSize(320, 240))

	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.NotEmpty(t, engine.posted)
	assert.Contains(t, engine.posted, board.Resize{Width: 320, Height: 240})
}

func TestBoardWidgetTagsRemoteCursors(t *testing.T) {
	test.NewTempApp(t)
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	w.Attach(newFakeEngine())

	extent := state.Extent{Width: 4000, Height: 3000}
	w.Changed(board.View{Self: "me", Extent: extent, Peers: []presence.Peer{
		{ID: "ann", Name: "Ann", X: 1000, Y: 1500, Color: "#FF5733"},
		{ID: "me", Name: "Me", X: 10, Y: 10, Color: "#33FF57", Self: true},
	}})
	r := test.WidgetRenderer(w).(*boardRenderer)
	r.Refresh()

	require.Len(t, r.tags, 1, "no tag for the local user")
	tag := r.tags[0]
	assert.Equal(t, "Ann", tag.label.Text)
	assert.Equal(t, fyne.NewPos(100, 150), tag.box.Position())
	assert.Equal(t, lbcanvas.ParseColor("#FF5733").Color(), tag.box.FillColor)
	assert.Len(t, r.Objects(), 3)

	w.Resize(fyne.NewSize(800, 600))
	assert.Equal(t, fyne.NewPos(200, 300), tag.box.Position(), "tags follow the widget size")

	w.Changed(board.View{Self: "me", Extent: extent, Peers: []presence.Peer{{ID: "me", Self: true}}})
	r.Refresh()
	assert.Empty(t, r.tags)
	assert.Len(t, r.Objects(), 1)
}

func TestBoardWidgetBlurSealsStroke(t *testing.T) {
	test.NewTempApp(t)
	engine := newFakeEngine()
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	w.Attach(engine)

	w.MouseDown(primary(10, 10))
	w.Blur()
	w.MouseUp(primary(10, 10))

	assert.Equal(t, []any{board.PointerDown{X: 100, Y: 100}, board.Blur{}}, engine.pointer())
}

func TestLeavingForegroundBlursBoard(t *testing.T) {
	a := test.NewTempApp(t)
	engine := newFakeEngine()
	w := NewBoardWidget()
	w.Resize(fyne.NewSize(400, 300))
	w.Attach(engine)
	watchFocus(a, w)

	w.MouseDown(primary(0, 0))
	lc, ok := a.Lifecycle().(interface{ TriggerExitedForeground() })
	require.True(t, ok)
	lc.TriggerExitedForeground()

	assert.Equal(t, []any{board.PointerDown{X: 0, Y: 0}, board.Blur{}}, engine.pointer())
}

func TestToolbarPostsCommands(t *testing.T) {
	test.NewTempApp(t)
	var posted []any
	tb := NewToolbar(func(cmd any) { posted = append(posted, cmd) })
	_ = test.NewTempWindow(t, tb.Object())

	test.Tap(tb.Swatches[1])
	tb.Slider.SetValue(12)
	assert.Equal(t, []any{board.SetColor{Color: Swatches[1]}, board.SetWidth{Width: 12}}, posted)

	posted = nil
	tb.Sync(board.View{Width: board.EraserWidth})
	assert.Empty(t, posted, "syncing from the engine does not echo")
	assert.Equal(t, board.EraserWidth, tb.Slider.Value)
}

func TestStatusText(t *testing.T) {
	v := board.View{Connected: true, Count: 3, Tool: board.Eraser, Width: 20}
	assert.Equal(t, "Ready", StatusText(session.Idle, "", v))
	assert.Equal(t, "Joining room...", StatusText(session.Joining, "", v))
	assert.Equal(t, "Could not join the room", StatusText(session.Failed, "", v))
	assert.Equal(t, "Room ABC123 | 3 online | eraser 20", StatusText(session.Joined, "ABC123", v))

	v.Connected = false
	v.Err = errors.New("eof")
	assert.Equal(t, "Disconnected from ABC123: eof", StatusText(session.Joined, "ABC123", v))

	assert.Equal(t, "Connecting to ABC123...", StatusText(session.Joined, "ABC123", board.View{}),
		"no view has arrived yet right after the join")
	assert.Equal(t, "Disconnected from ABC123", StatusText(session.Joined, "ABC123", board.View{Self: "me"}))
}

func TestPresenceText(t *testing.T) {
	assert.Empty(t, PresenceText(board.View{}))
	v := board.View{Peers: []presence.Peer{
		{ID: "aaaaaaaaa", Name: "Ann"},
		{ID: "bbbbbbbbb"},
		{ID: "ccc", Name: "Cy", Self: true},
	}}
	assert.Equal(t, "Cy (you), Ann, bbbbbb", PresenceText(v))
}
