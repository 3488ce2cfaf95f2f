// Package board is the client side synchronization engine of the whiteboard.
//
// A Board is a single-goroutine actor. Pointer input, inbound network events
// and control commands are posted to its inbox and applied one at a time, so
// the history, the open remote paths, the local stroke buffer and the roster
// are never shared. Only the raster surface is read from other goroutines.
package board

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"LiveBoard/internal/canvas"
	"LiveBoard/internal/presence"
	"LiveBoard/internal/protocol"
	"LiveBoard/internal/state"
	"LiveBoard/internal/throttle"
)

const (
	DrawMoveInterval   = 20 * time.Millisecond
	CursorMoveInterval = 100 * time.Millisecond
)

var ErrStopped = errors.New("board stopped")

// Emitter sends one event to the room. Implementations must not block.
type Emitter interface {
	Emit(event string, payload any) error
}

type Options struct {
	Extent         state.Extent
	PixelWidth     int
	PixelHeight    int
	DrawInterval   time.Duration
	CursorInterval time.Duration
	Clock          throttle.Clock
	Log            *zap.SugaredLogger
	// OnChange runs on the board goroutine after every handled command.
	OnChange func(View)
}

type Board struct {
	Inbox chan any

	log     *zap.SugaredLogger
	emitter Emitter
	surface *canvas.Surface
	history *state.History
	remote  *state.RemotePaths
	local   state.LocalStroke
	roster  *presence.Roster

	tool       Tool
	color      string
	width      float64
	brushColor string
	brushWidth float64

	self      string
	connected bool
	err       error

	moves   *throttle.Throttle[protocol.DrawMove]
	cursors *throttle.Throttle[protocol.CursorMove]

	onChange func(View)
	quit     chan struct{}
	done     chan struct{}
}

func New(emitter Emitter, opts Options) *Board {
	if opts.Extent.Width <= 0 || opts.Extent.Height <= 0 {
		opts.Extent = state.Extent{Width: 4000, Height: 3000}
	}
	if opts.DrawInterval <= 0 {
		opts.DrawInterval = DrawMoveInterval
	}
	if opts.CursorInterval <= 0 {
		opts.CursorInterval = CursorMoveInterval
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b := &Board{
		Inbox:      make(chan any, 256),
		log:        log.Named("board"),
		emitter:    emitter,
		surface:    canvas.NewSurface(opts.Extent, opts.PixelWidth, opts.PixelHeight),
		history:    state.NewHistory(),
		remote:     state.NewRemotePaths(),
		roster:     presence.NewRoster(),
		color:      DefaultColor,
		width:      DefaultWidth,
		brushColor: DefaultColor,
		brushWidth: DefaultWidth,
		connected:  true,
		onChange:   opts.OnChange,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	var topts []throttle.Option
	if opts.Clock != nil {
		topts = append(topts, throttle.WithClock(opts.Clock))
	}
	b.moves = throttle.New(opts.DrawInterval, func(m protocol.DrawMove) {
		b.emit(protocol.EventDrawMove, m)
	}, topts...)
	b.cursors = throttle.New(opts.CursorInterval, func(c protocol.CursorMove) {
		b.emit(protocol.EventCursorMove, c)
	}, topts...)
	return b
}

// Surface is the raster the board paints on. Safe to read concurrently.
func (b *Board) Surface() *canvas.Surface { return b.surface }

// Run processes the inbox until ctx is done or Stop is called.
func (b *Board) Run(ctx context.Context) {
	defer close(b.done)
	defer b.teardown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.quit:
			return
		case cmd := <-b.Inbox:
			b.Handle(cmd)
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (b *Board) Stop() {
	select {
	case <-b.quit:
	default:
		close(b.quit)
	}
}

// Done is closed once Run has returned.
func (b *Board) Done() <-chan struct{} { return b.done }

// Post hands cmd to the running board. It fails once the board has stopped.
func (b *Board) Post(cmd any) error {
	select {
	case <-b.quit:
		return ErrStopped
	case <-b.done:
		return ErrStopped
	default:
	}
	select {
	case <-b.quit:
		return ErrStopped
	case <-b.done:
		return ErrStopped
	case b.Inbox <- cmd:
		return nil
	}
}

// Handle applies one command. Run calls it; tests may call it directly
// instead of starting the goroutine.
func (b *Board) Handle(cmd any) {
	switch c := cmd.(type) {
	case PointerDown:
		b.pointerDown(state.Point{X: c.X, Y: c.Y})
	case PointerMove:
		b.pointerMove(state.Point{X: c.X, Y: c.Y})
	case PointerUp, PointerLeave, Blur:
		b.finishStroke()
	case ClearCanvas:
		b.clearLocal()
	case SetColor:
		b.setColor(c.Color)
	case SetWidth:
		b.setWidth(c.Width)
	case SetTool:
		b.setTool(c.Tool)
	case Resize:
		if err := b.surface.Resize(c.Width, c.Height); err != nil {
			b.log.Warnw("resize", "width", c.Width, "height", c.Height, "error", err)
			break
		}
		b.redraw()
	case Disconnected:
		b.disconnected(c.Err)
	case Snapshot:
		c.Reply <- b.view()
		return
	case HistoryRequest:
		c.Reply <- b.history.Commands()
		return
	default:
		if !b.handleRemote(cmd) {
			b.log.Debugw("unhandled command", "type", typeName(cmd))
			return
		}
	}
	if b.onChange != nil {
		b.onChange(b.view())
	}
}

func (b *Board) view() View {
	return View{
		Self:      b.self,
		Peers:     b.roster.Peers(),
		Count:     b.roster.Count(),
		Tool:      b.tool,
		Color:     b.color,
		Width:     b.width,
		Drawing:   b.local.Active(),
		Strokes:   b.history.Len(),
		Connected: b.connected,
		Err:       b.err,
		Extent:    b.surface.Extent(),
	}
}

func (b *Board) emit(event string, payload any) {
	if b.emitter == nil {
		return
	}
	if err := b.emitter.Emit(event, payload); err != nil {
		b.log.Debugw("emit dropped", "event", event, "error", err)
	}
}

func (b *Board) redraw() {
	var err error
	if b.local.Active() {
		err = canvas.RedrawWithLocal(b.surface, b.remote, b.history, b.local.Current())
	} else {
		err = canvas.Redraw(b.surface, b.remote, b.history)
	}
	if err != nil {
		b.log.Warnw("redraw", "error", err)
	}
}

func (b *Board) disconnected(err error) {
	if !b.connected {
		return
	}
	b.connected = false
	b.err = err
	b.moves.Stop()
	b.cursors.Stop()
	// no draw-end will arrive for paths peers still had open
	if b.remote.Len() > 0 {
		b.remote.Reset()
		b.redraw()
	}
	b.log.Infow("transport lost", "error", err)
}

func (b *Board) teardown() {
	b.moves.Stop()
	b.cursors.Stop()
}
