package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"LiveBoard/internal/board"
	"LiveBoard/internal/export"
	"LiveBoard/internal/protocol"
	"LiveBoard/internal/session"
	"LiveBoard/internal/state"
)

const (
	appID         = "io.liveboard.desktop"
	lastRoomKey   = "lastRoom"
	exportTimeout = 5 * time.Second
)

type Options struct {
	// Room is the requested room id; empty reuses the last joined room.
	Room    string
	Session session.Options
	// Lookup, when set, shows who is in the room before joining.
	Lookup func(ctx context.Context, roomID string) (*protocol.RoomInfo, error)
	Log    *zap.SugaredLogger
}

// shell is the window around one session. It is the session's navigator and
// notifier.
type shell struct {
	app    fyne.App
	win    fyne.Window
	log    *zap.SugaredLogger
	canvas *BoardWidget
	tools  *Toolbar

	status   *widget.Label
	presence *widget.Label

	mu    sync.Mutex
	board *board.Board
	state session.State
	room  string
	view  board.View
}

// Run opens the window, joins the room and blocks until the window closes or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := app.NewWithID(appID)
	s := &shell{
		app:      a,
		win:      a.NewWindow("LiveBoard"),
		log:      log.Named("ui"),
		canvas:   NewBoardWidget(),
		status:   widget.NewLabel("Ready"),
		presence: widget.NewLabel(""),
	}
	s.tools = NewToolbar(s.post)
	s.tools.OnClear = s.confirmClear
	s.tools.OnExport = s.chooseExport
	watchFocus(a, s.canvas)

	room := strings.TrimSpace(opts.Room)
	if room == "" {
		room = a.Preferences().String(lastRoomKey)
	}

	sopts := opts.Session
	sopts.Navigator = s
	sopts.Notifier = s
	sopts.OnState = s.stateChanged
	sopts.Board.OnChange = s.changed
	if sopts.Log == nil {
		sopts.Log = log
	}
	sess := session.New(sopts)

	footer := container.NewVBox(s.presence, s.status)
	s.win.SetContent(container.NewBorder(s.tools.Object(), footer, nil, nil, s.canvas))
	s.win.Resize(fyne.NewSize(1024, 768))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-runCtx.Done()
		fyne.Do(a.Quit)
	}()
	go s.open(runCtx, sess, room, opts.Lookup)

	s.win.ShowAndRun()
	cancel()
	return sess.Close()
}

// watchFocus seals the local stroke when the app leaves the foreground.
func watchFocus(a fyne.App, w *BoardWidget) {
	a.Lifecycle().SetOnExitedForeground(w.Blur)
}

func (s *shell) open(ctx context.Context, sess *session.Session, room string, lookup func(context.Context, string) (*protocol.RoomInfo, error)) {
	if id := session.NormalizeRoomID(room); id != "" && lookup != nil {
		if info, err := lookup(ctx, id); err != nil {
			s.log.Debugw("room lookup failed", "room", id, "error", err)
		} else if info != nil {
			n := len(info.Users)
			fyne.Do(func() { s.status.SetText(fmt.Sprintf("Room %s has %d online, joining...", id, n)) })
		}
	}
	b, err := sess.Open(ctx, room)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.board = b
	s.mu.Unlock()
	s.canvas.Attach(b)
}

func (s *shell) post(cmd any) {
	s.mu.Lock()
	b := s.board
	s.mu.Unlock()
	if b != nil {
		_ = b.Post(cmd)
	}
}

// Replace shows the canonical room id and remembers it for the next launch.
func (s *shell) Replace(roomID string) {
	s.app.Preferences().SetString(lastRoomKey, roomID)
	fyne.Do(func() { s.win.SetTitle("LiveBoard - " + roomID) })
}

func (s *shell) Notify(err error) {
	fyne.Do(func() { dialog.ShowError(err, s.win) })
}

func (s *shell) stateChanged(st session.State, room string) {
	s.mu.Lock()
	s.state = st
	if room != "" {
		s.room = room
	}
	s.mu.Unlock()
	s.refreshLabels()
}

// changed runs on the board goroutine.
func (s *shell) changed(v board.View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.canvas.Changed(v)
	s.refreshLabels()
}

func (s *shell) refreshLabels() {
	s.mu.Lock()
	st, room, v := s.state, s.room, s.view
	s.mu.Unlock()
	fyne.Do(func() {
		s.status.SetText(StatusText(st, room, v))
		s.presence.SetText(PresenceText(v))
		s.tools.Sync(v)
	})
}

func (s *shell) confirmClear() {
	dialog.ShowConfirm("Clear canvas", "Clear the board for everyone in this room?", func(ok bool) {
		if ok {
			s.post(board.ClearCanvas{})
		}
	}, s.win)
}

func (s *shell) chooseExport() {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			s.Notify(err)
			return
		}
		if w == nil {
			return
		}
		go s.export(w)
	}, s.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	d.SetFileName("liveboard.pdf")
	d.Show()
}

func (s *shell) export(w fyne.URIWriteCloser) {
	defer w.Close()
	s.mu.Lock()
	b := s.board
	s.mu.Unlock()
	if b == nil {
		s.Notify(errors.New("nothing to export yet"))
		return
	}

	reply := make(chan []state.Command, 1)
	if err := b.Post(board.HistoryRequest{Reply: reply}); err != nil {
		s.Notify(fmt.Errorf("export: %w", err))
		return
	}
	var cmds []state.Command
	select {
	case cmds = <-reply:
	case <-time.After(exportTimeout):
		s.Notify(errors.New("export: board did not answer"))
		return
	}

	if err := export.Write(w, w.URI().Name(), b.Surface().Extent(), cmds); err != nil {
		s.Notify(err)
		return
	}
	s.log.Infow("exported", "uri", w.URI().String(), "commands", len(cmds))
}
