// Package session resolves the room a user asked for, redirects to its
// canonical id and gates the board on exactly one successful join.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"LiveBoard/internal/board"
	"LiveBoard/internal/protocol"
)

var (
	ErrAlreadyStarted = errors.New("join already started")
	ErrResolve        = errors.New("resolve room")
	ErrNotConnected   = errors.New("not connected")
)

// NormalizeRoomID trims and upper-cases raw. Anything that is still not a
// canonical code becomes "", which asks the server for a fresh room.
func NormalizeRoomID(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !protocol.ValidRoomID(id) {
		return ""
	}
	return id
}

type State int

const (
	Idle State = iota
	Joining
	Joined
	Failed
)

func (s State) String() string {
	switch s {
	case Joining:
		return "joining"
	case Joined:
		return "joined"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Resolver performs the room join round-trip and returns the canonical id.
type Resolver interface {
	JoinRoom(ctx context.Context, roomID string) (string, error)
}

// Navigator replaces the visible location with the canonical room id.
type Navigator interface {
	Replace(roomID string)
}

type Notifier interface {
	Notify(err error)
}

// Transport is an open room connection.
type Transport interface {
	board.Emitter
	Close() error
}

// Dialer opens the event transport. deliver receives decoded inbound events
// and lost is called once when the connection dies.
type Dialer interface {
	Dial(ctx context.Context, deliver func(any), lost func(error)) (Transport, error)
}

type Options struct {
	Resolver  Resolver
	Navigator Navigator
	Notifier  Notifier
	Dialer    Dialer
	Board     board.Options
	Log       *zap.SugaredLogger
	// OnState observes every state change.
	OnState func(State, string)
}

type Session struct {
	opts Options
	log  *zap.SugaredLogger

	mu     sync.Mutex
	state  State
	roomID string
	board  *board.Board
	out    *outbox
	cancel context.CancelFunc

	closeOnce sync.Once
}

func New(opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Session{opts: opts, log: log.Named("session"), out: &outbox{}}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomID is the resolved id, empty until joined.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) setState(st State, roomID string) {
	s.mu.Lock()
	s.state = st
	if roomID != "" {
		s.roomID = roomID
	}
	s.mu.Unlock()
	if s.opts.OnState != nil {
		s.opts.OnState(st, roomID)
	}
}

// Join resolves requested into a canonical room id. It runs at most once per
// Session.
func (s *Session) Join(ctx context.Context, requested string) (string, error) {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return "", ErrAlreadyStarted
	}
	s.state = Joining
	s.mu.Unlock()
	if s.opts.OnState != nil {
		s.opts.OnState(Joining, "")
	}

	want := NormalizeRoomID(requested)
	resolved, err := s.resolve(ctx, want)
	if err != nil {
		s.fail(err)
		return "", err
	}

	s.setState(Joined, resolved)
	s.log.Infow("joined room", "requested", requested, "room", resolved)
	if resolved != requested && s.opts.Navigator != nil {
		s.opts.Navigator.Replace(resolved)
	}
	return resolved, nil
}

func (s *Session) resolve(ctx context.Context, want string) (string, error) {
	if s.opts.Resolver == nil {
		return "", fmt.Errorf("%w: no resolver", ErrResolve)
	}
	resolved, err := s.opts.Resolver.JoinRoom(ctx, want)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolve, err)
	}
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return "", fmt.Errorf("%w: empty room id", ErrResolve)
	}
	return resolved, nil
}

func (s *Session) fail(err error) {
	s.setState(Failed, "")
	s.log.Warnw("join failed", "error", err)
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(err)
	}
}

// Open joins, connects the transport, starts the board and announces the
// client to the room.
func (s *Session) Open(ctx context.Context, requested string) (*board.Board, error) {
	roomID, err := s.Join(ctx, requested)
	if err != nil {
		return nil, err
	}
	if s.opts.Dialer == nil {
		err := fmt.Errorf("open %s: %w", roomID, ErrNotConnected)
		s.fail(err)
		return nil, err
	}

	b := board.New(s.out, s.opts.Board)
	conn, err := s.opts.Dialer.Dial(ctx,
		func(ev any) { _ = b.Post(ev) },
		func(err error) { _ = b.Post(board.Disconnected{Err: err}) },
	)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", roomID, err)
		s.fail(err)
		return nil, err
	}
	s.out.set(conn)

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.board = b
	s.cancel = cancel
	s.mu.Unlock()
	go b.Run(runCtx)

	if err := s.out.Emit(protocol.EventJoinRoom, protocol.RoomRef{RoomID: roomID}); err != nil {
		s.log.Warnw("join-room not sent", "room", roomID, "error", err)
	}
	return b, nil
}

// Close leaves the room, stops the board and disconnects.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		b, cancel, roomID := s.board, s.cancel, s.roomID
		s.mu.Unlock()

		if b != nil {
			_ = s.out.Emit(protocol.EventLeaveRoom, protocol.RoomRef{RoomID: roomID})
			cancel()
			select {
			case <-b.Done():
			case <-time.After(time.Second):
				s.log.Warnw("board did not stop in time")
			}
		}
		err = s.out.close()
	})
	return err
}

// outbox lets the board be built before the transport exists.
type outbox struct {
	mu sync.RWMutex
	t  Transport
}

func (o *outbox) set(t Transport) {
	o.mu.Lock()
	o.t = t
	o.mu.Unlock()
}

func (o *outbox) Emit(event string, payload any) error {
	o.mu.RLock()
	t := o.t
	o.mu.RUnlock()
	if t == nil {
		return ErrNotConnected
	}
	return t.Emit(event, payload)
}

func (o *outbox) close() error {
	o.mu.Lock()
	t := o.t
	o.t = nil
	o.mu.Unlock()
	if t == nil {
		return nil
	}
	return t.Close()
}
