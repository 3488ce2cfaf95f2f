package relay

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"LiveBoard/internal/protocol"
	"LiveBoard/internal/state"
)

// Conn is the sending half of a member connection.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join adds a member.
type Join struct {
	ID   string
	Name string
	Conn Conn
}

// Leave removes a member. Unknown ids are ignored.
type Leave struct {
	ID string
}

// Event is a frame a member sent to the room.
type Event struct {
	From string
	Env  protocol.Envelope
}

// Info asks for the public room record.
type Info struct {
	Reply chan<- protocol.RoomInfo
}

type member struct {
	id   string
	name string
	conn Conn
	x, y float64
}

// Room owns the members, their cursors and the in-memory drawing history of
// one room. All of it is touched only by the Run goroutine.
type Room struct {
	ID        string
	CreatedAt time.Time
	Inbox     chan any
	Metrics   *RoomMetrics

	log     *zap.SugaredLogger
	members map[string]*member
	history *state.History
	quit    chan struct{}
	done    chan struct{}
}

func NewRoom(id string, log *zap.SugaredLogger) *Room {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Room{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Inbox:     make(chan any, 256),
		Metrics:   &RoomMetrics{},
		log:       log.With("room", id),
		members:   make(map[string]*member),
		history:   state.NewHistory(),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Room) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.Handle(cmd)
		}
	}
}

func (r *Room) Stop() {
	select {
	case <-r.quit:
	default:
		close(r.quit)
	}
}

// Post queues cmd. It reports false once the room has stopped.
func (r *Room) Post(cmd any) bool {
	select {
	case <-r.quit:
		return false
	case <-r.done:
		return false
	default:
	}
	select {
	case <-r.quit:
		return false
	case <-r.done:
		return false
	case r.Inbox <- cmd:
		return true
	}
}

// Handle applies one command on the calling goroutine.
func (r *Room) Handle(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.join(c)
	case Leave:
		r.leave(c.ID)
	case Event:
		r.event(c.From, c.Env)
	case Info:
		c.Reply <- r.info()
	default:
		r.log.Debugw("unknown room command", "cmd", cmd)
	}
}

func (r *Room) join(c Join) {
	if _, ok := r.members[c.ID]; ok {
		return
	}
	r.members[c.ID] = &member{id: c.ID, name: c.Name, conn: c.Conn}
	r.Metrics.incJoins()
	r.Metrics.setMembers(len(r.members))
	r.log.Infow("member joined", "socket", c.ID, "name", c.Name, "members", len(r.members))

	cmds := r.history.Commands()
	if cmds == nil {
		cmds = []state.Command{}
	}
	r.sendTo(c.ID, protocol.EventLoadDrawing, cmds)
	r.broadcast(c.ID, protocol.EventUserJoined, protocol.UserJoined{SocketID: c.ID, Name: c.Name})
	r.broadcastPresence()
}

func (r *Room) leave(id string) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	r.Metrics.incLeaves()
	r.Metrics.setMembers(len(r.members))
	r.log.Infow("member left", "socket", id, "members", len(r.members))

	r.broadcast(id, protocol.EventUserLeft, protocol.UserLeft(id))
	r.broadcastPresence()
}

func (r *Room) event(from string, env protocol.Envelope) {
	m, ok := r.members[from]
	if !ok {
		r.log.Debugw("event from non-member", "socket", from, "event", env.Event)
		return
	}
	switch env.Event {
	case protocol.EventDrawStart, protocol.EventDrawMove:
		p, err := protocol.DecodePayload[protocol.DrawPoint](env)
		if err != nil {
			r.log.Debugw("bad draw point", "socket", from, "error", err)
			return
		}
		p.SocketID = from
		r.broadcast(from, env.Event, p)
	case protocol.EventDrawEnd:
		e, err := protocol.DecodePayload[protocol.DrawEnd](env)
		if err != nil {
			r.log.Debugw("bad draw-end", "socket", from, "error", err)
			return
		}
		e.SocketID = from
		r.history.AppendStroke(e.Stroke())
		r.Metrics.incStrokes()
		r.broadcast(from, protocol.EventDrawEnd, e)
	case protocol.EventClearCanvas:
		r.history.Reset()
		r.Metrics.incClears()
		r.broadcast(from, protocol.EventClearCanvas, nil)
	case protocol.EventCursorMove:
		c, err := protocol.DecodePayload[protocol.CursorMove](env)
		if err != nil {
			return
		}
		m.x, m.y = c.X, c.Y
		r.broadcast(from, protocol.EventCursorUpdate, protocol.CursorUpdate{SocketID: from, X: c.X, Y: c.Y, Name: m.name})
	default:
		r.log.Debugw("ignored event", "socket", from, "event", env.Event)
		return
	}
	r.Metrics.incRelayed()
}

func (r *Room) broadcastPresence() {
	r.broadcast("", protocol.EventUserCount, protocol.UserCount(len(r.members)))
	users := make(protocol.ActiveUsers, len(r.members))
	for id, m := range r.members {
		users[id] = protocol.ActiveUser{X: m.x, Y: m.y, Name: m.name}
	}
	r.broadcast("", protocol.EventActiveUsers, users)
}

func (r *Room) info() protocol.RoomInfo {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return protocol.RoomInfo{RoomID: r.ID, Users: ids, CreatedAt: r.CreatedAt}
}

func (r *Room) sendTo(id, event string, payload any) {
	m, ok := r.members[id]
	if !ok {
		return
	}
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		r.log.Warnw("encode", "event", event, "error", err)
		return
	}
	r.send(m, frame)
}

// broadcast sends to every member except the one with id except.
func (r *Room) broadcast(except, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		r.log.Warnw("encode", "event", event, "error", err)
		return
	}
	for id, m := range r.members {
		if id == except {
			continue
		}
		r.send(m, frame)
	}
}

func (r *Room) send(m *member, frame []byte) {
	if err := m.conn.Send(frame); err != nil {
		r.Metrics.incSendsDropped()
		r.log.Debugw("send dropped", "socket", m.id, "error", err)
	}
}
