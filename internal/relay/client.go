package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"LiveBoard/internal/protocol"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSendFull     = errors.New("client send queue full")
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	maxFrameSize = 8 << 20
)

// ClientConn wraps one websocket peer. Room goroutines enqueue frames with
// Send; writePump is the only writer.
type ClientConn struct {
	ID   string
	Name string

	ws   *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewClientConn(id, name string, ws *websocket.Conn, log *zap.SugaredLogger) *ClientConn {
	return &ClientConn{
		ID:   id,
		Name: name,
		ws:   ws,
		send: make(chan []byte, 256),
		log:  log.With("socket", id),
		done: make(chan struct{}),
	}
}

// Send enqueues a frame without blocking. A full queue drops the frame.
func (c *ClientConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendFull
	}
}

func (c *ClientConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return c.ws.Close()
}

func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump feeds the peer's frames into whichever room it has joined and
// releases the room when the connection ends.
func (c *ClientConn) readPump(reg *Registry) {
	var room *Room
	defer func() {
		if room != nil {
			room.Post(Leave{ID: c.ID})
			reg.Release(room)
		}
		_ = c.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debugw("read ended", "error", err)
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			c.log.Debugw("bad frame", "error", err)
			continue
		}

		switch env.Event {
		case protocol.EventJoinRoom:
			ref, err := protocol.DecodePayload[protocol.RoomRef](env)
			if err != nil {
				continue
			}
			if room != nil && room.ID == ref.RoomID {
				continue
			}
			next, ok := reg.Acquire(ref.RoomID)
			if !ok {
				c.log.Debugw("join-room with invalid id", "room", ref.RoomID)
				continue
			}
			if room != nil {
				room.Post(Leave{ID: c.ID})
				reg.Release(room)
			}
			room = next
			room.Post(Join{ID: c.ID, Name: c.Name, Conn: c})
		case protocol.EventLeaveRoom:
			if room == nil {
				continue
			}
			room.Post(Leave{ID: c.ID})
			reg.Release(room)
			room = nil
		default:
			if room == nil {
				continue
			}
			room.Post(Event{From: c.ID, Env: env})
		}
	}
}
