// Package network holds the client side of the wire: the websocket event
// connection, the HTTP room API client and LAN discovery of relays.
package network

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"LiveBoard/internal/protocol"
	"LiveBoard/internal/session"
)

var (
	ErrClosed    = errors.New("connection closed")
	ErrQueueFull = errors.New("send queue full")
)

const (
	sendQueueSize = 256
	writeWait     = 5 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameSize  = 8 << 20
)

// Conn is an open event connection to a relay. Emit never blocks: frames are
// queued and written by a single writer goroutine, so the order of emits is
// the order on the wire.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger

	deliver func(any)
	lost    func(error)

	mu       sync.Mutex
	closed   bool
	done     chan struct{}
	flushed  chan struct{}
	lostOnce sync.Once
}

// Dialer opens Conns to one relay.
type Dialer struct {
	// ServerURL is the relay base URL (http, https, ws or wss).
	ServerURL string
	Name      string
	Log       *zap.SugaredLogger
	WS        *websocket.Dialer
}

var _ session.Dialer = (*Dialer)(nil)

// WebsocketURL derives the event endpoint from a relay base URL.
func WebsocketURL(server, name string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", server)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	if name != "" {
		q.Set("name", name)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Dialer) Dial(ctx context.Context, deliver func(any), lost func(error)) (session.Transport, error) {
	return d.DialConn(ctx, deliver, lost)
}

// DialConn is Dial returning the concrete connection.
func (d *Dialer) DialConn(ctx context.Context, deliver func(any), lost func(error)) (*Conn, error) {
	target, err := WebsocketURL(d.ServerURL, d.Name)
	if err != nil {
		return nil, err
	}
	wsd := d.WS
	if wsd == nil {
		wsd = websocket.DefaultDialer
	}
	ws, resp, err := wsd.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", target, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := newConn(ws, log.Named("conn"), deliver, lost)
	go c.writePump()
	go c.readPump()
	return c, nil
}

func newConn(ws *websocket.Conn, log *zap.SugaredLogger, deliver func(any), lost func(error)) *Conn {
	if deliver == nil {
		deliver = func(any) {}
	}
	if lost == nil {
		lost = func(error) {}
	}
	return &Conn{
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		log:     log,
		deliver: deliver,
		lost:    lost,
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
	}
}

// Emit queues one event. It fails with ErrClosed after Close and with
// ErrQueueFull when the writer is too far behind; the event is dropped then.
func (c *Conn) Emit(event string, payload any) error {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close writes out what is still queued, sends a close frame and tears the
// connection down. The lost callback is not invoked for a deliberate close.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	select {
	case <-c.flushed:
	case <-time.After(writeWait):
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.ws.Close()
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	already := c.closed
	if !already {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()
	_ = c.ws.Close()
	if already {
		return
	}
	c.lostOnce.Do(func() {
		c.log.Infow("connection lost", "error", err)
		c.lost(err)
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer close(c.flushed)
	for {
		select {
		case <-c.done:
			c.drain()
			return
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				c.fail(fmt.Errorf("write: %w", err))
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.fail(fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}

func (c *Conn) write(frame []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

func (c *Conn) drain() {
	for {
		select {
		case frame := <-c.send:
			if err := c.write(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) readPump() {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("read: %w", err))
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			c.log.Debugw("dropping frame", "error", err)
			continue
		}
		ev, err := protocol.Decode(env)
		if err != nil {
			c.log.Debugw("dropping event", "event", env.Event, "error", err)
			continue
		}
		if ev == nil {
			continue
		}
		c.deliver(ev)
	}
}
