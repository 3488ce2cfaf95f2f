// Package relay is an in-memory room server speaking the whiteboard wire
// protocol. It is used for local sessions and end-to-end tests.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"LiveBoard/internal/network"
	"LiveBoard/internal/protocol"
)

type Options struct {
	Addr string
	// Advertise announces the relay over mDNS once it listens.
	Advertise bool
	Log       *zap.SugaredLogger
}

type Server struct {
	opts     Options
	log      *zap.SugaredLogger
	rooms    *Registry
	router   *mux.Router
	upgrader websocket.Upgrader
	cancel   context.CancelFunc
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.Named("relay")
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:   opts,
		log:    log,
		rooms:  NewRegistry(ctx, log),
		cancel: cancel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(s.accessLog)
	r.Methods(http.MethodPost).Path("/api/rooms/join").HandlerFunc(s.joinRoom)
	r.Methods(http.MethodGet).Path("/api/rooms/{roomId}").HandlerFunc(s.getRoom)
	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(s.serveWS)
	r.Methods(http.MethodGet).Path("/metrics").HandlerFunc(s.metrics)
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Rooms() *Registry { return s.rooms }

// Close stops every room goroutine.
func (s *Server) Close() { s.cancel() }

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()
	httpServer := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	if s.opts.Advertise {
		if port, err := listenerPort(ln); err != nil {
			s.log.Warnw("not advertising", "error", err)
		} else if md, err := network.Advertise(port); err != nil {
			s.log.Warnw("mDNS advertise failed", "error", err)
		} else {
			defer md.Shutdown()
			s.log.Infow("advertising", "service", network.ServiceType, "port", port)
		}
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infow("relay listening", "addr", ln.Addr().String())
		errc <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	}
}

func listenerPort(ln net.Listener) (int, error) {
	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// hijacked connections report their lifetime, not a request duration
			s.log.Debugw("upgrade", "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
			return
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.Infow("handled", "method", r.Method, "url", r.URL.String(), "duration", m.Duration, "status", m.Code)
	})
}

func (s *Server) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	room := s.rooms.Resolve(strings.TrimSpace(req.RoomID))
	info, err := s.roomInfo(r.Context(), room)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, protocol.RoomResponse{Room: &info})
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["roomId"]
	room, ok := s.rooms.Get(id)
	if !ok {
		writeJSON(w, http.StatusOK, protocol.RoomResponse{})
		return
	}
	info, err := s.roomInfo(r.Context(), room)
	if err != nil {
		writeJSON(w, http.StatusOK, protocol.RoomResponse{})
		return
	}
	writeJSON(w, http.StatusOK, protocol.RoomResponse{Room: &info})
}

func (s *Server) roomInfo(ctx context.Context, room *Room) (protocol.RoomInfo, error) {
	reply := make(chan protocol.RoomInfo, 1)
	if !room.Post(Info{Reply: reply}) {
		return protocol.RoomInfo{}, fmt.Errorf("room %s is closing", room.ID)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	select {
	case info := <-reply:
		return info, nil
	case <-ctx.Done():
		return protocol.RoomInfo{}, fmt.Errorf("room %s: %w", room.ID, ctx.Err())
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugw("upgrade failed", "error", err)
		return
	}
	id := uuid.NewString()
	if name == "" {
		name = "User-" + id[:4]
	}
	c := NewClientConn(id, name, ws, s.log)
	if frame, err := protocol.Encode(protocol.EventWelcome, protocol.Welcome{SocketID: id}); err == nil {
		_ = c.Send(frame)
	}
	s.log.Infow("client connected", "socket", id, "name", name, "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump(s.rooms)
}

type roomMetrics struct {
	RoomID    string           `json:"roomId"`
	CreatedAt time.Time        `json:"createdAt"`
	Metrics   map[string]int64 `json:"metrics"`
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	want := r.URL.Query().Get("room")
	out := make([]roomMetrics, 0)
	for _, room := range s.rooms.Rooms() {
		if want != "" && room.ID != want {
			continue
		}
		out = append(out, roomMetrics{RoomID: room.ID, CreatedAt: room.CreatedAt, Metrics: room.Metrics.Snapshot()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
