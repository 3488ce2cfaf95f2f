package relay

import (
	"context"
	"crypto/rand"
	"math/big"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"LiveBoard/internal/protocol"
)

const (
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength = 6

	// DefaultRoomIdle is how long a room nobody has connected to is kept.
	DefaultRoomIdle = 2 * time.Minute
)

type entry struct {
	room *Room
	refs int
	// idle runs while refs is zero
	idle *time.Timer
}

// Registry holds the live rooms by code. A room is removed when the last
// connection holding a reference releases it. A room created through the
// HTTP API that no connection takes within the idle period is removed too.
type Registry struct {
	ctx  context.Context
	log  *zap.SugaredLogger
	idle time.Duration

	mu    sync.Mutex
	rooms map[string]*entry
}

func NewRegistry(ctx context.Context, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{ctx: ctx, log: log.Named("rooms"), idle: DefaultRoomIdle, rooms: make(map[string]*entry)}
}

// Resolve picks the room a join request lands in: the requested room when
// the code is canonical, a new room otherwise.
func (g *Registry) Resolve(requested string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	if protocol.ValidRoomID(requested) {
		return g.ensureLocked(requested)
	}
	for {
		code := generateCode(codeLength)
		if _, taken := g.rooms[code]; taken {
			continue
		}
		return g.ensureLocked(code)
	}
}

// Get returns a live room without creating it.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.rooms[code]
	if !ok {
		return nil, false
	}
	return e.room, true
}

// Acquire takes a reference on the room with code, creating it if needed.
// Every Acquire must be paired with Release.
func (g *Registry) Acquire(code string) (*Room, bool) {
	if !protocol.ValidRoomID(code) {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.ensureLocked(code)
	e := g.rooms[code]
	e.refs++
	e.stopIdle()
	return r, true
}

// Release drops a reference and removes the room once nobody holds it.
func (g *Registry) Release(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.rooms[r.ID]
	if !ok || e.room != r {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	g.removeLocked(e, "released")
}

// expire removes r if it is still unreferenced when its idle timer fires.
func (g *Registry) expire(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.rooms[r.ID]
	if !ok || e.room != r || e.refs > 0 {
		return
	}
	g.removeLocked(e, "idle")
}

func (g *Registry) removeLocked(e *entry, reason string) {
	e.stopIdle()
	delete(g.rooms, e.room.ID)
	e.room.Stop()
	g.log.Infow("room removed", "room", e.room.ID, "reason", reason)
}

// ensureLocked returns the room with code, creating it if needed. An
// unreferenced room gets a fresh idle period on every call.
func (g *Registry) ensureLocked(code string) *Room {
	if e, ok := g.rooms[code]; ok {
		if e.refs == 0 && e.idle != nil {
			e.idle.Reset(g.idle)
		}
		return e.room
	}
	r := NewRoom(code, g.log)
	e := &entry{room: r}
	e.idle = time.AfterFunc(g.idle, func() { g.expire(r) })
	g.rooms[code] = e
	go r.Run(g.ctx)
	g.log.Infow("room created", "room", code)
	return r
}

func (e *entry) stopIdle() {
	if e.idle != nil {
		e.idle.Stop()
		e.idle = nil
	}
}

// Rooms lists the live rooms in code order.
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, e := range g.rooms {
		out = append(out, e.room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = codeChars[0]
			continue
		}
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
