package presence

import (
	"sort"
)

type User struct {
	X    float64
	Y    float64
	Name string
}

// Peer is a user as shown to the presentation layer.
type Peer struct {
	ID    string
	Name  string
	X     float64
	Y     float64
	Color string
	Self  bool
}

// Roster is the active-user table of one room session together with its
// color allocator. Discard it on leaving the room.
type Roster struct {
	self   string
	users  map[string]User
	count  int
	colors *Allocator
}

func NewRoster() *Roster {
	return &Roster{users: make(map[string]User), colors: NewAllocator()}
}

func (r *Roster) SetSelf(id string) { r.self = id }

// Replace installs a full snapshot.
func (r *Roster) Replace(users map[string]User) {
	r.users = make(map[string]User, len(users))
	for id, u := range users {
		r.users[id] = u
	}
	r.sync()
}

func (r *Roster) Join(id, name string) {
	u := r.users[id]
	u.Name = name
	r.users[id] = u
	r.colors.Add(id)
}

func (r *Roster) Leave(id string) {
	delete(r.users, id)
	r.colors.Remove(id)
}

// Move records a cursor position. Unknown ids are added, since a cursor
// update can arrive before the snapshot that lists its sender.
func (r *Roster) Move(id string, x, y float64, name string) {
	u := r.users[id]
	u.X, u.Y = x, y
	if name != "" {
		u.Name = name
	}
	r.users[id] = u
	r.colors.Add(id)
}

func (r *Roster) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	r.count = n
}

// Count is the server-reported head count, or the table size when the
// server has not reported one yet.
func (r *Roster) Count() int {
	if r.count == 0 {
		return len(r.users)
	}
	return r.count
}

// Color is the cursor color of id, or Fallback for unknown ids.
func (r *Roster) Color(id string) string { return r.colors.Color(id) }

// Peers lists the table in id order.
func (r *Roster) Peers() []Peer {
	out := make([]Peer, 0, len(r.users))
	for id, u := range r.users {
		out = append(out, Peer{
			ID:    id,
			Name:  u.Name,
			X:     u.X,
			Y:     u.Y,
			Color: r.Color(id),
			Self:  id == r.self,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Roster) sync() {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	r.colors.Sync(ids)
}
