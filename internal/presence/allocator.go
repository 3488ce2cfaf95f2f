// Package presence tracks who is in the room: their cursors, names and the
// color each peer is drawn with.
package presence

import (
	"sort"
)

// Palette is the pool cursor colors are drawn from.
var Palette = []string{
	"#FF5733", "#33FF57", "#3357FF", "#FF33A1", "#A133FF",
	"#33FFF3", "#FF3333", "#33FF33", "#3333FF", "#FF33FF",
}

// Fallback is handed out once the pool is empty.
const Fallback = "#666666"

// Allocator maps live peer ids to colors. A color returns to the back of the
// pool when its holder leaves, so it is reused only after the colors that
// were free before it. Not safe for concurrent use; the board owns it.
type Allocator struct {
	available []string
	assigned  map[string]string
}

func NewAllocator() *Allocator {
	return NewAllocatorWithPalette(Palette)
}

func NewAllocatorWithPalette(palette []string) *Allocator {
	return &Allocator{
		available: append([]string(nil), palette...),
		assigned:  make(map[string]string),
	}
}

// Sync brings the assignment in line with the set of live ids.
func (a *Allocator) Sync(live []string) {
	present := make(map[string]struct{}, len(live))
	for _, id := range live {
		present[id] = struct{}{}
	}

	gone := make([]string, 0)
	for id := range a.assigned {
		if _, ok := present[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		a.release(id)
	}

	fresh := make([]string, 0)
	for id := range present {
		if _, ok := a.assigned[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	sort.Strings(fresh)
	for _, id := range fresh {
		a.assign(id)
	}
}

// Add assigns a color to id if it has none yet.
func (a *Allocator) Add(id string) string {
	if c, ok := a.assigned[id]; ok {
		return c
	}
	return a.assign(id)
}

func (a *Allocator) Remove(id string) {
	if _, ok := a.assigned[id]; ok {
		a.release(id)
	}
}

// Color returns the color of id, or Fallback when id holds none.
func (a *Allocator) Color(id string) string {
	if c, ok := a.assigned[id]; ok {
		return c
	}
	return Fallback
}

func (a *Allocator) Len() int { return len(a.assigned) }

func (a *Allocator) assign(id string) string {
	c := Fallback
	if len(a.available) > 0 {
		c = a.available[0]
		a.available = a.available[1:]
	}
	a.assigned[id] = c
	return c
}

func (a *Allocator) release(id string) {
	c := a.assigned[id]
	delete(a.assigned, id)
	if c == Fallback {
		return
	}
	a.available = append(a.available, c)
}
