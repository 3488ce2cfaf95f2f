package relay

import (
	"sync/atomic"
)

// RoomMetrics counts what a room did. Written by the room goroutine, read by
// the /metrics handler.
type RoomMetrics struct {
	Members          int64
	Joins            int64
	Leaves           int64
	EventsRelayed    int64
	StrokesCommitted int64
	Clears           int64
	SendsDropped     int64
}

func (m *RoomMetrics) setMembers(n int) { atomic.StoreInt64(&m.Members, int64(n)) }
func (m *RoomMetrics) incJoins() { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) incLeaves() { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) incRelayed() { atomic.AddInt64(&m.EventsRelayed, 1) }
func (m *RoomMetrics) incStrokes() { atomic.AddInt64(&m.StrokesCommitted, 1) }
func (m *RoomMetrics) incClears() { atomic.AddInt64(&m.Clears, 1) }
func (m *RoomMetrics) incSendsDropped() { atomic.AddInt64(&m.SendsDropped, 1) }

// Snapshot returns a read-only copy for HTTP output.
func (m *RoomMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"members":           atomic.LoadInt64(&m.Members),
		"joins":             atomic.LoadInt64(&m.Joins),
		"leaves":            atomic.LoadInt64(&m.Leaves),
		"events_relayed":    atomic.LoadInt64(&m.EventsRelayed),
		"strokes_committed": atomic.LoadInt64(&m.StrokesCommitted),
		"clears":            atomic.LoadInt64(&m.Clears),
		"sends_dropped":     atomic.LoadInt64(&m.SendsDropped),
	}
}
