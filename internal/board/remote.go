package board

import (
	"fmt"

	"LiveBoard/internal/presence"
	"LiveBoard/internal/protocol"
	"LiveBoard/internal/state"
)

// handleRemote applies an inbound event. It reports false for types it does
// not know.
func (b *Board) handleRemote(ev any) bool {
	switch e := ev.(type) {
	case protocol.Welcome:
		b.self = e.SocketID
		b.roster.SetSelf(e.SocketID)
	case protocol.LoadDrawing:
		b.history.Replace([]state.Command(e))
		b.redraw()
	case protocol.ClearCanvas:
		b.history.Reset()
		b.redraw()
	case protocol.DrawStart:
		if b.own(e.SocketID) {
			return true
		}
		b.remote.Begin(e.SocketID, protocol.DrawPoint(e).Tagged())
	case protocol.DrawMove:
		if b.own(e.SocketID) {
			return true
		}
		pt := protocol.DrawPoint(e).Tagged()
		prev, ok := b.remote.Extend(e.SocketID, pt)
		if !ok {
			b.log.Debugw("draw-move without open path", "peer", e.SocketID)
			return true
		}
		if err := b.surface.DrawSegment(prev.Point, pt.Point, pt.Color, pt.Width); err != nil {
			b.log.Warnw("draw segment", "peer", e.SocketID, "error", err)
		}
	case protocol.DrawEnd:
		if b.own(e.SocketID) {
			return true
		}
		b.history.AppendStroke(e.Stroke())
		b.remote.End(e.SocketID)
		b.redraw()
	case protocol.ActiveUsers:
		users := make(map[string]presence.User, len(e))
		for id, u := range e {
			users[id] = presence.User{X: u.X, Y: u.Y, Name: u.Name}
		}
		b.roster.Replace(users)
	case protocol.UserJoined:
		b.roster.Join(e.SocketID, e.Name)
	case protocol.UserLeft:
		id := string(e)
		b.roster.Leave(id)
		if b.remote.End(id) {
			b.log.Debugw("discarded open path of departed peer", "peer", id)
			b.redraw()
		}
	case protocol.UserCount:
		b.roster.SetCount(int(e))
	case protocol.CursorUpdate:
		if b.own(e.SocketID) {
			return true
		}
		b.roster.Move(e.SocketID, e.X, e.Y, e.Name)
	default:
		return false
	}
	return true
}

func (b *Board) own(id string) bool {
	return id != "" && id == b.self
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
