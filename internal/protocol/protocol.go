package protocol

import (
	"regexp"
	"time"

	"LiveBoard/internal/state"
)

// Event names shared by the client engine and the relay.
const (
	EventWelcome      = "welcome"
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventUserCount    = "user-count"
	EventActiveUsers  = "active-users"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventCursorMove   = "cursor-move"
	EventCursorUpdate = "cursor-update"
	EventLoadDrawing  = "load-drawing"
	EventDrawStart    = "draw-start"
	EventDrawMove     = "draw-move"
	EventDrawEnd      = "draw-end"
	EventClearCanvas  = "clear-canvas"
)

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidRoomID reports whether id is a canonical room code.
func ValidRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

// Welcome tells a fresh connection its transport-assigned id.
type Welcome struct {
	SocketID string `json:"socketId"`
}

type RoomRef struct {
	RoomID string `json:"roomId"`
}

type ActiveUser struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
}

// ActiveUsers is the full presence snapshot keyed by peer id.
type ActiveUsers map[string]ActiveUser

type UserCount int

type UserJoined struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

type UserLeft string

type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorUpdate struct {
	SocketID string  `json:"socketId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Name     string  `json:"name"`
}

type LoadDrawing []state.Command

// DrawPoint is the payload of draw-start and draw-move. SocketID is only set
// on events delivered to peers.
type DrawPoint struct {
	SocketID string  `json:"socketId,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
}

func (p DrawPoint) Tagged() state.TaggedPoint {
	return state.TaggedPoint{Point: state.Point{X: p.X, Y: p.Y}, Color: p.Color, Width: p.Width}
}

type DrawStart DrawPoint

type DrawMove DrawPoint

type DrawEnd struct {
	SocketID string        `json:"socketId,omitempty"`
	Path     []state.Point `json:"path"`
	Color    string        `json:"color"`
	Width    float64       `json:"width"`
}

func (e DrawEnd) Stroke() state.Stroke {
	return state.Stroke{Path: e.Path, Color: e.Color, Width: e.Width}
}

type ClearCanvas struct{}

// RoomInfo is the room record of the HTTP room API.
type RoomInfo struct {
	RoomID    string    `json:"roomId"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}

type JoinRequest struct {
	RoomID string `json:"roomId"`
}

// RoomResponse wraps both room endpoints. Room is null for unknown ids.
type RoomResponse struct {
	Room *RoomInfo `json:"room"`
}
