package ui

import (
	"fmt"
	"strings"

	"LiveBoard/internal/board"
	"LiveBoard/internal/session"
)

// StatusText is the one-line connection summary shown under the board.
func StatusText(st session.State, room string, v board.View) string {
	switch st {
	case session.Idle:
		return "Ready"
	case session.Joining:
		return "Joining room..."
	case session.Failed:
		return "Could not join the room"
	}
	if !v.Connected {
		// the board has not reported in since the join
		if v.Self == "" && v.Err == nil {
			return fmt.Sprintf("Connecting to %s...", room)
		}
		if v.Err != nil {
			return fmt.Sprintf("Disconnected from %s: %v", room, v.Err)
		}
		return fmt.Sprintf("Disconnected from %s", room)
	}
	return fmt.Sprintf("Room %s | %d online | %s %.0f", room, v.Count, v.Tool, v.Width)
}

// PresenceText lists the connected users, the local user first.
func PresenceText(v board.View) string {
	if len(v.Peers) == 0 {
		return ""
	}
	names := make([]string, 0, len(v.Peers))
	for _, p := range v.Peers {
		name := p.Name
		if name == "" {
			name = shortID(p.ID)
		}
		if p.Self {
			names = append([]string{name + " (you)"}, names...)
			continue
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
